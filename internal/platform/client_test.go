package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestGetClassifiesProviderErrors(t *testing.T) {
	cases := []struct {
		name string
		code int
		want func(error) bool
	}{
		{"rate limit code 4", 4, func(err error) bool {
			var rl *RateLimitedError
			return errors.As(err, &rl)
		}},
		{"rate limit code 613", 613, func(err error) bool {
			var rl *RateLimitedError
			return errors.As(err, &rl)
		}},
		{"token expired code 190", 190, func(err error) bool {
			var te *TokenExpiredError
			return errors.As(err, &te)
		}},
		{"generic code 100", 100, func(err error) bool {
			var api *APIError
			return errors.As(err, &api)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprintf(w, `{"error":{"message":"denied","type":"OAuthException","code":%d}}`, tc.code)
			}))
			defer server.Close()

			client := NewClientWith(server.URL, server.Client())
			var out struct{}
			err := client.Get(context.Background(), "tok", "me/adaccounts", url.Values{}, &out)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !tc.want(err) {
				t.Fatalf("wrong error class: %T %v", err, err)
			}
		})
	}
}

func TestGetUndecodableErrorBodyStillFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>gateway timeout</html>", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClientWith(server.URL, server.Client())
	var out struct{}
	err := client.Get(context.Background(), "tok", "me/adaccounts", url.Values{}, &out)

	var api *APIError
	if !errors.As(err, &api) {
		t.Fatalf("expected APIError, got %T %v", err, err)
	}
	if api.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status 502 carried, got %d", api.StatusCode)
	}
}

func TestGetAttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := NewClientWith(server.URL, server.Client())
	if _, err := client.GetCampaigns(context.Background(), "secret-token", "act_123"); err != nil {
		t.Fatalf("GetCampaigns: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("expected bearer auth header, got %q", gotAuth)
	}
}

func TestFetchAllPagesFollowsCursor(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		requests = append(requests, after)
		w.Header().Set("Content-Type", "application/json")
		switch after {
		case "":
			fmt.Fprint(w, `{"data":[{"id":"c1"},{"id":"c2"}],"paging":{"cursors":{"after":"CURSOR1"},"next":"https://next"}}`)
		case "CURSOR1":
			fmt.Fprint(w, `{"data":[{"id":"c3"}],"paging":{"cursors":{"after":""}}}`)
		default:
			t.Errorf("unexpected cursor %q", after)
		}
	}))
	defer server.Close()

	client := NewClientWith(server.URL, server.Client())
	campaigns, err := client.GetCampaigns(context.Background(), "tok", "act_123")
	if err != nil {
		t.Fatalf("GetCampaigns: %v", err)
	}
	if len(campaigns) != 3 {
		t.Fatalf("expected 3 campaigns across pages, got %d", len(campaigns))
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 page requests, got %d (%v)", len(requests), requests)
	}
}

func TestFetchAllPagesCapsPageCount(t *testing.T) {
	pages := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		// Always advertise another page.
		fmt.Fprintf(w, `{"data":[{"id":"c%d"}],"paging":{"cursors":{"after":"CURSOR%d"},"next":"https://next"}}`, pages, pages)
	}))
	defer server.Close()

	client := NewClientWith(server.URL, server.Client())
	items, err := fetchAllPages[CampaignData](context.Background(), client, "tok", "act_123/campaigns", url.Values{}, 5)
	if err != nil {
		t.Fatalf("fetchAllPages: %v", err)
	}
	if pages != 5 {
		t.Fatalf("expected walk capped at 5 pages, made %d requests", pages)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}
}

func TestFetchAllPagesReturnsPartialResultsOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("after") == "" {
			fmt.Fprint(w, `{"data":[{"id":"c1"}],"paging":{"cursors":{"after":"CURSOR1"},"next":"https://next"}}`)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"too many calls","code":17}}`)
	}))
	defer server.Close()

	client := NewClientWith(server.URL, server.Client())
	items, err := fetchAllPages[CampaignData](context.Background(), client, "tok", "act_123/campaigns", url.Values{}, 10)
	if err == nil {
		t.Fatal("expected mid-walk error")
	}
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %T %v", err, err)
	}
	if len(items) != 1 || items[0].ID != "c1" {
		t.Fatalf("expected the already-collected page to survive, got %v", items)
	}
}

func TestGetInsightsRequestShape(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"data":[{"ad_id":"ad_1","date_start":"2023-01-01","date_stop":"2023-01-01","impressions":"100","spend":"10.50"}]}`))
	}))
	defer server.Close()

	client := NewClientWith(server.URL, server.Client())
	fields := []string{"ad_id", "date_start", "impressions", "spend"}
	rows, err := client.GetInsights(context.Background(), "tok", "act_123", fields, "2023-01-01", "2023-01-01")
	if err != nil {
		t.Fatalf("GetInsights: %v", err)
	}

	if gotQuery.Get("level") != "ad" {
		t.Fatalf("expected level=ad, got %q", gotQuery.Get("level"))
	}
	if gotQuery.Get("time_increment") != "1" {
		t.Fatalf("expected daily increment, got %q", gotQuery.Get("time_increment"))
	}
	var timeRange map[string]string
	if err := json.Unmarshal([]byte(gotQuery.Get("time_range")), &timeRange); err != nil {
		t.Fatalf("time_range not JSON: %v", err)
	}
	if timeRange["since"] != "2023-01-01" || timeRange["until"] != "2023-01-01" {
		t.Fatalf("unexpected time_range: %v", timeRange)
	}
	if gotQuery.Get("fields") != "ad_id,date_start,impressions,spend" {
		t.Fatalf("field projection not honored: %q", gotQuery.Get("fields"))
	}

	if len(rows) != 1 || rows[0].Spend != "10.50" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

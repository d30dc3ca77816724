package meta

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestHandleLoginRedirectsWithState(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://localhost:8090/auth/meta/login?user=user1", nil)
	rec := httptest.NewRecorder()
	HandleLogin(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}

	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect location: %v", err)
	}
	state := location.Query().Get("state")
	if state == "" {
		t.Fatal("consent URL missing CSRF state")
	}
	if got := location.Query().Get("redirect_uri"); got != "http://localhost:8090/auth/meta/callback" {
		t.Fatalf("unexpected redirect_uri: %q", got)
	}

	cookies := rec.Result().Cookies()
	var stateValue, userValue string
	for _, c := range cookies {
		switch c.Name {
		case stateCookie:
			stateValue = c.Value
		case userCookie:
			userValue = c.Value
		}
	}
	if stateValue != state {
		t.Fatalf("state cookie %q does not match URL state %q", stateValue, state)
	}
	if userValue != "user1" {
		t.Fatalf("user cookie not set, got %q", userValue)
	}
}

func TestHandleCallbackRejectsStateMismatch(t *testing.T) {
	handler := HandleCallback(nil, nil)

	// No state cookie at all.
	req := httptest.NewRequest(http.MethodGet, "/auth/meta/callback?state=abc&code=xyz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without cookie, got %d", rec.Code)
	}

	// Cookie present but different value.
	req = httptest.NewRequest(http.MethodGet, "/auth/meta/callback?state=abc&code=xyz", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "other"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on mismatch, got %d", rec.Code)
	}
}

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the provider's Graph API endpoint.
const DefaultBaseURL = "https://graph.facebook.com/v19.0"

// DefaultMaxPages bounds pagination walks so a misconfigured filter
// cannot crawl indefinitely.
const DefaultMaxPages = 25

// Client is a thin authenticated wrapper over the provider's Graph API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client against the production endpoint.
func NewClient() *Client {
	return NewClientWith(DefaultBaseURL, &http.Client{Timeout: 60 * time.Second})
}

// NewClientWith creates a client with a custom endpoint and HTTP client,
// used by tests and the connectivity probe.
func NewClientWith(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Get performs an authenticated GET and decodes the response into out.
// Non-2xx responses are classified into RateLimitedError,
// TokenExpiredError or APIError from the provider's error body.
func (c *Client) Get(ctx context.Context, accessToken, path string, params url.Values, out interface{}) error {
	body, err := c.getRaw(ctx, accessToken, c.buildURL(path, params))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) buildURL(path string, params url.Values) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/") + "?" + params.Encode()
}

func (c *Client) getRaw(ctx context.Context, accessToken, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyError(resp.StatusCode, body)
	}
	return body, nil
}

// fetchAllPages follows the opaque "after" cursor up to maxPages.
// A failure mid-walk returns the items already collected together with
// the error so callers can decide whether partial data is usable.
func fetchAllPages[T any](ctx context.Context, c *Client, accessToken, path string, params url.Values, maxPages int) ([]T, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var items []T
	after := ""
	for page := 0; page < maxPages; page++ {
		pageParams := url.Values{}
		for k, v := range params {
			pageParams[k] = v
		}
		if after != "" {
			pageParams.Set("after", after)
		}

		var envelope listEnvelope[T]
		if err := c.Get(ctx, accessToken, path, pageParams, &envelope); err != nil {
			return items, err
		}
		items = append(items, envelope.Data...)

		if envelope.Paging.Next == "" || envelope.Paging.Cursors.After == "" {
			break
		}
		after = envelope.Paging.Cursors.After
	}
	return items, nil
}

// GetAdAccounts lists the ad accounts visible to the token's user.
func (c *Client) GetAdAccounts(ctx context.Context, accessToken string) ([]AdAccountData, error) {
	params := url.Values{}
	params.Set("fields", "id,account_id,name,currency,timezone_name,account_status")
	return fetchAllPages[AdAccountData](ctx, c, accessToken, "me/adaccounts", params, DefaultMaxPages)
}

// GetCampaigns lists campaigns for an account.
func (c *Client) GetCampaigns(ctx context.Context, accessToken, accountID string) ([]CampaignData, error) {
	params := url.Values{}
	params.Set("fields", "id,name,status,objective,updated_time")
	return fetchAllPages[CampaignData](ctx, c, accessToken, accountID+"/campaigns", params, DefaultMaxPages)
}

// GetAdSets lists ad sets for an account.
func (c *Client) GetAdSets(ctx context.Context, accessToken, accountID string) ([]AdSetData, error) {
	params := url.Values{}
	params.Set("fields", "id,campaign_id,name,status,daily_budget,optimization_goal,updated_time")
	return fetchAllPages[AdSetData](ctx, c, accessToken, accountID+"/adsets", params, DefaultMaxPages)
}

// GetAds lists ads for an account, including the referenced creative id.
func (c *Client) GetAds(ctx context.Context, accessToken, accountID string) ([]AdData, error) {
	params := url.Values{}
	params.Set("fields", "id,adset_id,name,status,creative{id},updated_time")
	return fetchAllPages[AdData](ctx, c, accessToken, accountID+"/ads", params, DefaultMaxPages)
}

// GetCreativeDetails fetches the denormalized metadata of one creative.
func (c *Client) GetCreativeDetails(ctx context.Context, accessToken, creativeID string) (*CreativeData, error) {
	params := url.Values{}
	params.Set("fields", "id,object_type,thumbnail_url,title,body,call_to_action_type,object_url")

	var creative CreativeData
	if err := c.Get(ctx, accessToken, creativeID, params, &creative); err != nil {
		return nil, err
	}
	return &creative, nil
}

// GetInsights fetches daily metrics at the ad scope over [dateStart,
// dateStop]. The field list is caller-supplied so consent-based
// redaction happens at the request level, not just at storage time.
func (c *Client) GetInsights(ctx context.Context, accessToken, accountID string, fields []string, dateStart, dateStop string) ([]InsightRow, error) {
	timeRange, err := json.Marshal(map[string]string{"since": dateStart, "until": dateStop})
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("fields", strings.Join(fields, ","))
	params.Set("level", "ad")
	params.Set("time_increment", "1")
	params.Set("time_range", string(timeRange))
	return fetchAllPages[InsightRow](ctx, c, accessToken, accountID+"/insights", params, DefaultMaxPages)
}

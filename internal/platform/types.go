package platform

// Tagged response structs per endpoint. Decoding fails fast on shape
// mismatch instead of propagating loosely-typed maps.

// Paging is the provider's cursor envelope.
type Paging struct {
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
	Next string `json:"next"`
}

// listEnvelope is the provider's standard list response.
type listEnvelope[T any] struct {
	Data   []T    `json:"data"`
	Paging Paging `json:"paging"`
}

// AdAccountData is one entry from the ad-account listing.
type AdAccountData struct {
	ID            string `json:"id"`         // "act_<account_id>"
	AccountID     string `json:"account_id"` // numeric id without prefix
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	TimezoneName  string `json:"timezone_name"`
	AccountStatus int    `json:"account_status"`
}

// CampaignData is one entry from the campaign listing.
type CampaignData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Objective   string `json:"objective"`
	UpdatedTime string `json:"updated_time"`
}

// AdSetData is one entry from the ad-set listing.
type AdSetData struct {
	ID               string `json:"id"`
	CampaignID       string `json:"campaign_id"`
	Name             string `json:"name"`
	Status           string `json:"status"`
	DailyBudget      string `json:"daily_budget"`
	OptimizationGoal string `json:"optimization_goal"`
	UpdatedTime      string `json:"updated_time"`
}

// AdData is one entry from the ad listing.
type AdData struct {
	ID       string `json:"id"`
	AdSetID  string `json:"adset_id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Creative struct {
		ID string `json:"id"`
	} `json:"creative"`
	UpdatedTime string `json:"updated_time"`
}

// CreativeData is the detail response for a single creative.
type CreativeData struct {
	ID               string `json:"id"`
	ObjectType       string `json:"object_type"`
	ThumbnailURL     string `json:"thumbnail_url"`
	Title            string `json:"title"`
	Body             string `json:"body"`
	CallToActionType string `json:"call_to_action_type"`
	ObjectURL        string `json:"object_url"`
}

// ActionData is a conversion-action counter inside an insight row.
type ActionData struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// InsightRow is one daily metrics entry. The provider serializes all
// numbers as strings; spend/cpc/cpm and actions appear only when the
// caller requested those fields.
type InsightRow struct {
	AdID        string       `json:"ad_id"`
	DateStart   string       `json:"date_start"`
	DateStop    string       `json:"date_stop"`
	Impressions string       `json:"impressions"`
	Reach       string       `json:"reach"`
	Frequency   string       `json:"frequency"`
	Clicks      string       `json:"clicks"`
	CTR         string       `json:"ctr"`
	Spend       string       `json:"spend"`
	CPC         string       `json:"cpc"`
	CPM         string       `json:"cpm"`
	Actions     []ActionData `json:"actions"`
}

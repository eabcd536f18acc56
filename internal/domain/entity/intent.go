package entity

type IntentType string

const (
	IntentSearch     IntentType = "search"
	IntentPriceCheck IntentType = "price_check"
	IntentPurchase   IntentType = "purchase"
	IntentTrack      IntentType = "track"
	IntentSummary    IntentType = "summary"
	IntentGeneral    IntentType = "general"
)

type Intent struct {
	Type     IntentType `json:"intent"`
	Product  string     `json:"product,omitempty"`
	OrderID  string     `json:"order_id,omitempty"`
	StoreURL string     `json:"store_url,omitempty"`
	Query    string     `json:"-"`
}

type ChatReply struct {
	Intent   IntentType `json:"intent"`
	Response string     `json:"response"`
	Data     any        `json:"data,omitempty"`
}

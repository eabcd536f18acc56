package entity

import "time"

type SearchRecord struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	Timestamp    time.Time `json:"timestamp"`
	ResultsCount int       `json:"results_count"`
}

type PurchaseRecord struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Amount    *float64  `json:"amount,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
}

type ShoppingSummary struct {
	SearchesPerformed int             `json:"searches_performed"`
	PurchasesMade     int             `json:"purchases_made"`
	TotalSpent        float64         `json:"total_spent"`
	LastSearch        *SearchRecord   `json:"last_search"`
	LastPurchase      *PurchaseRecord `json:"last_purchase"`
}

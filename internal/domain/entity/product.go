package entity

import "time"

// SearchProduct is one entry of a product search.
type SearchProduct struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Rating      *float64 `json:"rating,omitempty"`
	InStock     bool     `json:"in_stock"`
}

type SearchResult struct {
	Products     []SearchProduct `json:"products"`
	SearchTime   time.Duration   `json:"search_time"`
	TotalResults int             `json:"total_results"`
}

// Product is a per-store offer produced by price comparison.
// Price is the store total including shipping.
type Product struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	URL         string  `json:"url"`
	Description string  `json:"description"`
	InStock     bool    `json:"in_stock"`
}

type UserInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

type PurchaseResult struct {
	Success      bool     `json:"success"`
	OrderID      string   `json:"order_id,omitempty"`
	TotalPaid    *float64 `json:"total_paid,omitempty"`
	DeliveryDate string   `json:"delivery_date,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

type TrackingInfo struct {
	Status            string         `json:"status,omitempty"`
	Location          string         `json:"location,omitempty"`
	EstimatedDelivery string         `json:"estimated_delivery,omitempty"`
	TrackingNumber    string         `json:"tracking_number,omitempty"`
	Details           map[string]any `json:"details,omitempty"`
	Error             string         `json:"error,omitempty"`
}

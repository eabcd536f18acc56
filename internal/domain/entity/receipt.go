package entity

import "time"

// Receipt is the local evidence kept for a completed purchase.
type Receipt struct {
	OrderID      string    `json:"order_id"`
	TaskID       string    `json:"task_id"`
	ProductURL   string    `json:"product_url"`
	TotalPaid    *float64  `json:"total_paid,omitempty"`
	DeliveryDate string    `json:"delivery_date,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Image        []byte    `json:"-"`
}

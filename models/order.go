package models

import "time"

// Order statuses. Transitions are monotonic along
// initiated -> pending -> {paid | failed}; cancelled is reachable only
// from initiated or pending.
const (
	OrderStatusInitiated = "initiated"
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusFailed    = "failed"
	OrderStatusCancelled = "cancelled"
)

// Order is the billable aggregate a guest pays for. Total equals the sum
// of its line prices at creation time and is never recomputed.
type Order struct {
	ID          string    `bson:"id" json:"id"`
	GuestID     string    `bson:"guest_id" json:"guest_id"`
	PropertyID  string    `bson:"property_id" json:"property_id"`
	Total       float64   `bson:"total" json:"total"`
	Status      string    `bson:"status" json:"status"`
	CheckoutURL string    `bson:"checkout_url,omitempty" json:"checkout_url,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// OrderLine is a single billable item on an order. Immutable once
// inserted; the line set is fixed before the order goes pending.
type OrderLine struct {
	OrderID     string  `bson:"order_id" json:"order_id"`
	ReferenceID string  `bson:"reference_id" json:"reference_id"` // booked resource or meal item
	Quantity    int     `bson:"quantity" json:"quantity"`
	Price       float64 `bson:"price" json:"price"` // unit price at order time
}

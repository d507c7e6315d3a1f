package models

import "time"

// Booking links a resource-type order to the slot it reserved. Pure
// merchandise orders (dining) have no booking.
type Booking struct {
	ID         string    `bson:"id" json:"id"`
	OrderID    string    `bson:"order_id" json:"order_id"`
	ResourceID string    `bson:"resource_id" json:"resource_id"`
	SlotID     string    `bson:"slot_id" json:"slot_id"`
	StartTS    time.Time `bson:"start_ts" json:"start_ts"`
	EndTS      time.Time `bson:"end_ts" json:"end_ts"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

package models

import "time"

// Slot statuses. For a given resource no two held/booked slots may
// overlap in time; only open slots are claimable.
const (
	SlotStatusOpen   = "open"
	SlotStatusHeld   = "held"
	SlotStatusBooked = "booked"
)

// AvailabilitySlot is a discrete bookable time interval on a resource.
// The range is half-open: [StartTS, EndTS).
type AvailabilitySlot struct {
	ID         string     `bson:"id" json:"id"`
	ResourceID string     `bson:"resource_id" json:"resource_id"`
	StartTS    time.Time  `bson:"start_ts" json:"start_ts"`
	EndTS      time.Time  `bson:"end_ts" json:"end_ts"`
	Status     string     `bson:"status" json:"status"`
	HeldUntil  *time.Time `bson:"held_until,omitempty" json:"held_until,omitempty"` // set while Status is "held"
}

package models

// Property is a managed venue (hotel, restaurant, event space).
// Descriptive fields are owned by property-management tooling; the
// reservation core only reads them.
type Property struct {
	ID        string `bson:"id" json:"id"`
	Name      string `bson:"name" json:"name"`
	ManagerID string `bson:"manager_id" json:"manager_id"`
}

// Resource is a bookable unit (room, table, event slot) belonging to
// exactly one property and one service category.
type Resource struct {
	ID         string  `bson:"id" json:"id"`
	PropertyID string  `bson:"property_id" json:"property_id"`
	Service    string  `bson:"service" json:"service"` // e.g. "rooms", "events", "dining"
	Name       string  `bson:"name" json:"name"`
	Price      float64 `bson:"price" json:"price"` // price per reservation
}

package availabilityRepo

import (
	"context"
	"errors"
	"time"

	"innkeeper/models"
)

// ErrSlotNotFound is returned when no slot matches the lookup.
var ErrSlotNotFound = errors.New("availability slot not found")

// ErrSlotConflict is returned when a conditional status update matched no
// document, i.e. a competing claim won the race or the slot was not in the
// expected status.
var ErrSlotConflict = errors.New("availability slot status conflict")

// SlotRepository manages availability slots. All status transitions are
// conditional writes keyed on the slot's prior status.
type SlotRepository interface {
	GetByID(ctx context.Context, slotID string) (*models.AvailabilitySlot, error)
	// FindByRange returns the slot on the resource whose range matches
	// [start, end) exactly, whatever its status.
	FindByRange(ctx context.Context, resourceID string, start, end time.Time) (*models.AvailabilitySlot, error)
	// FindEarliestOpen returns the open slot with the smallest start_ts
	// strictly after the given instant, ties broken by slot id.
	FindEarliestOpen(ctx context.Context, resourceID string, after time.Time) (*models.AvailabilitySlot, error)
	ListOpen(ctx context.Context, resourceID string, after time.Time) ([]models.AvailabilitySlot, error)
	// CreateSlots inserts new open slots, rejecting any that overlap an
	// existing held or booked slot on the same resource.
	CreateSlots(ctx context.Context, slots []models.AvailabilitySlot) error
	// UpdateStatus transitions a slot from one of the expected statuses to
	// the target status. Returns ErrSlotConflict when no document matched.
	UpdateStatus(ctx context.Context, slotID string, from []string, to string) error
	// ReleaseExpiredHolds reopens held slots whose hold has lapsed.
	ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error)
	// ReserveSlotTransactionally claims the slot (open -> booked) and
	// inserts the order, its lines and the booking in one transaction.
	// Returns ErrSlotConflict if the slot was claimed concurrently; in that
	// case nothing is persisted.
	ReserveSlotTransactionally(ctx context.Context, slotID string, order *models.Order, lines []models.OrderLine, booking *models.Booking) error
}

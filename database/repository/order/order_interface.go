package orderRepo

import (
	"context"
	"errors"
	"time"

	"innkeeper/models"
)

// ErrOrderNotFound is returned when no order matches the lookup.
var ErrOrderNotFound = errors.New("order not found")

// ErrBookingNotFound is returned for orders without a booking (cart orders).
var ErrBookingNotFound = errors.New("booking not found")

// ErrStatusConflict is returned when a conditional status transition matched
// no document: the order was not in any of the expected statuses. This is
// what makes webhook delivery idempotent and cancel-vs-settle races safe.
var ErrStatusConflict = errors.New("order status conflict")

// OrderRepository persists orders, their lines and their bookings.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order, lines []models.OrderLine) error
	GetByID(ctx context.Context, orderID string) (*models.Order, error)
	GetLines(ctx context.Context, orderID string) ([]models.OrderLine, error)
	ListByGuest(ctx context.Context, guestID string) ([]models.Order, error)
	ListByProperty(ctx context.Context, propertyID string) ([]models.Order, error)
	// UpdateStatus transitions the order from one of the expected statuses
	// to the target status, bumping updated_at. Returns ErrStatusConflict
	// when no document matched.
	UpdateStatus(ctx context.Context, orderID string, from []string, to string) error
	SetCheckoutURL(ctx context.Context, orderID, url string) error
	GetBookingByOrder(ctx context.Context, orderID string) (*models.Booking, error)
	// ListStaleInitiated returns ids of initiated orders created before the cutoff.
	ListStaleInitiated(ctx context.Context, cutoff time.Time) ([]string, error)
	// ListRecentlyTerminal returns ids of failed or cancelled orders
	// updated since the cutoff. Feeds the sweep that reopens slots whose
	// inline release did not go through.
	ListRecentlyTerminal(ctx context.Context, since time.Time) ([]string, error)
}

package order

import (
	"context"
	"time"

	availabilityRepo "innkeeper/database/repository/availability"
	orderRepo "innkeeper/database/repository/order"
	"innkeeper/models"

	"go.uber.org/zap"
)

// LineInput is a billable item supplied by the client when placing a cart
// (dining) order. Prices are captured at order time.
type LineInput struct {
	ReferenceID string  `json:"reference_id"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// LedgerService owns the order aggregate: creation of cart orders, guest
// reads, cancellation, and expiry of abandoned orders. Booking orders are
// created by the allocator, not here.
type LedgerService interface {
	CreateCartOrder(ctx context.Context, guestID, propertyID string, lines []LineInput) (string, error)
	GetOrder(ctx context.Context, guestID, orderID string) (*models.Order, []models.OrderLine, error)
	ListGuestOrders(ctx context.Context, guestID string) ([]models.Order, error)
	ListPropertyOrders(ctx context.Context, propertyID string) ([]models.Order, error)
	Cancel(ctx context.Context, guestID, orderID string) error
	// ExpireStale cancels initiated orders created before now-ttl and
	// releases their slots. Invoked by the background sweeper.
	ExpireStale(ctx context.Context, ttl time.Duration) (int, error)
	// ReleaseSettledSlots reopens slots stranded behind recently failed or
	// cancelled orders. Invoked by the background sweeper.
	ReleaseSettledSlots(ctx context.Context, window time.Duration) (int, error)
}

// DefaultLedgerService implements LedgerService.
type DefaultLedgerService struct {
	Orders orderRepo.OrderRepository
	Slots  availabilityRepo.SlotRepository
	Logger *zap.Logger
}

package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	availabilityRepo "innkeeper/database/repository/availability"
	orderRepo "innkeeper/database/repository/order"
	"innkeeper/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateCartOrder creates an order for client-priced lines (the dining
// flow). The total is fixed at creation as the sum of line prices and is
// never recomputed afterwards.
func (s *DefaultLedgerService) CreateCartOrder(ctx context.Context, guestID, propertyID string, lines []LineInput) (string, error) {
	if guestID == "" {
		return "", errors.New("missing guest identity")
	}
	if len(lines) == 0 {
		return "", ErrEmptyOrder
	}

	total := 0.0
	orderID := uuid.New().String()
	orderLines := make([]models.OrderLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 || line.Price < 0 || line.ReferenceID == "" {
			return "", ErrInvalidLine
		}
		total += line.Price * float64(line.Quantity)
		orderLines = append(orderLines, models.OrderLine{
			OrderID:     orderID,
			ReferenceID: line.ReferenceID,
			Quantity:    line.Quantity,
			Price:       line.Price,
		})
	}

	now := time.Now()
	ord := &models.Order{
		ID:         orderID,
		GuestID:    guestID,
		PropertyID: propertyID,
		Total:      total,
		Status:     models.OrderStatusInitiated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Orders.Create(ctx, ord, orderLines); err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}

	s.Logger.Info("cart order created",
		zap.String("orderID", orderID),
		zap.String("guestID", guestID),
		zap.Float64("total", total))
	return orderID, nil
}

// GetOrder returns an order and its lines; only the owning guest may read it.
func (s *DefaultLedgerService) GetOrder(ctx context.Context, guestID, orderID string) (*models.Order, []models.OrderLine, error) {
	ord, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, orderRepo.ErrOrderNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	if ord.GuestID != guestID {
		return nil, nil, ErrNotOwner
	}
	lines, err := s.Orders.GetLines(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch order lines: %w", err)
	}
	return ord, lines, nil
}

// ListGuestOrders returns the guest's orders, newest first.
func (s *DefaultLedgerService) ListGuestOrders(ctx context.Context, guestID string) ([]models.Order, error) {
	return s.Orders.ListByGuest(ctx, guestID)
}

// ListPropertyOrders returns a property's orders, newest first.
func (s *DefaultLedgerService) ListPropertyOrders(ctx context.Context, propertyID string) ([]models.Order, error) {
	return s.Orders.ListByProperty(ctx, propertyID)
}

// Cancel transitions an initiated or pending order to cancelled and
// releases its slot. The transition is conditional: a cancel racing an
// in-flight settlement may lose, in which case the settlement wins and
// ErrCancelConflict is returned.
func (s *DefaultLedgerService) Cancel(ctx context.Context, guestID, orderID string) error {
	ord, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, orderRepo.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if ord.GuestID != guestID {
		return ErrNotOwner
	}
	return s.cancel(ctx, orderID, []string{models.OrderStatusInitiated, models.OrderStatusPending})
}

func (s *DefaultLedgerService) cancel(ctx context.Context, orderID string, from []string) error {
	if err := s.Orders.UpdateStatus(ctx, orderID, from, models.OrderStatusCancelled); err != nil {
		if errors.Is(err, orderRepo.ErrStatusConflict) {
			return ErrCancelConflict
		}
		return fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}
	s.releaseSlot(ctx, orderID)
	s.Logger.Info("order cancelled", zap.String("orderID", orderID))
	return nil
}

// releaseSlot reopens the slot behind the order's booking, if it has one.
// Reports whether a slot was actually reopened. A failed release is not
// fatal here: the reclaim sweep retries it.
func (s *DefaultLedgerService) releaseSlot(ctx context.Context, orderID string) bool {
	bk, err := s.Orders.GetBookingByOrder(ctx, orderID)
	if err != nil {
		if !errors.Is(err, orderRepo.ErrBookingNotFound) {
			s.Logger.Warn("failed to fetch booking for slot release",
				zap.String("orderID", orderID), zap.Error(err))
		}
		return false
	}
	from := []string{models.SlotStatusHeld, models.SlotStatusBooked}
	if err := s.Slots.UpdateStatus(ctx, bk.SlotID, from, models.SlotStatusOpen); err != nil {
		if !errors.Is(err, availabilityRepo.ErrSlotConflict) {
			s.Logger.Warn("failed to release slot",
				zap.String("slotID", bk.SlotID), zap.Error(err))
		}
		return false
	}
	s.Logger.Info("slot released", zap.String("slotID", bk.SlotID), zap.String("orderID", orderID))
	return true
}

// ReleaseSettledSlots reopens slots still held or booked behind orders
// that went failed or cancelled within the window. The inline release on
// settlement or cancel is best effort; this sweep is the recovery path
// when that write was lost.
func (s *DefaultLedgerService) ReleaseSettledSlots(ctx context.Context, window time.Duration) (int, error) {
	ids, err := s.Orders.ListRecentlyTerminal(ctx, time.Now().Add(-window))
	if err != nil {
		return 0, fmt.Errorf("failed to list terminal orders: %w", err)
	}

	released := 0
	for _, id := range ids {
		if s.releaseSlot(ctx, id) {
			released++
		}
	}
	return released, nil
}

// ExpireStale cancels initiated orders older than the TTL so abandoned
// checkouts cannot strand reserved slots.
func (s *DefaultLedgerService) ExpireStale(ctx context.Context, ttl time.Duration) (int, error) {
	ids, err := s.Orders.ListStaleInitiated(ctx, time.Now().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale orders: %w", err)
	}

	expired := 0
	for _, id := range ids {
		// Guarded on initiated only: an order that went pending in the
		// meantime is in active checkout and must not be swept.
		if err := s.cancel(ctx, id, []string{models.OrderStatusInitiated}); err != nil {
			if errors.Is(err, ErrCancelConflict) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	availabilityRepo "innkeeper/database/repository/availability"
	orderRepo "innkeeper/database/repository/order"
	"innkeeper/models"

	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

const eventDedupeTTL = 24 * time.Hour

// ReconcilerService applies processor settlement events to the order
// ledger. This is the only path by which payment truth enters the system;
// the client redirect routes never mutate order state.
type ReconcilerService interface {
	Handle(ctx context.Context, event stripe.Event) error
}

// DefaultReconcilerService implements ReconcilerService. Cache is optional;
// when present it short-circuits redelivered events, but the status-guarded
// conditional updates below are the authoritative idempotency mechanism.
type DefaultReconcilerService struct {
	Orders orderRepo.OrderRepository
	Slots  availabilityRepo.SlotRepository
	Cache  *redis.Client
	Logger *zap.Logger
}

// Handle dispatches a verified processor event. Events for orders that are
// not pending are acknowledged no-ops; unknown event types are acknowledged
// and ignored. The dedupe key is written only after the event was applied:
// a delivery that fails mid-processing stays unmarked, so the processor's
// redelivery gets a clean retry.
func (s *DefaultReconcilerService) Handle(ctx context.Context, event stripe.Event) error {
	if s.alreadyProcessed(ctx, event.ID) {
		s.Logger.Debug("duplicate event skipped", zap.String("eventID", event.ID))
		return nil
	}

	var err error
	switch event.Type {
	case "checkout.session.completed":
		err = s.settleFromSession(ctx, event, true)
	case "checkout.session.expired":
		err = s.settleFromSession(ctx, event, false)
	case "payment_intent.payment_failed":
		err = s.settleFromIntent(ctx, event, false)
	default:
		s.Logger.Debug("ignoring event type", zap.String("type", string(event.Type)))
	}
	if err != nil {
		return err
	}

	s.markProcessed(ctx, event.ID)
	return nil
}

func (s *DefaultReconcilerService) settleFromSession(ctx context.Context, event stripe.Event, succeeded bool) error {
	orderID, err := orderIDFromSession(event)
	if err != nil {
		return err
	}
	return s.settle(ctx, orderID, succeeded)
}

func (s *DefaultReconcilerService) settleFromIntent(ctx context.Context, event stripe.Event, succeeded bool) error {
	orderID, err := orderIDFromIntent(event)
	if err != nil {
		return err
	}
	return s.settle(ctx, orderID, succeeded)
}

// settle applies a terminal payment outcome: pending -> paid on success,
// pending -> failed plus slot release on failure. The transition is guarded
// by the pending status, so redelivered or late events match nothing and
// fall through as no-ops.
func (s *DefaultReconcilerService) settle(ctx context.Context, orderID string, succeeded bool) error {
	target := models.OrderStatusPaid
	if !succeeded {
		target = models.OrderStatusFailed
	}

	err := s.Orders.UpdateStatus(ctx, orderID, []string{models.OrderStatusPending}, target)
	if err != nil {
		if errors.Is(err, orderRepo.ErrStatusConflict) {
			s.Logger.Info("settlement event for non-pending order ignored",
				zap.String("orderID", orderID), zap.String("target", target))
			return nil
		}
		return fmt.Errorf("failed to settle order %s: %w", orderID, err)
	}

	if !succeeded {
		s.releaseSlot(ctx, orderID)
	}

	s.Logger.Info("order settled",
		zap.String("orderID", orderID), zap.String("status", target))
	return nil
}

// releaseSlot reopens the slot behind the order's booking after a failed
// or expired payment so it can be reserved again.
func (s *DefaultReconcilerService) releaseSlot(ctx context.Context, orderID string) {
	bk, err := s.Orders.GetBookingByOrder(ctx, orderID)
	if err != nil {
		if !errors.Is(err, orderRepo.ErrBookingNotFound) {
			s.Logger.Warn("failed to fetch booking for slot release",
				zap.String("orderID", orderID), zap.Error(err))
		}
		return
	}
	from := []string{models.SlotStatusHeld, models.SlotStatusBooked}
	if err := s.Slots.UpdateStatus(ctx, bk.SlotID, from, models.SlotStatusOpen); err != nil {
		if !errors.Is(err, availabilityRepo.ErrSlotConflict) {
			s.Logger.Warn("failed to release slot",
				zap.String("slotID", bk.SlotID), zap.Error(err))
		}
		return
	}
	s.Logger.Info("slot released after payment failure",
		zap.String("slotID", bk.SlotID), zap.String("orderID", orderID))
}

// alreadyProcessed reports whether the event id is marked in the cache.
// Cache failures count as "not processed" and defer to the status guard.
func (s *DefaultReconcilerService) alreadyProcessed(ctx context.Context, eventID string) bool {
	if s.Cache == nil || eventID == "" {
		return false
	}
	n, err := s.Cache.Exists(ctx, "stripe:event:"+eventID).Result()
	if err != nil {
		s.Logger.Warn("event dedupe cache unavailable", zap.Error(err))
		return false
	}
	return n > 0
}

// markProcessed records the event id once it was applied. Best effort: on
// cache failure the redelivery falls through to the status guard.
func (s *DefaultReconcilerService) markProcessed(ctx context.Context, eventID string) {
	if s.Cache == nil || eventID == "" {
		return
	}
	if err := s.Cache.Set(ctx, "stripe:event:"+eventID, 1, eventDedupeTTL).Err(); err != nil {
		s.Logger.Warn("failed to mark event processed", zap.Error(err))
	}
}

func orderIDFromSession(event stripe.Event) (string, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return "", fmt.Errorf("malformed checkout session payload: %w", err)
	}
	if id := sess.Metadata["order_id"]; id != "" {
		return id, nil
	}
	return "", fmt.Errorf("event %s carries no order_id metadata", event.ID)
}

func orderIDFromIntent(event stripe.Event) (string, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return "", fmt.Errorf("malformed payment intent payload: %w", err)
	}
	if id := intent.Metadata["order_id"]; id != "" {
		return id, nil
	}
	return "", fmt.Errorf("event %s carries no order_id metadata", event.ID)
}

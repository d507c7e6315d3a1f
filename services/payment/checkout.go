package payment

import (
	"context"
	"errors"
	"fmt"

	"innkeeper/config"
	orderRepo "innkeeper/database/repository/order"
	"innkeeper/models"
	"innkeeper/utils"

	"go.uber.org/zap"
)

// CheckoutService opens hosted checkout sessions for payable orders.
type CheckoutService interface {
	Initiate(ctx context.Context, orderID string) (string, error)
}

// DefaultCheckoutService implements CheckoutService.
type DefaultCheckoutService struct {
	Orders  orderRepo.OrderRepository
	Gateway CheckoutGateway
	Logger  *zap.Logger
}

// Initiate computes the payable amount for the order, opens a hosted
// session with the processor, and moves the order to pending. The order is
// only transitioned after the processor confirms session creation, so a
// processor failure leaves state untouched and the call is safe to retry.
func (s *DefaultCheckoutService) Initiate(ctx context.Context, orderID string) (string, error) {
	ord, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, orderRepo.ErrOrderNotFound) {
			return "", ErrOrderNotFound
		}
		return "", fmt.Errorf("failed to fetch order: %w", err)
	}

	if ord.Status != models.OrderStatusInitiated && ord.Status != models.OrderStatusPending {
		return "", ErrOrderNotPayable
	}

	amount := utils.ToMinorUnits(ord.Total)
	if amount <= 0 {
		return "", ErrInvalidAmount
	}

	sess, err := s.Gateway.CreateSession(ctx, SessionRequest{
		OrderID:     ord.ID,
		AmountMinor: amount,
		Currency:    config.AppConfig.Currency,
		Description: "Hospitality Order",
	})
	if err != nil {
		s.Logger.Error("checkout session creation failed",
			zap.String("orderID", ord.ID), zap.Error(err))
		return "", ErrProcessorUnavailable
	}

	// pending -> pending is a legal no-op here: re-initiating an unpaid
	// pending order just issues a fresh session.
	from := []string{models.OrderStatusInitiated, models.OrderStatusPending}
	if err := s.Orders.UpdateStatus(ctx, ord.ID, from, models.OrderStatusPending); err != nil {
		if errors.Is(err, orderRepo.ErrStatusConflict) {
			// Settled or cancelled while the session was being created.
			return "", ErrOrderNotPayable
		}
		return "", fmt.Errorf("failed to mark order pending: %w", err)
	}

	if err := s.Orders.SetCheckoutURL(ctx, ord.ID, sess.URL); err != nil {
		s.Logger.Warn("failed to store checkout url",
			zap.String("orderID", ord.ID), zap.Error(err))
	}

	s.Logger.Info("checkout session created",
		zap.String("orderID", ord.ID),
		zap.String("sessionID", sess.ID),
		zap.Int64("amountMinor", amount))
	return sess.URL, nil
}

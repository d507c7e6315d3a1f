package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	availabilityRepo "innkeeper/database/repository/availability"
	catalogRepo "innkeeper/database/repository/catalog"
	"innkeeper/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reserve locates an open slot on the resource and claims it atomically
// together with the creation of the order and its booking. The explicit
// range variant requires an exact match against an existing slot; the
// no-range variant picks the earliest open slot after now. Exactly one of
// two concurrent attempts on the same slot wins; the loser gets
// ErrNoAvailability and nothing is persisted for it.
func (s *DefaultAllocatorService) Reserve(ctx context.Context, guestID string, req ReserveRequest) (string, error) {
	if guestID == "" {
		return "", errors.New("missing guest identity")
	}

	resource, err := s.Catalog.GetResourceByID(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrResourceNotFound) {
			return "", ErrResourceNotFound
		}
		return "", fmt.Errorf("failed to fetch resource: %w", err)
	}

	slot, err := s.findSlot(ctx, resource.ID, req)
	if err != nil {
		return "", err
	}

	now := time.Now()
	orderID := uuid.New().String()
	order := &models.Order{
		ID:         orderID,
		GuestID:    guestID,
		PropertyID: resource.PropertyID,
		Total:      resource.Price,
		Status:     models.OrderStatusInitiated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	lines := []models.OrderLine{{
		OrderID:     orderID,
		ReferenceID: resource.ID,
		Quantity:    1,
		Price:       resource.Price,
	}}
	bookingRecord := &models.Booking{
		ID:         uuid.New().String(),
		OrderID:    orderID,
		ResourceID: resource.ID,
		SlotID:     slot.ID,
		StartTS:    slot.StartTS,
		EndTS:      slot.EndTS,
		CreatedAt:  now,
	}

	if err := s.Slots.ReserveSlotTransactionally(ctx, slot.ID, order, lines, bookingRecord); err != nil {
		if errors.Is(err, availabilityRepo.ErrSlotConflict) {
			s.Logger.Info("lost reservation race",
				zap.String("slotID", slot.ID), zap.String("resourceID", resource.ID))
			return "", ErrNoAvailability
		}
		return "", fmt.Errorf("reservation failed: %w", err)
	}

	s.Logger.Info("slot reserved",
		zap.String("orderID", orderID),
		zap.String("slotID", slot.ID),
		zap.String("resourceID", resource.ID),
		zap.String("guestID", guestID))
	return orderID, nil
}

func (s *DefaultAllocatorService) findSlot(ctx context.Context, resourceID string, req ReserveRequest) (*models.AvailabilitySlot, error) {
	if req.StartTS == nil && req.EndTS == nil {
		slot, err := s.Slots.FindEarliestOpen(ctx, resourceID, time.Now())
		if err != nil {
			if errors.Is(err, availabilityRepo.ErrSlotNotFound) {
				return nil, ErrNoAvailability
			}
			return nil, fmt.Errorf("failed to find open slot: %w", err)
		}
		return slot, nil
	}

	if req.StartTS == nil || req.EndTS == nil || !req.EndTS.After(*req.StartTS) {
		return nil, ErrInvalidRange
	}

	slot, err := s.Slots.FindByRange(ctx, resourceID, *req.StartTS, *req.EndTS)
	if err != nil {
		if errors.Is(err, availabilityRepo.ErrSlotNotFound) {
			return nil, ErrNoAvailability
		}
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}
	if slot.Status != models.SlotStatusOpen {
		return nil, ErrNoAvailability
	}
	return slot, nil
}

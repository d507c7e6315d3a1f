package booking

import (
	"context"
	"time"

	availabilityRepo "innkeeper/database/repository/availability"
	catalogRepo "innkeeper/database/repository/catalog"

	"go.uber.org/zap"
)

// ReserveRequest describes a reservation attempt. When StartTS/EndTS are
// nil the earliest open slot after now is chosen.
type ReserveRequest struct {
	ResourceID string
	StartTS    *time.Time
	EndTS      *time.Time
}

// AllocatorService atomically claims an availability slot and creates the
// order paying for it.
type AllocatorService interface {
	Reserve(ctx context.Context, guestID string, req ReserveRequest) (string, error)
}

// DefaultAllocatorService implements AllocatorService.
type DefaultAllocatorService struct {
	Catalog catalogRepo.CatalogRepository
	Slots   availabilityRepo.SlotRepository
	Logger  *zap.Logger
}

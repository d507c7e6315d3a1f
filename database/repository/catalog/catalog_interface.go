package catalogRepo

import (
	"context"
	"errors"

	"innkeeper/models"
)

// ErrResourceNotFound is returned when no resource matches the lookup.
var ErrResourceNotFound = errors.New("resource not found")

// ErrPropertyNotFound is returned when no property matches the lookup.
var ErrPropertyNotFound = errors.New("property not found")

// CatalogRepository exposes read-only access to the property/resource
// catalog. Catalog records are owned by property-management tooling.
type CatalogRepository interface {
	GetResourceByID(ctx context.Context, resourceID string) (*models.Resource, error)
	GetPropertyByID(ctx context.Context, propertyID string) (*models.Property, error)
	GetPropertyByManager(ctx context.Context, managerID string) (*models.Property, error)
	ListResourcesByProperty(ctx context.Context, propertyID string) ([]models.Resource, error)
}

package catalogRepo

import (
	"context"
	"fmt"
	"time"

	"innkeeper/database"
	"innkeeper/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoCatalogRepo implements CatalogRepository using MongoDB.
type MongoCatalogRepo struct {
	resourceColl *mongo.Collection
	propertyColl *mongo.Collection
}

// NewMongoCatalogRepo constructs a new instance of MongoCatalogRepo.
func NewMongoCatalogRepo() CatalogRepository {
	db := database.MongoClient.Database("innkeeper")
	return &MongoCatalogRepo{
		resourceColl: db.Collection("resources"),
		propertyColl: db.Collection("properties"),
	}
}

// GetResourceByID retrieves a resource by its ID.
func (repo *MongoCatalogRepo) GetResourceByID(ctx context.Context, resourceID string) (*models.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var resource models.Resource
	if err := repo.resourceColl.FindOne(ctx, bson.M{"id": resourceID}).Decode(&resource); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("error fetching resource %s: %w", resourceID, err)
	}
	return &resource, nil
}

// GetPropertyByID retrieves a property by its ID.
func (repo *MongoCatalogRepo) GetPropertyByID(ctx context.Context, propertyID string) (*models.Property, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var property models.Property
	if err := repo.propertyColl.FindOne(ctx, bson.M{"id": propertyID}).Decode(&property); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPropertyNotFound
		}
		return nil, fmt.Errorf("error fetching property %s: %w", propertyID, err)
	}
	return &property, nil
}

// GetPropertyByManager retrieves the property managed by the given user.
func (repo *MongoCatalogRepo) GetPropertyByManager(ctx context.Context, managerID string) (*models.Property, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var property models.Property
	if err := repo.propertyColl.FindOne(ctx, bson.M{"manager_id": managerID}).Decode(&property); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPropertyNotFound
		}
		return nil, fmt.Errorf("error fetching property for manager %s: %w", managerID, err)
	}
	return &property, nil
}

// ListResourcesByProperty returns all resources belonging to a property.
func (repo *MongoCatalogRepo) ListResourcesByProperty(ctx context.Context, propertyID string) ([]models.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := repo.resourceColl.Find(ctx, bson.M{"property_id": propertyID})
	if err != nil {
		return nil, fmt.Errorf("error listing resources: %w", err)
	}
	defer cursor.Close(ctx)

	var resources []models.Resource
	if err := cursor.All(ctx, &resources); err != nil {
		return nil, fmt.Errorf("error decoding resources: %w", err)
	}
	return resources, nil
}

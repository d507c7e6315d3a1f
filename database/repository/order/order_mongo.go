package orderRepo

import (
	"context"
	"fmt"
	"time"

	"innkeeper/database"
	"innkeeper/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOrderRepo implements OrderRepository using MongoDB.
type MongoOrderRepo struct {
	orderColl   *mongo.Collection
	lineColl    *mongo.Collection
	bookingColl *mongo.Collection
}

// NewMongoOrderRepo constructs a new instance of MongoOrderRepo.
func NewMongoOrderRepo() OrderRepository {
	db := database.MongoClient.Database("innkeeper")
	return &MongoOrderRepo{
		orderColl:   db.Collection("orders"),
		lineColl:    db.Collection("order_lines"),
		bookingColl: db.Collection("bookings"),
	}
}

// Create inserts an order together with its lines.
func (repo *MongoOrderRepo) Create(ctx context.Context, order *models.Order, lines []models.OrderLine) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.orderColl.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("error creating order: %w", err)
	}
	if len(lines) > 0 {
		docs := make([]interface{}, 0, len(lines))
		for _, line := range lines {
			docs = append(docs, line)
		}
		if _, err := repo.lineColl.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("error creating order lines: %w", err)
		}
	}
	return nil
}

// GetByID retrieves an order by its ID.
func (repo *MongoOrderRepo) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var order models.Order
	if err := repo.orderColl.FindOne(ctx, bson.M{"id": orderID}).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("error fetching order %s: %w", orderID, err)
	}
	return &order, nil
}

// GetLines retrieves the line set for an order.
func (repo *MongoOrderRepo) GetLines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := repo.lineColl.Find(ctx, bson.M{"order_id": orderID})
	if err != nil {
		return nil, fmt.Errorf("error fetching lines for order %s: %w", orderID, err)
	}
	defer cursor.Close(ctx)

	var lines []models.OrderLine
	if err := cursor.All(ctx, &lines); err != nil {
		return nil, fmt.Errorf("error decoding order lines: %w", err)
	}
	return lines, nil
}

// ListByGuest returns a guest's orders, newest first.
func (repo *MongoOrderRepo) ListByGuest(ctx context.Context, guestID string) ([]models.Order, error) {
	return repo.list(ctx, bson.M{"guest_id": guestID})
}

// ListByProperty returns a property's orders, newest first.
func (repo *MongoOrderRepo) ListByProperty(ctx context.Context, propertyID string) ([]models.Order, error) {
	return repo.list(ctx, bson.M{"property_id": propertyID})
}

func (repo *MongoOrderRepo) list(ctx context.Context, filter bson.M) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := repo.orderColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("error decoding orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus performs a conditional status transition guarded by the
// order's prior status.
func (repo *MongoOrderRepo) UpdateStatus(ctx context.Context, orderID string, from []string, to string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": orderID, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}}
	res, err := repo.orderColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error updating order %s status: %w", orderID, err)
	}
	if res.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

// SetCheckoutURL stores the checkout redirect URL against the order.
func (repo *MongoOrderRepo) SetCheckoutURL(ctx context.Context, orderID, url string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"checkout_url": url, "updated_at": time.Now()}}
	res, err := repo.orderColl.UpdateOne(ctx, bson.M{"id": orderID}, update)
	if err != nil {
		return fmt.Errorf("error storing checkout url for order %s: %w", orderID, err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// GetBookingByOrder retrieves the booking linked to an order, if any.
func (repo *MongoOrderRepo) GetBookingByOrder(ctx context.Context, orderID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := repo.bookingColl.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&booking); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("error fetching booking for order %s: %w", orderID, err)
	}
	return &booking, nil
}

// ListStaleInitiated returns ids of initiated orders created before the cutoff.
func (repo *MongoOrderRepo) ListStaleInitiated(ctx context.Context, cutoff time.Time) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":     models.OrderStatusInitiated,
		"created_at": bson.M{"$lt": cutoff},
	}
	opts := options.Find().SetProjection(bson.M{"id": 1})
	cursor, err := repo.orderColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing stale orders: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding stale order: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return ids, nil
}

// ListRecentlyTerminal returns ids of failed or cancelled orders updated
// since the cutoff.
func (repo *MongoOrderRepo) ListRecentlyTerminal(ctx context.Context, since time.Time) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":     bson.M{"$in": []string{models.OrderStatusFailed, models.OrderStatusCancelled}},
		"updated_at": bson.M{"$gte": since},
	}
	opts := options.Find().SetProjection(bson.M{"id": 1})
	cursor, err := repo.orderColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing terminal orders: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding terminal order: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return ids, nil
}

package availabilityRepo

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

// MongoSlotRepo implements SlotRepository using MongoDB.
type MongoSlotRepo struct {
	slotColl    *mongo.Collection
	orderColl   *mongo.Collection
	lineColl    *mongo.Collection
	bookingColl *mongo.Collection
}

// NewMongoSlotRepo constructs a new instance of MongoSlotRepo.
func NewMongoSlotRepo() SlotRepository {
	db := database.MongoClient.Database("innkeeper")
	return &MongoSlotRepo{
		slotColl:    db.Collection("availability"),
		orderColl:   db.Collection("orders"),
		lineColl:    db.Collection("order_lines"),
		bookingColl: db.Collection("bookings"),
	}
}

// GetByID retrieves a slot by its ID.
func (repo *MongoSlotRepo) GetByID(ctx context.Context, slotID string) (*models.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var slot models.AvailabilitySlot
	if err := repo.slotColl.FindOne(ctx, bson.M{"id": slotID}).Decode(&slot); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("error fetching slot %s: %w", slotID, err)
	}
	return &slot, nil
}

// FindByRange retrieves the slot matching the exact [start, end) range on a resource.
func (repo *MongoSlotRepo) FindByRange(ctx context.Context, resourceID string, start, end time.Time) (*models.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"resource_id": resourceID,
		"start_ts":    start,
		"end_ts":      end,
	}
	var slot models.AvailabilitySlot
	if err := repo.slotColl.FindOne(ctx, filter).Decode(&slot); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("error fetching slot for resource %s: %w", resourceID, err)
	}
	return &slot, nil
}

// FindEarliestOpen retrieves the open slot with the smallest start_ts after
// the given instant; ties are broken by slot id.
func (repo *MongoSlotRepo) FindEarliestOpen(ctx context.Context, resourceID string, after time.Time) (*models.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"resource_id": resourceID,
		"status":      models.SlotStatusOpen,
		"start_ts":    bson.M{"$gt": after},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "start_ts", Value: 1}, {Key: "id", Value: 1}})

	var slot models.AvailabilitySlot
	if err := repo.slotColl.FindOne(ctx, filter, opts).Decode(&slot); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("error fetching earliest open slot for resource %s: %w", resourceID, err)
	}
	return &slot, nil
}

// ListOpen returns all open future slots for a resource in ascending start order.
func (repo *MongoSlotRepo) ListOpen(ctx context.Context, resourceID string, after time.Time) ([]models.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"resource_id": resourceID,
		"status":      models.SlotStatusOpen,
		"start_ts":    bson.M{"$gt": after},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_ts", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := repo.slotColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing open slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []models.AvailabilitySlot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("error decoding open slots: %w", err)
	}
	return slots, nil
}

// slotsOverlap reports whether two half-open ranges on the same resource
// intersect.
func slotsOverlap(a, b models.AvailabilitySlot) bool {
	return a.ResourceID == b.ResourceID && a.StartTS.Before(b.EndTS) && b.StartTS.Before(a.EndTS)
}

// CreateSlots inserts new open slots. Each slot is checked for overlap
// against every existing slot on the resource, whatever its status: an
// open slot can be claimed at any moment, so a new range crossing one
// would let two booked slots overlap later. The check and insert run in
// one session transaction so concurrent creates cannot interleave between
// them.
func (repo *MongoSlotRepo) CreateSlots(ctx context.Context, slots []models.AvailabilitySlot) error {
	for i := range slots {
		for j := i + 1; j < len(slots); j++ {
			if slotsOverlap(slots[i], slots[j]) {
				return fmt.Errorf("slots [%s, %s) and [%s, %s) in one batch overlap: %w",
					slots[i].StartTS.Format(time.RFC3339), slots[i].EndTS.Format(time.RFC3339),
					slots[j].StartTS.Format(time.RFC3339), slots[j].EndTS.Format(time.RFC3339), ErrSlotConflict)
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := repo.slotColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		docs := make([]interface{}, 0, len(slots))
		for _, slot := range slots {
			overlap := bson.M{
				"resource_id": slot.ResourceID,
				"start_ts":    bson.M{"$lt": slot.EndTS},
				"end_ts":      bson.M{"$gt": slot.StartTS},
			}
			count, err := repo.slotColl.CountDocuments(sc, overlap)
			if err != nil {
				return fmt.Errorf("error checking slot overlap: %w", err)
			}
			if count > 0 {
				return fmt.Errorf("slot [%s, %s) on resource %s overlaps an existing slot: %w",
					slot.StartTS.Format(time.RFC3339), slot.EndTS.Format(time.RFC3339), slot.ResourceID, ErrSlotConflict)
			}
			docs = append(docs, slot)
		}
		if _, err := repo.slotColl.InsertMany(sc, docs); err != nil {
			return fmt.Errorf("error inserting slots: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return err
	}
	return nil
}

// UpdateStatus performs a conditional status transition guarded by the
// slot's prior status.
func (repo *MongoSlotRepo) UpdateStatus(ctx context.Context, slotID string, from []string, to string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": slotID, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{"status": to}, "$unset": bson.M{"held_until": ""}}
	res, err := repo.slotColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error updating slot %s status: %w", slotID, err)
	}
	if res.MatchedCount == 0 {
		return ErrSlotConflict
	}
	return nil
}

// ReleaseExpiredHolds reopens every held slot whose hold expiry has passed.
func (repo *MongoSlotRepo) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":     models.SlotStatusHeld,
		"held_until": bson.M{"$lt": now},
	}
	update := bson.M{
		"$set":   bson.M{"status": models.SlotStatusOpen},
		"$unset": bson.M{"held_until": ""},
	}
	res, err := repo.slotColl.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("error releasing expired holds: %w", err)
	}
	return res.ModifiedCount, nil
}

// ReserveSlotTransactionally claims the slot and creates the order, lines
// and booking in a single all-or-nothing transaction. The slot claim is a
// conditional write on status "open": if a competing reservation got there
// first the transaction aborts with ErrSlotConflict and nothing is created.
func (repo *MongoSlotRepo) ReserveSlotTransactionally(
	ctx context.Context,
	slotID string,
	order *models.Order,
	lines []models.OrderLine,
	booking *models.Booking,
) error {
	client := repo.slotColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		filter := bson.M{"id": slotID, "status": models.SlotStatusOpen}
		update := bson.M{"$set": bson.M{"status": models.SlotStatusBooked}}
		res, err := repo.slotColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("claim slot failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrSlotConflict
		}

		if _, err := repo.orderColl.InsertOne(sc, order); err != nil {
			return fmt.Errorf("insert order failed: %w", err)
		}
		lineDocs := make([]interface{}, 0, len(lines))
		for _, line := range lines {
			lineDocs = append(lineDocs, line)
		}
		if _, err := repo.lineColl.InsertMany(sc, lineDocs); err != nil {
			return fmt.Errorf("insert order lines failed: %w", err)
		}
		if _, err := repo.bookingColl.InsertOne(sc, booking); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if err == ErrSlotConflict {
			return ErrSlotConflict
		}
		return fmt.Errorf("reservation transaction failed: %w", err)
	}

	return nil
}

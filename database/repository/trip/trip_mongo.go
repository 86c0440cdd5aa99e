package tripRepo

import (
	"context"
	"fmt"
	"time"

	"ridepool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTripRepo implements TripRepository using MongoDB.
type MongoTripRepo struct {
	coll *mongo.Collection
}

// NewMongoTripRepo creates a new TripRepository backed by MongoDB.
func NewMongoTripRepo(db *mongo.Database) TripRepository {
	repo := &MongoTripRepo{coll: db.Collection("trips")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create trip indexes: %v\n", err)
	}
	return repo
}

func (r *MongoTripRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "reference", Value: 1}}, Options: options.Index().SetUnique(true)},
		// The idempotency guard: one trip per slot key and ordinal.
		{
			Keys: bson.D{
				{Key: "service_date", Value: 1},
				{Key: "route_id", Value: 1},
				{Key: "time_slot_id", Value: 1},
				{Key: "seq", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create trip indexes: %w", err)
	}
	return nil
}

func (r *MongoTripRepo) ExistsForKey(ctx context.Context, serviceDate, routeID, timeSlotID string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{
		"service_date": serviceDate,
		"route_id":     routeID,
		"time_slot_id": timeSlotID,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check existing trips: %w", err)
	}
	return count > 0, nil
}

func (r *MongoTripRepo) InsertMany(ctx context.Context, trips []models.Trip) error {
	if len(trips) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(trips))
	for i := range trips {
		docs = append(docs, trips[i])
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateTrip
		}
		return fmt.Errorf("failed to insert trips: %w", err)
	}
	return nil
}

func (r *MongoTripRepo) GetByReference(ctx context.Context, reference string) (*models.Trip, error) {
	var t models.Trip
	if err := r.coll.FindOne(ctx, bson.M{"reference": reference}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to fetch trip %s: %w", reference, err)
	}
	return &t, nil
}

func (r *MongoTripRepo) ListByDate(ctx context.Context, serviceDate string) ([]models.Trip, error) {
	opts := options.Find().SetSort(bson.D{{Key: "route_id", Value: 1}, {Key: "time_slot_id", Value: 1}, {Key: "seq", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"service_date": serviceDate}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips for %s: %w", serviceDate, err)
	}
	defer cursor.Close(ctx)

	var trips []models.Trip
	for cursor.Next(ctx) {
		var t models.Trip
		if err := cursor.Decode(&t); err != nil {
			return nil, fmt.Errorf("failed to decode trip: %w", err)
		}
		trips = append(trips, t)
	}
	return trips, nil
}

func (r *MongoTripRepo) AssignDriver(ctx context.Context, tripID, driverID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": tripID},
		bson.M{"$set": bson.M{"driver_id": driverID}},
	)
	if err != nil {
		return fmt.Errorf("failed to assign driver: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrTripNotFound
	}
	return nil
}

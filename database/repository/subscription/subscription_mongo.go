package subscriptionRepo

import (
	"context"
	"fmt"
	"time"

	"ridepool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSubscriptionRepo implements SubscriptionRepository using MongoDB.
type MongoSubscriptionRepo struct {
	coll *mongo.Collection
}

// NewMongoSubscriptionRepo creates a new SubscriptionRepository backed by MongoDB.
func NewMongoSubscriptionRepo(db *mongo.Database) SubscriptionRepository {
	repo := &MongoSubscriptionRepo{coll: db.Collection("subscriptions")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create subscription indexes: %v\n", err)
	}
	return repo
}

func (r *MongoSubscriptionRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "route_id", Value: 1}, {Key: "time_slot_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "end_date", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription indexes: %w", err)
	}
	return nil
}

func (r *MongoSubscriptionRepo) Create(ctx context.Context, sub *models.Subscription) error {
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, sub); err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (r *MongoSubscriptionRepo) GetByID(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&sub); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to fetch subscription %s: %w", id, err)
	}
	return &sub, nil
}

func (r *MongoSubscriptionRepo) List(ctx context.Context, filter SubscriptionFilter) ([]models.Subscription, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.RouteID != "" {
		query["route_id"] = filter.RouteID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeSubscriptions(ctx, cursor)
}

func (r *MongoSubscriptionRepo) ListForSlot(ctx context.Context, routeID, timeSlotID string, onDate time.Time) ([]models.Subscription, error) {
	day := time.Date(onDate.Year(), onDate.Month(), onDate.Day(), 0, 0, 0, 0, time.UTC)
	query := bson.M{
		"route_id":     routeID,
		"time_slot_id": timeSlotID,
		// pending_cancellation keeps riding until period end; the date
		// bounds below cut service off once the period lapses.
		"status":       bson.M{"$in": []string{models.SubscriptionActive, models.SubscriptionPendingCancellation}},
		"weekdays":     day.Weekday().String(),
		"start_date":   bson.M{"$lte": day.Add(24*time.Hour - time.Nanosecond)},
		"end_date":     bson.M{"$gte": day},
	}

	cursor, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions for slot: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeSubscriptions(ctx, cursor)
}

func (r *MongoSubscriptionRepo) ListActive(ctx context.Context) ([]models.Subscription, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"status": models.SubscriptionActive})
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeSubscriptions(ctx, cursor)
}

func (r *MongoSubscriptionRepo) TransitionStatus(ctx context.Context, id string, fromStatuses []string, to string, cancelledAt *time.Time) (*models.Subscription, error) {
	set := bson.M{"status": to, "updated_at": time.Now()}
	if cancelledAt != nil {
		set["cancellation_date"] = *cancelledAt
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := r.coll.FindOneAndUpdate(ctx,
		bson.M{"id": id, "status": bson.M{"$in": fromStatuses}},
		bson.M{"$set": set},
		opts,
	)

	var sub models.Subscription
	if err := res.Decode(&sub); err != nil {
		if err != mongo.ErrNoDocuments {
			return nil, fmt.Errorf("failed to transition subscription %s: %w", id, err)
		}
		// Distinguish a missing record from a status race.
		if _, getErr := r.GetByID(ctx, id); getErr == ErrSubscriptionNotFound {
			return nil, ErrSubscriptionNotFound
		}
		return nil, ErrStatusConflict
	}
	return &sub, nil
}

func (r *MongoSubscriptionRepo) UpdateDates(ctx context.Context, id string, start, end time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"start_date": start, "end_date": end, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription dates: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *MongoSubscriptionRepo) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"status": models.SubscriptionActive, "end_date": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"status": models.SubscriptionExpired, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	return res.ModifiedCount, nil
}

func decodeSubscriptions(ctx context.Context, cursor *mongo.Cursor) ([]models.Subscription, error) {
	var subs []models.Subscription
	for cursor.Next(ctx) {
		var s models.Subscription
		if err := cursor.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, nil
}

package blackoutRepo

import (
	"context"
	"fmt"
	"time"

	"ridepool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBlackoutRepo implements BlackoutRepository using MongoDB.
type MongoBlackoutRepo struct {
	coll *mongo.Collection
}

// NewMongoBlackoutRepo creates a new BlackoutRepository backed by MongoDB.
func NewMongoBlackoutRepo(db *mongo.Database) BlackoutRepository {
	repo := &MongoBlackoutRepo{coll: db.Collection("blackout_dates")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create blackout indexes: %v\n", err)
	}
	return repo
}

func (r *MongoBlackoutRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "start_date", Value: 1}, {Key: "end_date", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create blackout indexes: %w", err)
	}
	return nil
}

func (r *MongoBlackoutRepo) Create(ctx context.Context, b *models.BlackoutDate) error {
	b.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("failed to create blackout date: %w", err)
	}
	return nil
}

func (r *MongoBlackoutRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete blackout date %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrBlackoutNotFound
	}
	return nil
}

func (r *MongoBlackoutRepo) List(ctx context.Context) ([]models.BlackoutDate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list blackout dates: %w", err)
	}
	defer cursor.Close(ctx)

	var dates []models.BlackoutDate
	for cursor.Next(ctx) {
		var b models.BlackoutDate
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to decode blackout date: %w", err)
		}
		dates = append(dates, b)
	}
	return dates, nil
}

func (r *MongoBlackoutRepo) IsBlackout(ctx context.Context, date time.Time) (bool, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	count, err := r.coll.CountDocuments(ctx, bson.M{
		"start_date": bson.M{"$lte": day.Add(24*time.Hour - time.Nanosecond)},
		"end_date":   bson.M{"$gte": day},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check blackout for %s: %w", day.Format("2006-01-02"), err)
	}
	return count > 0, nil
}

package settlementRepo

import (
	"context"
	"fmt"
	"time"

	"ridepool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSettlementRepo implements SettlementRepository using MongoDB.
type MongoSettlementRepo struct {
	coll *mongo.Collection
}

// NewMongoSettlementRepo creates a new SettlementRepository backed by MongoDB.
func NewMongoSettlementRepo(db *mongo.Database) SettlementRepository {
	repo := &MongoSettlementRepo{coll: db.Collection("cash_settlements")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create settlement indexes: %v\n", err)
	}
	return repo
}

func (r *MongoSettlementRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		// One record per subscription per missed service date.
		{
			Keys:    bson.D{{Key: "subscription_id", Value: 1}, {Key: "service_date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create settlement indexes: %w", err)
	}
	return nil
}

func (r *MongoSettlementRepo) Create(ctx context.Context, rec *models.CashSettlementRecord) error {
	rec.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSettlement
		}
		return fmt.Errorf("failed to create settlement record: %w", err)
	}
	return nil
}

func (r *MongoSettlementRepo) GetByID(ctx context.Context, id string) (*models.CashSettlementRecord, error) {
	var rec models.CashSettlementRecord
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSettlementNotFound
		}
		return nil, fmt.Errorf("failed to fetch settlement record %s: %w", id, err)
	}
	return &rec, nil
}

func (r *MongoSettlementRepo) GetByPair(ctx context.Context, subscriptionID, serviceDate string) (*models.CashSettlementRecord, error) {
	var rec models.CashSettlementRecord
	filter := bson.M{"subscription_id": subscriptionID, "service_date": serviceDate}
	if err := r.coll.FindOne(ctx, filter).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSettlementNotFound
		}
		return nil, fmt.Errorf("failed to fetch settlement record for %s/%s: %w", subscriptionID, serviceDate, err)
	}
	return &rec, nil
}

func (r *MongoSettlementRepo) List(ctx context.Context, status string) ([]models.CashSettlementRecord, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlement records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.CashSettlementRecord
	for cursor.Next(ctx) {
		var rec models.CashSettlementRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode settlement record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *MongoSettlementRepo) Acknowledge(ctx context.Context, id, adminID string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "status": models.SettlementPending},
		bson.M{"$set": bson.M{
			"status":          models.SettlementAcknowledged,
			"acknowledged_by": adminID,
			"acknowledged_at": at,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to acknowledge settlement record %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrSettlementNotFound
	}
	return nil
}

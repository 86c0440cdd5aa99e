package invoiceRepo

import (
	"context"
	"fmt"
	"time"

	"ridepool/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoInvoiceRepo implements InvoiceRepository using MongoDB.
type MongoInvoiceRepo struct {
	coll *mongo.Collection
}

// NewMongoInvoiceRepo creates a new InvoiceRepository backed by MongoDB.
func NewMongoInvoiceRepo(db *mongo.Database) InvoiceRepository {
	repo := &MongoInvoiceRepo{coll: db.Collection("subscription_invoices")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create invoice indexes: %v\n", err)
	}
	return repo
}

func (r *MongoInvoiceRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "invoice_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		// One invoice per subscription per billing month.
		{
			Keys:    bson.D{{Key: "subscription_id", Value: 1}, {Key: "billing_month", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create invoice indexes: %w", err)
	}
	return nil
}

func (r *MongoInvoiceRepo) Create(ctx context.Context, inv *models.SubscriptionInvoice) error {
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, inv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateInvoice
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *MongoInvoiceRepo) GetByID(ctx context.Context, id string) (*models.SubscriptionInvoice, error) {
	var inv models.SubscriptionInvoice
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&inv); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to fetch invoice %s: %w", id, err)
	}
	return &inv, nil
}

func (r *MongoInvoiceRepo) ListBySubscription(ctx context.Context, subscriptionID string) ([]models.SubscriptionInvoice, error) {
	opts := options.Find().SetSort(bson.D{{Key: "billing_month", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"subscription_id": subscriptionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer cursor.Close(ctx)

	var invoices []models.SubscriptionInvoice
	for cursor.Next(ctx) {
		var inv models.SubscriptionInvoice
		if err := cursor.Decode(&inv); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func (r *MongoInvoiceRepo) MarkPaid(ctx context.Context, id string, amount decimal.Decimal, paidAt time.Time) error {
	return r.setStatus(ctx, id, bson.M{
		"status":      models.InvoicePaid,
		"amount_paid": amount,
		"paid_at":     paidAt,
		"updated_at":  time.Now(),
	})
}

func (r *MongoInvoiceRepo) MarkFailed(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, bson.M{
		"status":     models.InvoiceFailed,
		"updated_at": time.Now(),
	})
}

func (r *MongoInvoiceRepo) MarkRefunded(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, bson.M{
		"status":     models.InvoiceRefunded,
		"updated_at": time.Now(),
	})
}

func (r *MongoInvoiceRepo) setStatus(ctx context.Context, id string, set bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update invoice %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

package walletRepo

import (
	"context"
	"fmt"
	"time"

	"ridepool/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWalletRepo implements WalletRepository using MongoDB.
type MongoWalletRepo struct {
	walletColl *mongo.Collection
	txColl     *mongo.Collection
}

// NewMongoWalletRepo creates a new WalletRepository backed by MongoDB.
func NewMongoWalletRepo(db *mongo.Database) WalletRepository {
	repo := &MongoWalletRepo{
		walletColl: db.Collection("wallets"),
		txColl:     db.Collection("wallet_transactions"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create wallet indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoWalletRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	_, err := r.walletColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create wallet indexes: %w", err)
	}

	_, err = r.txColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "wallet_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "wallet_id", Value: 1}, {Key: "reference_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create wallet transaction indexes: %w", err)
	}
	return nil
}

func (r *MongoWalletRepo) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.walletColl.FindOne(ctx, bson.M{"id": id}).Decode(&w); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to fetch wallet %s: %w", id, err)
	}
	return &w, nil
}

func (r *MongoWalletRepo) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.walletColl.FindOne(ctx, bson.M{"user_id": userID}).Decode(&w); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to fetch wallet for user %s: %w", userID, err)
	}
	return &w, nil
}

func (r *MongoWalletRepo) GetOrCreateByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	w, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return w, nil
	}
	if err != ErrWalletNotFound {
		return nil, err
	}

	now := time.Now()
	fresh := &models.Wallet{
		ID:        uuid.New().String(),
		UserID:    userID,
		Balance:   decimal.Zero,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.walletColl.InsertOne(ctx, fresh); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the creation race; the other writer's wallet wins.
			return r.GetByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create wallet for user %s: %w", userID, err)
	}
	return fresh, nil
}

// AppendTransaction persists the updated cached balance and the ledger entry
// in one MongoDB transaction. The balance write is conditional on the wallet
// version seen by the caller, which serializes concurrent mutations.
func (r *MongoWalletRepo) AppendTransaction(ctx context.Context, w *models.Wallet, tx *models.WalletTransaction) error {
	client := r.walletColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		res, err := r.walletColl.UpdateOne(sc,
			bson.M{"id": w.ID, "version": w.Version},
			bson.M{
				"$set": bson.M{"balance": w.Balance, "updated_at": time.Now()},
				"$inc": bson.M{"version": 1},
			},
		)
		if err != nil {
			return fmt.Errorf("failed to update wallet balance: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrVersionConflict
		}

		if _, err := r.txColl.InsertOne(sc, tx); err != nil {
			return fmt.Errorf("failed to insert wallet transaction: %w", err)
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
		if err == ErrVersionConflict {
			return ErrVersionConflict
		}
		return fmt.Errorf("wallet transaction failed: %w", err)
	}
	return nil
}

func (r *MongoWalletRepo) Transactions(ctx context.Context, walletID string) ([]models.WalletTransaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.txColl.Find(ctx, bson.M{"wallet_id": walletID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for wallet %s: %w", walletID, err)
	}
	defer cursor.Close(ctx)

	var txs []models.WalletTransaction
	for cursor.Next(ctx) {
		var t models.WalletTransaction
		if err := cursor.Decode(&t); err != nil {
			return nil, fmt.Errorf("failed to decode wallet transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, nil
}

func (r *MongoWalletRepo) HasEntryWithReference(ctx context.Context, walletID, category, referenceID string) (bool, error) {
	count, err := r.txColl.CountDocuments(ctx, bson.M{
		"wallet_id":    walletID,
		"category":     category,
		"reference_id": referenceID,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up wallet entry by reference %s: %w", referenceID, err)
	}
	return count > 0, nil
}

func (r *MongoWalletRepo) SumTransactions(ctx context.Context, walletID string) (decimal.Decimal, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"wallet_id": walletID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
		}}},
	}
	cursor, err := r.txColl.Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions for wallet %s: %w", walletID, err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total decimal.Decimal `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return decimal.Zero, fmt.Errorf("failed to decode transaction sum: %w", err)
		}
	}
	return result.Total, nil
}

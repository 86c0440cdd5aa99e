package walletRepo

import (
	"context"
	"errors"

	"ridepool/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrWalletNotFound is returned when no wallet exists for the given id.
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrVersionConflict signals a lost update on the wallet document; the
	// caller re-reads and retries.
	ErrVersionConflict = errors.New("wallet version conflict")
)

// WalletRepository persists wallets and their append-only transaction log.
type WalletRepository interface {
	GetByID(ctx context.Context, id string) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID string) (*models.Wallet, error)
	// GetOrCreateByUserID lazily creates an empty wallet on first use.
	GetOrCreateByUserID(ctx context.Context, userID string) (*models.Wallet, error)
	// AppendTransaction atomically persists the new cached balance on w
	// (conditional on w.Version) and inserts the ledger entry. Returns
	// ErrVersionConflict if another writer got there first.
	AppendTransaction(ctx context.Context, w *models.Wallet, tx *models.WalletTransaction) error
	// Transactions returns the ledger entries for a wallet, oldest first.
	Transactions(ctx context.Context, walletID string) ([]models.WalletTransaction, error)
	// HasEntryWithReference reports whether the wallet already holds an
	// entry with the given category and reference id. Callers that must
	// apply a credit at most once key the reference on their natural key.
	HasEntryWithReference(ctx context.Context, walletID, category, referenceID string) (bool, error)
	// SumTransactions re-derives the balance from the ledger, for audit.
	SumTransactions(ctx context.Context, walletID string) (decimal.Decimal, error)
}

package wallet

import (
	"context"

	"ridepool/models"

	"github.com/shopspring/decimal"
)

// AuditReport compares a wallet's cached balance against the sum of its
// ledger entries.
type AuditReport struct {
	WalletID   string          `json:"wallet_id"`
	Cached     decimal.Decimal `json:"cached_balance"`
	Derived    decimal.Decimal `json:"derived_balance"`
	Consistent bool            `json:"consistent"`
}

// WalletService is the ledger's write and read surface. All mutations append
// immutable transactions; the cached balance always equals their sum.
type WalletService interface {
	// Credit appends a positive entry, lazily creating the wallet.
	Credit(ctx context.Context, userID string, amount decimal.Decimal, category, description, referenceID string) (*models.WalletTransaction, error)
	// Debit appends a negative entry; fails with ErrInsufficientBalance
	// before any state is written.
	Debit(ctx context.Context, userID string, amount decimal.Decimal, category, description, referenceID string) (*models.WalletTransaction, error)
	BalanceOf(ctx context.Context, userID string) (decimal.Decimal, error)
	// AdminAdjust applies a signed correction tagged admin_adjustment; the
	// reason is mandatory and logged for audit.
	AdminAdjust(ctx context.Context, userID string, amount decimal.Decimal, reason string) (*models.WalletTransaction, error)
	Transactions(ctx context.Context, userID string) ([]models.WalletTransaction, error)
	// HasEntry reports whether the user's ledger already holds an entry
	// with the given category and reference id. A missing wallet has no
	// entries.
	HasEntry(ctx context.Context, userID, category, referenceID string) (bool, error)
	// Audit independently re-derives the balance from the ledger.
	Audit(ctx context.Context, userID string) (*AuditReport, error)
}

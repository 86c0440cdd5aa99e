package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TxTypeCredit = "credit"
	TxTypeDebit  = "debit"
)

// Transaction categories.
const (
	TxCategoryTopup              = "topup"
	TxCategorySubscriptionCharge = "subscription_charge"
	TxCategoryRefund             = "refund"
	TxCategoryAdminAdjustment    = "admin_adjustment"
)

// Wallet holds a user's prepaid balance. The balance is derived from the
// transaction log and cached here for reads; it is never written directly.
type Wallet struct {
	ID        string          `bson:"id" json:"id"`
	UserID    string          `bson:"user_id" json:"user_id"`
	Balance   decimal.Decimal `bson:"balance" json:"balance"`
	Version   int64           `bson:"version" json:"-"` // optimistic lock counter
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time       `bson:"updated_at" json:"updated_at"`
}

// WalletTransaction is an immutable ledger entry. Credits carry a positive
// amount, debits a negative one. Corrections are new offsetting entries,
// never edits.
type WalletTransaction struct {
	ID           string          `bson:"id" json:"id"`
	WalletID     string          `bson:"wallet_id" json:"wallet_id"`
	Amount       decimal.Decimal `bson:"amount" json:"amount"`
	Type         string          `bson:"type" json:"type"`         // "credit" or "debit"
	Category     string          `bson:"category" json:"category"` // topup, subscription_charge, refund, admin_adjustment
	Description  string          `bson:"description" json:"description"`
	BalanceAfter decimal.Decimal `bson:"balance_after" json:"balance_after"`
	ReferenceID  string          `bson:"reference_id,omitempty" json:"reference_id,omitempty"` // invoice/subscription/cancellation link
	CreatedAt    time.Time       `bson:"created_at" json:"created_at"`
}

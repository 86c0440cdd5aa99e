package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice statuses.
const (
	InvoicePending  = "pending"
	InvoicePaid     = "paid"
	InvoiceFailed   = "failed"
	InvoiceRefunded = "refunded"
)

// SubscriptionInvoice represents one billing period of a subscription.
// Mutated only to record payment or refund outcome.
type SubscriptionInvoice struct {
	ID             string          `bson:"id" json:"id"`
	InvoiceNumber  string          `bson:"invoice_number" json:"invoice_number"`
	SubscriptionID string          `bson:"subscription_id" json:"subscription_id"`
	UserID         string          `bson:"user_id" json:"user_id"`
	BillingMonth   string          `bson:"billing_month" json:"billing_month"` // "YYYY-MM"
	AmountDue      decimal.Decimal `bson:"amount_due" json:"amount_due"`
	AmountPaid     decimal.Decimal `bson:"amount_paid" json:"amount_paid"`
	Status         string          `bson:"status" json:"status"`
	DueDate        time.Time       `bson:"due_date" json:"due_date"`
	PaidAt         *time.Time      `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	CreatedAt      time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `bson:"updated_at" json:"updated_at"`
}

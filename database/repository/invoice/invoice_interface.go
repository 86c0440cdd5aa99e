package invoiceRepo

import (
	"context"
	"errors"
	"time"

	"ridepool/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvoiceNotFound is returned when no invoice matches the id.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrDuplicateInvoice signals an invoice already exists for the
	// (subscription, billing month) pair.
	ErrDuplicateInvoice = errors.New("invoice already exists for billing month")
)

// InvoiceRepository persists subscription invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *models.SubscriptionInvoice) error
	GetByID(ctx context.Context, id string) (*models.SubscriptionInvoice, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]models.SubscriptionInvoice, error)
	MarkPaid(ctx context.Context, id string, amount decimal.Decimal, paidAt time.Time) error
	MarkFailed(ctx context.Context, id string) error
	MarkRefunded(ctx context.Context, id string) error
}

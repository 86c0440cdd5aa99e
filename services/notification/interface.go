package notification

import (
	"context"

	"ridepool/models"

	"github.com/shopspring/decimal"
)

// NotificationService dispatches subscriber-facing messages. Every method is
// fire-and-forget: callers log failures and carry on, delivery never blocks
// billing or scheduling.
type NotificationService interface {
	NotifySubscriptionPurchased(ctx context.Context, sub *models.Subscription) error
	NotifySubscriptionCancelled(ctx context.Context, sub *models.Subscription, refund decimal.Decimal) error
	NotifyInvoice(ctx context.Context, inv *models.SubscriptionInvoice, event string) error
}

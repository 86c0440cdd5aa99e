package subscription

import (
	"context"
	"time"

	subscriptionRepo "ridepool/database/repository/subscription"
	"ridepool/models"

	"github.com/shopspring/decimal"
)

// PurchaseInput carries everything needed to open a subscription.
type PurchaseInput struct {
	UserID          string    `json:"user_id"`
	RouteID         string    `json:"route_id"`
	TimeSlotID      string    `json:"time_slot_id"`
	BoardingPointID string    `json:"boarding_point_id"`
	DropOffPointID  string    `json:"drop_off_point_id"`
	Weekdays        []string  `json:"weekdays"`
	StartDate       time.Time `json:"start_date"`
	PaymentMethod   string    `json:"payment_method"`
}

// SweepResult summarizes one expiry sweep run.
type SweepResult struct {
	Expired   int64 `json:"expired"`
	Cancelled int64 `json:"cancelled"` // pending cancellations finalized
}

// SubscriptionService owns the subscription lifecycle.
type SubscriptionService interface {
	// Quote prices a route/weekday selection without side effects.
	Quote(ctx context.Context, routeID string, weekdays []string) (*models.CostBreakdown, error)
	// Purchase opens a subscription; for online payment the first period is
	// debited up front and failure aborts with no partial state.
	Purchase(ctx context.Context, input PurchaseInput) (*models.Subscription, error)
	// Cancel terminates immediately and returns the prorated refund amount.
	// Admin-privileged; the reason is mandatory.
	Cancel(ctx context.Context, id, reason string) (decimal.Decimal, error)
	// RequestCancellation is the self-service variant: the subscription
	// stays active until period end under pending_cancellation.
	RequestCancellation(ctx context.Context, id, userID string) error
	// EditDates is a privileged data-entry correction. It deliberately does
	// not recompute invoices or wallet transactions.
	EditDates(ctx context.Context, id string, newStart, newEnd time.Time) error
	// ExpireSweep lazily finalizes subscriptions whose period has passed.
	// Idempotent, safe to run redundantly.
	ExpireSweep(ctx context.Context) (*SweepResult, error)
	GetByID(ctx context.Context, id string) (*models.Subscription, error)
	List(ctx context.Context, filter subscriptionRepo.SubscriptionFilter) ([]models.Subscription, error)
}

package subscriptionRepo

import (
	"context"
	"errors"
	"time"

	"ridepool/models"
)

var (
	// ErrSubscriptionNotFound is returned when no subscription matches the id.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrStatusConflict signals that a conditional status transition matched
	// nothing, because another writer changed the record first.
	ErrStatusConflict = errors.New("subscription status conflict")
)

// SubscriptionFilter narrows admin listings.
type SubscriptionFilter struct {
	UserID  string
	RouteID string
	Status  string
}

// SubscriptionRepository persists recurring seat reservations.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	GetByID(ctx context.Context, id string) (*models.Subscription, error)
	List(ctx context.Context, filter SubscriptionFilter) ([]models.Subscription, error)
	// ListForSlot returns subscriptions riding the given route/slot whose
	// weekday set covers the weekday of onDate and whose date window
	// contains it. Both active and pending_cancellation riders are served;
	// a pending cancellation keeps its seat until period end.
	ListForSlot(ctx context.Context, routeID, timeSlotID string, onDate time.Time) ([]models.Subscription, error)
	// ListActive returns all currently active subscriptions (billing sweep).
	ListActive(ctx context.Context) ([]models.Subscription, error)
	// TransitionStatus moves a subscription from one of fromStatuses to the
	// target status as a single conditional update, and returns the updated
	// record. ErrStatusConflict when the current status no longer matches.
	TransitionStatus(ctx context.Context, id string, fromStatuses []string, to string, cancelledAt *time.Time) (*models.Subscription, error)
	// UpdateDates overwrites the start/end dates without touching anything
	// else. Data-entry corrections only.
	UpdateDates(ctx context.Context, id string, start, end time.Time) error
	// ExpireBefore flips active subscriptions whose end date passed the
	// cutoff to expired, and reports how many changed. Idempotent.
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

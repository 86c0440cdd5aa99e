package billing

import (
	"context"

	subscriptionRepo "ridepool/database/repository/subscription"
	"ridepool/models"

	"go.uber.org/zap"
)

// FailurePolicy decides what happens to a subscription when its monthly
// invoice cannot be collected. Configuration picks one at startup.
type FailurePolicy interface {
	OnFailure(ctx context.Context, sub models.Subscription, inv *models.SubscriptionInvoice) error
}

// GracePeriodPolicy keeps the subscription active and lets the subscriber
// top up within a grace window. The invoice stays failed until retried.
type GracePeriodPolicy struct {
	Days   int
	Logger *zap.Logger
}

func (p GracePeriodPolicy) OnFailure(ctx context.Context, sub models.Subscription, inv *models.SubscriptionInvoice) error {
	p.Logger.Warn("invoice payment failed, grace period started",
		zap.String("subscriptionId", sub.ID),
		zap.String("invoiceId", inv.ID),
		zap.String("billingMonth", inv.BillingMonth),
		zap.Int("graceDays", p.Days),
	)
	return nil
}

// ImmediateSuspendPolicy terminates the subscription as soon as collection
// fails. The terminal state is expired so the subscriber can purchase again
// once funded.
type ImmediateSuspendPolicy struct {
	Subs   subscriptionRepo.SubscriptionRepository
	Logger *zap.Logger
}

func (p ImmediateSuspendPolicy) OnFailure(ctx context.Context, sub models.Subscription, inv *models.SubscriptionInvoice) error {
	_, err := p.Subs.TransitionStatus(ctx, sub.ID,
		[]string{models.SubscriptionActive, models.SubscriptionPendingCancellation},
		models.SubscriptionExpired, nil)
	if err == subscriptionRepo.ErrStatusConflict {
		// Already terminated by another path, nothing left to suspend.
		return nil
	}
	if err != nil {
		return err
	}
	p.Logger.Warn("subscription suspended after failed invoice",
		zap.String("subscriptionId", sub.ID),
		zap.String("invoiceId", inv.ID),
	)
	return nil
}

package notification

import (
	"context"
	"fmt"

	"ridepool/models"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AsynqNotificationService enqueues notification tasks on the Redis-backed
// queue; the worker in cron/ drains them out of band.
type AsynqNotificationService struct {
	Client *asynq.Client
	Logger *zap.Logger
}

func NewAsynqNotificationService(client *asynq.Client, logger *zap.Logger) *AsynqNotificationService {
	return &AsynqNotificationService{Client: client, Logger: logger}
}

func (s *AsynqNotificationService) NotifySubscriptionPurchased(ctx context.Context, sub *models.Subscription) error {
	task, err := NewSubscriptionEventTask(SubscriptionEventPayload{
		Event:          EventPurchased,
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		RouteID:        sub.RouteID,
		Amount:         sub.MonthlyPrice.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to build purchase notification: %w", err)
	}
	return s.enqueue(ctx, task)
}

func (s *AsynqNotificationService) NotifySubscriptionCancelled(ctx context.Context, sub *models.Subscription, refund decimal.Decimal) error {
	task, err := NewSubscriptionEventTask(SubscriptionEventPayload{
		Event:          EventCancelled,
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		RouteID:        sub.RouteID,
		Amount:         refund.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to build cancellation notification: %w", err)
	}
	return s.enqueue(ctx, task)
}

func (s *AsynqNotificationService) NotifyInvoice(ctx context.Context, inv *models.SubscriptionInvoice, event string) error {
	task, err := NewInvoiceEventTask(InvoiceEventPayload{
		Event:          event,
		InvoiceID:      inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		SubscriptionID: inv.SubscriptionID,
		UserID:         inv.UserID,
		AmountDue:      inv.AmountDue.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to build invoice notification: %w", err)
	}
	return s.enqueue(ctx, task)
}

func (s *AsynqNotificationService) enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := s.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}
	s.Logger.Debug("notification enqueued",
		zap.String("type", task.Type()), zap.String("taskId", info.ID))
	return nil
}

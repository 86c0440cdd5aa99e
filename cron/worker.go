package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ridepool/config"
	"ridepool/services/billing"
	"ridepool/services/notification"
	"ridepool/services/subscription"
	"ridepool/services/tripgen"
	"ridepool/utils"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// InitScheduler wires the periodic jobs: the nightly trip-generation run,
// the daily expiry sweep and the monthly billing run. Returns the started
// cron so main can stop it on shutdown.
func InitScheduler(engine tripgen.SchedulerEngine, subs subscription.SubscriptionService, bill billing.BillingService) (*cron.Cron, error) {
	logger := utils.GetLogger()
	c := cron.New()

	// Nightly generation for the configured horizon, anchored at the
	// configured local hour.
	genSpec := fmt.Sprintf("0 %d * * *", config.AppConfig.TripGenHour)
	if _, err := c.AddFunc(genSpec, func() {
		horizon := config.AppConfig.TripGenHorizonDays
		if horizon < 1 {
			horizon = 1
		}
		from := time.Now().UTC().AddDate(0, 0, 1)
		to := from.AddDate(0, 0, horizon-1)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()
		summary, err := engine.RunForDateRange(ctx, from, to)
		if err != nil {
			logger.Error("Nightly trip generation failed", zap.Error(err))
			return
		}
		logger.Info("Nightly trip generation finished",
			zap.Int("tripsCreated", summary.TripsCreated),
			zap.Int("slotErrors", summary.SlotErrors))
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule trip generation: %w", err)
	}

	// Expiry sweep shortly after midnight UTC.
	if _, err := c.AddFunc("10 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		result, err := subs.ExpireSweep(ctx)
		if err != nil {
			logger.Error("Subscription expiry sweep failed", zap.Error(err))
			return
		}
		logger.Info("Subscription expiry sweep finished",
			zap.Int64("expired", result.Expired),
			zap.Int64("cancelled", result.Cancelled))
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}

	// Monthly billing on the 1st at 02:00 UTC.
	if _, err := c.AddFunc("0 2 1 * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		report, err := bill.GenerateForMonth(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Monthly billing run failed", zap.Error(err))
			return
		}
		logger.Info("Monthly billing run finished",
			zap.String("billingMonth", report.BillingMonth),
			zap.Int("created", report.InvoicesCreated),
			zap.Int("failed", report.Failed))
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule billing run: %w", err)
	}

	c.Start()
	logger.Info("Scheduler started", zap.String("tripGenSpec", genSpec))
	return c, nil
}

// InitNotificationWorker runs the async notification worker in background.
func InitNotificationWorker() {
	logger := utils.GetLogger()
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeSubscriptionEvent, handleSubscriptionEvent)
	mux.HandleFunc(notification.TypeInvoiceEvent, handleInvoiceEvent)

	// Start async worker with retry logic.
	go func() {
		logger.Info("Starting notification worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("Notification worker failed to start",
					zap.Int("attempt", attempts), zap.Error(err))
				if attempts == maxAttempts {
					logger.Fatal("Notification worker exhausted startup retries")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

// handleSubscriptionEvent delivers purchase/cancellation messages. Delivery
// is a log line here; a messaging provider slots in behind this handler.
func handleSubscriptionEvent(ctx context.Context, task *asynq.Task) error {
	logger := utils.GetLogger()
	var p notification.SubscriptionEventPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		logger.Error("Invalid subscription event payload", zap.Error(err))
		return err
	}

	logger.Info("Delivering subscription notification",
		zap.String("event", p.Event),
		zap.String("subscriptionId", p.SubscriptionID),
		zap.String("userId", p.UserID),
		zap.String("amount", p.Amount),
	)
	return nil
}

func handleInvoiceEvent(ctx context.Context, task *asynq.Task) error {
	logger := utils.GetLogger()
	var p notification.InvoiceEventPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		logger.Error("Invalid invoice event payload", zap.Error(err))
		return err
	}

	logger.Info("Delivering invoice notification",
		zap.String("event", p.Event),
		zap.String("invoiceNumber", p.InvoiceNumber),
		zap.String("userId", p.UserID),
		zap.String("amountDue", p.AmountDue),
	)
	return nil
}

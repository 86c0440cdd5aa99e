package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	routeRepo "ridepool/database/repository/route"
	subscriptionRepo "ridepool/database/repository/subscription"
	"ridepool/models"
	"ridepool/services/notification"
	"ridepool/services/wallet"
	"ridepool/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultSubscriptionService implements SubscriptionService.
type DefaultSubscriptionService struct {
	Repo     subscriptionRepo.SubscriptionRepository
	Routes   routeRepo.RouteRepository
	Wallet   wallet.WalletService
	Notifier notification.NotificationService
	Cache    *redis.Client // optional quote cache
	Logger   *zap.Logger
	Now      func() time.Time // defaults to time.Now
}

func (s *DefaultSubscriptionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultSubscriptionService) Quote(ctx context.Context, routeID string, weekdays []string) (*models.CostBreakdown, error) {
	normalized, err := NormalizeWeekdays(weekdays)
	if err != nil {
		return nil, err
	}

	cacheKey := utils.QuoteCachePrefix + routeID + ":" + strings.Join(normalized, ",")
	if s.Cache != nil {
		if raw, err := s.Cache.Get(ctx, cacheKey).Result(); err == nil {
			var cached models.CostBreakdown
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	route, err := s.Routes.GetByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	breakdown, err := CalculateCost(route, normalized)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if raw, err := json.Marshal(breakdown); err == nil {
			s.Cache.Set(ctx, cacheKey, raw, utils.QuoteCacheTTL)
		}
	}
	return breakdown, nil
}

func (s *DefaultSubscriptionService) Purchase(ctx context.Context, input PurchaseInput) (*models.Subscription, error) {
	if input.PaymentMethod != models.PaymentMethodCash && input.PaymentMethod != models.PaymentMethodOnline {
		return nil, ErrInvalidPaymentMethod
	}
	normalized, err := NormalizeWeekdays(input.Weekdays)
	if err != nil {
		return nil, err
	}

	route, err := s.Routes.GetByID(ctx, input.RouteID)
	if err != nil {
		return nil, err
	}
	if route.TimeSlot(input.TimeSlotID) == nil {
		return nil, ErrUnknownTimeSlot
	}
	if !route.HasBoardingPoint(input.BoardingPointID) || !route.HasBoardingPoint(input.DropOffPointID) {
		return nil, ErrUnknownBoardingPoint
	}

	breakdown, err := CalculateCost(route, normalized)
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		ID:              uuid.New().String(),
		UserID:          input.UserID,
		RouteID:         route.ID,
		TimeSlotID:      input.TimeSlotID,
		BoardingPointID: input.BoardingPointID,
		DropOffPointID:  input.DropOffPointID,
		Weekdays:        normalized,
		StartDate:       input.StartDate,
		EndDate:         input.StartDate.AddDate(0, 1, 0),
		PricePerTrip:    route.PricePerSeat,
		MonthlyPrice:    breakdown.MonthlyCost,
		Discount:        breakdown.Discount,
		PaymentMethod:   input.PaymentMethod,
		Status:          models.SubscriptionActive,
	}

	// Online purchases pay the first period up front; a failed debit aborts
	// the purchase before anything is persisted.
	if input.PaymentMethod == models.PaymentMethodOnline {
		description := fmt.Sprintf("Subscription charge for route %s", route.Name)
		if _, err := s.Wallet.Debit(ctx, input.UserID, breakdown.MonthlyCost, models.TxCategorySubscriptionCharge, description, sub.ID); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.Create(ctx, sub); err != nil {
		// Undo the upfront charge so no partial state survives.
		if input.PaymentMethod == models.PaymentMethodOnline {
			if _, refundErr := s.Wallet.Credit(ctx, input.UserID, breakdown.MonthlyCost, models.TxCategoryRefund, "Reversal of failed subscription purchase", sub.ID); refundErr != nil {
				s.Logger.Error("failed to reverse charge after purchase failure",
					zap.String("subscriptionId", sub.ID), zap.Error(refundErr))
			}
		}
		return nil, err
	}

	if s.Notifier != nil {
		if err := s.Notifier.NotifySubscriptionPurchased(ctx, sub); err != nil {
			s.Logger.Warn("purchase notification failed", zap.String("subscriptionId", sub.ID), zap.Error(err))
		}
	}

	s.Logger.Info("subscription purchased",
		zap.String("subscriptionId", sub.ID),
		zap.String("userId", sub.UserID),
		zap.String("method", sub.PaymentMethod),
		zap.String("monthlyPrice", sub.MonthlyPrice.String()),
	)
	return sub, nil
}

func (s *DefaultSubscriptionService) Cancel(ctx context.Context, id, reason string) (decimal.Decimal, error) {
	if strings.TrimSpace(reason) == "" {
		return decimal.Zero, ErrReasonRequired
	}

	sub, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	today := s.now()
	refund := ProrateRefund(sub.MonthlyPrice, sub.StartDate, sub.EndDate, today)

	// The conditional transition is the concurrency guard: a racing sweep
	// or second cancel loses here instead of double-refunding.
	from := []string{models.SubscriptionActive, models.SubscriptionPendingCancellation}
	updated, err := s.Repo.TransitionStatus(ctx, id, from, models.SubscriptionCancelled, &today)
	if err != nil {
		return decimal.Zero, err
	}

	if sub.PaymentMethod == models.PaymentMethodOnline && refund.IsPositive() {
		description := fmt.Sprintf("Prorated refund: %s", reason)
		if _, err := s.Wallet.Credit(ctx, sub.UserID, refund, models.TxCategoryRefund, description, sub.ID); err != nil {
			// The subscription is cancelled; the refund needs operator
			// attention rather than a rollback of the terminal state.
			s.Logger.Error("refund credit failed after cancellation",
				zap.String("subscriptionId", id), zap.Error(err))
			return decimal.Zero, fmt.Errorf("subscription cancelled but refund failed: %w", err)
		}
	}

	if s.Notifier != nil {
		if err := s.Notifier.NotifySubscriptionCancelled(ctx, updated, refund); err != nil {
			s.Logger.Warn("cancellation notification failed", zap.String("subscriptionId", id), zap.Error(err))
		}
	}

	s.Logger.Info("subscription cancelled",
		zap.String("subscriptionId", id),
		zap.String("reason", reason),
		zap.String("refund", refund.String()),
	)
	return refund, nil
}

func (s *DefaultSubscriptionService) RequestCancellation(ctx context.Context, id, userID string) error {
	sub, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sub.UserID != userID {
		return ErrNotOwner
	}
	if sub.Status != models.SubscriptionActive {
		return ErrNotActive
	}

	_, err = s.Repo.TransitionStatus(ctx, id, []string{models.SubscriptionActive}, models.SubscriptionPendingCancellation, nil)
	if err != nil {
		return err
	}
	s.Logger.Info("cancellation requested, effective at period end", zap.String("subscriptionId", id))
	return nil
}

// EditDates corrects mis-entered dates. It intentionally leaves invoices and
// wallet transactions untouched; it is not a billing operation.
func (s *DefaultSubscriptionService) EditDates(ctx context.Context, id string, newStart, newEnd time.Time) error {
	if !newStart.Before(newEnd) {
		return ErrInvalidDates
	}
	if err := s.Repo.UpdateDates(ctx, id, newStart, newEnd); err != nil {
		return err
	}
	s.Logger.Info("subscription dates corrected",
		zap.String("subscriptionId", id),
		zap.Time("newStart", newStart),
		zap.Time("newEnd", newEnd),
	)
	return nil
}

func (s *DefaultSubscriptionService) ExpireSweep(ctx context.Context) (*SweepResult, error) {
	today := s.now()
	cutoff := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	expired, err := s.Repo.ExpireBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	// Pending cancellations become final once their period ends.
	pending, err := s.Repo.List(ctx, subscriptionRepo.SubscriptionFilter{Status: models.SubscriptionPendingCancellation})
	if err != nil {
		return nil, err
	}
	var cancelled int64
	for i := range pending {
		if !pending[i].EndDate.Before(cutoff) {
			continue
		}
		when := pending[i].EndDate
		_, err := s.Repo.TransitionStatus(ctx, pending[i].ID,
			[]string{models.SubscriptionPendingCancellation}, models.SubscriptionCancelled, &when)
		if err == subscriptionRepo.ErrStatusConflict {
			continue // another sweep got there first
		}
		if err != nil {
			return nil, err
		}
		cancelled++
	}

	if expired > 0 || cancelled > 0 {
		s.Logger.Info("expiry sweep completed",
			zap.Int64("expired", expired), zap.Int64("cancelled", cancelled))
	}
	return &SweepResult{Expired: expired, Cancelled: cancelled}, nil
}

func (s *DefaultSubscriptionService) GetByID(ctx context.Context, id string) (*models.Subscription, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *DefaultSubscriptionService) List(ctx context.Context, filter subscriptionRepo.SubscriptionFilter) ([]models.Subscription, error) {
	return s.Repo.List(ctx, filter)
}

package tripgen

import (
	"context"
	"fmt"

	"ridepool/models"
	"ridepool/services/wallet"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ShortfallPolicy decides what happens to an online-paid subscriber when
// their service date fell below the passenger threshold. The product has
// not committed to a refund here, so both behaviors exist behind this
// interface and configuration picks one.
type ShortfallPolicy interface {
	HandleOnline(ctx context.Context, sub models.Subscription, serviceDate string) error
}

// NoCreditShortfall leaves online bookings untouched on a shortfall day.
type NoCreditShortfall struct{}

func (NoCreditShortfall) HandleOnline(ctx context.Context, sub models.Subscription, serviceDate string) error {
	return nil
}

// CreditBackShortfall credits one daily rate back to the subscriber's
// wallet for the missed service date.
type CreditBackShortfall struct {
	Wallet wallet.WalletService
	Logger *zap.Logger
}

func (p CreditBackShortfall) HandleOnline(ctx context.Context, sub models.Subscription, serviceDate string) error {
	totalDays := int64(sub.EndDate.Sub(sub.StartDate).Hours() / 24)
	if totalDays <= 0 {
		return nil
	}
	dailyRate := sub.MonthlyPrice.Div(decimal.NewFromInt(totalDays)).Round(2)
	if !dailyRate.IsPositive() {
		return nil
	}

	// The reference keys the credit on (subscription, service date) so a
	// re-run of the same date range never credits the same day twice.
	reference := fmt.Sprintf("%s:%s", sub.ID, serviceDate)
	exists, err := p.Wallet.HasEntry(ctx, sub.UserID, models.TxCategoryRefund, reference)
	if err != nil {
		return fmt.Errorf("failed to check shortfall credit for subscription %s: %w", sub.ID, err)
	}
	if exists {
		return nil
	}

	description := fmt.Sprintf("Service credit for %s (trip below passenger threshold)", serviceDate)
	_, err = p.Wallet.Credit(ctx, sub.UserID, dailyRate, models.TxCategoryRefund, description, reference)
	if err != nil {
		return fmt.Errorf("failed to credit shortfall for subscription %s: %w", sub.ID, err)
	}
	p.Logger.Info("shortfall credit issued",
		zap.String("subscriptionId", sub.ID),
		zap.String("serviceDate", serviceDate),
		zap.String("amount", dailyRate.String()),
	)
	return nil
}

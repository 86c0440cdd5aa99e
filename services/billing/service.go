package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	invoiceRepo "ridepool/database/repository/invoice"
	subscriptionRepo "ridepool/database/repository/subscription"
	"ridepool/models"
	"ridepool/services/notification"
	walletService "ridepool/services/wallet"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// invoiceDueDays is how long after issue an invoice is due.
const invoiceDueDays = 7

// RunReport summarizes one billing run.
type RunReport struct {
	BillingMonth    string `json:"billing_month"`
	InvoicesCreated int    `json:"invoices_created"`
	Paid            int    `json:"paid"`
	Failed          int    `json:"failed"`
	CashPending     int    `json:"cash_pending"`
	SkippedExisting int    `json:"skipped_existing"`
	Errors          int    `json:"errors"`
}

// BillingService issues monthly invoices for active subscriptions and
// collects the online ones from subscriber wallets.
type BillingService interface {
	// GenerateForMonth invoices every active subscription for the month
	// containing anchor. One invoice per (subscription, month); reruns
	// skip what already exists.
	GenerateForMonth(ctx context.Context, anchor time.Time) (*RunReport, error)
	// RetryInvoice attempts collection again on a failed online invoice.
	RetryInvoice(ctx context.Context, invoiceID string) (*models.SubscriptionInvoice, error)
	ListForSubscription(ctx context.Context, subscriptionID string) ([]models.SubscriptionInvoice, error)
}

// DefaultBillingService implements BillingService.
type DefaultBillingService struct {
	Invoices invoiceRepo.InvoiceRepository
	Subs     subscriptionRepo.SubscriptionRepository
	Wallet   walletService.WalletService
	Notifier notification.NotificationService
	Failure  FailurePolicy
	Logger   *zap.Logger
	Now      func() time.Time
}

func (s *DefaultBillingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultBillingService) GenerateForMonth(ctx context.Context, anchor time.Time) (*RunReport, error) {
	month := anchor.UTC().Format("2006-01")
	report := &RunReport{BillingMonth: month}

	subs, err := s.Subs.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}

	for i := range subs {
		created, err := s.invoiceOne(ctx, subs[i], month, report)
		if err != nil {
			report.Errors++
			s.Logger.Error("invoicing failed",
				zap.String("subscriptionId", subs[i].ID),
				zap.String("billingMonth", month),
				zap.Error(err),
			)
			continue
		}
		if created {
			report.InvoicesCreated++
		}
	}

	s.Logger.Info("billing run completed",
		zap.String("billingMonth", month),
		zap.Int("created", report.InvoicesCreated),
		zap.Int("paid", report.Paid),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.SkippedExisting),
	)
	return report, nil
}

// invoiceOne issues and, for online subscriptions, collects a single
// invoice. Returns false when the month was already invoiced.
func (s *DefaultBillingService) invoiceOne(ctx context.Context, sub models.Subscription, month string, report *RunReport) (bool, error) {
	now := s.now()
	inv := &models.SubscriptionInvoice{
		ID:             uuid.New().String(),
		InvoiceNumber:  newInvoiceNumber(month),
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		BillingMonth:   month,
		AmountDue:      sub.MonthlyPrice,
		Status:         models.InvoicePending,
		DueDate:        now.AddDate(0, 0, invoiceDueDays),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.Invoices.Create(ctx, inv)
	if err == invoiceRepo.ErrDuplicateInvoice {
		report.SkippedExisting++
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if sub.PaymentMethod == models.PaymentMethodCash {
		// Cash invoices stay pending; drivers collect per trip and an admin
		// marks them paid out of band.
		report.CashPending++
		s.notify(ctx, inv, "issued")
		return true, nil
	}

	if err := s.collect(ctx, sub, inv); err != nil {
		return true, err
	}
	switch inv.Status {
	case models.InvoicePaid:
		report.Paid++
	case models.InvoiceFailed:
		report.Failed++
	}
	return true, nil
}

// collect debits the subscriber's wallet and records the outcome on the
// invoice. An insufficient balance is an expected outcome routed through
// the failure policy, not an error.
func (s *DefaultBillingService) collect(ctx context.Context, sub models.Subscription, inv *models.SubscriptionInvoice) error {
	_, err := s.Wallet.Debit(ctx, sub.UserID, inv.AmountDue,
		models.TxCategorySubscriptionCharge,
		fmt.Sprintf("Monthly charge for %s", inv.BillingMonth),
		inv.ID,
	)
	if errors.Is(err, walletService.ErrInsufficientBalance) {
		if merr := s.Invoices.MarkFailed(ctx, inv.ID); merr != nil {
			return merr
		}
		inv.Status = models.InvoiceFailed
		s.notify(ctx, inv, "payment_failed")
		if s.Failure != nil {
			return s.Failure.OnFailure(ctx, sub, inv)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to charge wallet: %w", err)
	}

	paidAt := s.now()
	if err := s.Invoices.MarkPaid(ctx, inv.ID, inv.AmountDue, paidAt); err != nil {
		return err
	}
	inv.Status = models.InvoicePaid
	inv.AmountPaid = inv.AmountDue
	inv.PaidAt = &paidAt
	s.notify(ctx, inv, "paid")
	return nil
}

func (s *DefaultBillingService) RetryInvoice(ctx context.Context, invoiceID string) (*models.SubscriptionInvoice, error) {
	inv, err := s.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvoiceFailed {
		return nil, fmt.Errorf("invoice %s is %s, not retryable", inv.InvoiceNumber, inv.Status)
	}
	sub, err := s.Subs.GetByID(ctx, inv.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if err := s.collect(ctx, *sub, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *DefaultBillingService) ListForSubscription(ctx context.Context, subscriptionID string) ([]models.SubscriptionInvoice, error) {
	return s.Invoices.ListBySubscription(ctx, subscriptionID)
}

func (s *DefaultBillingService) notify(ctx context.Context, inv *models.SubscriptionInvoice, event string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.NotifyInvoice(ctx, inv, event); err != nil {
		s.Logger.Warn("invoice notification failed",
			zap.String("invoiceId", inv.ID), zap.String("event", event), zap.Error(err))
	}
}

func newInvoiceNumber(month string) string {
	return fmt.Sprintf("INV-%s-%s",
		strings.ReplaceAll(month, "-", ""),
		strings.ToUpper(uuid.New().String()[:6]),
	)
}

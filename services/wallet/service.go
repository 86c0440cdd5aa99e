package wallet

import (
	"context"
	"fmt"
	"strings"
	"time"

	walletRepo "ridepool/database/repository/wallet"
	"ridepool/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxMutationRetries bounds the optimistic-lock retry loop on a wallet.
const maxMutationRetries = 3

// DefaultWalletService implements WalletService.
type DefaultWalletService struct {
	Repo   walletRepo.WalletRepository
	Logger *zap.Logger
}

func (s *DefaultWalletService) Credit(ctx context.Context, userID string, amount decimal.Decimal, category, description, referenceID string) (*models.WalletTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	return s.mutate(ctx, userID, true, func(w *models.Wallet) (*models.WalletTransaction, error) {
		newBalance := w.Balance.Add(amount)
		entry := newEntry(w.ID, amount, models.TxTypeCredit, category, description, referenceID, newBalance)
		w.Balance = newBalance
		return entry, nil
	})
}

func (s *DefaultWalletService) Debit(ctx context.Context, userID string, amount decimal.Decimal, category, description, referenceID string) (*models.WalletTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	return s.mutate(ctx, userID, false, func(w *models.Wallet) (*models.WalletTransaction, error) {
		if w.Balance.LessThan(amount) {
			return nil, ErrInsufficientBalance
		}
		newBalance := w.Balance.Sub(amount)
		entry := newEntry(w.ID, amount.Neg(), models.TxTypeDebit, category, description, referenceID, newBalance)
		w.Balance = newBalance
		return entry, nil
	})
}

// mutate runs the read-balance/append-transaction/write-balance sequence
// under the repository's optimistic version check, retrying a bounded number
// of times when a concurrent writer wins the race.
func (s *DefaultWalletService) mutate(ctx context.Context, userID string, createIfAbsent bool, build func(*models.Wallet) (*models.WalletTransaction, error)) (*models.WalletTransaction, error) {
	for attempt := 1; attempt <= maxMutationRetries; attempt++ {
		var w *models.Wallet
		var err error
		if createIfAbsent {
			w, err = s.Repo.GetOrCreateByUserID(ctx, userID)
		} else {
			w, err = s.Repo.GetByUserID(ctx, userID)
		}
		if err != nil {
			return nil, err
		}

		entry, err := build(w)
		if err != nil {
			return nil, err
		}

		err = s.Repo.AppendTransaction(ctx, w, entry)
		if err == nil {
			return entry, nil
		}
		if err != walletRepo.ErrVersionConflict {
			return nil, fmt.Errorf("failed to append wallet transaction: %w", err)
		}
		s.Logger.Debug("wallet version conflict, retrying",
			zap.String("userId", userID), zap.Int("attempt", attempt))
	}
	return nil, ErrConcurrencyConflict
}

func (s *DefaultWalletService) BalanceOf(ctx context.Context, userID string) (decimal.Decimal, error) {
	w, err := s.Repo.GetByUserID(ctx, userID)
	if err != nil {
		if err == walletRepo.ErrWalletNotFound {
			// No wallet yet means nothing has been credited.
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return w.Balance, nil
}

func (s *DefaultWalletService) AdminAdjust(ctx context.Context, userID string, amount decimal.Decimal, reason string) (*models.WalletTransaction, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}

	description := "Admin adjustment: " + reason
	var tx *models.WalletTransaction
	var err error
	if amount.IsPositive() {
		tx, err = s.Credit(ctx, userID, amount, models.TxCategoryAdminAdjustment, description, "")
	} else {
		tx, err = s.Debit(ctx, userID, amount.Neg(), models.TxCategoryAdminAdjustment, description, "")
	}
	if err != nil {
		return nil, err
	}

	s.Logger.Info("admin wallet adjustment applied",
		zap.String("userId", userID),
		zap.String("amount", amount.String()),
		zap.String("reason", reason),
	)
	return tx, nil
}

func (s *DefaultWalletService) Transactions(ctx context.Context, userID string) ([]models.WalletTransaction, error) {
	w, err := s.Repo.GetByUserID(ctx, userID)
	if err != nil {
		if err == walletRepo.ErrWalletNotFound {
			return []models.WalletTransaction{}, nil
		}
		return nil, err
	}
	return s.Repo.Transactions(ctx, w.ID)
}

func (s *DefaultWalletService) HasEntry(ctx context.Context, userID, category, referenceID string) (bool, error) {
	w, err := s.Repo.GetByUserID(ctx, userID)
	if err != nil {
		if err == walletRepo.ErrWalletNotFound {
			return false, nil
		}
		return false, err
	}
	return s.Repo.HasEntryWithReference(ctx, w.ID, category, referenceID)
}

func (s *DefaultWalletService) Audit(ctx context.Context, userID string) (*AuditReport, error) {
	w, err := s.Repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	derived, err := s.Repo.SumTransactions(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	report := &AuditReport{
		WalletID:   w.ID,
		Cached:     w.Balance,
		Derived:    derived,
		Consistent: w.Balance.Equal(derived),
	}
	if !report.Consistent {
		s.Logger.Error("wallet balance drift detected",
			zap.String("walletId", w.ID),
			zap.String("cached", w.Balance.String()),
			zap.String("derived", derived.String()),
		)
	}
	return report, nil
}

func newEntry(walletID string, amount decimal.Decimal, txType, category, description, referenceID string, balanceAfter decimal.Decimal) *models.WalletTransaction {
	return &models.WalletTransaction{
		ID:           uuid.New().String(),
		WalletID:     walletID,
		Amount:       amount,
		Type:         txType,
		Category:     category,
		Description:  description,
		BalanceAfter: balanceAfter,
		ReferenceID:  referenceID,
		CreatedAt:    time.Now(),
	}
}

package settlement

import (
	"context"
	"time"

	settlementRepo "ridepool/database/repository/settlement"
	subscriptionRepo "ridepool/database/repository/subscription"
	"ridepool/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettlementService reconciles cash subscribers whose trip was not
// generated. No wallet transaction ever happens here: cash riders pay the
// driver per trip, so a missing trip means no money changed hands.
type SettlementService interface {
	// FlagPending records the missed service date, once per
	// (subscription, date) pair. Safe to call repeatedly.
	FlagPending(ctx context.Context, subscriptionID, serviceDate string) (*models.CashSettlementRecord, error)
	// Acknowledge closes a pending record; a second acknowledgement or an
	// unknown id fails with the repository's not-found error.
	Acknowledge(ctx context.Context, recordID, adminID string) (*models.CashSettlementRecord, error)
	List(ctx context.Context, status string) ([]models.CashSettlementRecord, error)
}

// DefaultSettlementService implements SettlementService.
type DefaultSettlementService struct {
	Repo   settlementRepo.SettlementRepository
	Subs   subscriptionRepo.SubscriptionRepository
	Logger *zap.Logger
}

func (s *DefaultSettlementService) FlagPending(ctx context.Context, subscriptionID, serviceDate string) (*models.CashSettlementRecord, error) {
	sub, err := s.Subs.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	rec := &models.CashSettlementRecord{
		ID:             uuid.New().String(),
		SubscriptionID: subscriptionID,
		UserID:         sub.UserID,
		ServiceDate:    serviceDate,
		Status:         models.SettlementPending,
	}
	err = s.Repo.Create(ctx, rec)
	if err == settlementRepo.ErrDuplicateSettlement {
		// Already flagged, return the existing record.
		return s.Repo.GetByPair(ctx, subscriptionID, serviceDate)
	}
	if err != nil {
		return nil, err
	}

	s.Logger.Info("cash settlement flagged",
		zap.String("subscriptionId", subscriptionID),
		zap.String("serviceDate", serviceDate),
	)
	return rec, nil
}

func (s *DefaultSettlementService) Acknowledge(ctx context.Context, recordID, adminID string) (*models.CashSettlementRecord, error) {
	if err := s.Repo.Acknowledge(ctx, recordID, adminID, time.Now()); err != nil {
		return nil, err
	}
	rec, err := s.Repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("cash settlement acknowledged",
		zap.String("recordId", recordID), zap.String("adminId", adminID))
	return rec, nil
}

func (s *DefaultSettlementService) List(ctx context.Context, status string) ([]models.CashSettlementRecord, error) {
	return s.Repo.List(ctx, status)
}

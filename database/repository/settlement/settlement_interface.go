package settlementRepo

import (
	"context"
	"errors"
	"time"

	"ridepool/models"
)

var (
	// ErrSettlementNotFound is returned for unknown ids and for acknowledge
	// attempts on records that are no longer pending.
	ErrSettlementNotFound = errors.New("cash settlement record not found")
	// ErrDuplicateSettlement signals a pending record already exists for the
	// (subscription, service date) pair.
	ErrDuplicateSettlement = errors.New("cash settlement record already exists")
)

// SettlementRepository persists cash settlement records.
type SettlementRepository interface {
	Create(ctx context.Context, rec *models.CashSettlementRecord) error
	GetByID(ctx context.Context, id string) (*models.CashSettlementRecord, error)
	GetByPair(ctx context.Context, subscriptionID, serviceDate string) (*models.CashSettlementRecord, error)
	List(ctx context.Context, status string) ([]models.CashSettlementRecord, error)
	// Acknowledge transitions pending -> acknowledged as a conditional
	// update. ErrSettlementNotFound when the record is absent or already
	// acknowledged.
	Acknowledge(ctx context.Context, id, adminID string, at time.Time) error
}

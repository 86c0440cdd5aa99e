package settlement_test

import (
	"context"
	"sync"
	"testing"
	"time"

	settlementRepo "ridepool/database/repository/settlement"
	subscriptionRepo "ridepool/database/repository/subscription"
	"ridepool/models"
	"ridepool/services/settlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memSettlementRepo struct {
	mu   sync.Mutex
	recs map[string]*models.CashSettlementRecord
}

func newMemSettlementRepo() *memSettlementRepo {
	return &memSettlementRepo{recs: make(map[string]*models.CashSettlementRecord)}
}

func (r *memSettlementRepo) Create(ctx context.Context, rec *models.CashSettlementRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.recs {
		if existing.SubscriptionID == rec.SubscriptionID && existing.ServiceDate == rec.ServiceDate {
			return settlementRepo.ErrDuplicateSettlement
		}
	}
	cp := *rec
	r.recs[rec.ID] = &cp
	return nil
}

func (r *memSettlementRepo) GetByID(ctx context.Context, id string) (*models.CashSettlementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok {
		return nil, settlementRepo.ErrSettlementNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *memSettlementRepo) GetByPair(ctx context.Context, subscriptionID, serviceDate string) (*models.CashSettlementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.recs {
		if rec.SubscriptionID == subscriptionID && rec.ServiceDate == serviceDate {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, settlementRepo.ErrSettlementNotFound
}

func (r *memSettlementRepo) List(ctx context.Context, status string) ([]models.CashSettlementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CashSettlementRecord
	for _, rec := range r.recs {
		if status == "" || rec.Status == status {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memSettlementRepo) Acknowledge(ctx context.Context, id, adminID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok || rec.Status != models.SettlementPending {
		return settlementRepo.ErrSettlementNotFound
	}
	rec.Status = models.SettlementAcknowledged
	rec.AcknowledgedBy = adminID
	rec.AcknowledgedAt = &at
	return nil
}

type stubSubs struct {
	subscriptionRepo.SubscriptionRepository
}

func (s *stubSubs) GetByID(ctx context.Context, id string) (*models.Subscription, error) {
	if id == "sub-missing" {
		return nil, subscriptionRepo.ErrSubscriptionNotFound
	}
	return &models.Subscription{
		ID:            id,
		UserID:        "user-1",
		PaymentMethod: models.PaymentMethodCash,
		Status:        models.SubscriptionActive,
	}, nil
}

func newTestService() (*settlement.DefaultSettlementService, *memSettlementRepo) {
	repo := newMemSettlementRepo()
	svc := &settlement.DefaultSettlementService{
		Repo:   repo,
		Subs:   &stubSubs{},
		Logger: zap.NewNop(),
	}
	return svc, repo
}

func TestFlagPending_CreatesPendingRecord(t *testing.T) {
	svc, _ := newTestService()

	rec, err := svc.FlagPending(context.Background(), "sub-1", "2026-09-07")
	require.NoError(t, err)
	assert.Equal(t, models.SettlementPending, rec.Status)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "2026-09-07", rec.ServiceDate)
}

func TestFlagPending_IsIdempotentPerPair(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	first, err := svc.FlagPending(ctx, "sub-1", "2026-09-07")
	require.NoError(t, err)
	second, err := svc.FlagPending(ctx, "sub-1", "2026-09-07")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "repeat flags return the existing record")

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// A different date is a new record.
	_, err = svc.FlagPending(ctx, "sub-1", "2026-09-08")
	require.NoError(t, err)
	all, _ = repo.List(ctx, "")
	assert.Len(t, all, 2)
}

func TestFlagPending_UnknownSubscription(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.FlagPending(context.Background(), "sub-missing", "2026-09-07")
	assert.ErrorIs(t, err, subscriptionRepo.ErrSubscriptionNotFound)
}

func TestAcknowledge_ClosesPendingRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.FlagPending(ctx, "sub-1", "2026-09-07")
	require.NoError(t, err)

	acked, err := svc.Acknowledge(ctx, rec.ID, "admin-7")
	require.NoError(t, err)
	assert.Equal(t, models.SettlementAcknowledged, acked.Status)
	assert.Equal(t, "admin-7", acked.AcknowledgedBy)
	require.NotNil(t, acked.AcknowledgedAt)
}

func TestAcknowledge_SecondAttemptFails(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.FlagPending(ctx, "sub-1", "2026-09-07")
	require.NoError(t, err)

	_, err = svc.Acknowledge(ctx, rec.ID, "admin-7")
	require.NoError(t, err)

	_, err = svc.Acknowledge(ctx, rec.ID, "admin-8")
	assert.ErrorIs(t, err, settlementRepo.ErrSettlementNotFound)
}

func TestAcknowledge_UnknownRecord(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Acknowledge(context.Background(), "missing", "admin-1")
	assert.ErrorIs(t, err, settlementRepo.ErrSettlementNotFound)
}

func TestList_FiltersByStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.FlagPending(ctx, "sub-1", "2026-09-07")
	require.NoError(t, err)
	_, err = svc.FlagPending(ctx, "sub-2", "2026-09-07")
	require.NoError(t, err)
	_, err = svc.Acknowledge(ctx, rec.ID, "admin-1")
	require.NoError(t, err)

	pending, err := svc.List(ctx, models.SettlementPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	acked, err := svc.List(ctx, models.SettlementAcknowledged)
	require.NoError(t, err)
	assert.Len(t, acked, 1)
}

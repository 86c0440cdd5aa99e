package subscription_test

import (
	"context"
	"sync"
	"testing"
	"time"

	routeRepo "ridepool/database/repository/route"
	subscriptionRepo "ridepool/database/repository/subscription"
	"ridepool/models"
	"ridepool/services/subscription"
	"ridepool/services/wallet"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memSubscriptionRepo is an in-memory SubscriptionRepository.
type memSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*models.Subscription

	failCreate error
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{subs: make(map[string]*models.Subscription)}
}

func (r *memSubscriptionRepo) Create(ctx context.Context, sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	cp := *sub
	r.subs[sub.ID] = &cp
	return nil
}

func (r *memSubscriptionRepo) GetByID(ctx context.Context, id string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return nil, subscriptionRepo.ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

func (r *memSubscriptionRepo) List(ctx context.Context, filter subscriptionRepo.SubscriptionFilter) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subscription
	for _, sub := range r.subs {
		if filter.UserID != "" && sub.UserID != filter.UserID {
			continue
		}
		if filter.RouteID != "" && sub.RouteID != filter.RouteID {
			continue
		}
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		out = append(out, *sub)
	}
	return out, nil
}

func (r *memSubscriptionRepo) ListForSlot(ctx context.Context, routeID, timeSlotID string, onDate time.Time) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subscription
	for _, sub := range r.subs {
		if sub.RouteID != routeID || sub.TimeSlotID != timeSlotID {
			continue
		}
		if !sub.ServesOn(onDate) {
			continue
		}
		out = append(out, *sub)
	}
	return out, nil
}

func (r *memSubscriptionRepo) ListActive(ctx context.Context) ([]models.Subscription, error) {
	return r.List(ctx, subscriptionRepo.SubscriptionFilter{Status: models.SubscriptionActive})
}

func (r *memSubscriptionRepo) TransitionStatus(ctx context.Context, id string, fromStatuses []string, to string, cancelledAt *time.Time) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return nil, subscriptionRepo.ErrSubscriptionNotFound
	}
	matched := false
	for _, from := range fromStatuses {
		if sub.Status == from {
			matched = true
			break
		}
	}
	if !matched {
		return nil, subscriptionRepo.ErrStatusConflict
	}
	sub.Status = to
	if cancelledAt != nil {
		at := *cancelledAt
		sub.CancellationDate = &at
	}
	cp := *sub
	return &cp, nil
}

func (r *memSubscriptionRepo) UpdateDates(ctx context.Context, id string, start, end time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return subscriptionRepo.ErrSubscriptionNotFound
	}
	sub.StartDate = start
	sub.EndDate = end
	return nil
}

func (r *memSubscriptionRepo) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, sub := range r.subs {
		if sub.Status == models.SubscriptionActive && sub.EndDate.Before(cutoff) {
			sub.Status = models.SubscriptionExpired
			n++
		}
	}
	return n, nil
}

// memRouteRepo serves a fixed set of routes.
type memRouteRepo struct {
	routes map[string]*models.Route
}

func (r *memRouteRepo) Create(ctx context.Context, route *models.Route) error {
	r.routes[route.ID] = route
	return nil
}

func (r *memRouteRepo) Update(ctx context.Context, route *models.Route) error {
	r.routes[route.ID] = route
	return nil
}

func (r *memRouteRepo) GetByID(ctx context.Context, id string) (*models.Route, error) {
	route, ok := r.routes[id]
	if !ok {
		return nil, routeRepo.ErrRouteNotFound
	}
	return route, nil
}

func (r *memRouteRepo) ListActive(ctx context.Context) ([]models.Route, error) {
	var out []models.Route
	for _, route := range r.routes {
		if route.Active {
			out = append(out, *route)
		}
	}
	return out, nil
}

// fakeWallet satisfies wallet.WalletService with recorded calls.
type fakeWallet struct {
	mu        sync.Mutex
	balance   decimal.Decimal
	debits    []decimal.Decimal
	credits   []decimal.Decimal
	debitErr  error
	creditErr error
}

func newFakeWallet(balance string) *fakeWallet {
	return &fakeWallet{balance: decimal.RequireFromString(balance)}
}

func (f *fakeWallet) Credit(ctx context.Context, userID string, amount decimal.Decimal, category, description, referenceID string) (*models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.creditErr != nil {
		return nil, f.creditErr
	}
	f.balance = f.balance.Add(amount)
	f.credits = append(f.credits, amount)
	return &models.WalletTransaction{Amount: amount, Type: models.TxTypeCredit, Category: category}, nil
}

func (f *fakeWallet) Debit(ctx context.Context, userID string, amount decimal.Decimal, category, description, referenceID string) (*models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.debitErr != nil {
		return nil, f.debitErr
	}
	if f.balance.LessThan(amount) {
		return nil, wallet.ErrInsufficientBalance
	}
	f.balance = f.balance.Sub(amount)
	f.debits = append(f.debits, amount)
	return &models.WalletTransaction{Amount: amount.Neg(), Type: models.TxTypeDebit, Category: category}, nil
}

func (f *fakeWallet) BalanceOf(ctx context.Context, userID string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, nil
}

func (f *fakeWallet) AdminAdjust(ctx context.Context, userID string, amount decimal.Decimal, reason string) (*models.WalletTransaction, error) {
	return nil, nil
}

func (f *fakeWallet) Transactions(ctx context.Context, userID string) ([]models.WalletTransaction, error) {
	return nil, nil
}

func (f *fakeWallet) HasEntry(ctx context.Context, userID, category, referenceID string) (bool, error) {
	return false, nil
}

func (f *fakeWallet) Audit(ctx context.Context, userID string) (*wallet.AuditReport, error) {
	return nil, nil
}

func testRoute() *models.Route {
	return &models.Route{
		ID:           "route-1",
		Name:         "CBD Express",
		PricePerSeat: decimal.RequireFromString("150"),
		Discount:     decimal.RequireFromString("300"),
		BoardingPoints: []models.BoardingPoint{
			{ID: "bp-1", Name: "Main Gate", Seq: 1},
			{ID: "bp-2", Name: "City Square", Seq: 2},
		},
		TimeSlots: []models.RouteTimeSlot{
			{ID: "slot-am", Departure: "07:30", Direction: "outbound"},
		},
		Active: true,
	}
}

func newTestService(t *testing.T, balance string) (*subscription.DefaultSubscriptionService, *memSubscriptionRepo, *fakeWallet) {
	t.Helper()
	subs := newMemSubscriptionRepo()
	w := newFakeWallet(balance)
	svc := &subscription.DefaultSubscriptionService{
		Repo:   subs,
		Routes: &memRouteRepo{routes: map[string]*models.Route{"route-1": testRoute()}},
		Wallet: w,
		Logger: zap.NewNop(),
	}
	return svc, subs, w
}

func weekdayInput(method string) subscription.PurchaseInput {
	return subscription.PurchaseInput{
		UserID:          "user-1",
		RouteID:         "route-1",
		TimeSlotID:      "slot-am",
		BoardingPointID: "bp-1",
		DropOffPointID:  "bp-2",
		Weekdays:        []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		StartDate:       time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
		PaymentMethod:   method,
	}
}

func TestPurchase_OnlineDebitsFirstPeriod(t *testing.T) {
	svc, _, w := newTestService(t, "5000")
	ctx := context.Background()

	sub, err := svc.Purchase(ctx, weekdayInput(models.PaymentMethodOnline))
	require.NoError(t, err)

	// 150 * 22 - 300 = 3000.
	assert.True(t, sub.MonthlyPrice.Equal(dec("3000")), "got %s", sub.MonthlyPrice)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, sub.StartDate.AddDate(0, 1, 0), sub.EndDate)
	require.Len(t, w.debits, 1)
	assert.True(t, w.debits[0].Equal(dec("3000")))
}

func TestPurchase_InsufficientBalanceAbortsBeforePersisting(t *testing.T) {
	svc, subs, w := newTestService(t, "100")
	ctx := context.Background()

	_, err := svc.Purchase(ctx, weekdayInput(models.PaymentMethodOnline))
	assert.ErrorIs(t, err, wallet.ErrInsufficientBalance)

	all, err := subs.List(ctx, subscriptionRepo.SubscriptionFilter{})
	require.NoError(t, err)
	assert.Empty(t, all, "aborted purchase must leave no subscription")
	assert.Empty(t, w.debits)
}

func TestPurchase_CashSkipsWallet(t *testing.T) {
	svc, _, w := newTestService(t, "0")
	ctx := context.Background()

	sub, err := svc.Purchase(ctx, weekdayInput(models.PaymentMethodCash))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodCash, sub.PaymentMethod)
	assert.Empty(t, w.debits)
}

func TestPurchase_CreateFailureReversesCharge(t *testing.T) {
	svc, subs, w := newTestService(t, "5000")
	subs.failCreate = context.DeadlineExceeded
	ctx := context.Background()

	_, err := svc.Purchase(ctx, weekdayInput(models.PaymentMethodOnline))
	require.Error(t, err)

	require.Len(t, w.debits, 1)
	require.Len(t, w.credits, 1, "upfront charge must be reversed")
	assert.True(t, w.credits[0].Equal(w.debits[0]))
}

func TestPurchase_ValidatesRouteDetails(t *testing.T) {
	svc, _, _ := newTestService(t, "5000")
	ctx := context.Background()

	bad := weekdayInput(models.PaymentMethodCash)
	bad.TimeSlotID = "slot-missing"
	_, err := svc.Purchase(ctx, bad)
	assert.ErrorIs(t, err, subscription.ErrUnknownTimeSlot)

	bad = weekdayInput(models.PaymentMethodCash)
	bad.BoardingPointID = "bp-missing"
	_, err = svc.Purchase(ctx, bad)
	assert.ErrorIs(t, err, subscription.ErrUnknownBoardingPoint)

	bad = weekdayInput("barter")
	_, err = svc.Purchase(ctx, bad)
	assert.ErrorIs(t, err, subscription.ErrInvalidPaymentMethod)
}

func TestCancel_RefundsProratedAmount(t *testing.T) {
	svc, subs, w := newTestService(t, "5000")
	ctx := context.Background()

	sub, err := svc.Purchase(ctx, weekdayInput(models.PaymentMethodOnline))
	require.NoError(t, err)

	// Period is Sep 1 to Oct 1 (30 days); cancel with 10 days remaining.
	svc.Now = func() time.Time {
		return time.Date(2026, time.September, 21, 12, 0, 0, 0, time.UTC)
	}
	refund, err := svc.Cancel(ctx, sub.ID, "moved away")
	require.NoError(t, err)
	assert.True(t, refund.Equal(dec("1000")), "got %s", refund)

	updated, err := subs.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCancelled, updated.Status)
	require.NotNil(t, updated.CancellationDate)
	require.Len(t, w.credits, 1)
	assert.True(t, w.credits[0].Equal(dec("1000")))
}

func TestCancel_RequiresReason(t *testing.T) {
	svc, _, _ := newTestService(t, "5000")
	_, err := svc.Cancel(context.Background(), "whatever", "  ")
	assert.ErrorIs(t, err, subscription.ErrReasonRequired)
}

func TestCancel_SecondCancelLosesStatusGuard(t *testing.T) {
	svc, _, w := newTestService(t, "5000")
	ctx := context.Background()

	sub, err := svc.Purchase(ctx, weekdayInput(models.PaymentMethodOnline))
	require.NoError(t, err)

	svc.Now = func() time.Time {
		return time.Date(2026, time.September, 21, 0, 0, 0, 0, time.UTC)
	}
	_, err = svc.Cancel(ctx, sub.ID, "first")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, sub.ID, "second")
	assert.ErrorIs(t, err, subscriptionRepo.ErrStatusConflict)
	assert.Len(t, w.credits, 1, "refund must not be issued twice")
}

func TestCancel_CashGetsNoWalletRefund(t *testing.T) {
	svc, _, w := newTestService(t, "0")
	ctx := context.Background()

	sub, err := svc.Purchase(ctx, weekdayInput(models.PaymentMethodCash))
	require.NoError(t, err)

	svc.Now = func() time.Time {
		return time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)
	}
	refund, err := svc.Cancel(ctx, sub.ID, "cash rider leaving")
	require.NoError(t, err)
	assert.True(t, refund.IsPositive(), "refund amount is still reported")
	assert.Empty(t, w.credits, "cash refunds settle outside the wallet")
}

func TestRequestCancellation_OwnerOnly(t *testing.T) {
	svc, subs, _ := newTestService(t, "5000")
	ctx := context.Background()

	sub, err := svc.Purchase(ctx, weekdayInput(models.PaymentMethodOnline))
	require.NoError(t, err)

	err = svc.RequestCancellation(ctx, sub.ID, "someone-else")
	assert.ErrorIs(t, err, subscription.ErrNotOwner)

	err = svc.RequestCancellation(ctx, sub.ID, "user-1")
	require.NoError(t, err)

	updated, err := subs.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPendingCancellation, updated.Status)

	// A second request finds it no longer active.
	err = svc.RequestCancellation(ctx, sub.ID, "user-1")
	assert.ErrorIs(t, err, subscription.ErrNotActive)
}

func TestRequestCancellation_KeepsSlotServiceUntilPeriodEnd(t *testing.T) {
	svc, subs, _ := newTestService(t, "5000")
	ctx := context.Background()

	sub, err := svc.Purchase(ctx, weekdayInput(models.PaymentMethodOnline))
	require.NoError(t, err)
	require.NoError(t, svc.RequestCancellation(ctx, sub.ID, "user-1"))

	// 2026-09-07 is a Monday inside the paid period.
	inPeriod := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	roster, err := subs.ListForSlot(ctx, "route-1", "slot-am", inPeriod)
	require.NoError(t, err)
	require.Len(t, roster, 1, "a pending cancellation still rides until period end")
	assert.Equal(t, models.SubscriptionPendingCancellation, roster[0].Status)

	afterEnd := sub.EndDate.AddDate(0, 0, 1)
	roster, err = subs.ListForSlot(ctx, "route-1", "slot-am", afterEnd)
	require.NoError(t, err)
	assert.Empty(t, roster, "service stops once the paid period lapses")
}

func TestEditDates_RejectsInvertedRange(t *testing.T) {
	svc, subs, _ := newTestService(t, "5000")
	ctx := context.Background()

	sub, err := svc.Purchase(ctx, weekdayInput(models.PaymentMethodCash))
	require.NoError(t, err)

	start := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	err = svc.EditDates(ctx, sub.ID, start, start)
	assert.ErrorIs(t, err, subscription.ErrInvalidDates)

	err = svc.EditDates(ctx, sub.ID, start, start.AddDate(0, 1, 0))
	require.NoError(t, err)

	updated, err := subs.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, start, updated.StartDate)
}

func TestExpireSweep_FinalizesPastSubscriptions(t *testing.T) {
	svc, subs, _ := newTestService(t, "50000")
	ctx := context.Background()

	active, err := svc.Purchase(ctx, weekdayInput(models.PaymentMethodOnline))
	require.NoError(t, err)

	ended := weekdayInput(models.PaymentMethodCash)
	ended.StartDate = time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	expiredSub, err := svc.Purchase(ctx, ended)
	require.NoError(t, err)

	pending := weekdayInput(models.PaymentMethodCash)
	pending.UserID = "user-2"
	pending.StartDate = time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	pendingSub, err := svc.Purchase(ctx, pending)
	require.NoError(t, err)
	err = svc.RequestCancellation(ctx, pendingSub.ID, "user-2")
	require.NoError(t, err)

	svc.Now = func() time.Time {
		return time.Date(2026, time.September, 15, 9, 0, 0, 0, time.UTC)
	}
	result, err := svc.ExpireSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Expired)
	assert.Equal(t, int64(1), result.Cancelled)

	got, _ := subs.GetByID(ctx, active.ID)
	assert.Equal(t, models.SubscriptionActive, got.Status)
	got, _ = subs.GetByID(ctx, expiredSub.ID)
	assert.Equal(t, models.SubscriptionExpired, got.Status)
	got, _ = subs.GetByID(ctx, pendingSub.ID)
	assert.Equal(t, models.SubscriptionCancelled, got.Status)
}

package tripgen_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	subscriptionRepo "ridepool/database/repository/subscription"
	tripRepo "ridepool/database/repository/trip"
	"ridepool/models"
	"ridepool/services/tripgen"
	"ridepool/services/wallet"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubSubs serves a fixed slot roster; only ListForSlot is exercised by the
// scheduler.
type stubSubs struct {
	subscriptionRepo.SubscriptionRepository
	roster []models.Subscription
}

func (s *stubSubs) ListForSlot(ctx context.Context, routeID, timeSlotID string, onDate time.Time) ([]models.Subscription, error) {
	out := make([]models.Subscription, len(s.roster))
	copy(out, s.roster)
	return out, nil
}

// memTripRepo stores trips keyed the way the unique index would.
type memTripRepo struct {
	mu    sync.Mutex
	trips []models.Trip
}

func (r *memTripRepo) key(serviceDate, routeID, timeSlotID string, seq int) string {
	return strings.Join([]string{serviceDate, routeID, timeSlotID, string(rune('0' + seq))}, "|")
}

func (r *memTripRepo) ExistsForKey(ctx context.Context, serviceDate, routeID, timeSlotID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, trip := range r.trips {
		if trip.ServiceDate == serviceDate && trip.RouteID == routeID && trip.TimeSlotID == timeSlotID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTripRepo) InsertMany(ctx context.Context, trips []models.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := make(map[string]bool)
	for _, trip := range r.trips {
		existing[r.key(trip.ServiceDate, trip.RouteID, trip.TimeSlotID, trip.Seq)] = true
	}
	for _, trip := range trips {
		if existing[r.key(trip.ServiceDate, trip.RouteID, trip.TimeSlotID, trip.Seq)] {
			return tripRepo.ErrDuplicateTrip
		}
	}
	r.trips = append(r.trips, trips...)
	return nil
}

func (r *memTripRepo) GetByReference(ctx context.Context, reference string) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.trips {
		if r.trips[i].Reference == reference {
			cp := r.trips[i]
			return &cp, nil
		}
	}
	return nil, tripRepo.ErrTripNotFound
}

func (r *memTripRepo) ListByDate(ctx context.Context, serviceDate string) ([]models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Trip
	for _, trip := range r.trips {
		if trip.ServiceDate == serviceDate {
			out = append(out, trip)
		}
	}
	return out, nil
}

func (r *memTripRepo) AssignDriver(ctx context.Context, tripID, driverID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.trips {
		if r.trips[i].ID == tripID {
			r.trips[i].DriverID = driverID
			return nil
		}
	}
	return tripRepo.ErrTripNotFound
}

type stubRoutes struct {
	routes []models.Route
}

func (s *stubRoutes) Create(ctx context.Context, route *models.Route) error { return nil }
func (s *stubRoutes) Update(ctx context.Context, route *models.Route) error { return nil }
func (s *stubRoutes) GetByID(ctx context.Context, id string) (*models.Route, error) {
	for i := range s.routes {
		if s.routes[i].ID == id {
			return &s.routes[i], nil
		}
	}
	return nil, errors.New("not found")
}
func (s *stubRoutes) ListActive(ctx context.Context) ([]models.Route, error) {
	return s.routes, nil
}

type stubBlackouts struct {
	dates map[string]bool // YYYY-MM-DD
}

func (s *stubBlackouts) Create(ctx context.Context, b *models.BlackoutDate) error { return nil }
func (s *stubBlackouts) Delete(ctx context.Context, id string) error              { return nil }
func (s *stubBlackouts) List(ctx context.Context) ([]models.BlackoutDate, error)  { return nil, nil }
func (s *stubBlackouts) IsBlackout(ctx context.Context, date time.Time) (bool, error) {
	return s.dates[date.Format("2006-01-02")], nil
}

// recordingSettlement records FlagPending calls.
type recordingSettlement struct {
	mu      sync.Mutex
	flagged [][2]string // subscription id, service date
}

func (s *recordingSettlement) FlagPending(ctx context.Context, subscriptionID, serviceDate string) (*models.CashSettlementRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flagged = append(s.flagged, [2]string{subscriptionID, serviceDate})
	return &models.CashSettlementRecord{SubscriptionID: subscriptionID, ServiceDate: serviceDate}, nil
}

func (s *recordingSettlement) Acknowledge(ctx context.Context, recordID, adminID string) (*models.CashSettlementRecord, error) {
	return nil, nil
}

func (s *recordingSettlement) List(ctx context.Context, status string) ([]models.CashSettlementRecord, error) {
	return nil, nil
}

// recordingShortfall records which online subscriptions hit a shortfall day.
type recordingShortfall struct {
	mu    sync.Mutex
	calls []string
}

func (p *recordingShortfall) HandleOnline(ctx context.Context, sub models.Subscription, serviceDate string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, sub.ID)
	return nil
}

// ledgerWallet is a minimal wallet.WalletService that remembers every
// credited (category, reference) pair, the way the real ledger does.
type ledgerWallet struct {
	mu      sync.Mutex
	entries []models.WalletTransaction
}

func (w *ledgerWallet) Credit(ctx context.Context, userID string, amount decimal.Decimal, category, description, referenceID string) (*models.WalletTransaction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	tx := models.WalletTransaction{Amount: amount, Category: category, ReferenceID: referenceID}
	w.entries = append(w.entries, tx)
	return &tx, nil
}

func (w *ledgerWallet) Debit(ctx context.Context, userID string, amount decimal.Decimal, category, description, referenceID string) (*models.WalletTransaction, error) {
	return nil, errors.New("not used")
}

func (w *ledgerWallet) BalanceOf(ctx context.Context, userID string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (w *ledgerWallet) AdminAdjust(ctx context.Context, userID string, amount decimal.Decimal, reason string) (*models.WalletTransaction, error) {
	return nil, errors.New("not used")
}

func (w *ledgerWallet) Transactions(ctx context.Context, userID string) ([]models.WalletTransaction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.WalletTransaction, len(w.entries))
	copy(out, w.entries)
	return out, nil
}

func (w *ledgerWallet) HasEntry(ctx context.Context, userID, category, referenceID string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, tx := range w.entries {
		if tx.Category == category && tx.ReferenceID == referenceID {
			return true, nil
		}
	}
	return false, nil
}

func (w *ledgerWallet) Audit(ctx context.Context, userID string) (*wallet.AuditReport, error) {
	return nil, errors.New("not used")
}

// brokenStrategy either errors, hangs past the deadline, or emits an
// invalid grouping.
type brokenStrategy struct {
	mode string // "error", "hang", "invalid"
}

func (b *brokenStrategy) Group(ctx context.Context, req tripgen.GroupingRequest) ([]tripgen.Group, error) {
	switch b.mode {
	case "hang":
		<-ctx.Done()
		return nil, ctx.Err()
	case "invalid":
		// Drops every passenger but the first.
		tier, _ := tripgen.TierFor(1)
		return []tripgen.Group{{VehicleTier: tier, Passengers: req.Passengers[:1]}}, nil
	default:
		return nil, errors.New("optimizer exploded")
	}
}

func schedulerRoute() models.Route {
	return models.Route{
		ID:     "route-1",
		Name:   "CBD Express",
		Active: true,
		TimeSlots: []models.RouteTimeSlot{
			{ID: "slot-am", Departure: "07:30", Direction: "outbound"},
		},
	}
}

func rosterOf(n int, method string) []models.Subscription {
	subs := make([]models.Subscription, 0, n)
	for i := 0; i < n; i++ {
		subs = append(subs, models.Subscription{
			ID:              string(rune('a'+i%26)) + "-sub",
			UserID:          string(rune('a'+i%26)) + "-user",
			RouteID:         "route-1",
			TimeSlotID:      "slot-am",
			BoardingPointID: "bp-1",
			DropOffPointID:  "bp-2",
			Weekdays:        []string{"Monday"},
			StartDate:       time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
			PaymentMethod:   method,
			Status:          models.SubscriptionActive,
		})
	}
	return subs
}

func newEngine(roster []models.Subscription) (*tripgen.DefaultSchedulerEngine, *memTripRepo, *recordingSettlement, *recordingShortfall) {
	trips := &memTripRepo{}
	settle := &recordingSettlement{}
	shortfall := &recordingShortfall{}
	engine := &tripgen.DefaultSchedulerEngine{
		Subs:          &stubSubs{roster: roster},
		Trips:         trips,
		Routes:        &stubRoutes{routes: []models.Route{schedulerRoute()}},
		Blackouts:     &stubBlackouts{dates: map[string]bool{}},
		Settlement:    settle,
		Shortfall:     shortfall,
		Fallback:      tripgen.DeterministicStrategy{},
		Logger:        zap.NewNop(),
		MinPassengers: 3,
	}
	return engine, trips, settle, shortfall
}

var serviceDay = time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC) // a Monday

func TestScheduler_GeneratesTripAtThreshold(t *testing.T) {
	engine, trips, _, _ := newEngine(rosterOf(3, models.PaymentMethodOnline))

	summary, err := engine.RunForDateRange(context.Background(), serviceDay, serviceDay)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TripsCreated)
	assert.Equal(t, 0, summary.BelowThreshold)

	created, err := trips.ListByDate(context.Background(), "2026-09-07")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.VehicleSedan, created[0].VehicleTier)
	assert.Len(t, created[0].Bookings, 3)
	assert.True(t, strings.HasPrefix(created[0].Reference, "TRP-20260907-"),
		"got %s", created[0].Reference)
	assert.Len(t, created[0].Reference, len("TRP-20260907-")+6)
}

func TestScheduler_PendingCancellationStillRides(t *testing.T) {
	roster := rosterOf(3, models.PaymentMethodOnline)
	roster[2].Status = models.SubscriptionPendingCancellation
	engine, trips, _, _ := newEngine(roster)

	summary, err := engine.RunForDateRange(context.Background(), serviceDay, serviceDay)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TripsCreated)

	created, _ := trips.ListByDate(context.Background(), "2026-09-07")
	require.Len(t, created, 1)
	assert.Len(t, created[0].Bookings, 3,
		"a pending cancellation keeps its seat until period end")
}

func TestScheduler_BelowThresholdFlagsCashAndRoutesOnline(t *testing.T) {
	roster := rosterOf(1, models.PaymentMethodCash)
	online := rosterOf(1, models.PaymentMethodOnline)[0]
	online.ID = "online-sub"
	online.UserID = "online-user"
	roster = append(roster, online)
	engine, trips, settle, shortfall := newEngine(roster)

	summary, err := engine.RunForDateRange(context.Background(), serviceDay, serviceDay)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TripsCreated)
	assert.Equal(t, 1, summary.BelowThreshold)
	assert.Equal(t, 1, summary.SettlementsFlagged)

	created, _ := trips.ListByDate(context.Background(), "2026-09-07")
	assert.Empty(t, created)
	require.Len(t, settle.flagged, 1)
	assert.Equal(t, "2026-09-07", settle.flagged[0][1])
	assert.Equal(t, []string{"online-sub"}, shortfall.calls)
}

func TestScheduler_RerunIsIdempotent(t *testing.T) {
	engine, trips, _, _ := newEngine(rosterOf(3, models.PaymentMethodOnline))
	ctx := context.Background()

	first, err := engine.RunForDateRange(ctx, serviceDay, serviceDay)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TripsCreated)

	second, err := engine.RunForDateRange(ctx, serviceDay, serviceDay)
	require.NoError(t, err)
	assert.Equal(t, 0, second.TripsCreated)
	assert.Equal(t, 1, second.AlreadyGenerated)

	created, _ := trips.ListByDate(ctx, "2026-09-07")
	assert.Len(t, created, 1, "re-running must not duplicate trips")
}

func TestScheduler_RerunDoesNotCreditShortfallTwice(t *testing.T) {
	roster := rosterOf(2, models.PaymentMethodOnline)
	for i := range roster {
		roster[i].MonthlyPrice = decimal.RequireFromString("3000")
		roster[i].StartDate = time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
		roster[i].EndDate = time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	}
	engine, _, _, _ := newEngine(roster)
	ledger := &ledgerWallet{}
	engine.Shortfall = tripgen.CreditBackShortfall{Wallet: ledger, Logger: zap.NewNop()}
	ctx := context.Background()

	first, err := engine.RunForDateRange(ctx, serviceDay, serviceDay)
	require.NoError(t, err)
	assert.Equal(t, 1, first.BelowThreshold)
	require.Len(t, ledger.entries, 2, "each online subscriber is credited once")

	second, err := engine.RunForDateRange(ctx, serviceDay, serviceDay)
	require.NoError(t, err)
	assert.Equal(t, 1, second.BelowThreshold)
	assert.Len(t, ledger.entries, 2, "re-running the same range must not credit again")

	for _, tx := range ledger.entries {
		assert.Equal(t, models.TxCategoryRefund, tx.Category)
		assert.Contains(t, tx.ReferenceID, ":2026-09-07",
			"credits are keyed on subscription and service date")
	}
}

func TestScheduler_SkipsBlackoutDates(t *testing.T) {
	engine, trips, _, _ := newEngine(rosterOf(5, models.PaymentMethodOnline))
	engine.Blackouts = &stubBlackouts{dates: map[string]bool{"2026-09-07": true}}

	summary, err := engine.RunForDateRange(context.Background(), serviceDay, serviceDay)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SkippedBlackout)
	assert.Equal(t, 0, summary.TripsCreated)

	created, _ := trips.ListByDate(context.Background(), "2026-09-07")
	assert.Empty(t, created)
}

func TestScheduler_OptimizerFailureFallsBack(t *testing.T) {
	for _, mode := range []string{"error", "hang", "invalid"} {
		engine, trips, _, _ := newEngine(rosterOf(6, models.PaymentMethodOnline))
		engine.Primary = &brokenStrategy{mode: mode}
		engine.OptimizerTimeout = 50 * time.Millisecond

		summary, err := engine.RunForDateRange(context.Background(), serviceDay, serviceDay)
		require.NoError(t, err, "mode=%s", mode)
		assert.Equal(t, 1, summary.TripsCreated, "mode=%s", mode)
		assert.Equal(t, 1, summary.FallbackRuns, "mode=%s", mode)

		created, _ := trips.ListByDate(context.Background(), "2026-09-07")
		require.Len(t, created, 1, "mode=%s", mode)
		assert.Len(t, created[0].Bookings, 6, "fallback must seat everyone, mode=%s", mode)
	}
}

func TestScheduler_ValidPrimaryGroupingIsUsed(t *testing.T) {
	engine, trips, _, _ := newEngine(rosterOf(6, models.PaymentMethodOnline))
	engine.Primary = tripgen.DeterministicStrategy{}

	summary, err := engine.RunForDateRange(context.Background(), serviceDay, serviceDay)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TripsCreated)
	assert.Equal(t, 0, summary.FallbackRuns)

	created, _ := trips.ListByDate(context.Background(), "2026-09-07")
	require.Len(t, created, 1)
	assert.Equal(t, models.Vehicle7Seater, created[0].VehicleTier)
}

func TestScheduler_OversizedDemandSplitsIntoSequencedTrips(t *testing.T) {
	roster := make([]models.Subscription, 0, 35)
	for i := 0; i < 35; i++ {
		sub := rosterOf(1, models.PaymentMethodOnline)[0]
		sub.ID = "sub-" + string(rune('a'+i/26)) + string(rune('a'+i%26))
		sub.UserID = "user-" + string(rune('a'+i/26)) + string(rune('a'+i%26))
		roster = append(roster, sub)
	}
	engine, trips, _, _ := newEngine(roster)

	summary, err := engine.RunForDateRange(context.Background(), serviceDay, serviceDay)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TripsCreated)

	created, _ := trips.ListByDate(context.Background(), "2026-09-07")
	require.Len(t, created, 2)
	seatCount := len(created[0].Bookings) + len(created[1].Bookings)
	assert.Equal(t, 35, seatCount)
	seqs := map[int]bool{created[0].Seq: true, created[1].Seq: true}
	assert.True(t, seqs[0] && seqs[1], "split trips carry distinct sequence numbers")
}

func TestScheduler_RejectsInvertedRange(t *testing.T) {
	engine, _, _, _ := newEngine(nil)
	_, err := engine.RunForDateRange(context.Background(), serviceDay, serviceDay.AddDate(0, 0, -1))
	assert.Error(t, err)
}

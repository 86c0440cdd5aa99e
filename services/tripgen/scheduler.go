package tripgen

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	blackoutRepo "ridepool/database/repository/blackout"
	routeRepo "ridepool/database/repository/route"
	subscriptionRepo "ridepool/database/repository/subscription"
	tripRepo "ridepool/database/repository/trip"
	"ridepool/models"
	"ridepool/services/settlement"
	"ridepool/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// slotWorkers bounds how many (date, route, slot) groups run concurrently.
const slotWorkers = 4

// RunSummary reports what one trip-generation run did.
type RunSummary struct {
	From               string `json:"from"`
	To                 string `json:"to"`
	SlotsProcessed     int    `json:"slots_processed"`
	TripsCreated       int    `json:"trips_created"`
	SkippedBlackout    int    `json:"skipped_blackout_days"`
	BelowThreshold     int    `json:"below_threshold_slots"`
	SettlementsFlagged int    `json:"settlements_flagged"`
	FallbackRuns       int    `json:"fallback_runs"`
	AlreadyGenerated   int    `json:"already_generated_slots"`
	SlotErrors         int    `json:"slot_errors"`
}

// SchedulerEngine is the daily batch entry point. External triggers (cron,
// an orchestrator, an admin endpoint) all call the same idempotent range
// operation.
type SchedulerEngine interface {
	RunForDateRange(ctx context.Context, from, to time.Time) (*RunSummary, error)
}

// DefaultSchedulerEngine implements SchedulerEngine.
type DefaultSchedulerEngine struct {
	Subs       subscriptionRepo.SubscriptionRepository
	Trips      tripRepo.TripRepository
	Routes     routeRepo.RouteRepository
	Blackouts  blackoutRepo.BlackoutRepository
	Settlement settlement.SettlementService
	Shortfall  ShortfallPolicy
	Primary    GroupingStrategy
	Fallback   GroupingStrategy
	Cache      *redis.Client // optional run lock
	Logger     *zap.Logger

	MinPassengers    int
	OptimizerTimeout time.Duration
}

func (e *DefaultSchedulerEngine) minPassengers() int {
	if e.MinPassengers > 0 {
		return e.MinPassengers
	}
	return 3
}

func (e *DefaultSchedulerEngine) optimizerTimeout() time.Duration {
	if e.OptimizerTimeout > 0 {
		return e.OptimizerTimeout
	}
	return 8 * time.Second
}

func (e *DefaultSchedulerEngine) RunForDateRange(ctx context.Context, from, to time.Time) (*RunSummary, error) {
	start := day(from)
	end := day(to)
	if end.Before(start) {
		return nil, fmt.Errorf("invalid date range: %s after %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	if e.Cache != nil {
		ok, err := e.Cache.SetNX(ctx, utils.TripGenLockKey, start.Format("2006-01-02"), utils.TripGenLockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire run lock: %w", err)
		}
		if !ok {
			return nil, ErrRunInProgress
		}
		defer e.Cache.Del(context.Background(), utils.TripGenLockKey)
	}

	summary := &RunSummary{
		From: start.Format("2006-01-02"),
		To:   end.Format("2006-01-02"),
	}

	routes, err := e.Routes.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	type slotJob struct {
		date  time.Time
		route models.Route
		slot  models.RouteTimeSlot
	}
	var jobs []slotJob

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		blackout, err := e.Blackouts.IsBlackout(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("failed to check blackout calendar: %w", err)
		}
		if blackout {
			summary.SkippedBlackout++
			e.Logger.Info("skipping blackout date", zap.String("date", d.Format("2006-01-02")))
			continue
		}
		for _, route := range routes {
			for _, slot := range route.TimeSlots {
				jobs = append(jobs, slotJob{date: d, route: route, slot: slot})
			}
		}
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	sem := make(chan struct{}, slotWorkers)

	for _, job := range jobs {
		wg.Add(1)
		go func(job slotJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcome, err := e.processSlot(ctx, job.date, job.route, job.slot)

			mu.Lock()
			defer mu.Unlock()
			summary.SlotsProcessed++
			if err != nil {
				summary.SlotErrors++
				e.Logger.Error("slot processing failed",
					zap.String("date", job.date.Format("2006-01-02")),
					zap.String("routeId", job.route.ID),
					zap.String("timeSlotId", job.slot.ID),
					zap.Error(err),
				)
				return
			}
			summary.TripsCreated += outcome.tripsCreated
			summary.SettlementsFlagged += outcome.settlementsFlagged
			if outcome.belowThreshold {
				summary.BelowThreshold++
			}
			if outcome.fallbackUsed {
				summary.FallbackRuns++
			}
			if outcome.alreadyGenerated {
				summary.AlreadyGenerated++
			}
		}(job)
	}
	wg.Wait()

	e.Logger.Info("trip generation run completed",
		zap.String("from", summary.From),
		zap.String("to", summary.To),
		zap.Int("tripsCreated", summary.TripsCreated),
		zap.Int("belowThreshold", summary.BelowThreshold),
		zap.Int("fallbackRuns", summary.FallbackRuns),
		zap.Int("slotErrors", summary.SlotErrors),
	)
	return summary, nil
}

type slotOutcome struct {
	tripsCreated       int
	settlementsFlagged int
	belowThreshold     bool
	fallbackUsed       bool
	alreadyGenerated   bool
}

func (e *DefaultSchedulerEngine) processSlot(ctx context.Context, date time.Time, route models.Route, slot models.RouteTimeSlot) (slotOutcome, error) {
	var out slotOutcome
	dateStr := date.Format("2006-01-02")

	listed, err := e.Subs.ListForSlot(ctx, route.ID, slot.ID, date)
	if err != nil {
		return out, fmt.Errorf("failed to collect bookings: %w", err)
	}
	// The query already scopes by status and window; ServesOn re-checks so
	// a stale or over-broad read can never seat an ineligible rider.
	subs := listed[:0]
	for i := range listed {
		if listed[i].ServesOn(date) {
			subs = append(subs, listed[i])
		}
	}
	if len(subs) == 0 {
		return out, nil
	}

	// Below the policy floor no trip runs; cash riders get a settlement
	// record, online riders go through the shortfall policy.
	if len(subs) < e.minPassengers() {
		out.belowThreshold = true
		for i := range subs {
			switch subs[i].PaymentMethod {
			case models.PaymentMethodCash:
				if _, err := e.Settlement.FlagPending(ctx, subs[i].ID, dateStr); err != nil {
					return out, fmt.Errorf("failed to flag cash settlement: %w", err)
				}
				out.settlementsFlagged++
			case models.PaymentMethodOnline:
				if e.Shortfall != nil {
					if err := e.Shortfall.HandleOnline(ctx, subs[i], dateStr); err != nil {
						return out, err
					}
				}
			}
		}
		return out, nil
	}

	exists, err := e.Trips.ExistsForKey(ctx, dateStr, route.ID, slot.ID)
	if err != nil {
		return out, fmt.Errorf("failed idempotency check: %w", err)
	}
	if exists {
		out.alreadyGenerated = true
		return out, nil
	}

	req := GroupingRequest{
		ServiceDate: dateStr,
		RouteID:     route.ID,
		TimeSlotID:  slot.ID,
		Passengers:  passengersFrom(subs),
	}
	groups, fallbackUsed, err := e.match(ctx, req)
	if err != nil {
		return out, err
	}
	out.fallbackUsed = fallbackUsed

	trips := make([]models.Trip, 0, len(groups))
	for seq, g := range groups {
		bookings := make([]models.TripBooking, 0, len(g.Passengers))
		for _, p := range g.Passengers {
			bookings = append(bookings, models.TripBooking{
				SubscriptionID:  p.SubscriptionID,
				UserID:          p.UserID,
				BoardingPointID: p.BoardingPointID,
				DropOffPointID:  p.DropOffPointID,
				PaymentMethod:   p.PaymentMethod,
			})
		}
		trips = append(trips, models.Trip{
			ID:          uuid.New().String(),
			Reference:   newTripReference(dateStr),
			ServiceDate: dateStr,
			RouteID:     route.ID,
			TimeSlotID:  slot.ID,
			Seq:         seq,
			VehicleTier: g.VehicleTier,
			Bookings:    bookings,
			CreatedAt:   time.Now(),
		})
	}

	if err := e.Trips.InsertMany(ctx, trips); err != nil {
		if err == tripRepo.ErrDuplicateTrip {
			// A concurrent run won the insert race; its trips stand.
			out.alreadyGenerated = true
			return out, nil
		}
		return out, err
	}
	out.tripsCreated = len(trips)
	return out, nil
}

// match tries the optimizing strategy under a bounded timeout, validates
// its output, and falls back deterministically on any failure. Optimizer
// trouble is an operational log line, never a user-facing error.
func (e *DefaultSchedulerEngine) match(ctx context.Context, req GroupingRequest) ([]Group, bool, error) {
	if e.Primary != nil {
		optCtx, cancel := context.WithTimeout(ctx, e.optimizerTimeout())
		groups, err := e.Primary.Group(optCtx, req)
		cancel()
		if err == nil {
			if verr := ValidateGrouping(req.Passengers, groups); verr == nil {
				return groups, false, nil
			}
			err = ErrInvalidGrouping
		}
		e.Logger.Warn("optimizer unavailable, using deterministic fallback",
			zap.String("routeId", req.RouteID),
			zap.String("serviceDate", req.ServiceDate),
			zap.Error(err),
		)
	}

	groups, err := e.Fallback.Group(ctx, req)
	if err != nil {
		return nil, true, fmt.Errorf("fallback grouping failed: %w", err)
	}
	return groups, true, nil
}

func passengersFrom(subs []models.Subscription) []Passenger {
	passengers := make([]Passenger, 0, len(subs))
	for i := range subs {
		passengers = append(passengers, Passenger{
			SubscriptionID:  subs[i].ID,
			UserID:          subs[i].UserID,
			BoardingPointID: subs[i].BoardingPointID,
			DropOffPointID:  subs[i].DropOffPointID,
			PaymentMethod:   subs[i].PaymentMethod,
		})
	}
	return passengers
}

func newTripReference(dateStr string) string {
	return fmt.Sprintf("TRP-%s-%s",
		strings.ReplaceAll(dateStr, "-", ""),
		strings.ToUpper(uuid.New().String()[:6]),
	)
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription statuses.
const (
	SubscriptionActive              = "active"
	SubscriptionPendingCancellation = "pending_cancellation"
	SubscriptionCancelled           = "cancelled"
	SubscriptionExpired             = "expired"
)

// Payment methods.
const (
	PaymentMethodCash   = "cash"
	PaymentMethodOnline = "online"
)

// Subscription is a recurring seat reservation on a route/time-slot for a
// set of weekdays. Retained indefinitely after termination for audit.
type Subscription struct {
	ID               string          `bson:"id" json:"id"`
	UserID           string          `bson:"user_id" json:"user_id"`
	RouteID          string          `bson:"route_id" json:"route_id"`
	TimeSlotID       string          `bson:"time_slot_id" json:"time_slot_id"`
	BoardingPointID  string          `bson:"boarding_point_id" json:"boarding_point_id"`
	DropOffPointID   string          `bson:"drop_off_point_id" json:"drop_off_point_id"`
	Weekdays         []string        `bson:"weekdays" json:"weekdays"` // e.g. "Monday", "Wednesday"
	StartDate        time.Time       `bson:"start_date" json:"start_date"`
	EndDate          time.Time       `bson:"end_date" json:"end_date"`
	PricePerTrip     decimal.Decimal `bson:"price_per_trip" json:"price_per_trip"`
	MonthlyPrice     decimal.Decimal `bson:"monthly_price" json:"monthly_price"`
	Discount         decimal.Decimal `bson:"discount" json:"discount"`
	PaymentMethod    string          `bson:"payment_method" json:"payment_method"` // "cash" or "online"
	Status           string          `bson:"status" json:"status"`
	CancellationDate *time.Time      `bson:"cancellation_date,omitempty" json:"cancellation_date,omitempty"`
	CreatedAt        time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `bson:"updated_at" json:"updated_at"`
}

// CoversWeekday reports whether the subscription rides on the given weekday.
func (s *Subscription) CoversWeekday(day time.Weekday) bool {
	for _, wd := range s.Weekdays {
		if wd == day.String() {
			return true
		}
	}
	return false
}

// ServesOn reports whether the subscriber rides on the given date. A
// pending cancellation keeps its seat until the paid period ends; only
// the terminal statuses lose service immediately.
func (s *Subscription) ServesOn(date time.Time) bool {
	if s.Status != SubscriptionActive && s.Status != SubscriptionPendingCancellation {
		return false
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(time.Date(s.StartDate.Year(), s.StartDate.Month(), s.StartDate.Day(), 0, 0, 0, 0, time.UTC)) {
		return false
	}
	if day.After(s.EndDate) {
		return false
	}
	return s.CoversWeekday(day.Weekday())
}

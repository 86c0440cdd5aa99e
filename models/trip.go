package models

import "time"

// Vehicle tiers, keyed by passenger count (see services/tripgen).
const (
	VehicleSedan    = "sedan"
	Vehicle7Seater  = "7-seater"
	Vehicle10Seater = "10-seater"
	Vehicle14Seater = "14-seater"
	Vehicle32Seater = "32-seater"
)

// TripBooking is one subscriber's seat on a generated trip.
type TripBooking struct {
	SubscriptionID  string `bson:"subscription_id" json:"subscription_id"`
	UserID          string `bson:"user_id" json:"user_id"`
	BoardingPointID string `bson:"boarding_point_id" json:"boarding_point_id"`
	DropOffPointID  string `bson:"drop_off_point_id" json:"drop_off_point_id"`
	PaymentMethod   string `bson:"payment_method" json:"payment_method"`
}

// Trip is a single scheduled vehicle run for one service date, route and
// time slot. Immutable once created except for driver assignment.
type Trip struct {
	ID          string        `bson:"id" json:"id"`
	Reference   string        `bson:"reference" json:"reference"` // human-shareable, e.g. TRP-20260901-4F7A2C
	ServiceDate string        `bson:"service_date" json:"service_date"` // "YYYY-MM-DD"
	RouteID     string        `bson:"route_id" json:"route_id"`
	TimeSlotID  string        `bson:"time_slot_id" json:"time_slot_id"`
	Seq         int           `bson:"seq" json:"seq"` // ordinal within (date, route, slot) when a group splits
	VehicleTier string        `bson:"vehicle_tier" json:"vehicle_tier"`
	Bookings    []TripBooking `bson:"bookings" json:"bookings"`
	DriverID    string        `bson:"driver_id,omitempty" json:"driver_id,omitempty"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
}

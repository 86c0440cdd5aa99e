package tripgen

import (
	"context"
	"errors"
)

var (
	// ErrRunInProgress signals another range run currently holds the lock.
	ErrRunInProgress = errors.New("trip generation run already in progress")
	// ErrInvalidGrouping is returned by grouping validation when a strategy
	// dropped, duplicated or invented passengers or oversized a group.
	ErrInvalidGrouping = errors.New("grouping does not cover every passenger exactly once")
)

// Passenger is one subscriber booked onto a route/slot/date.
type Passenger struct {
	SubscriptionID  string `json:"subscription_id"`
	UserID          string `json:"user_id"`
	BoardingPointID string `json:"boarding_point_id"`
	DropOffPointID  string `json:"drop_off_point_id"`
	PaymentMethod   string `json:"payment_method"`
}

// Group is one vehicle-sized set of passengers.
type Group struct {
	VehicleTier string
	Passengers  []Passenger
}

// GroupingRequest is the input handed to a grouping strategy.
type GroupingRequest struct {
	ServiceDate string
	RouteID     string
	TimeSlotID  string
	Passengers  []Passenger
}

// GroupingStrategy turns a passenger list into vehicle-tier groups. The
// optimizing implementation is treated as unreliable; its output is
// validated and any failure falls back to the deterministic strategy.
type GroupingStrategy interface {
	Group(ctx context.Context, req GroupingRequest) ([]Group, error)
}

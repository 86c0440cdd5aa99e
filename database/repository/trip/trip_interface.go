package tripRepo

import (
	"context"
	"errors"

	"ridepool/models"
)

var (
	// ErrTripNotFound is returned when no trip matches the id or reference.
	ErrTripNotFound = errors.New("trip not found")
	// ErrDuplicateTrip signals the unique (service_date, route, slot, seq)
	// index rejected an insert; a concurrent run already generated the key.
	ErrDuplicateTrip = errors.New("trip already generated for this key")
)

// TripRepository persists generated trips.
type TripRepository interface {
	// ExistsForKey reports whether trips were already generated for the
	// (service date, route, time slot) key.
	ExistsForKey(ctx context.Context, serviceDate, routeID, timeSlotID string) (bool, error)
	// InsertMany persists the trips of one generation key as an ordered
	// batch. A duplicate-key rejection maps to ErrDuplicateTrip.
	InsertMany(ctx context.Context, trips []models.Trip) error
	GetByReference(ctx context.Context, reference string) (*models.Trip, error)
	ListByDate(ctx context.Context, serviceDate string) ([]models.Trip, error)
	// AssignDriver records the external driver assignment; the only mutation
	// a trip ever sees.
	AssignDriver(ctx context.Context, tripID, driverID string) error
}

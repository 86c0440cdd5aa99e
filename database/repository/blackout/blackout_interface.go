package blackoutRepo

import (
	"context"
	"errors"
	"time"

	"ridepool/models"
)

// ErrBlackoutNotFound is returned when no blackout range matches the id.
var ErrBlackoutNotFound = errors.New("blackout date not found")

// BlackoutRepository stores the holiday/blackout calendar. The scheduler
// only reads it; writes come from admin entry or a holiday import.
type BlackoutRepository interface {
	Create(ctx context.Context, b *models.BlackoutDate) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.BlackoutDate, error)
	// IsBlackout reports whether any range contains the given date.
	IsBlackout(ctx context.Context, date time.Time) (bool, error)
}

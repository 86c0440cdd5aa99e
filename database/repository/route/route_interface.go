package routeRepo

import (
	"context"
	"errors"

	"ridepool/models"
)

// ErrRouteNotFound is returned when no route matches the id.
var ErrRouteNotFound = errors.New("route not found")

// RouteRepository stores commute routes with their stops, slots and pricing.
type RouteRepository interface {
	Create(ctx context.Context, route *models.Route) error
	Update(ctx context.Context, route *models.Route) error
	GetByID(ctx context.Context, id string) (*models.Route, error)
	ListActive(ctx context.Context) ([]models.Route, error)
}

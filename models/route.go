package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BoardingPoint is a named pickup/drop-off stop along a route.
type BoardingPoint struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
	Seq  int    `bson:"seq" json:"seq"` // order along the route
}

// RouteTimeSlot is a departure window on a route (e.g. 07:30 morning run).
type RouteTimeSlot struct {
	ID        string `bson:"id" json:"id"`
	Departure string `bson:"departure" json:"departure"` // "HH:MM" local time
	Direction string `bson:"direction" json:"direction"` // "outbound" or "return"
}

// Route is a fixed commute corridor with its stops, departure slots and
// per-seat pricing.
type Route struct {
	ID             string          `bson:"id" json:"id"`
	Name           string          `bson:"name" json:"name"`
	Origin         string          `bson:"origin" json:"origin"`
	Destination    string          `bson:"destination" json:"destination"`
	PricePerSeat   decimal.Decimal `bson:"price_per_seat" json:"price_per_seat"`
	Discount       decimal.Decimal `bson:"discount" json:"discount"` // monthly discount applied at purchase
	BoardingPoints []BoardingPoint `bson:"boarding_points" json:"boarding_points"`
	TimeSlots      []RouteTimeSlot `bson:"time_slots" json:"time_slots"`
	Active         bool            `bson:"active" json:"active"`
	CreatedAt      time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `bson:"updated_at" json:"updated_at"`
}

// TimeSlot returns the slot with the given id, or nil.
func (r *Route) TimeSlot(slotID string) *RouteTimeSlot {
	for i := range r.TimeSlots {
		if r.TimeSlots[i].ID == slotID {
			return &r.TimeSlots[i]
		}
	}
	return nil
}

// HasBoardingPoint reports whether the route includes the given stop.
func (r *Route) HasBoardingPoint(pointID string) bool {
	for _, bp := range r.BoardingPoints {
		if bp.ID == pointID {
			return true
		}
	}
	return false
}

// CostBreakdown is the cost calculator's output, reused for purchase and
// refund-estimation previews.
type CostBreakdown struct {
	PricePerSeat          decimal.Decimal `json:"price_per_seat"`
	DaysPerWeek           int             `json:"days_per_week"`
	EstimatedDaysPerMonth int             `json:"estimated_days_per_month"`
	Discount              decimal.Decimal `json:"discount"`
	MonthlyCost           decimal.Decimal `json:"monthly_cost"`
}

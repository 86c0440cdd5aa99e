package subscription

import (
	"time"

	"ridepool/models"

	"github.com/shopspring/decimal"
)

// weeksPerMonth is the fixed estimation constant used to project a weekday
// selection onto a month of service days.
var weeksPerMonth = decimal.RequireFromString("4.33")

var validWeekdays = map[string]bool{
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
}

// NormalizeWeekdays validates and deduplicates weekday names, preserving
// calendar order.
func NormalizeWeekdays(weekdays []string) ([]string, error) {
	seen := map[string]bool{}
	for _, wd := range weekdays {
		if !validWeekdays[wd] {
			return nil, ErrInvalidWeekday
		}
		seen[wd] = true
	}
	if len(seen) == 0 {
		return nil, ErrNoWeekdays
	}

	order := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	var out []string
	for _, wd := range order {
		if seen[wd] {
			out = append(out, wd)
		}
	}
	return out, nil
}

// CalculateCost is the pure cost calculator: deterministic and side-effect
// free, so purchase and refund previews price identically.
//
// estimatedDaysPerMonth = round-half-up(4.33 * daysPerWeek)
// monthlyCost = pricePerSeat * estimatedDaysPerMonth - routeDiscount
func CalculateCost(route *models.Route, weekdays []string) (*models.CostBreakdown, error) {
	normalized, err := NormalizeWeekdays(weekdays)
	if err != nil {
		return nil, err
	}

	daysPerWeek := len(normalized)
	// decimal.Round rounds half away from zero, which is half-up for the
	// positive values here.
	estDays := weeksPerMonth.Mul(decimal.NewFromInt(int64(daysPerWeek))).Round(0)

	monthly := route.PricePerSeat.Mul(estDays).Sub(route.Discount)
	if monthly.IsNegative() {
		monthly = decimal.Zero
	}

	return &models.CostBreakdown{
		PricePerSeat:          route.PricePerSeat,
		DaysPerWeek:           daysPerWeek,
		EstimatedDaysPerMonth: int(estDays.IntPart()),
		Discount:              route.Discount,
		MonthlyCost:           monthly,
	}, nil
}

// ProrateRefund computes the refund owed when cancelling on a given day:
// one daily rate for each remaining day of the period.
func ProrateRefund(monthlyPrice decimal.Decimal, startDate, endDate, today time.Time) decimal.Decimal {
	totalDays := daysBetween(startDate, endDate)
	if totalDays <= 0 {
		return decimal.Zero
	}
	remainingDays := daysBetween(today, endDate)
	if remainingDays < 0 {
		remainingDays = 0
	}

	dailyRate := monthlyPrice.Div(decimal.NewFromInt(int64(totalDays)))
	return dailyRate.Mul(decimal.NewFromInt(int64(remainingDays))).Round(2)
}

func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

package tripgen

import (
	"fmt"

	"ridepool/models"
)

// MaxTierCapacity is the largest vehicle available; bigger passenger sets
// split into multiple trips.
const MaxTierCapacity = 32

var tierTable = []struct {
	capacity int
	tier     string
}{
	{4, models.VehicleSedan},
	{7, models.Vehicle7Seater},
	{10, models.Vehicle10Seater},
	{14, models.Vehicle14Seater},
	{MaxTierCapacity, models.Vehicle32Seater},
}

// TierFor returns the smallest vehicle tier that seats n passengers.
func TierFor(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("cannot assign a vehicle tier to %d passengers", n)
	}
	for _, row := range tierTable {
		if n <= row.capacity {
			return row.tier, nil
		}
	}
	return "", fmt.Errorf("group of %d exceeds the largest vehicle tier", n)
}

// ValidateGrouping checks that groups cover every requested passenger
// exactly once, add nobody, and fit their assigned tiers.
func ValidateGrouping(passengers []Passenger, groups []Group) error {
	expected := make(map[string]bool, len(passengers))
	for _, p := range passengers {
		expected[p.SubscriptionID] = false
	}

	for _, g := range groups {
		if len(g.Passengers) == 0 || len(g.Passengers) > MaxTierCapacity {
			return ErrInvalidGrouping
		}
		tier, err := TierFor(len(g.Passengers))
		if err != nil || g.VehicleTier != tier {
			return ErrInvalidGrouping
		}
		for _, p := range g.Passengers {
			seen, ok := expected[p.SubscriptionID]
			if !ok || seen {
				return ErrInvalidGrouping
			}
			expected[p.SubscriptionID] = true
		}
	}

	for _, seen := range expected {
		if !seen {
			return ErrInvalidGrouping
		}
	}
	return nil
}

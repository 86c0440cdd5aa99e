package tripgen

import (
	"context"
	"sort"
)

// DeterministicStrategy is the rule-based fallback grouper. It sorts
// bookings by a stable key and buckets them consecutively into the tier
// table, so the same input always yields the same trips.
type DeterministicStrategy struct{}

func (DeterministicStrategy) Group(ctx context.Context, req GroupingRequest) ([]Group, error) {
	passengers := make([]Passenger, len(req.Passengers))
	copy(passengers, req.Passengers)

	sort.Slice(passengers, func(i, j int) bool {
		if passengers[i].BoardingPointID != passengers[j].BoardingPointID {
			return passengers[i].BoardingPointID < passengers[j].BoardingPointID
		}
		return passengers[i].UserID < passengers[j].UserID
	})

	var groups []Group
	for len(passengers) > 0 {
		size := len(passengers)
		if size > MaxTierCapacity {
			size = MaxTierCapacity
		}
		tier, err := TierFor(size)
		if err != nil {
			return nil, err
		}
		groups = append(groups, Group{VehicleTier: tier, Passengers: passengers[:size]})
		passengers = passengers[size:]
	}
	return groups, nil
}

package tripgen_test

import (
	"context"
	"fmt"
	"testing"

	"ridepool/models"
	"ridepool/services/tripgen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePassengers(n int) []tripgen.Passenger {
	out := make([]tripgen.Passenger, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, tripgen.Passenger{
			SubscriptionID:  fmt.Sprintf("sub-%03d", i),
			UserID:          fmt.Sprintf("user-%03d", i),
			BoardingPointID: fmt.Sprintf("bp-%d", i%3),
			DropOffPointID:  "bp-dest",
			PaymentMethod:   models.PaymentMethodOnline,
		})
	}
	return out
}

func TestTierFor_Boundaries(t *testing.T) {
	cases := []struct {
		n    int
		tier string
	}{
		{1, models.VehicleSedan},
		{4, models.VehicleSedan},
		{5, models.Vehicle7Seater},
		{7, models.Vehicle7Seater},
		{8, models.Vehicle10Seater},
		{10, models.Vehicle10Seater},
		{11, models.Vehicle14Seater},
		{14, models.Vehicle14Seater},
		{15, models.Vehicle32Seater},
		{32, models.Vehicle32Seater},
	}
	for _, tc := range cases {
		tier, err := tripgen.TierFor(tc.n)
		require.NoError(t, err, "n=%d", tc.n)
		assert.Equal(t, tc.tier, tier, "n=%d", tc.n)
	}
}

func TestTierFor_RejectsOutOfRange(t *testing.T) {
	_, err := tripgen.TierFor(0)
	assert.Error(t, err)
	_, err = tripgen.TierFor(33)
	assert.Error(t, err)
}

func TestDeterministicStrategy_NeverDropsPassengers(t *testing.T) {
	strategy := tripgen.DeterministicStrategy{}
	for _, n := range []int{1, 3, 14, 32, 33, 64, 71} {
		req := tripgen.GroupingRequest{Passengers: makePassengers(n)}
		groups, err := strategy.Group(context.Background(), req)
		require.NoError(t, err, "n=%d", n)
		assert.NoError(t, tripgen.ValidateGrouping(req.Passengers, groups), "n=%d", n)
	}
}

func TestDeterministicStrategy_SplitsAboveMaxCapacity(t *testing.T) {
	strategy := tripgen.DeterministicStrategy{}
	req := tripgen.GroupingRequest{Passengers: makePassengers(33)}

	groups, err := strategy.Group(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, models.Vehicle32Seater, groups[0].VehicleTier)
	assert.Len(t, groups[0].Passengers, 32)
	assert.Equal(t, models.VehicleSedan, groups[1].VehicleTier)
	assert.Len(t, groups[1].Passengers, 1)
}

func TestDeterministicStrategy_IsDeterministic(t *testing.T) {
	strategy := tripgen.DeterministicStrategy{}
	req := tripgen.GroupingRequest{Passengers: makePassengers(25)}

	first, err := strategy.Group(context.Background(), req)
	require.NoError(t, err)

	// Same passengers in reversed input order.
	reversed := make([]tripgen.Passenger, len(req.Passengers))
	for i, p := range req.Passengers {
		reversed[len(reversed)-1-i] = p
	}
	second, err := strategy.Group(context.Background(), tripgen.GroupingRequest{Passengers: reversed})
	require.NoError(t, err)

	assert.Equal(t, first, second, "input order must not change the grouping")
}

func TestValidateGrouping_CatchesBrokenGroupings(t *testing.T) {
	passengers := makePassengers(6)

	// Dropped passenger.
	short, err := tripgen.TierFor(5)
	require.NoError(t, err)
	groups := []tripgen.Group{{VehicleTier: short, Passengers: passengers[:5]}}
	assert.ErrorIs(t, tripgen.ValidateGrouping(passengers, groups), tripgen.ErrInvalidGrouping)

	// Duplicated passenger.
	dup := append([]tripgen.Passenger{}, passengers...)
	dup[5] = dup[0]
	tier, err := tripgen.TierFor(6)
	require.NoError(t, err)
	groups = []tripgen.Group{{VehicleTier: tier, Passengers: dup}}
	assert.ErrorIs(t, tripgen.ValidateGrouping(passengers, groups), tripgen.ErrInvalidGrouping)

	// Invented passenger.
	extra := append([]tripgen.Passenger{}, passengers...)
	extra = append(extra, tripgen.Passenger{SubscriptionID: "sub-ghost", UserID: "ghost"})
	seven, err := tripgen.TierFor(7)
	require.NoError(t, err)
	groups = []tripgen.Group{{VehicleTier: seven, Passengers: extra}}
	assert.ErrorIs(t, tripgen.ValidateGrouping(passengers, groups), tripgen.ErrInvalidGrouping)

	// Mismatched tier.
	groups = []tripgen.Group{{VehicleTier: models.Vehicle32Seater, Passengers: passengers}}
	assert.ErrorIs(t, tripgen.ValidateGrouping(passengers, groups), tripgen.ErrInvalidGrouping)
}

func TestValidateGrouping_AcceptsExactCover(t *testing.T) {
	passengers := makePassengers(9)
	tierA, err := tripgen.TierFor(4)
	require.NoError(t, err)
	tierB, err := tripgen.TierFor(5)
	require.NoError(t, err)

	groups := []tripgen.Group{
		{VehicleTier: tierA, Passengers: passengers[:4]},
		{VehicleTier: tierB, Passengers: passengers[4:]},
	}
	assert.NoError(t, tripgen.ValidateGrouping(passengers, groups))
}

package subscription

import "errors"

var (
	// ErrInvalidWeekday rejects unknown weekday names.
	ErrInvalidWeekday = errors.New("invalid weekday name")
	// ErrNoWeekdays rejects an empty weekday selection.
	ErrNoWeekdays = errors.New("at least one weekday is required")
	// ErrReasonRequired rejects a cancellation without a reason.
	ErrReasonRequired = errors.New("cancellation reason is required")
	// ErrInvalidDates rejects a date correction where start >= end.
	ErrInvalidDates = errors.New("start date must be before end date")
	// ErrInvalidPaymentMethod rejects unknown payment methods.
	ErrInvalidPaymentMethod = errors.New("payment method must be cash or online")
	// ErrUnknownTimeSlot rejects a slot id the route does not offer.
	ErrUnknownTimeSlot = errors.New("route does not offer this time slot")
	// ErrUnknownBoardingPoint rejects a stop the route does not serve.
	ErrUnknownBoardingPoint = errors.New("route does not serve this stop")
	// ErrNotActive signals a lifecycle operation on a terminal subscription.
	ErrNotActive = errors.New("subscription is not active")
	// ErrNotOwner signals a self-service request on someone else's
	// subscription.
	ErrNotOwner = errors.New("subscription belongs to another user")
)

package handlers

import (
	"errors"
	"net/http"

	blackoutRepo "ridepool/database/repository/blackout"
	invoiceRepo "ridepool/database/repository/invoice"
	routeRepo "ridepool/database/repository/route"
	settlementRepo "ridepool/database/repository/settlement"
	subscriptionRepo "ridepool/database/repository/subscription"
	tripRepo "ridepool/database/repository/trip"
	walletRepo "ridepool/database/repository/wallet"
	subscriptionService "ridepool/services/subscription"
	"ridepool/services/tripgen"
	walletService "ridepool/services/wallet"

	"github.com/gin-gonic/gin"
)

// statusForError maps known service and repository errors onto HTTP status
// codes; anything unrecognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, walletRepo.ErrWalletNotFound),
		errors.Is(err, subscriptionRepo.ErrSubscriptionNotFound),
		errors.Is(err, routeRepo.ErrRouteNotFound),
		errors.Is(err, tripRepo.ErrTripNotFound),
		errors.Is(err, invoiceRepo.ErrInvoiceNotFound),
		errors.Is(err, settlementRepo.ErrSettlementNotFound),
		errors.Is(err, blackoutRepo.ErrBlackoutNotFound):
		return http.StatusNotFound
	case errors.Is(err, walletService.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, walletService.ErrInvalidAmount),
		errors.Is(err, walletService.ErrReasonRequired),
		errors.Is(err, subscriptionService.ErrInvalidWeekday),
		errors.Is(err, subscriptionService.ErrNoWeekdays),
		errors.Is(err, subscriptionService.ErrReasonRequired),
		errors.Is(err, subscriptionService.ErrInvalidDates),
		errors.Is(err, subscriptionService.ErrInvalidPaymentMethod),
		errors.Is(err, subscriptionService.ErrUnknownTimeSlot),
		errors.Is(err, subscriptionService.ErrUnknownBoardingPoint):
		return http.StatusBadRequest
	case errors.Is(err, subscriptionService.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, walletService.ErrConcurrencyConflict),
		errors.Is(err, subscriptionRepo.ErrStatusConflict),
		errors.Is(err, subscriptionService.ErrNotActive),
		errors.Is(err, tripgen.ErrRunInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}

package handlers

import (
	"net/http"
	"time"

	subscriptionRepo "ridepool/database/repository/subscription"
	subscriptionService "ridepool/services/subscription"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// SubscriptionHandler exposes the subscription lifecycle over HTTP.
type SubscriptionHandler struct {
	Service subscriptionService.SubscriptionService
}

func NewSubscriptionHandler(svc subscriptionService.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{Service: svc}
}

// QuoteHandler handles POST /subscriptions/quote. No side effects.
func (h *SubscriptionHandler) QuoteHandler(c *gin.Context) {
	var req struct {
		RouteID  string   `json:"route_id" binding:"required"`
		Weekdays []string `json:"weekdays" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	breakdown, err := h.Service.Quote(c.Request.Context(), req.RouteID, req.Weekdays)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// PurchaseHandler handles POST /subscriptions.
func (h *SubscriptionHandler) PurchaseHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	var req struct {
		RouteID         string   `json:"route_id" binding:"required"`
		TimeSlotID      string   `json:"time_slot_id" binding:"required"`
		BoardingPointID string   `json:"boarding_point_id" binding:"required"`
		DropOffPointID  string   `json:"drop_off_point_id" binding:"required"`
		Weekdays        []string `json:"weekdays" binding:"required"`
		StartDate       string   `json:"start_date" binding:"required"` // YYYY-MM-DD
		PaymentMethod   string   `json:"payment_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date, expected YYYY-MM-DD"})
		return
	}

	sub, err := h.Service.Purchase(c.Request.Context(), subscriptionService.PurchaseInput{
		UserID:          userID,
		RouteID:         req.RouteID,
		TimeSlotID:      req.TimeSlotID,
		BoardingPointID: req.BoardingPointID,
		DropOffPointID:  req.DropOffPointID,
		Weekdays:        req.Weekdays,
		StartDate:       startDate,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		getLogger(c).Error("Subscription purchase failed",
			zap.String("userId", userID), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// RequestCancellationHandler handles POST /subscriptions/:id/request-cancel.
// Self-service; the subscription runs until period end.
func (h *SubscriptionHandler) RequestCancellationHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id := c.Param("id")
	if err := h.Service.RequestCancellation(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cancellation scheduled for period end"})
}

// ListMineHandler handles GET /subscriptions for the authenticated user.
func (h *SubscriptionHandler) ListMineHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	subs, err := h.Service.List(c.Request.Context(), subscriptionRepo.SubscriptionFilter{UserID: userID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// GetHandler handles GET /subscriptions/:id. Owners only.
func (h *SubscriptionHandler) GetHandler(c *gin.Context) {
	userID := c.GetString("userID")
	sub, err := h.Service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if sub.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your subscription"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

// AdminListHandler handles GET /admin/subscriptions with optional
// user_id, route_id and status query filters.
func (h *SubscriptionHandler) AdminListHandler(c *gin.Context) {
	filter := subscriptionRepo.SubscriptionFilter{
		UserID:  c.Query("user_id"),
		RouteID: c.Query("route_id"),
		Status:  c.Query("status"),
	}
	subs, err := h.Service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// AdminCancelHandler handles POST /admin/subscriptions/:id/cancel.
// Immediate termination with a prorated wallet refund for online payers.
func (h *SubscriptionHandler) AdminCancelHandler(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	refund, err := h.Service.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		getLogger(c).Error("Subscription cancellation failed",
			zap.String("subscriptionId", id), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled", "refund": refund})
}

// AdminEditDatesHandler handles PUT /admin/subscriptions/:id/dates.
func (h *SubscriptionHandler) AdminEditDatesHandler(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
		EndDate   string `json:"end_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date, expected YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date, expected YYYY-MM-DD"})
		return
	}
	if err := h.Service.EditDates(c.Request.Context(), id, start, end); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription dates updated"})
}

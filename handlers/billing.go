package handlers

import (
	"net/http"
	"time"

	billingService "ridepool/services/billing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BillingHandler exposes monthly invoicing to admins.
type BillingHandler struct {
	Service billingService.BillingService
}

func NewBillingHandler(svc billingService.BillingService) *BillingHandler {
	return &BillingHandler{Service: svc}
}

// AdminRunHandler handles POST /admin/billing/run. An optional month
// ("YYYY-MM") targets a specific period; default is the current month.
func (h *BillingHandler) AdminRunHandler(c *gin.Context) {
	var req struct {
		Month string `json:"month"`
	}
	_ = c.ShouldBindJSON(&req)

	anchor := time.Now().UTC()
	if req.Month != "" {
		parsed, err := time.Parse("2006-01", req.Month)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month, expected YYYY-MM"})
			return
		}
		anchor = parsed
	}

	report, err := h.Service.GenerateForMonth(c.Request.Context(), anchor)
	if err != nil {
		getLogger(c).Error("Billing run failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// AdminRetryInvoiceHandler handles POST /admin/invoices/:id/retry.
func (h *BillingHandler) AdminRetryInvoiceHandler(c *gin.Context) {
	inv, err := h.Service.RetryInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// AdminListInvoicesHandler handles GET /admin/subscriptions/:id/invoices.
func (h *BillingHandler) AdminListInvoicesHandler(c *gin.Context) {
	invoices, err := h.Service.ListForSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

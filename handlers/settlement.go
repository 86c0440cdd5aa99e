package handlers

import (
	"net/http"

	"ridepool/models"
	settlementService "ridepool/services/settlement"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SettlementHandler exposes cash settlement reconciliation to admins.
type SettlementHandler struct {
	Service settlementService.SettlementService
}

func NewSettlementHandler(svc settlementService.SettlementService) *SettlementHandler {
	return &SettlementHandler{Service: svc}
}

// AdminListHandler handles GET /admin/settlements?status= (default pending).
func (h *SettlementHandler) AdminListHandler(c *gin.Context) {
	status := c.DefaultQuery("status", models.SettlementPending)
	records, err := h.Service.List(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlements": records})
}

// AdminAcknowledgeHandler handles POST /admin/settlements/:id/acknowledge.
func (h *SettlementHandler) AdminAcknowledgeHandler(c *gin.Context) {
	id := c.Param("id")
	adminID := c.GetString("adminID")
	if adminID == "" {
		adminID = "admin"
	}
	rec, err := h.Service.Acknowledge(c.Request.Context(), id, adminID)
	if err != nil {
		getLogger(c).Error("Settlement acknowledgement failed",
			zap.String("recordId", id), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

package handlers

import (
	"net/http"

	"ridepool/models"
	walletService "ridepool/services/wallet"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WalletHandler exposes the wallet ledger over HTTP.
type WalletHandler struct {
	Service walletService.WalletService
}

func NewWalletHandler(svc walletService.WalletService) *WalletHandler {
	return &WalletHandler{Service: svc}
}

// GetBalanceHandler handles GET /wallet/balance for the authenticated user.
func (h *WalletHandler) GetBalanceHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	balance, err := h.Service.BalanceOf(c.Request.Context(), userID)
	if err != nil {
		getLogger(c).Error("Failed to read wallet balance", zap.String("userId", userID), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "balance": balance})
}

// TopUpHandler handles POST /wallet/topup. Funds are assumed already
// collected by an external channel; this only records the credit.
func (h *WalletHandler) TopUpHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	var req struct {
		Amount      decimal.Decimal `json:"amount" binding:"required"`
		ReferenceID string          `json:"reference_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	tx, err := h.Service.Credit(c.Request.Context(), userID, req.Amount,
		models.TxCategoryTopup, "Wallet top-up", req.ReferenceID)
	if err != nil {
		getLogger(c).Error("Top-up failed", zap.String("userId", userID), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// TransactionsHandler handles GET /wallet/transactions.
func (h *WalletHandler) TransactionsHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	txs, err := h.Service.Transactions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// AdminAdjustHandler handles POST /admin/wallets/:userId/adjust. A signed
// amount with a mandatory reason.
func (h *WalletHandler) AdminAdjustHandler(c *gin.Context) {
	targetUserID := c.Param("userId")
	var req struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
		Reason string          `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	tx, err := h.Service.AdminAdjust(c.Request.Context(), targetUserID, req.Amount, req.Reason)
	if err != nil {
		getLogger(c).Error("Admin adjustment failed",
			zap.String("userId", targetUserID), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// AdminGetWalletHandler handles GET /admin/wallets/:userId.
func (h *WalletHandler) AdminGetWalletHandler(c *gin.Context) {
	targetUserID := c.Param("userId")
	balance, err := h.Service.BalanceOf(c.Request.Context(), targetUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	txs, err := h.Service.Transactions(c.Request.Context(), targetUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":      targetUserID,
		"balance":      balance,
		"transactions": txs,
	})
}

// AdminAuditHandler handles GET /admin/wallets/:userId/audit.
func (h *WalletHandler) AdminAuditHandler(c *gin.Context) {
	targetUserID := c.Param("userId")
	report, err := h.Service.Audit(c.Request.Context(), targetUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

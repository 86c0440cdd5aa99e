package handlers

import (
	"net/http"
	"time"

	blackoutRepo "ridepool/database/repository/blackout"
	"ridepool/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BlackoutHandler manages the blackout calendar.
type BlackoutHandler struct {
	Repo blackoutRepo.BlackoutRepository
}

func NewBlackoutHandler(repo blackoutRepo.BlackoutRepository) *BlackoutHandler {
	return &BlackoutHandler{Repo: repo}
}

// ListHandler handles GET /blackouts.
func (h *BlackoutHandler) ListHandler(c *gin.Context) {
	dates, err := h.Repo.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blackouts": dates})
}

// AdminCreateHandler handles POST /admin/blackouts.
func (h *BlackoutHandler) AdminCreateHandler(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
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
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date before start_date"})
		return
	}

	b := &models.BlackoutDate{
		ID:        uuid.New().String(),
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		CreatedAt: time.Now(),
	}
	if err := h.Repo.Create(c.Request.Context(), b); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// AdminDeleteHandler handles DELETE /admin/blackouts/:id.
func (h *BlackoutHandler) AdminDeleteHandler(c *gin.Context) {
	if err := h.Repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blackout removed"})
}

package handlers

import (
	"net/http"
	"time"

	tripRepo "ridepool/database/repository/trip"
	"ridepool/services/tripgen"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TripHandler exposes trip generation and generated trips over HTTP.
type TripHandler struct {
	Engine tripgen.SchedulerEngine
	Trips  tripRepo.TripRepository
}

func NewTripHandler(engine tripgen.SchedulerEngine, trips tripRepo.TripRepository) *TripHandler {
	return &TripHandler{Engine: engine, Trips: trips}
}

// AdminGenerateHandler handles POST /admin/trips/generate. Accepts an
// explicit from/to range; defaults to tomorrow only.
func (h *TripHandler) AdminGenerateHandler(c *gin.Context) {
	var req struct {
		From string `json:"from"` // YYYY-MM-DD
		To   string `json:"to"`
	}
	// Body is optional.
	_ = c.ShouldBindJSON(&req)

	from := time.Now().UTC().AddDate(0, 0, 1)
	to := from
	var err error
	if req.From != "" {
		if from, err = time.Parse(dateLayout, req.From); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected YYYY-MM-DD"})
			return
		}
		to = from
	}
	if req.To != "" {
		if to, err = time.Parse(dateLayout, req.To); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected YYYY-MM-DD"})
			return
		}
	}

	summary, err := h.Engine.RunForDateRange(c.Request.Context(), from, to)
	if err != nil {
		getLogger(c).Error("Trip generation run failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// AdminListByDateHandler handles GET /admin/trips?date=YYYY-MM-DD.
func (h *TripHandler) AdminListByDateHandler(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	trips, err := h.Trips.ListByDate(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "trips": trips})
}

// GetByReferenceHandler handles GET /trips/:reference.
func (h *TripHandler) GetByReferenceHandler(c *gin.Context) {
	trip, err := h.Trips.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// AdminAssignDriverHandler handles PUT /admin/trips/:id/driver.
func (h *TripHandler) AdminAssignDriverHandler(c *gin.Context) {
	var req struct {
		DriverID string `json:"driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := h.Trips.AssignDriver(c.Request.Context(), c.Param("id"), req.DriverID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Driver assigned"})
}

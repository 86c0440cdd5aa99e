package handlers

import (
	"net/http"
	"time"

	routeRepo "ridepool/database/repository/route"
	"ridepool/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RouteHandler manages commute routes.
type RouteHandler struct {
	Repo routeRepo.RouteRepository
}

func NewRouteHandler(repo routeRepo.RouteRepository) *RouteHandler {
	return &RouteHandler{Repo: repo}
}

// ListHandler handles GET /routes. Active routes only.
func (h *RouteHandler) ListHandler(c *gin.Context) {
	routes, err := h.Repo.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes})
}

// GetHandler handles GET /routes/:id.
func (h *RouteHandler) GetHandler(c *gin.Context) {
	route, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}

// AdminCreateHandler handles POST /admin/routes.
func (h *RouteHandler) AdminCreateHandler(c *gin.Context) {
	var route models.Route
	if err := c.ShouldBindJSON(&route); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if route.Name == "" || route.PricePerSeat.Sign() <= 0 || len(route.TimeSlots) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, positive price_per_seat and at least one time slot are required"})
		return
	}
	route.ID = uuid.New().String()
	route.Active = true
	now := time.Now()
	route.CreatedAt = now
	route.UpdatedAt = now
	if err := h.Repo.Create(c.Request.Context(), &route); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, route)
}

// AdminUpdateHandler handles PUT /admin/routes/:id.
func (h *RouteHandler) AdminUpdateHandler(c *gin.Context) {
	existing, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	var route models.Route
	if err := c.ShouldBindJSON(&route); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	route.ID = existing.ID
	route.CreatedAt = existing.CreatedAt
	route.UpdatedAt = time.Now()
	if err := h.Repo.Update(c.Request.Context(), &route); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aquaflow/aquaflow-api/internal/models"
	"github.com/aquaflow/aquaflow-api/internal/service"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
	"github.com/aquaflow/aquaflow-api/pkg/response"
)

// PlumberHandler exposes plumber directory endpoints.
type PlumberHandler struct {
	plumbers *service.PlumberService
}

// NewPlumberHandler constructs PlumberHandler.
func NewPlumberHandler(plumbers *service.PlumberService) *PlumberHandler {
	return &PlumberHandler{plumbers: plumbers}
}

// requireSelfOrStaff lets staff touch any profile and plumbers only their own.
func requireSelfOrStaff(c *gin.Context) error {
	actor := actorFromContext(c)
	if actor.Kind == models.ActorPlumber && actor.ID != c.Param("id") {
		return appErrors.ErrForbidden
	}
	return nil
}

// List godoc
// @Summary List plumbers
// @Tags Plumbers
// @Produce json
// @Param verified query bool false "Filter by verification"
// @Param available query bool false "Filter by availability"
// @Param service query string false "Filter by offered service"
// @Param minRating query number false "Minimum rating"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /plumbers [get]
func (h *PlumberHandler) List(c *gin.Context) {
	var filter models.PlumberFilter
	if raw := c.Query("verified"); raw != "" {
		if verified, err := strconv.ParseBool(raw); err == nil {
			filter.Verified = &verified
		}
	}
	if raw := c.Query("available"); raw != "" {
		if available, err := strconv.ParseBool(raw); err == nil {
			filter.Available = &available
		}
	}
	filter.Service = models.ServiceType(c.Query("service"))
	if rating, err := strconv.ParseFloat(c.Query("minRating"), 64); err == nil {
		filter.MinRating = rating
	}
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	plumbers, pagination, err := h.plumbers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plumbers, pagination)
}

// Get godoc
// @Summary Get a plumber profile
// @Tags Plumbers
// @Produce json
// @Param id path string true "Plumber ID"
// @Success 200 {object} response.Envelope
// @Router /plumbers/{id} [get]
func (h *PlumberHandler) Get(c *gin.Context) {
	plumber, err := h.plumbers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plumber, nil)
}

// Register godoc
// @Summary Register a plumber
// @Tags Plumbers
// @Accept json
// @Produce json
// @Param payload body service.RegisterPlumberRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /plumbers [post]
func (h *PlumberHandler) Register(c *gin.Context) {
	var req service.RegisterPlumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plumber, err := h.plumbers.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plumber)
}

// Update godoc
// @Summary Update a plumber profile
// @Tags Plumbers
// @Accept json
// @Produce json
// @Param id path string true "Plumber ID"
// @Param payload body service.UpdatePlumberRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /plumbers/{id} [put]
func (h *PlumberHandler) Update(c *gin.Context) {
	if err := requireSelfOrStaff(c); err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdatePlumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plumber, err := h.plumbers.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plumber, nil)
}

// SetAvailability godoc
// @Summary Toggle plumber availability
// @Tags Plumbers
// @Accept json
// @Produce json
// @Param id path string true "Plumber ID"
// @Param payload body service.AvailabilityRequest true "Availability payload"
// @Success 200 {object} response.Envelope
// @Router /plumbers/{id}/availability [put]
func (h *PlumberHandler) SetAvailability(c *gin.Context) {
	if err := requireSelfOrStaff(c); err != nil {
		response.Error(c, err)
		return
	}
	var req service.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plumber, err := h.plumbers.SetAvailability(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plumber, nil)
}

// Verify godoc
// @Summary Mark a plumber as verified
// @Tags Plumbers
// @Produce json
// @Param id path string true "Plumber ID"
// @Success 200 {object} response.Envelope
// @Router /plumbers/{id}/verify [put]
func (h *PlumberHandler) Verify(c *gin.Context) {
	plumber, err := h.plumbers.Verify(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plumber, nil)
}

// Nearby godoc
// @Summary Find plumbers near a coordinate
// @Tags Plumbers
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param radius query number false "Radius in km"
// @Success 200 {object} response.Envelope
// @Router /plumbers/nearby [get]
func (h *PlumberHandler) Nearby(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "lat and lng query parameters are required"))
		return
	}
	radius, _ := strconv.ParseFloat(c.Query("radius"), 64)

	plumbers, err := h.plumbers.Nearby(c.Request.Context(), models.Location{Latitude: lat, Longitude: lng}, radius)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plumbers, nil)
}

// Stats godoc
// @Summary Plumber workload statistics
// @Tags Plumbers
// @Produce json
// @Param id path string true "Plumber ID"
// @Success 200 {object} response.Envelope
// @Router /plumbers/{id}/stats [get]
func (h *PlumberHandler) Stats(c *gin.Context) {
	stats, err := h.plumbers.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

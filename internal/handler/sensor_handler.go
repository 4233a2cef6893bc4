package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aquaflow/aquaflow-api/internal/models"
	"github.com/aquaflow/aquaflow-api/internal/service"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
	"github.com/aquaflow/aquaflow-api/pkg/response"
)

// SensorHandler exposes IoT telemetry endpoints.
type SensorHandler struct {
	sensors *service.SensorService
}

// NewSensorHandler constructs SensorHandler.
func NewSensorHandler(sensors *service.SensorService) *SensorHandler {
	return &SensorHandler{sensors: sensors}
}

// Ingest godoc
// @Summary Ingest a sensor reading
// @Tags Sensors
// @Accept json
// @Produce json
// @Param X-API-Key header string true "Device API key"
// @Param payload body service.IngestReadingRequest true "Reading payload"
// @Success 201 {object} response.Envelope
// @Router /sensors/readings [post]
func (h *SensorHandler) Ingest(c *gin.Context) {
	var req service.IngestReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	analysis, err := h.sensors.Ingest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, analysis)
}

// List godoc
// @Summary List sensor readings
// @Tags Sensors
// @Produce json
// @Param sensorId query string false "Filter by sensor"
// @Param since query string false "RFC3339 lower bound"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sensors/readings [get]
func (h *SensorHandler) List(c *gin.Context) {
	var filter models.SensorFilter
	filter.SensorID = c.Query("sensorId")
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "since must be RFC3339"))
			return
		}
		filter.Since = &since
	}
	filter.Page, filter.PageSize = pageParams(c)

	readings, pagination, err := h.sensors.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, readings, pagination)
}

// Latest godoc
// @Summary Latest reading per sensor
// @Tags Sensors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sensors/latest [get]
func (h *SensorHandler) Latest(c *gin.Context) {
	readings, err := h.sensors.Latest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, readings, nil)
}

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

// LeakHandler exposes leak report endpoints.
type LeakHandler struct {
	leaks *service.LeakService
}

// NewLeakHandler constructs LeakHandler.
func NewLeakHandler(leaks *service.LeakService) *LeakHandler {
	return &LeakHandler{leaks: leaks}
}

// List godoc
// @Summary List leak reports
// @Tags Leaks
// @Produce json
// @Param status query string false "Filter by status"
// @Param severity query string false "Filter by severity"
// @Param reportedBy query string false "Filter by reporter"
// @Param active query bool false "Only unresolved leaks"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leaks [get]
func (h *LeakHandler) List(c *gin.Context) {
	var filter models.LeakFilter
	filter.Status = models.LeakStatus(c.Query("status"))
	filter.Severity = models.LeakSeverity(c.Query("severity"))
	filter.ReportedBy = c.Query("reportedBy")
	if active, err := strconv.ParseBool(c.DefaultQuery("active", "false")); err == nil {
		filter.ActiveOnly = active
	}
	filter.Page, filter.PageSize = pageParams(c)

	leaks, pagination, err := h.leaks.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaks, pagination)
}

// Get godoc
// @Summary Get a leak report
// @Tags Leaks
// @Produce json
// @Param id path string true "Leak ID"
// @Success 200 {object} response.Envelope
// @Router /leaks/{id} [get]
func (h *LeakHandler) Get(c *gin.Context) {
	leak, err := h.leaks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leak, nil)
}

// Report godoc
// @Summary Report a leak
// @Tags Leaks
// @Accept json
// @Produce json
// @Param payload body service.ReportLeakRequest true "Leak payload"
// @Success 201 {object} response.Envelope
// @Router /leaks [post]
func (h *LeakHandler) Report(c *gin.Context) {
	var req service.ReportLeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	leak, err := h.leaks.Report(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leak)
}

// Update godoc
// @Summary Update a leak report
// @Tags Leaks
// @Accept json
// @Produce json
// @Param id path string true "Leak ID"
// @Param payload body service.UpdateLeakRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /leaks/{id} [put]
func (h *LeakHandler) Update(c *gin.Context) {
	var req service.UpdateLeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	leak, err := h.leaks.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leak, nil)
}

// Delete godoc
// @Summary Delete a leak report
// @Tags Leaks
// @Produce json
// @Param id path string true "Leak ID"
// @Success 204 "No Content"
// @Router /leaks/{id} [delete]
func (h *LeakHandler) Delete(c *gin.Context) {
	if err := h.leaks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Stats godoc
// @Summary Leak counters by status and severity
// @Tags Leaks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaks/stats [get]
func (h *LeakHandler) Stats(c *gin.Context) {
	stats, err := h.leaks.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aquaflow/aquaflow-api/internal/models"
	"github.com/aquaflow/aquaflow-api/internal/service"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
	"github.com/aquaflow/aquaflow-api/pkg/response"
)

// ServiceHandler exposes the dispatch workflow endpoints.
type ServiceHandler struct {
	lifecycle *service.LifecycleService
	invoices  *service.InvoiceService
}

// NewServiceHandler constructs ServiceHandler.
func NewServiceHandler(lifecycle *service.LifecycleService, invoices *service.InvoiceService) *ServiceHandler {
	return &ServiceHandler{lifecycle: lifecycle, invoices: invoices}
}

// List godoc
// @Summary List service requests
// @Tags Services
// @Produce json
// @Param status query string false "Filter by status"
// @Param priority query string false "Filter by priority"
// @Param serviceType query string false "Filter by service type"
// @Param plumberId query string false "Filter by assigned plumber"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /services [get]
func (h *ServiceHandler) List(c *gin.Context) {
	var filter models.ServiceRequestFilter
	filter.Status = models.ServiceStatus(c.Query("status"))
	filter.Priority = models.ServicePriority(c.Query("priority"))
	filter.ServiceType = models.ServiceType(c.Query("serviceType"))
	filter.AssignedPlumber = c.Query("plumberId")
	filter.RequestedBy = c.Query("requestedBy")
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	if claims := claimsFromContext(c); claims != nil && claims.ActorKind == models.ActorPlumber {
		filter.AssignedPlumber = claims.ActorID
	}

	requests, pagination, err := h.lifecycle.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get a service request
// @Tags Services
// @Produce json
// @Param id path string true "Service request ID"
// @Success 200 {object} response.Envelope
// @Router /services/{id} [get]
func (h *ServiceHandler) Get(c *gin.Context) {
	request, err := h.lifecycle.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Stats godoc
// @Summary Workflow counters
// @Tags Services
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /services/stats [get]
func (h *ServiceHandler) Stats(c *gin.Context) {
	stats, err := h.lifecycle.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Create godoc
// @Summary Open a service request for a leak
// @Tags Services
// @Accept json
// @Produce json
// @Param payload body service.CreateServiceRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /services [post]
func (h *ServiceHandler) Create(c *gin.Context) {
	var req service.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.lifecycle.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// FindCandidates godoc
// @Summary Rank candidate plumbers for a request
// @Tags Services
// @Produce json
// @Param id path string true "Service request ID"
// @Param urgency query string false "normal or urgent"
// @Success 200 {object} response.Envelope
// @Router /services/{id}/candidates [get]
func (h *ServiceHandler) FindCandidates(c *gin.Context) {
	urgency := models.Urgency(c.DefaultQuery("urgency", string(models.UrgencyNormal)))
	result, err := h.lifecycle.FindCandidates(c.Request.Context(), c.Param("id"), urgency, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{
		"radius_used_km": result.RadiusUsedKm,
		"total_found":    result.TotalFound,
	}
	response.JSON(c, http.StatusOK, result.Candidates, nil, meta)
}

// Assign godoc
// @Summary Assign a plumber to a request
// @Tags Services
// @Accept json
// @Produce json
// @Param id path string true "Service request ID"
// @Param payload body service.AssignPlumberRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /services/{id}/assign [put]
func (h *ServiceHandler) Assign(c *gin.Context) {
	var req service.AssignPlumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.lifecycle.Assign(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Accept godoc
// @Summary Plumber accepts an assignment
// @Tags Services
// @Accept json
// @Produce json
// @Param id path string true "Service request ID"
// @Param payload body service.AcceptServiceRequest true "Acceptance payload"
// @Success 200 {object} response.Envelope
// @Router /services/{id}/accept [put]
func (h *ServiceHandler) Accept(c *gin.Context) {
	var req service.AcceptServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.lifecycle.Accept(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Progress godoc
// @Summary Advance the en-route and on-site stages
// @Tags Services
// @Accept json
// @Produce json
// @Param id path string true "Service request ID"
// @Param payload body service.ProgressRequest true "Progress payload"
// @Success 200 {object} response.Envelope
// @Router /services/{id}/progress [put]
func (h *ServiceHandler) Progress(c *gin.Context) {
	var req service.ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.lifecycle.Progress(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// CompleteWork godoc
// @Summary Record completed work and pricing
// @Tags Services
// @Accept json
// @Produce json
// @Param id path string true "Service request ID"
// @Param payload body service.CompleteWorkRequest true "Completion payload"
// @Success 200 {object} response.Envelope
// @Router /services/{id}/complete [put]
func (h *ServiceHandler) CompleteWork(c *gin.Context) {
	var req service.CompleteWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.lifecycle.CompleteWork(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Verify godoc
// @Summary Staff quality check on completed work
// @Tags Services
// @Accept json
// @Produce json
// @Param id path string true "Service request ID"
// @Param payload body service.VerifyRequest true "Verification payload"
// @Success 200 {object} response.Envelope
// @Router /services/{id}/verify [put]
func (h *ServiceHandler) Verify(c *gin.Context) {
	var req service.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.lifecycle.Verify(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Close godoc
// @Summary Close a verified and paid request
// @Tags Services
// @Produce json
// @Param id path string true "Service request ID"
// @Success 200 {object} response.Envelope
// @Router /services/{id}/close [put]
func (h *ServiceHandler) Close(c *gin.Context) {
	request, err := h.lifecycle.Close(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Cancel godoc
// @Summary Cancel a request before completion
// @Tags Services
// @Accept json
// @Produce json
// @Param id path string true "Service request ID"
// @Param payload body service.CancelRequest true "Cancellation payload"
// @Success 200 {object} response.Envelope
// @Router /services/{id}/cancel [put]
func (h *ServiceHandler) Cancel(c *gin.Context) {
	var req service.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.lifecycle.Cancel(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// AddMessage godoc
// @Summary Append to the request's communication log
// @Tags Services
// @Accept json
// @Produce json
// @Param id path string true "Service request ID"
// @Param payload body service.MessageRequest true "Message payload"
// @Success 200 {object} response.Envelope
// @Router /services/{id}/messages [post]
func (h *ServiceHandler) AddMessage(c *gin.Context) {
	var req service.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.lifecycle.AddMessage(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Invoice godoc
// @Summary Download the PDF invoice for completed work
// @Tags Services
// @Produce application/pdf
// @Param id path string true "Service request ID"
// @Success 200 {file} binary
// @Router /services/{id}/invoice [get]
func (h *ServiceHandler) Invoice(c *gin.Context) {
	id := c.Param("id")
	pdf, err := h.invoices.Generate(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

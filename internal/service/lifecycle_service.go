package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aquaflow/aquaflow-api/internal/models"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

type serviceRequestStore interface {
	List(ctx context.Context, filter models.ServiceRequestFilter) ([]models.ServiceRequest, int, error)
	GetByID(ctx context.Context, id string) (*models.ServiceRequest, error)
	GetByLeakID(ctx context.Context, leakID string) (*models.ServiceRequest, error)
	Create(ctx context.Context, request *models.ServiceRequest) error
	Update(ctx context.Context, request *models.ServiceRequest) error
	Stats(ctx context.Context) (*models.ServiceStats, error)
}

type plumberStore interface {
	GetByID(ctx context.Context, id string) (*models.Plumber, error)
	Update(ctx context.Context, plumber *models.Plumber) error
}

type leakStore interface {
	GetByID(ctx context.Context, id string) (*models.Leak, error)
	Update(ctx context.Context, leak *models.Leak) error
}

type statusMatcher interface {
	Match(ctx context.Context, query MatchQuery) (*models.MatchResult, error)
}

type eventPublisher interface {
	PublishStatusChanged(ctx context.Context, event models.ServiceStatusChanged)
}

// transitions is the closed set of forward edges in the dispatch workflow.
// Cancellation is handled separately because it has its own guard.
var transitions = map[models.ServiceStatus][]models.ServiceStatus{
	models.StatusPending:          {models.StatusPlumberSearch},
	models.StatusPlumberSearch:    {models.StatusPlumberAssigned},
	models.StatusPlumberAssigned:  {models.StatusPlumberConfirmed},
	models.StatusPlumberConfirmed: {models.StatusPlumberEnRoute},
	models.StatusPlumberEnRoute:   {models.StatusPlumberArrived},
	models.StatusPlumberArrived:   {models.StatusWorkInProgress},
	models.StatusWorkInProgress:   {models.StatusWorkCompleted},
	models.StatusWorkCompleted:    {models.StatusVerified, models.StatusWorkInProgress},
	models.StatusVerified:         {models.StatusClosed},
}

// canTransition reports whether the forward edge exists.
func canTransition(from, to models.ServiceStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateServiceRequest describes a new work order for a leak.
type CreateServiceRequest struct {
	LeakID        string                 `json:"leak_id" validate:"required"`
	ServiceType   models.ServiceType     `json:"service_type" validate:"required"`
	Priority      models.ServicePriority `json:"priority" validate:"required"`
	ScheduledDate *time.Time             `json:"scheduled_date"`
}

// AssignPlumberRequest designates a provider for a request.
type AssignPlumberRequest struct {
	PlumberID string `json:"plumber_id" validate:"required"`
	Notes     string `json:"notes"`
}

// AcceptServiceRequest is the plumber's confirmation payload.
type AcceptServiceRequest struct {
	EstimatedArrival *time.Time `json:"estimated_arrival"`
	Message          string     `json:"message"`
}

// ProgressRequest moves a request along the en-route and on-site stages.
type ProgressRequest struct {
	Status   models.ServiceStatus `json:"status" validate:"required"`
	Notes    string               `json:"notes"`
	Location *models.Location     `json:"location"`
}

// CompleteWorkRequest closes out the on-site work.
type CompleteWorkRequest struct {
	WorkDetails       models.WorkDetails        `json:"work_details"`
	LaborCost         string                    `json:"labor_cost"`
	MaterialsCost     string                    `json:"materials_cost"`
	AdditionalCharges []models.AdditionalCharge `json:"additional_charges"`
	IsEmergencyRate   bool                      `json:"is_emergency_rate"`
}

// VerifyRequest is the staff sign-off payload. A nil QualityPassed means
// the quality check was skipped; false sends the work back.
type VerifyRequest struct {
	QualityPassed *bool    `json:"quality_passed"`
	Rating        *float64 `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Feedback      string   `json:"feedback"`
	Issues        []string `json:"issues"`
	Notes         string   `json:"notes"`
}

// CancelRequest aborts a request.
type CancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// MessageRequest appends to the request's communication log.
type MessageRequest struct {
	Body string `json:"body" validate:"required"`
}

// LifecycleService drives service requests through the dispatch workflow.
// It validates every transition against the state table, applies the side
// effects of the target state, and persists through optimistic versioning.
// A concurrent modification surfaces to the caller unchanged; the service
// never retries on its own.
type LifecycleService struct {
	requests  serviceRequestStore
	plumbers  plumberStore
	leaks     leakStore
	matcher   statusMatcher
	events    eventPublisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLifecycleService constructs LifecycleService.
func NewLifecycleService(requests serviceRequestStore, plumbers plumberStore, leaks leakStore, matcher statusMatcher, events eventPublisher, validate *validator.Validate, logger *zap.Logger) *LifecycleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{requests: requests, plumbers: plumbers, leaks: leaks, matcher: matcher, events: events, validator: validate, logger: logger}
}

// WithMetrics attaches the metrics service and returns the receiver.
func (s *LifecycleService) WithMetrics(metrics *MetricsService) *LifecycleService {
	s.metrics = metrics
	return s
}

// List returns service requests with pagination metadata.
func (s *LifecycleService) List(ctx context.Context, filter models.ServiceRequestFilter) ([]models.ServiceRequest, *models.Pagination, error) {
	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list service requests")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return requests, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches a single request.
func (s *LifecycleService) Get(ctx context.Context, id string) (*models.ServiceRequest, error) {
	return s.requests.GetByID(ctx, id)
}

// Stats aggregates workflow counters.
func (s *LifecycleService) Stats(ctx context.Context) (*models.ServiceStats, error) {
	stats, err := s.requests.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate service stats")
	}
	return stats, nil
}

// Create opens a work order for a reported leak.
func (s *LifecycleService) Create(ctx context.Context, req CreateServiceRequest, actor models.ActorRef) (*models.ServiceRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid service request payload")
	}
	if !req.ServiceType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown service type")
	}
	if !req.Priority.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown priority")
	}
	leak, err := s.leaks.GetByID(ctx, req.LeakID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	request := &models.ServiceRequest{
		LeakID:        leak.ID,
		RequestedBy:   actor.ID,
		Status:        models.StatusPending,
		ServiceType:   req.ServiceType,
		Priority:      req.Priority,
		Location:      leak.Location,
		ScheduledDate: req.ScheduledDate,
		Timeline: models.Timeline{{
			Status:    models.StatusPending,
			Timestamp: now,
			Actor:     actor,
			Notes:     "service request created",
		}},
		Payment: models.PaymentRecord{Status: models.PaymentPending},
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create service request")
	}

	leak.AssignedService = &request.ID
	if err := s.leaks.Update(ctx, leak); err != nil {
		s.logger.Warn("failed to link leak to service request",
			zap.String("leak_id", leak.ID), zap.String("service_id", request.ID), zap.Error(err))
	}
	return request, nil
}

// FindCandidates runs the matching engine for a request, stamps the
// surfaced providers on it, and moves it into plumber_search.
func (s *LifecycleService) FindCandidates(ctx context.Context, id string, urgency models.Urgency, actor models.ActorRef) (*models.MatchResult, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusPending && request.Status != models.StatusPlumberSearch {
		return nil, s.transitionError(request.Status, models.StatusPlumberSearch)
	}

	result, err := s.matcher.Match(ctx, MatchQuery{
		Location:    request.Location,
		ServiceType: request.ServiceType,
		Priority:    request.Priority,
		Urgency:     urgency,
	})
	if err != nil {
		return nil, err
	}

	request.NearbyCandidates = request.NearbyCandidates[:0]
	for _, candidate := range result.Candidates {
		request.NearbyCandidates = append(request.NearbyCandidates, models.NearbyCandidate{
			PlumberID:  candidate.Plumber.ID,
			DistanceKm: candidate.DistanceKm,
			Score:      int(candidate.Score.Total),
			Response:   models.CandidatePending,
		})
	}
	if request.Status == models.StatusPending {
		s.applyTransition(request, models.StatusPlumberSearch, actor, "candidate search started", nil)
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}
	return result, nil
}

// Assign designates a provider for the request. The request must be in
// plumber_search with no provider yet, and the provider must be taking work.
func (s *LifecycleService) Assign(ctx context.Context, id string, req AssignPlumberRequest, actor models.ActorRef) (*models.ServiceRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.AssignedPlumber != nil {
		return nil, appErrors.WithDetails(appErrors.ErrAlreadyAssigned, map[string]interface{}{
			"assigned_plumber": *request.AssignedPlumber,
		})
	}
	if !canTransition(request.Status, models.StatusPlumberAssigned) {
		return nil, s.transitionError(request.Status, models.StatusPlumberAssigned)
	}

	plumber, err := s.plumbers.GetByID(ctx, req.PlumberID)
	if err != nil {
		return nil, err
	}
	if !plumber.IsActive || !plumber.Availability.IsAvailable {
		return nil, appErrors.WithDetails(appErrors.ErrPlumberUnavailable, map[string]interface{}{
			"plumber_id": plumber.ID,
		})
	}

	now := time.Now().UTC()
	request.AssignedPlumber = &plumber.ID
	for i := range request.NearbyCandidates {
		if request.NearbyCandidates[i].PlumberID == plumber.ID {
			request.NearbyCandidates[i].Contacted = true
			request.NearbyCandidates[i].ContactedAt = &now
		}
	}
	s.applyTransition(request, models.StatusPlumberAssigned, actor, req.Notes, nil)
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}

	s.updateLeakStatus(ctx, request.LeakID, models.LeakInProgress, actor, "plumber assigned")
	s.publish(ctx, request, models.StatusPlumberSearch, actor)
	return request, nil
}

// Accept records the assigned plumber's confirmation and folds the
// response time into their running average. Only the holder of the
// assignment may confirm, and only while still taking work.
func (s *LifecycleService) Accept(ctx context.Context, id string, req AcceptServiceRequest, actor models.ActorRef) (*models.ServiceRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.AssignedPlumber == nil {
		return nil, appErrors.ErrForbidden
	}
	if actor.Kind == models.ActorPlumber && *request.AssignedPlumber != actor.ID {
		return nil, appErrors.WithDetails(appErrors.ErrAlreadyAssigned, map[string]interface{}{
			"assigned_plumber": *request.AssignedPlumber,
		})
	}
	if !canTransition(request.Status, models.StatusPlumberConfirmed) {
		return nil, s.transitionError(request.Status, models.StatusPlumberConfirmed)
	}

	plumber, err := s.plumbers.GetByID(ctx, *request.AssignedPlumber)
	if err != nil {
		return nil, err
	}
	if !plumber.Availability.IsAvailable {
		return nil, appErrors.WithDetails(appErrors.ErrPlumberUnavailable, map[string]interface{}{
			"plumber_id": plumber.ID,
		})
	}

	now := time.Now().UTC()
	request.PlumberResponse = models.PlumberResponse{
		Accepted:         true,
		AcceptedAt:       &now,
		EstimatedArrival: req.EstimatedArrival,
		Message:          req.Message,
	}
	for i := range request.NearbyCandidates {
		if request.NearbyCandidates[i].PlumberID == plumber.ID {
			request.NearbyCandidates[i].Response = models.CandidateAccepted
		}
	}
	from := request.Status
	s.applyTransition(request, models.StatusPlumberConfirmed, actor, req.Message, nil)
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}

	s.recordResponseTime(ctx, plumber.ID, request, now)
	s.publish(ctx, request, from, actor)
	return request, nil
}

// Progress moves the request through en-route, arrived and in-progress.
func (s *LifecycleService) Progress(ctx context.Context, id string, req ProgressRequest, actor models.ActorRef) (*models.ServiceRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}
	switch req.Status {
	case models.StatusPlumberEnRoute, models.StatusPlumberArrived, models.StatusWorkInProgress:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status is not a progress stage")
	}

	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAssignedPlumber(request, actor); err != nil {
		return nil, err
	}
	if !canTransition(request.Status, req.Status) {
		return nil, s.transitionError(request.Status, req.Status)
	}

	from := request.Status
	s.applyTransition(request, req.Status, actor, req.Notes, req.Location)
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}
	s.publish(ctx, request, from, actor)
	return request, nil
}

// CompleteWork records the on-site outcome, recomputes the bill, and
// credits the plumber with a completed job.
func (s *LifecycleService) CompleteWork(ctx context.Context, id string, req CompleteWorkRequest, actor models.ActorRef) (*models.ServiceRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAssignedPlumber(request, actor); err != nil {
		return nil, err
	}
	if !canTransition(request.Status, models.StatusWorkCompleted) {
		return nil, s.transitionError(request.Status, models.StatusWorkCompleted)
	}

	pricing, err := buildPricing(req)
	if err != nil {
		return nil, err
	}
	request.WorkDetails = req.WorkDetails
	request.Pricing = pricing

	from := request.Status
	s.applyTransition(request, models.StatusWorkCompleted, actor, "work completed on site", nil)
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}

	s.creditCompletedJob(ctx, request)
	s.publish(ctx, request, from, actor)
	return request, nil
}

// Verify records the staff sign-off. A failed quality check sends the
// request back to work_in_progress instead.
func (s *LifecycleService) Verify(ctx context.Context, id string, req VerifyRequest, actor models.ActorRef) (*models.ServiceRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusWorkCompleted {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidStateForVerify, map[string]interface{}{
			"current_status": request.Status,
		})
	}

	now := time.Now().UTC()
	from := request.Status

	if req.QualityPassed != nil && !*req.QualityPassed {
		request.Verification.QualityPassed = req.QualityPassed
		request.Verification.CheckedBy = actor.ID
		request.Verification.CheckedAt = &now
		request.Verification.Issues = req.Issues
		request.Verification.Notes = req.Notes
		s.applyTransition(request, models.StatusWorkInProgress, actor, "quality check failed, work reopened", nil)
		if err := s.requests.Update(ctx, request); err != nil {
			return nil, err
		}
		s.publish(ctx, request, from, actor)
		return request, nil
	}

	request.Verification = models.Verification{
		StaffVerified: true,
		VerifiedBy:    actor.ID,
		VerifiedAt:    &now,
		QualityPassed: req.QualityPassed,
		Notes:         req.Notes,
	}
	if req.QualityPassed != nil {
		request.Verification.CheckedBy = actor.ID
		request.Verification.CheckedAt = &now
	}
	// A score without written feedback is not recorded.
	if req.Rating != nil && req.Feedback != "" && request.AssignedPlumber != nil {
		request.Verification.Rating = &models.StaffRating{
			Score:    *req.Rating,
			Feedback: req.Feedback,
			RatedAt:  now,
		}
	}
	s.applyTransition(request, models.StatusVerified, actor, req.Notes, nil)
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}

	s.updateLeakStatus(ctx, request.LeakID, models.LeakResolved, actor, "service work verified")
	if request.Verification.Rating != nil && request.AssignedPlumber != nil {
		s.applyRating(ctx, *request.AssignedPlumber, request.Verification.Rating.Score)
	}
	s.publish(ctx, request, from, actor)
	return request, nil
}

// Close finishes a verified request. Payment must have completed first.
func (s *LifecycleService) Close(ctx context.Context, id string, actor models.ActorRef) (*models.ServiceRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(request.Status, models.StatusClosed) {
		return nil, s.transitionError(request.Status, models.StatusClosed)
	}
	if request.Payment.Status != models.PaymentCompleted {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrPreconditionFailed, "payment must complete before closing"), map[string]interface{}{
			"payment_status": request.Payment.Status,
		})
	}

	from := request.Status
	s.applyTransition(request, models.StatusClosed, actor, "service request closed", nil)
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}

	s.updateLeakStatus(ctx, request.LeakID, models.LeakClosed, actor, "service request closed")
	s.publish(ctx, request, from, actor)
	return request, nil
}

// Cancel aborts a request that has not reached completed work. Only the
// original requester, an admin, or the assigned plumber may cancel. The
// refund flag stays false here; refunds are an explicit payment operation.
func (s *LifecycleService) Cancel(ctx context.Context, id string, req CancelRequest, actor models.ActorRef) (*models.ServiceRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancellation payload")
	}
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	canCancel := actor.IsAdmin() ||
		(actor.Kind == models.ActorStaff && request.RequestedBy == actor.ID) ||
		(actor.Kind == models.ActorPlumber && request.AssignedPlumber != nil && *request.AssignedPlumber == actor.ID)
	if !canCancel {
		return nil, appErrors.ErrForbidden
	}
	switch request.Status {
	case models.StatusWorkCompleted, models.StatusVerified, models.StatusClosed, models.StatusCancelled:
		return nil, appErrors.WithDetails(appErrors.ErrTerminalStateCancel, map[string]interface{}{
			"current_status": request.Status,
		})
	}

	now := time.Now().UTC()
	request.Cancellation = models.Cancellation{
		Cancelled:   true,
		CancelledBy: &actor,
		CancelledAt: &now,
		Reason:      req.Reason,
	}
	from := request.Status
	s.applyTransition(request, models.StatusCancelled, actor, req.Reason, nil)
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}
	s.publish(ctx, request, from, actor)
	return request, nil
}

// AddMessage appends to the request's communication log. Only the staff
// side or the assigned plumber may post.
func (s *LifecycleService) AddMessage(ctx context.Context, id string, req MessageRequest, actor models.ActorRef) (*models.ServiceRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Kind == models.ActorPlumber {
		if request.AssignedPlumber == nil || *request.AssignedPlumber != actor.ID {
			return nil, appErrors.ErrForbidden
		}
	}

	request.Communication = append(request.Communication, models.Message{
		From:      actor,
		Body:      req.Body,
		Timestamp: time.Now().UTC(),
	})
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// applyTransition mutates the in-memory request for the target status and
// appends the timeline entry. Persistence stays with the caller.
func (s *LifecycleService) applyTransition(request *models.ServiceRequest, to models.ServiceStatus, actor models.ActorRef, notes string, loc *models.Location) {
	request.Status = to
	request.Timeline = append(request.Timeline, models.TimelineEntry{
		Status:    to,
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Notes:     notes,
		Location:  loc,
	})
}

func (s *LifecycleService) transitionError(from, to models.ServiceStatus) error {
	return appErrors.WithDetails(appErrors.ErrInvalidTransition, map[string]interface{}{
		"from": from,
		"to":   to,
	})
}

// requireAssignedPlumber gates plumber-side operations to the provider
// actually holding the assignment. Staff actors pass through.
func (s *LifecycleService) requireAssignedPlumber(request *models.ServiceRequest, actor models.ActorRef) error {
	if actor.Kind != models.ActorPlumber {
		return nil
	}
	if request.AssignedPlumber == nil || *request.AssignedPlumber != actor.ID {
		return appErrors.ErrForbidden
	}
	return nil
}

func (s *LifecycleService) publish(ctx context.Context, request *models.ServiceRequest, from models.ServiceStatus, actor models.ActorRef) {
	s.metrics.ObserveTransition(request.Status)
	if s.events == nil {
		return
	}
	s.events.PublishStatusChanged(ctx, models.ServiceStatusChanged{
		ServiceID:  request.ID,
		RequestID:  request.RequestID,
		LeakID:     request.LeakID,
		From:       from,
		To:         request.Status,
		Actor:      actor,
		PlumberID:  request.AssignedPlumber,
		OccurredAt: time.Now().UTC(),
	})
}

// updateLeakStatus applies a workflow side effect to the linked leak.
// Failures are logged, not surfaced: the request transition already
// committed and must not be rolled back by a secondary write.
func (s *LifecycleService) updateLeakStatus(ctx context.Context, leakID string, status models.LeakStatus, actor models.ActorRef, notes string) {
	leak, err := s.leaks.GetByID(ctx, leakID)
	if err != nil {
		s.logger.Warn("leak lookup for side effect failed", zap.String("leak_id", leakID), zap.Error(err))
		return
	}
	now := time.Now().UTC()
	leak.Status = status
	leak.Timeline = append(leak.Timeline, models.LeakTimelineEntry{
		Status:    status,
		Timestamp: now,
		Actor:     actor,
		Notes:     notes,
	})
	if status == models.LeakResolved {
		leak.ResolvedAt = &now
	}
	if err := s.leaks.Update(ctx, leak); err != nil {
		s.logger.Warn("leak side effect failed", zap.String("leak_id", leakID), zap.Error(err))
	}
}

// creditCompletedJob bumps the plumber's completed-job counter.
func (s *LifecycleService) creditCompletedJob(ctx context.Context, request *models.ServiceRequest) {
	if request.AssignedPlumber == nil {
		return
	}
	plumber, err := s.plumbers.GetByID(ctx, *request.AssignedPlumber)
	if err != nil {
		s.logger.Warn("plumber lookup for job credit failed", zap.Error(err))
		return
	}
	plumber.CompletedJobs++
	if err := s.plumbers.Update(ctx, plumber); err != nil {
		s.logger.Warn("completed job credit failed", zap.String("plumber_id", plumber.ID), zap.Error(err))
	}
}

// applyRating folds one verification rating into the plumber's running mean.
func (s *LifecycleService) applyRating(ctx context.Context, plumberID string, rating float64) {
	plumber, err := s.plumbers.GetByID(ctx, plumberID)
	if err != nil {
		s.logger.Warn("plumber lookup for rating failed", zap.Error(err))
		return
	}
	plumber.Rating = plumber.Rating.Apply(rating)
	if err := s.plumbers.Update(ctx, plumber); err != nil {
		s.logger.Warn("rating update failed", zap.String("plumber_id", plumberID), zap.Error(err))
	}
}

// recordResponseTime folds the assignment-to-acceptance delay into the
// plumber's average, weighted by their completed jobs.
func (s *LifecycleService) recordResponseTime(ctx context.Context, plumberID string, request *models.ServiceRequest, acceptedAt time.Time) {
	var assignedAt *time.Time
	for _, entry := range request.Timeline {
		if entry.Status == models.StatusPlumberAssigned {
			at := entry.Timestamp
			assignedAt = &at
		}
	}
	if assignedAt == nil {
		return
	}
	responseMins := acceptedAt.Sub(*assignedAt).Minutes()
	if responseMins < 0 {
		return
	}

	plumber, err := s.plumbers.GetByID(ctx, plumberID)
	if err != nil {
		s.logger.Warn("plumber lookup for response time failed", zap.Error(err))
		return
	}
	weight := float64(plumber.CompletedJobs)
	plumber.AvgResponseMins = (plumber.AvgResponseMins*weight + responseMins) / (weight + 1)
	if err := s.plumbers.Update(ctx, plumber); err != nil {
		s.logger.Warn("response time update failed", zap.String("plumber_id", plumberID), zap.Error(err))
	}
}

func buildPricing(req CompleteWorkRequest) (models.ServicePricing, error) {
	pricing := models.ServicePricing{
		AdditionalCharges: req.AdditionalCharges,
		IsEmergencyRate:   req.IsEmergencyRate,
	}
	if req.LaborCost != "" {
		if err := pricing.LaborCost.UnmarshalText([]byte(req.LaborCost)); err != nil {
			return pricing, appErrors.Clone(appErrors.ErrValidation, "labor cost is not a valid amount")
		}
	}
	if req.MaterialsCost != "" {
		if err := pricing.MaterialsCost.UnmarshalText([]byte(req.MaterialsCost)); err != nil {
			return pricing, appErrors.Clone(appErrors.ErrValidation, "materials cost is not a valid amount")
		}
	} else {
		for _, item := range req.WorkDetails.MaterialsUsed {
			pricing.MaterialsCost = pricing.MaterialsCost.Add(item.Cost.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	pricing.Recalculate()
	return pricing, nil
}

package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aquaflow/aquaflow-api/internal/models"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

type leakRepository interface {
	List(ctx context.Context, filter models.LeakFilter) ([]models.Leak, int, error)
	GetByID(ctx context.Context, id string) (*models.Leak, error)
	Create(ctx context.Context, leak *models.Leak) error
	Update(ctx context.Context, leak *models.Leak) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (map[string]int, error)
}

// ReportLeakRequest describes a manual leak report.
type ReportLeakRequest struct {
	Title           string                 `json:"title" validate:"required,max=200"`
	Description     string                 `json:"description" validate:"required"`
	Severity        models.LeakSeverity    `json:"severity" validate:"required"`
	Location        models.Location        `json:"location" validate:"required"`
	IsEmergency     bool                   `json:"is_emergency"`
	ShutoffRequired bool                   `json:"shutoff_required"`
	ShutoffLocation string                 `json:"shutoff_location"`
	ReportMethod    models.ReportMethod    `json:"report_method"`
	SensorData      *models.SensorSnapshot `json:"sensor_data"`
}

// UpdateLeakRequest modifies mutable leak fields.
type UpdateLeakRequest struct {
	Title           *string              `json:"title" validate:"omitempty,max=200"`
	Description     *string              `json:"description"`
	Severity        *models.LeakSeverity `json:"severity"`
	Status          *models.LeakStatus   `json:"status"`
	ShutoffDone     *bool                `json:"shutoff_done"`
	ResolutionNotes *string              `json:"resolution_notes"`
	Notes           string               `json:"notes"`
}

// LeakService orchestrates leak reporting and triage.
type LeakService struct {
	repo      leakRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeakService constructs LeakService.
func NewLeakService(repo leakRepository, validate *validator.Validate, logger *zap.Logger) *LeakService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeakService{repo: repo, validator: validate, logger: logger}
}

// List returns leaks with pagination metadata.
func (s *LeakService) List(ctx context.Context, filter models.LeakFilter) ([]models.Leak, *models.Pagination, error) {
	leaks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leaks")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return leaks, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches a single leak.
func (s *LeakService) Get(ctx context.Context, id string) (*models.Leak, error) {
	return s.repo.GetByID(ctx, id)
}

// Report files a new leak and derives its dispatch priority.
func (s *LeakService) Report(ctx context.Context, req ReportLeakRequest, actor models.ActorRef) (*models.Leak, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leak payload")
	}
	if !req.Severity.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown severity")
	}
	if !req.Location.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "location coordinates out of range")
	}

	method := req.ReportMethod
	if method == "" {
		method = models.ReportManual
	}
	now := time.Now().UTC()
	leak := &models.Leak{
		Title:        req.Title,
		Description:  req.Description,
		Severity:     req.Severity,
		Status:       models.LeakReported,
		Location:     req.Location,
		ReportedBy:   actor.ID,
		ReportMethod: method,
		SensorData:   req.SensorData,
		IsEmergency:  req.IsEmergency,
		WaterShutoff: models.WaterShutoff{
			Required: req.ShutoffRequired,
			Location: req.ShutoffLocation,
		},
		Timeline: models.LeakTimeline{{
			Status:    models.LeakReported,
			Timestamp: now,
			Actor:     actor,
			Notes:     "leak reported",
		}},
		CreatedAt: now,
	}
	leak.Priority = CalculatePriority(leak, now)

	if err := s.repo.Create(ctx, leak); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leak")
	}
	s.logger.Info("leak reported",
		zap.String("leak_id", leak.ID),
		zap.String("severity", string(leak.Severity)),
		zap.Int("priority", leak.Priority))
	return leak, nil
}

// Update applies partial changes and recomputes the priority.
func (s *LeakService) Update(ctx context.Context, id string, req UpdateLeakRequest, actor models.ActorRef) (*models.Leak, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leak payload")
	}
	leak, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if req.Title != nil {
		leak.Title = *req.Title
	}
	if req.Description != nil {
		leak.Description = *req.Description
	}
	if req.Severity != nil {
		if !req.Severity.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown severity")
		}
		leak.Severity = *req.Severity
	}
	if req.ShutoffDone != nil && *req.ShutoffDone && !leak.WaterShutoff.Completed {
		leak.WaterShutoff.Completed = true
		leak.WaterShutoff.CompletedAt = &now
	}
	if req.ResolutionNotes != nil {
		leak.ResolutionNotes = *req.ResolutionNotes
	}
	if req.Status != nil && *req.Status != leak.Status {
		leak.Status = *req.Status
		leak.Timeline = append(leak.Timeline, models.LeakTimelineEntry{
			Status:    *req.Status,
			Timestamp: now,
			Actor:     actor,
			Notes:     req.Notes,
		})
		if *req.Status == models.LeakResolved {
			leak.ResolvedAt = &now
		}
	}
	leak.Priority = CalculatePriority(leak, now)

	if err := s.repo.Update(ctx, leak); err != nil {
		return nil, err
	}
	return leak, nil
}

// Delete removes a leak report. Admin only; the handler enforces the role.
func (s *LeakService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Stats aggregates leak counters.
func (s *LeakService) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate leak stats")
	}
	return stats, nil
}

// CalculatePriority derives the 1..10 dispatch priority from severity,
// emergency state, pending shutoff and report age.
func CalculatePriority(leak *models.Leak, now time.Time) int {
	priority := 3
	switch leak.Severity {
	case models.SeverityCritical:
		priority = 10
	case models.SeverityHigh:
		priority = 8
	case models.SeverityMedium:
		priority = 5
	}
	if leak.IsEmergency {
		priority += 2
	}
	if leak.WaterShutoff.Required && !leak.WaterShutoff.Completed {
		priority++
	}
	age := now.Sub(leak.CreatedAt)
	if age > 24*time.Hour {
		priority++
	}
	if age > 48*time.Hour {
		priority++
	}
	if priority > 10 {
		priority = 10
	}
	return priority
}

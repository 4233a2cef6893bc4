package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/aquaflow/aquaflow-api/internal/models"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

type plumberRepository interface {
	List(ctx context.Context, filter models.PlumberFilter) ([]models.Plumber, int, error)
	GetByID(ctx context.Context, id string) (*models.Plumber, error)
	GetByEmail(ctx context.Context, email string) (*models.Plumber, error)
	Create(ctx context.Context, plumber *models.Plumber) error
	Update(ctx context.Context, plumber *models.Plumber) error
	Nearby(ctx context.Context, loc models.Location, radiusKm float64) ([]models.PlumberSummary, error)
	Stats(ctx context.Context, plumberID string) (*models.PlumberStats, error)
}

// RegisterPlumberRequest describes a new provider profile.
type RegisterPlumberRequest struct {
	Name            string               `json:"name" validate:"required,max=120"`
	Email           string               `json:"email" validate:"required,email"`
	Password        string               `json:"password" validate:"required,min=8"`
	Phone           string               `json:"phone" validate:"required"`
	BusinessName    string               `json:"business_name"`
	Location        models.Location      `json:"location" validate:"required"`
	ServiceRadiusKm float64              `json:"service_radius_km" validate:"gte=0,lte=100"`
	Services        []models.ServiceType `json:"services" validate:"required,min=1"`
	HourlyRate      string               `json:"hourly_rate"`
	EmergencyRate   string               `json:"emergency_rate"`
	MinimumCharge   string               `json:"minimum_charge"`
}

// UpdatePlumberRequest modifies mutable profile fields.
type UpdatePlumberRequest struct {
	Name            *string              `json:"name" validate:"omitempty,max=120"`
	Phone           *string              `json:"phone"`
	BusinessName    *string              `json:"business_name"`
	Location        *models.Location     `json:"location"`
	ServiceRadiusKm *float64             `json:"service_radius_km" validate:"omitempty,gte=0,lte=100"`
	Services        []models.ServiceType `json:"services"`
}

// AvailabilityRequest toggles whether the provider is taking work.
type AvailabilityRequest struct {
	IsAvailable        *bool `json:"is_available"`
	EmergencyAvailable *bool `json:"emergency_available"`
}

// PlumberService orchestrates provider onboarding and profile upkeep.
type PlumberService struct {
	repo      plumberRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPlumberService constructs PlumberService.
func NewPlumberService(repo plumberRepository, validate *validator.Validate, logger *zap.Logger) *PlumberService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlumberService{repo: repo, validator: validate, logger: logger}
}

// List returns provider profiles with pagination metadata.
func (s *PlumberService) List(ctx context.Context, filter models.PlumberFilter) ([]models.Plumber, *models.Pagination, error) {
	plumbers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list plumbers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return plumbers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches a single profile.
func (s *PlumberService) Get(ctx context.Context, id string) (*models.Plumber, error) {
	return s.repo.GetByID(ctx, id)
}

// Register onboards a new provider. The profile starts unverified and
// does not surface as a matching candidate until verified.
func (s *PlumberService) Register(ctx context.Context, req RegisterPlumberRequest) (*models.Plumber, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plumber payload")
	}
	if !req.Location.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "location coordinates out of range")
	}
	for _, service := range req.Services {
		if !service.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown service type")
		}
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	pricing, err := parsePricing(req.HourlyRate, req.EmergencyRate, req.MinimumCharge)
	if err != nil {
		return nil, err
	}

	radius := req.ServiceRadiusKm
	if radius <= 0 {
		radius = 25
	}
	plumber := &models.Plumber{
		Name:            req.Name,
		Email:           req.Email,
		PasswordHash:    string(hash),
		Phone:           req.Phone,
		BusinessName:    req.BusinessName,
		Location:        req.Location,
		ServiceRadiusKm: radius,
		Services:        req.Services,
		Availability:    models.Availability{IsAvailable: true},
		Pricing:         pricing,
		IsActive:        true,
		LastActive:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, plumber); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create plumber")
	}
	s.logger.Info("plumber registered", zap.String("plumber_id", plumber.ID))
	return plumber, nil
}

// Update applies partial profile changes.
func (s *PlumberService) Update(ctx context.Context, id string, req UpdatePlumberRequest) (*models.Plumber, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plumber payload")
	}
	plumber, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		plumber.Name = *req.Name
	}
	if req.Phone != nil {
		plumber.Phone = *req.Phone
	}
	if req.BusinessName != nil {
		plumber.BusinessName = *req.BusinessName
	}
	if req.Location != nil {
		if !req.Location.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "location coordinates out of range")
		}
		plumber.Location = *req.Location
	}
	if req.ServiceRadiusKm != nil {
		plumber.ServiceRadiusKm = *req.ServiceRadiusKm
	}
	if len(req.Services) > 0 {
		for _, service := range req.Services {
			if !service.Valid() {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown service type")
			}
		}
		plumber.Services = req.Services
	}
	plumber.LastActive = time.Now().UTC()

	if err := s.repo.Update(ctx, plumber); err != nil {
		return nil, err
	}
	return plumber, nil
}

// SetAvailability toggles the provider's availability flags.
func (s *PlumberService) SetAvailability(ctx context.Context, id string, req AvailabilityRequest) (*models.Plumber, error) {
	plumber, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.IsAvailable != nil {
		plumber.Availability.IsAvailable = *req.IsAvailable
	}
	if req.EmergencyAvailable != nil {
		plumber.Availability.EmergencyAvailable = *req.EmergencyAvailable
	}
	plumber.LastActive = time.Now().UTC()

	if err := s.repo.Update(ctx, plumber); err != nil {
		return nil, err
	}
	return plumber, nil
}

// Verify marks the profile as vetted so it can receive work.
func (s *PlumberService) Verify(ctx context.Context, id string) (*models.Plumber, error) {
	plumber, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plumber.IsVerified {
		return plumber, nil
	}
	now := time.Now().UTC()
	plumber.IsVerified = true
	plumber.VerifiedAt = &now

	if err := s.repo.Update(ctx, plumber); err != nil {
		return nil, err
	}
	return plumber, nil
}

// Nearby returns providers around a point for the staff proximity view.
func (s *PlumberService) Nearby(ctx context.Context, loc models.Location, radiusKm float64) ([]models.PlumberSummary, error) {
	if !loc.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "location coordinates out of range")
	}
	if radiusKm <= 0 || radiusKm > 100 {
		radiusKm = 10
	}
	summaries, err := s.repo.Nearby(ctx, loc, radiusKm)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load nearby plumbers")
	}
	return summaries, nil
}

// Stats aggregates the provider's workload and profile metrics.
func (s *PlumberService) Stats(ctx context.Context, id string) (*models.PlumberStats, error) {
	plumber, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate plumber stats")
	}
	stats.Rating = plumber.Rating
	stats.AvgResponseMins = plumber.AvgResponseMins
	return stats, nil
}

func parsePricing(hourly, emergency, minimum string) (models.PlumberPricing, error) {
	var pricing models.PlumberPricing
	if hourly != "" {
		if err := pricing.HourlyRate.UnmarshalText([]byte(hourly)); err != nil {
			return pricing, appErrors.Clone(appErrors.ErrValidation, "hourly rate is not a valid amount")
		}
	}
	if emergency != "" {
		if err := pricing.EmergencyRate.UnmarshalText([]byte(emergency)); err != nil {
			return pricing, appErrors.Clone(appErrors.ErrValidation, "emergency rate is not a valid amount")
		}
	}
	if minimum != "" {
		if err := pricing.MinimumCharge.UnmarshalText([]byte(minimum)); err != nil {
			return pricing, appErrors.Clone(appErrors.ErrValidation, "minimum charge is not a valid amount")
		}
	}
	return pricing, nil
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ServiceType is a category of plumbing work a provider can offer.
type ServiceType string

const (
	ServiceLeakRepair       ServiceType = "leak_repair"
	ServicePipeInstallation ServiceType = "pipe_installation"
	ServiceDrainCleaning    ServiceType = "drain_cleaning"
	ServiceFixtureRepair    ServiceType = "fixture_repair"
	ServiceWaterHeater      ServiceType = "water_heater_service"
	ServiceEmergency        ServiceType = "emergency_service"
	ServiceInspection       ServiceType = "inspection"
	ServiceMaintenance      ServiceType = "maintenance"
)

// Valid reports whether the service type is a known category.
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceLeakRepair, ServicePipeInstallation, ServiceDrainCleaning,
		ServiceFixtureRepair, ServiceWaterHeater, ServiceEmergency,
		ServiceInspection, ServiceMaintenance:
		return true
	}
	return false
}

// Availability captures whether a plumber is currently taking work.
type Availability struct {
	IsAvailable        bool `json:"is_available"`
	EmergencyAvailable bool `json:"emergency_available"`
}

// Value implements driver.Valuer.
func (a Availability) Value() (driver.Value, error) { return json.Marshal(a) }

// Scan implements sql.Scanner.
func (a *Availability) Scan(src interface{}) error { return scanJSON(src, a) }

// PlumberPricing holds the provider's rates.
type PlumberPricing struct {
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
	EmergencyRate decimal.Decimal `json:"emergency_rate"`
	MinimumCharge decimal.Decimal `json:"minimum_charge"`
}

// Value implements driver.Valuer.
func (p PlumberPricing) Value() (driver.Value, error) { return json.Marshal(p) }

// Scan implements sql.Scanner.
func (p *PlumberPricing) Scan(src interface{}) error { return scanJSON(src, p) }

// Rating is a running mean over all submitted scores. It is updated only
// incrementally, never recomputed from scratch.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Value implements driver.Valuer.
func (r Rating) Value() (driver.Value, error) { return json.Marshal(r) }

// Scan implements sql.Scanner.
func (r *Rating) Scan(src interface{}) error { return scanJSON(src, r) }

// Apply folds one new score into the running mean.
func (r Rating) Apply(score float64) Rating {
	total := r.Average*float64(r.Count) + score
	next := Rating{Count: r.Count + 1}
	next.Average = total / float64(next.Count)
	return next
}

// Plumber is a service-provider profile used as a matching candidate.
type Plumber struct {
	ID              string         `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	Email           string         `db:"email" json:"email"`
	PasswordHash    string         `db:"password_hash" json:"-"`
	Phone           string         `db:"phone" json:"phone"`
	BusinessName    string         `db:"business_name" json:"business_name"`
	Location        Location       `db:"location" json:"location"`
	ServiceRadiusKm float64        `db:"service_radius_km" json:"service_radius_km"`
	Services        ServiceTypes   `db:"services" json:"services"`
	Availability    Availability   `db:"availability" json:"availability"`
	Pricing         PlumberPricing `db:"pricing" json:"pricing"`
	Rating          Rating         `db:"rating" json:"rating"`
	CompletedJobs   int            `db:"completed_jobs" json:"completed_jobs"`
	AvgResponseMins float64        `db:"avg_response_mins" json:"avg_response_mins"`
	IsActive        bool           `db:"is_active" json:"is_active"`
	IsVerified      bool           `db:"is_verified" json:"is_verified"`
	VerifiedAt      *time.Time     `db:"verified_at" json:"verified_at,omitempty"`
	LastActive      time.Time      `db:"last_active" json:"last_active"`
	Version         int            `db:"version" json:"-"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// ServiceTypes persists the offered categories as a JSONB array.
type ServiceTypes []ServiceType

// Value implements driver.Valuer.
func (s ServiceTypes) Value() (driver.Value, error) { return json.Marshal(s) }

// Scan implements sql.Scanner.
func (s *ServiceTypes) Scan(src interface{}) error { return scanJSON(src, s) }

// Offers reports whether the plumber provides the given category.
func (s ServiceTypes) Offers(t ServiceType) bool {
	for _, st := range s {
		if st == t {
			return true
		}
	}
	return false
}

// PlumberSummary is the slice of a profile the matching engine works with,
// returned proximity-ordered by the geospatial query.
type PlumberSummary struct {
	ID              string       `db:"id" json:"id"`
	Name            string       `db:"name" json:"name"`
	BusinessName    string       `db:"business_name" json:"business_name"`
	Location        Location     `db:"location" json:"location"`
	Services        ServiceTypes `db:"services" json:"services"`
	Availability    Availability `db:"availability" json:"availability"`
	Rating          Rating       `db:"rating" json:"rating"`
	CompletedJobs   int          `db:"completed_jobs" json:"completed_jobs"`
	AvgResponseMins float64      `db:"avg_response_mins" json:"avg_response_mins"`
	DistanceKm      float64      `db:"distance_km" json:"distance_km"`
}

// PlumberFilter narrows plumber listings for staff views.
type PlumberFilter struct {
	Verified  *bool
	Available *bool
	Service   ServiceType
	MinRating float64
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// PlumberStats aggregates a provider's workload.
type PlumberStats struct {
	TotalServices     int             `json:"total_services"`
	CompletedServices int             `json:"completed_services"`
	ActiveServices    int             `json:"active_services"`
	CompletionRate    int             `json:"completion_rate"`
	Rating            Rating          `json:"rating"`
	TotalEarnings     decimal.Decimal `json:"total_earnings"`
	AvgResponseMins   float64         `json:"avg_response_mins"`
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ServiceStatus is one stage of the dispatch workflow.
type ServiceStatus string

const (
	StatusPending          ServiceStatus = "pending"
	StatusPlumberSearch    ServiceStatus = "plumber_search"
	StatusPlumberAssigned  ServiceStatus = "plumber_assigned"
	StatusPlumberConfirmed ServiceStatus = "plumber_confirmed"
	StatusPlumberEnRoute   ServiceStatus = "plumber_en_route"
	StatusPlumberArrived   ServiceStatus = "plumber_arrived"
	StatusWorkInProgress   ServiceStatus = "work_in_progress"
	StatusWorkCompleted    ServiceStatus = "work_completed"
	StatusVerified         ServiceStatus = "verified"
	StatusClosed           ServiceStatus = "closed"
	StatusCancelled        ServiceStatus = "cancelled"
)

// Valid reports whether the status is a known workflow stage.
func (s ServiceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPlumberSearch, StatusPlumberAssigned,
		StatusPlumberConfirmed, StatusPlumberEnRoute, StatusPlumberArrived,
		StatusWorkInProgress, StatusWorkCompleted, StatusVerified,
		StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions leave this status.
func (s ServiceStatus) Terminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// ServicePriority ranks how urgently a request needs attention.
type ServicePriority string

const (
	PriorityLow       ServicePriority = "low"
	PriorityMedium    ServicePriority = "medium"
	PriorityHigh      ServicePriority = "high"
	PriorityEmergency ServicePriority = "emergency"
)

// Valid reports whether the priority is a known value.
func (p ServicePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityEmergency:
		return true
	}
	return false
}

// Urgency escalates the search radius without changing the priority.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyUrgent Urgency = "urgent"
)

// PlumberResponse records the assigned plumber's acceptance.
type PlumberResponse struct {
	Accepted         bool       `json:"accepted"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
	Message          string     `json:"message,omitempty"`
}

// Value implements driver.Valuer.
func (p PlumberResponse) Value() (driver.Value, error) { return json.Marshal(p) }

// Scan implements sql.Scanner.
func (p *PlumberResponse) Scan(src interface{}) error { return scanJSON(src, p) }

// MaterialUsed is a line item of consumed parts.
type MaterialUsed struct {
	Item     string          `json:"item"`
	Quantity int             `json:"quantity"`
	Cost     decimal.Decimal `json:"cost"`
}

// WorkDetails is what the plumber did on site.
type WorkDetails struct {
	Diagnosis     string         `json:"diagnosis,omitempty"`
	WorkPerformed string         `json:"work_performed,omitempty"`
	MaterialsUsed []MaterialUsed `json:"materials_used,omitempty"`
	LaborHours    float64        `json:"labor_hours,omitempty"`
	BeforePhotos  []string       `json:"before_photos,omitempty"`
	AfterPhotos   []string       `json:"after_photos,omitempty"`
	Notes         string         `json:"notes,omitempty"`
}

// Value implements driver.Valuer.
func (w WorkDetails) Value() (driver.Value, error) { return json.Marshal(w) }

// Scan implements sql.Scanner.
func (w *WorkDetails) Scan(src interface{}) error { return scanJSON(src, w) }

// AdditionalCharge is an extra billed amount beyond labor and materials.
type AdditionalCharge struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// ServicePricing is the billing breakdown. TotalAmount is always derived
// from the other fields, never supplied by a caller.
type ServicePricing struct {
	LaborCost         decimal.Decimal    `json:"labor_cost"`
	MaterialsCost     decimal.Decimal    `json:"materials_cost"`
	AdditionalCharges []AdditionalCharge `json:"additional_charges,omitempty"`
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	IsEmergencyRate   bool               `json:"is_emergency_rate"`
}

// Recalculate derives the total from the component costs.
func (p *ServicePricing) Recalculate() {
	total := p.LaborCost.Add(p.MaterialsCost)
	for _, charge := range p.AdditionalCharges {
		total = total.Add(charge.Amount)
	}
	p.TotalAmount = total
}

// Value implements driver.Valuer.
func (p ServicePricing) Value() (driver.Value, error) { return json.Marshal(p) }

// Scan implements sql.Scanner.
func (p *ServicePricing) Scan(src interface{}) error { return scanJSON(src, p) }

// TimelineEntry is one append-only status change on a service request.
type TimelineEntry struct {
	Status    ServiceStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Actor     ActorRef      `json:"actor"`
	Notes     string        `json:"notes,omitempty"`
	Location  *Location     `json:"location,omitempty"`
}

// Timeline persists as a JSONB array on the request row.
type Timeline []TimelineEntry

// Value implements driver.Valuer.
func (t Timeline) Value() (driver.Value, error) { return json.Marshal(t) }

// Scan implements sql.Scanner.
func (t *Timeline) Scan(src interface{}) error { return scanJSON(src, t) }

// Message is one entry of the staff/plumber communication log.
type Message struct {
	From      ActorRef  `json:"from"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"is_read"`
}

// Messages persists as a JSONB array.
type Messages []Message

// Value implements driver.Valuer.
func (m Messages) Value() (driver.Value, error) { return json.Marshal(m) }

// Scan implements sql.Scanner.
func (m *Messages) Scan(src interface{}) error { return scanJSON(src, m) }

// PaymentMethod is how the service gets paid for.
type PaymentMethod string

const (
	PayCash           PaymentMethod = "cash"
	PayCard           PaymentMethod = "card"
	PayDigitalWallet  PaymentMethod = "digital_wallet"
	PayCompanyAccount PaymentMethod = "company_account"
)

// PaymentStatus mirrors the external processor's view of the charge.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// PaymentRecord is the payment sub-record on a request. The lifecycle reads
// it for gating; charging and refunding are driven externally.
type PaymentRecord struct {
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	RefundedAt    *time.Time    `json:"refunded_at,omitempty"`
	RefundReason  string        `json:"refund_reason,omitempty"`
}

// Value implements driver.Valuer.
func (p PaymentRecord) Value() (driver.Value, error) { return json.Marshal(p) }

// Scan implements sql.Scanner.
func (p *PaymentRecord) Scan(src interface{}) error { return scanJSON(src, p) }

// StaffRating is the office's score for the finished work, recorded only
// when both a score and written feedback are supplied at sign-off.
type StaffRating struct {
	Score    float64   `json:"score"`
	Feedback string    `json:"feedback"`
	RatedAt  time.Time `json:"rated_at"`
}

// Verification holds the staff sign-off and quality check.
type Verification struct {
	StaffVerified bool         `json:"staff_verified"`
	VerifiedBy    string       `json:"verified_by,omitempty"`
	VerifiedAt    *time.Time   `json:"verified_at,omitempty"`
	QualityPassed *bool        `json:"quality_passed,omitempty"`
	CheckedBy     string       `json:"checked_by,omitempty"`
	CheckedAt     *time.Time   `json:"checked_at,omitempty"`
	Issues        []string     `json:"issues,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	Rating        *StaffRating `json:"rating,omitempty"`
}

// Value implements driver.Valuer.
func (v Verification) Value() (driver.Value, error) { return json.Marshal(v) }

// Scan implements sql.Scanner.
func (v *Verification) Scan(src interface{}) error { return scanJSON(src, v) }

// CandidateResponse is a contacted candidate's reply state.
type CandidateResponse string

const (
	CandidatePending    CandidateResponse = "pending"
	CandidateAccepted   CandidateResponse = "accepted"
	CandidateDeclined   CandidateResponse = "declined"
	CandidateNoResponse CandidateResponse = "no_response"
)

// NearbyCandidate records one plumber surfaced by the matching engine.
type NearbyCandidate struct {
	PlumberID   string            `json:"plumber_id"`
	DistanceKm  float64           `json:"distance_km"`
	Score       int               `json:"score"`
	Contacted   bool              `json:"contacted"`
	ContactedAt *time.Time        `json:"contacted_at,omitempty"`
	Response    CandidateResponse `json:"response"`
}

// NearbyCandidates persists as a JSONB array.
type NearbyCandidates []NearbyCandidate

// Value implements driver.Valuer.
func (n NearbyCandidates) Value() (driver.Value, error) { return json.Marshal(n) }

// Scan implements sql.Scanner.
func (n *NearbyCandidates) Scan(src interface{}) error { return scanJSON(src, n) }

// Cancellation stamps who aborted the request and why.
type Cancellation struct {
	Cancelled    bool       `json:"cancelled"`
	CancelledBy  *ActorRef  `json:"cancelled_by,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	RefundIssued bool       `json:"refund_issued"`
}

// Value implements driver.Valuer.
func (c Cancellation) Value() (driver.Value, error) { return json.Marshal(c) }

// Scan implements sql.Scanner.
func (c *Cancellation) Scan(src interface{}) error { return scanJSON(src, c) }

// ServiceRequest is the work order connecting a Leak to a Plumber.
type ServiceRequest struct {
	ID               string           `db:"id" json:"id"`
	RequestID        string           `db:"request_id" json:"request_id"`
	LeakID           string           `db:"leak_id" json:"leak_id"`
	RequestedBy      string           `db:"requested_by" json:"requested_by"`
	AssignedPlumber  *string          `db:"assigned_plumber" json:"assigned_plumber,omitempty"`
	Status           ServiceStatus    `db:"status" json:"status"`
	ServiceType      ServiceType      `db:"service_type" json:"service_type"`
	Priority         ServicePriority  `db:"priority" json:"priority"`
	Location         Location         `db:"location" json:"location"`
	ScheduledDate    *time.Time       `db:"scheduled_date" json:"scheduled_date,omitempty"`
	PlumberResponse  PlumberResponse  `db:"plumber_response" json:"plumber_response"`
	WorkDetails      WorkDetails      `db:"work_details" json:"work_details"`
	Pricing          ServicePricing   `db:"pricing" json:"pricing"`
	Timeline         Timeline         `db:"timeline" json:"timeline"`
	Communication    Messages         `db:"communication" json:"communication"`
	Payment          PaymentRecord    `db:"payment" json:"payment"`
	Verification     Verification     `db:"verification" json:"verification"`
	NearbyCandidates NearbyCandidates `db:"nearby_candidates" json:"nearby_candidates"`
	Cancellation     Cancellation     `db:"cancellation" json:"cancellation"`
	Version          int              `db:"version" json:"-"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// ServiceRequestFilter narrows request listings.
type ServiceRequestFilter struct {
	Status          ServiceStatus
	Priority        ServicePriority
	ServiceType     ServiceType
	AssignedPlumber string
	RequestedBy     string
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}

// ServiceStats aggregates workflow counters for dashboards.
type ServiceStats struct {
	TotalRequests     int `json:"total_requests"`
	ActiveRequests    int `json:"active_requests"`
	CompletedRequests int `json:"completed_requests"`
	EmergencyRequests int `json:"emergency_requests"`
	CompletionRate    int `json:"completion_rate"`
}

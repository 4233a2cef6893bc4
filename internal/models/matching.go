package models

// DistanceSource records how a candidate's distance was obtained.
type DistanceSource string

const (
	DistanceHaversine DistanceSource = "haversine"
	DistanceRouted    DistanceSource = "routed"
)

// ScoreBreakdown itemizes the weighted components of a candidate score.
// Recomputing the components from the candidate's profile and distance
// must reproduce Total exactly.
type ScoreBreakdown struct {
	RatingScore       float64 `json:"rating_score"`
	ExperienceScore   float64 `json:"experience_score"`
	AvailabilityScore float64 `json:"availability_score"`
	EmergencyBonus    float64 `json:"emergency_bonus"`
	ResponseTimeScore float64 `json:"response_time_score"`
	DistancePenalty   float64 `json:"distance_penalty"`
	Total             float64 `json:"total"`
}

// RankedCandidate is one scored plumber in a match result.
type RankedCandidate struct {
	Plumber        PlumberSummary `json:"plumber"`
	DistanceKm     float64        `json:"distance_km"`
	DistanceSource DistanceSource `json:"distance_source"`
	DurationMins   float64        `json:"duration_mins,omitempty"`
	Score          ScoreBreakdown `json:"score"`
}

// MatchResult is the outcome of a matching run. An empty candidate list
// is a valid result, not an error.
type MatchResult struct {
	Candidates   []RankedCandidate `json:"candidates"`
	RadiusUsedKm float64           `json:"radius_used_km"`
	TotalFound   int               `json:"total_found"`
}

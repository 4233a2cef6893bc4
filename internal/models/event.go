package models

import "time"

// ServiceStatusChanged is published after every successful service
// request transition. Consumers drive notifications off this payload.
type ServiceStatusChanged struct {
	ServiceID  string        `json:"service_id"`
	RequestID  string        `json:"request_id"`
	LeakID     string        `json:"leak_id"`
	From       ServiceStatus `json:"from"`
	To         ServiceStatus `json:"to"`
	Actor      ActorRef      `json:"actor"`
	PlumberID  *string       `json:"plumber_id,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

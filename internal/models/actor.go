package models

// ActorKind is the closed set of parties that can act on a service request.
type ActorKind string

const (
	ActorStaff   ActorKind = "staff"
	ActorPlumber ActorKind = "plumber"
)

// Valid reports whether the kind is one of the two known actors.
func (k ActorKind) Valid() bool {
	return k == ActorStaff || k == ActorPlumber
}

// ActorRef identifies who performed an action.
type ActorRef struct {
	Kind ActorKind `json:"kind"`
	ID   string    `json:"id"`
	Role string    `json:"role,omitempty"`
}

// Staff roles carried in JWT claims.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// IsAdmin reports whether the actor is a staff administrator.
func (a ActorRef) IsAdmin() bool {
	return a.Kind == ActorStaff && a.Role == RoleAdmin
}

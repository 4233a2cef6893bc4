package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is a facilities-staff account.
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	Department   string     `db:"department" json:"department,omitempty"`
	Phone        string     `db:"phone" json:"phone,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// JWTClaims is the token payload for both staff and plumber sessions.
type JWTClaims struct {
	ActorID   string    `json:"actor_id"`
	ActorKind ActorKind `json:"actor_kind"`
	Role      string    `json:"role,omitempty"`
	Email     string    `json:"email"`
	jwt.RegisteredClaims
}

// Actor builds the reference recorded on timelines and audit trails.
func (c JWTClaims) Actor() ActorRef {
	return ActorRef{Kind: c.ActorKind, ID: c.ActorID, Role: c.Role}
}

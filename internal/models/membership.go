package models

import (
	"time"

	"github.com/google/uuid"
)

// MembershipStatus tracks the invitation state machine. There is no REMOVED
// status; removal is row deletion.
type MembershipStatus string

const (
	MembershipInvited MembershipStatus = "INVITED"
	MembershipActive  MembershipStatus = "ACTIVE"
)

// Membership joins a user to a company. At most one per (company, user).
type Membership struct {
	ID          uuid.UUID        `json:"id"`
	CompanyID   uuid.UUID        `json:"company_id"`
	UserID      uuid.UUID        `json:"user_id"`
	Status      MembershipStatus `json:"status"`
	Position    *string          `json:"position,omitempty"`
	Department  *string          `json:"department,omitempty"`
	InvitedAt   time.Time        `json:"invited_at"`
	ActivatedAt *time.Time       `json:"activated_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	User  *UserPublic `json:"user,omitempty"`
	Roles []Role      `json:"roles,omitempty"`
}

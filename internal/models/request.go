package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is shared by company and permission requests.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestApproved  RequestStatus = "APPROVED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCancelled RequestStatus = "CANCELLED"
)

// CompanyRequest is a user's application to create a company. Approval grants
// the COMPANY:CREATE global permission.
type CompanyRequest struct {
	ID          uuid.UUID     `json:"id"`
	UserID      uuid.UUID     `json:"user_id"`
	CompanyName string        `json:"company_name"`
	CompanySlug string        `json:"company_slug"`
	Description *string       `json:"description,omitempty"`
	Reason      *string       `json:"reason,omitempty"`
	Status      RequestStatus `json:"status"`
	ReviewedBy  *uuid.UUID    `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time    `json:"reviewed_at,omitempty"`
	ReviewNotes *string       `json:"review_notes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	User     *UserPublic `json:"user,omitempty"`
	Reviewer *UserPublic `json:"reviewer,omitempty"`
}

// PermissionRequest is a user's application for a GLOBAL permission grant.
type PermissionRequest struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	PermissionID uuid.UUID     `json:"permission_id"`
	Reason       *string       `json:"reason,omitempty"`
	Status       RequestStatus `json:"status"`
	ReviewedBy   *uuid.UUID    `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time    `json:"reviewed_at,omitempty"`
	ReviewNotes  *string       `json:"review_notes,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	User       *UserPublic `json:"user,omitempty"`
	Permission *Permission `json:"permission,omitempty"`
	Reviewer   *UserPublic `json:"reviewer,omitempty"`
}

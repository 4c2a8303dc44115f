package models

import (
	"time"

	"github.com/google/uuid"
)

// CompanyStatus is the operational state of a tenant.
type CompanyStatus string

const (
	CompanyActive    CompanyStatus = "ACTIVE"
	CompanySuspended CompanyStatus = "SUSPENDED"
)

// Company is the tenant boundary. Slug is the unique immutable-ish identity
// string used in URLs.
type Company struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Logo        *string       `json:"logo,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      CompanyStatus `json:"status"`
	DeletedAt   *time.Time    `json:"deleted_at,omitempty"`
	CreatedBy   uuid.UUID     `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	MemberCount int `json:"member_count,omitempty"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// System role names created with every company. Owner/Admin membership is what
// grants company administration rights.
const (
	RoleOwner   = "Owner"
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleMember  = "Member"
)

// Role is a company-scoped named bundle of permissions.
type Role struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Color       *string   `json:"color,omitempty"`
	IsSystem    bool      `json:"is_system"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	MemberCount    int      `json:"member_count,omitempty"`
	PermissionKeys []string `json:"permission_keys,omitempty"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// PermissionScope says where a permission applies.
type PermissionScope string

const (
	// ScopeGlobal permissions are granted directly to users platform-wide.
	ScopeGlobal PermissionScope = "GLOBAL"
	// ScopeCompany permissions are granted through company roles.
	ScopeCompany PermissionScope = "COMPANY"
)

// Permission is a catalog entry, key format RESOURCE:ACTION.
type Permission struct {
	ID          uuid.UUID       `json:"id"`
	Key         string          `json:"key"`
	Description *string         `json:"description,omitempty"`
	Scope       PermissionScope `json:"scope"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// UserGlobalPermission grants one GLOBAL permission directly to one user.
type UserGlobalPermission struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	PermissionID uuid.UUID `json:"permission_id"`
	GrantedBy    uuid.UUID `json:"granted_by"`
	GrantedAt    time.Time `json:"granted_at"`
}

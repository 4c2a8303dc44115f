package models

import (
	"time"

	"github.com/google/uuid"
)

// TimeEntry records hours worked. UserID is the owner; LoggedByUserID is set
// when someone else (a company owner/admin) logged the entry on their behalf.
// IsOvertime and AppliedRatePerHour are frozen at write time, not derived on
// read, so later rate-rule edits do not rewrite history.
type TimeEntry struct {
	ID                 uuid.UUID  `json:"id"`
	CompanyID          uuid.UUID  `json:"company_id"`
	UserID             uuid.UUID  `json:"user_id"`
	LoggedByUserID     *uuid.UUID `json:"logged_by_user_id,omitempty"`
	ProjectID          *uuid.UUID `json:"project_id,omitempty"`
	ClientID           *uuid.UUID `json:"client_id,omitempty"`
	CategoryID         *uuid.UUID `json:"category_id,omitempty"`
	Date               time.Time  `json:"date"`
	Hours              float64    `json:"hours"`
	StartTime          *string    `json:"start_time,omitempty"`
	EndTime            *string    `json:"end_time,omitempty"`
	Title              string     `json:"title"`
	Description        *string    `json:"description,omitempty"`
	IsOvertime         bool       `json:"is_overtime"`
	AppliedRatePerHour *float64   `json:"applied_rate_per_hour,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	User        *UserPublic `json:"user,omitempty"`
	ProjectName *string     `json:"project_name,omitempty"`
}

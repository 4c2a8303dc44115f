package models

import (
	"time"

	"github.com/google/uuid"
)

// Overtime triggers evaluated in fixed precedence MANUAL, WEEKEND, AFTER_HOURS.
const (
	TriggerManual     = "MANUAL"
	TriggerWeekend    = "WEEKEND"
	TriggerAfterHours = "AFTER_HOURS"
)

// Client is a billable customer of a company.
type Client struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	Name        string    `json:"name"`
	ContactName *string   `json:"contact_name,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Sites     []ClientSite     `json:"sites,omitempty"`
	RateRules []ClientRateRule `json:"rate_rules,omitempty"`
}

// ClientSite is a physical or logical location of a client.
type ClientSite struct {
	ID        uuid.UUID `json:"id"`
	ClientID  uuid.UUID `json:"client_id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClientRateRule configures billing rates and overtime triggers for a client
// within a validity window. A nil EffectiveTo means open-ended.
type ClientRateRule struct {
	ID                  uuid.UUID  `json:"id"`
	ClientID            uuid.UUID  `json:"client_id"`
	Name                string     `json:"name"`
	BaseRatePerHour     *float64   `json:"base_rate_per_hour,omitempty"`
	OvertimeRatePerHour float64    `json:"overtime_rate_per_hour"`
	OvertimeTriggers    []string   `json:"overtime_triggers"`
	WorkdayStartTime    *string    `json:"workday_start_time,omitempty"`
	WorkdayEndTime      *string    `json:"workday_end_time,omitempty"`
	Workdays            []int32    `json:"workdays"`
	IsActive            bool       `json:"is_active"`
	EffectiveFrom       time.Time  `json:"effective_from"`
	EffectiveTo         *time.Time `json:"effective_to,omitempty"`
	CreatedBy           uuid.UUID  `json:"created_by"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	Resources []ClientRateRuleResource `json:"resources,omitempty"`
}

// ClientRateRuleResource is a named billable resource under a rate rule with
// its own base rate.
type ClientRateRuleResource struct {
	ID              uuid.UUID `json:"id"`
	RateRuleID      uuid.UUID `json:"rate_rule_id"`
	Name            string    `json:"name"`
	BaseRatePerHour float64   `json:"base_rate_per_hour"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

package clients

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/models"
)

// Resolution is the outcome of overtime and rate evaluation for one entry.
type Resolution struct {
	IsOvertime         bool
	AppliedRatePerHour *float64
}

// RuleSource loads candidate rate rules. Implemented by Repository; tests
// substitute a stub.
type RuleSource interface {
	ActiveRulesForDate(ctx context.Context, clientID uuid.UUID, date time.Time) ([]models.ClientRateRule, error)
}

// RateResolver evaluates the client's rate rules against an entry.
type RateResolver struct {
	source RuleSource
}

// NewRateResolver creates a rate resolver.
func NewRateResolver(source RuleSource) *RateResolver {
	return &RateResolver{source: source}
}

// ResolveOvertimeAndRate picks the effective rule for the entry's date and
// evaluates its triggers. With no matching rule the entry is regular time and
// carries no rate.
func (r *RateResolver) ResolveOvertimeAndRate(ctx context.Context, clientID uuid.UUID, date time.Time, startTime, endTime *string, manualOvertime *bool) (Resolution, error) {
	rules, err := r.source.ActiveRulesForDate(ctx, clientID, date)
	if err != nil {
		return Resolution{}, err
	}
	rule := pickEffectiveRule(rules)
	if rule == nil {
		return Resolution{}, nil
	}
	return resolveFromRule(*rule, date, startTime, endTime, manualOvertime), nil
}

// pickEffectiveRule selects the rule with the latest effective_from among the
// candidates. Candidates are already filtered to the date window.
func pickEffectiveRule(rules []models.ClientRateRule) *models.ClientRateRule {
	var best *models.ClientRateRule
	for i := range rules {
		if best == nil || rules[i].EffectiveFrom.After(best.EffectiveFrom) {
			best = &rules[i]
		}
	}
	return best
}

// resolveFromRule evaluates triggers in fixed precedence. MANUAL defers to
// the caller's flag; WEEKEND fires on Saturday and Sunday; AFTER_HOURS needs
// both workday bounds and fires when the entry starts before or ends after
// them.
func resolveFromRule(rule models.ClientRateRule, date time.Time, startTime, endTime *string, manualOvertime *bool) Resolution {
	triggers := make(map[string]bool, len(rule.OvertimeTriggers))
	for _, t := range rule.OvertimeTriggers {
		triggers[t] = true
	}

	isOvertime := false
	if triggers[models.TriggerManual] && manualOvertime != nil {
		isOvertime = *manualOvertime
	}
	if !isOvertime && triggers[models.TriggerWeekend] {
		wd := date.Weekday()
		isOvertime = wd == time.Saturday || wd == time.Sunday
	}
	if !isOvertime && triggers[models.TriggerAfterHours] &&
		startTime != nil && rule.WorkdayStartTime != nil && rule.WorkdayEndTime != nil {
		start, okS := minutesOf(*startTime)
		wStart, okWS := minutesOf(*rule.WorkdayStartTime)
		wEnd, okWE := minutesOf(*rule.WorkdayEndTime)
		if okS && okWS && okWE {
			isOvertime = start < wStart
			if !isOvertime && endTime != nil {
				if end, ok := minutesOf(*endTime); ok {
					isOvertime = end > wEnd
				}
			}
		}
	}

	if isOvertime {
		rate := rule.OvertimeRatePerHour
		return Resolution{IsOvertime: true, AppliedRatePerHour: &rate}
	}
	return Resolution{IsOvertime: false, AppliedRatePerHour: rule.BaseRatePerHour}
}

// minutesOf parses "HH:mm" into minutes since midnight.
func minutesOf(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}

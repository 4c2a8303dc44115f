package clients

import (
	"testing"
	"time"

	"github.com/workdeck/backend/internal/models"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool      { return &b }

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestResolveFromRuleWeekend(t *testing.T) {
	rule := models.ClientRateRule{
		BaseRatePerHour:     f64Ptr(30),
		OvertimeRatePerHour: 50,
		OvertimeTriggers:    []string{models.TriggerWeekend},
	}

	tests := []struct {
		name     string
		date     time.Time
		wantOT   bool
		wantRate float64
	}{
		{"saturday is overtime", day("2024-06-01"), true, 50},
		{"sunday is overtime", day("2024-06-02"), true, 50},
		{"tuesday is regular", day("2024-06-04"), false, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := resolveFromRule(rule, tt.date, nil, nil, nil)
			if res.IsOvertime != tt.wantOT {
				t.Errorf("overtime = %v, want %v", res.IsOvertime, tt.wantOT)
			}
			if res.AppliedRatePerHour == nil || *res.AppliedRatePerHour != tt.wantRate {
				t.Errorf("rate = %v, want %v", res.AppliedRatePerHour, tt.wantRate)
			}
		})
	}
}

func TestResolveFromRuleAfterHours(t *testing.T) {
	rule := models.ClientRateRule{
		BaseRatePerHour:     f64Ptr(30),
		OvertimeRatePerHour: 50,
		OvertimeTriggers:    []string{models.TriggerAfterHours},
		WorkdayStartTime:    strPtr("09:00"),
		WorkdayEndTime:      strPtr("17:00"),
	}
	monday := day("2024-06-03")

	tests := []struct {
		name       string
		start, end *string
		wantOT     bool
	}{
		{"early start", strPtr("08:30"), strPtr("16:00"), true},
		{"late end", strPtr("10:00"), strPtr("18:00"), true},
		{"inside window", strPtr("10:00"), strPtr("16:00"), false},
		{"boundary start and end", strPtr("09:00"), strPtr("17:00"), false},
		{"no end time", strPtr("10:00"), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := resolveFromRule(rule, monday, tt.start, tt.end, nil)
			if res.IsOvertime != tt.wantOT {
				t.Errorf("overtime = %v, want %v", res.IsOvertime, tt.wantOT)
			}
		})
	}
}

func TestResolveFromRuleAfterHoursNeedsBothBounds(t *testing.T) {
	rule := models.ClientRateRule{
		OvertimeRatePerHour: 50,
		OvertimeTriggers:    []string{models.TriggerAfterHours},
		WorkdayStartTime:    strPtr("09:00"),
		// no end bound
	}
	res := resolveFromRule(rule, day("2024-06-03"), strPtr("06:00"), strPtr("20:00"), nil)
	if res.IsOvertime {
		t.Error("trigger fired without both workday bounds")
	}
}

func TestResolveFromRuleManual(t *testing.T) {
	rule := models.ClientRateRule{
		BaseRatePerHour:     f64Ptr(30),
		OvertimeRatePerHour: 50,
		OvertimeTriggers:    []string{models.TriggerManual},
	}
	monday := day("2024-06-03")

	if res := resolveFromRule(rule, monday, nil, nil, boolPtr(true)); !res.IsOvertime {
		t.Error("manual flag true should mark overtime")
	}
	if res := resolveFromRule(rule, monday, nil, nil, boolPtr(false)); res.IsOvertime {
		t.Error("manual flag false should stay regular")
	}
	if res := resolveFromRule(rule, monday, nil, nil, nil); res.IsOvertime {
		t.Error("absent manual flag should stay regular")
	}
}

func TestResolveFromRuleTriggerPrecedence(t *testing.T) {
	// MANUAL false does not suppress WEEKEND.
	rule := models.ClientRateRule{
		OvertimeRatePerHour: 50,
		OvertimeTriggers:    []string{models.TriggerManual, models.TriggerWeekend},
	}
	res := resolveFromRule(rule, day("2024-06-01"), nil, nil, boolPtr(false))
	if !res.IsOvertime {
		t.Error("weekend trigger should fire even when manual flag is false")
	}
}

func TestResolveFromRuleNoBaseRate(t *testing.T) {
	rule := models.ClientRateRule{
		OvertimeRatePerHour: 50,
		OvertimeTriggers:    []string{models.TriggerWeekend},
	}
	res := resolveFromRule(rule, day("2024-06-04"), nil, nil, nil)
	if res.IsOvertime {
		t.Error("tuesday should be regular")
	}
	if res.AppliedRatePerHour != nil {
		t.Errorf("rate = %v, want nil", *res.AppliedRatePerHour)
	}
}

func TestPickEffectiveRuleLatestWins(t *testing.T) {
	older := models.ClientRateRule{Name: "older", EffectiveFrom: day("2024-01-01")}
	newer := models.ClientRateRule{Name: "newer", EffectiveFrom: day("2024-05-01")}

	got := pickEffectiveRule([]models.ClientRateRule{older, newer})
	if got == nil || got.Name != "newer" {
		t.Fatalf("picked %+v, want newer", got)
	}

	if got := pickEffectiveRule(nil); got != nil {
		t.Errorf("picked %+v from empty set, want nil", got)
	}
}

func TestMinutesOf(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"09:00", 540, true},
		{"00:00", 0, true},
		{"23:59", 1439, true},
		{"junk", 0, false},
		{"9", 0, false},
	}
	for _, tt := range tests {
		got, ok := minutesOf(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("minutesOf(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

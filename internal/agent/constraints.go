package agent

import (
	"fmt"
	"strings"
)

// Constraint kinds, matching the booking_constraints table.
const (
	ConstraintRateFloor    = "min_payment"
	ConstraintPAFee        = "pa_system_fee"
	ConstraintMinNotice    = "min_notice_days"
	ConstraintMonthlyCap   = "max_events_per_month"
	ConstraintBlackout     = "blackout_dates"
	ConstraintTravelRadius = "travel_radius"
)

// Constraint is a negotiation rule loaded from the store. It is immutable
// within a pass; the store is the source of truth.
type Constraint struct {
	Kind  string
	Value map[string]any
}

// renderConstraints turns the active constraints into prompt text, one line
// per kind. Unknown kinds are skipped so new rules never break older prompts.
func renderConstraints(constraints []Constraint) string {
	var lines []string
	for _, c := range constraints {
		switch c.Kind {
		case ConstraintRateFloor:
			amount := constraintNumber(c.Value, "amount")
			duration := constraintNumberDefault(c.Value, "duration_hours", 3)
			hourly := constraintNumberDefault(c.Value, "hourly_rate", 500)
			lines = append(lines, fmt.Sprintf("Standard rate: $%s for %s-hour set ($%s/hour)", amount, duration, hourly))
		case ConstraintPAFee:
			lines = append(lines, fmt.Sprintf("PA system rental: Additional $%s if band provides", constraintNumber(c.Value, "amount")))
		case ConstraintMinNotice:
			lines = append(lines, fmt.Sprintf("Minimum notice: %s days", constraintNumber(c.Value, "days")))
		case ConstraintMonthlyCap:
			lines = append(lines, fmt.Sprintf("Maximum shows per month: %s", constraintNumber(c.Value, "max")))
		case ConstraintBlackout:
			lines = append(lines, fmt.Sprintf("Blackout dates: %s", constraintDates(c.Value)))
		case ConstraintTravelRadius:
			lines = append(lines, fmt.Sprintf("Travel radius: %s miles from %s", constraintNumber(c.Value, "miles"), constraintString(c.Value, "base_location")))
		}
	}
	if len(lines) == 0 {
		return "No specific constraints defined"
	}
	return strings.Join(lines, "\n")
}

// constraintNumber renders a numeric payload field without a trailing ".0"
// (JSON decoding produces float64 for every number).
func constraintNumber(value map[string]any, key string) string {
	switch v := value[key].(type) {
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case int:
		return fmt.Sprintf("%d", v)
	case string:
		return v
	default:
		return "?"
	}
}

func constraintNumberDefault(value map[string]any, key string, def int) string {
	if _, ok := value[key]; !ok {
		return fmt.Sprintf("%d", def)
	}
	return constraintNumber(value, key)
}

func constraintString(value map[string]any, key string) string {
	if s, ok := value[key].(string); ok {
		return s
	}
	return "?"
}

func constraintDates(value map[string]any) string {
	dates, ok := value["dates"].([]any)
	if !ok {
		return "none"
	}
	parts := make([]string, 0, len(dates))
	for _, d := range dates {
		if s, ok := d.(string); ok {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderConstraints(t *testing.T) {
	constraints := []Constraint{
		{Kind: ConstraintRateFloor, Value: map[string]any{"amount": float64(1500), "duration_hours": float64(3), "hourly_rate": float64(500)}},
		{Kind: ConstraintPAFee, Value: map[string]any{"amount": float64(500)}},
		{Kind: ConstraintMinNotice, Value: map[string]any{"days": float64(14)}},
		{Kind: ConstraintMonthlyCap, Value: map[string]any{"max": float64(4)}},
		{Kind: ConstraintBlackout, Value: map[string]any{"dates": []any{"2026-12-24", "2026-12-25"}}},
		{Kind: ConstraintTravelRadius, Value: map[string]any{"miles": float64(100), "base_location": "Columbus, OH"}},
	}

	got := renderConstraints(constraints)
	assert.Contains(t, got, "Standard rate: $1500 for 3-hour set ($500/hour)")
	assert.Contains(t, got, "PA system rental: Additional $500 if band provides")
	assert.Contains(t, got, "Minimum notice: 14 days")
	assert.Contains(t, got, "Maximum shows per month: 4")
	assert.Contains(t, got, "Blackout dates: 2026-12-24, 2026-12-25")
	assert.Contains(t, got, "Travel radius: 100 miles from Columbus, OH")
}

func TestRenderConstraintsDefaults(t *testing.T) {
	// Rate floor without optional fields falls back to the standard set
	// length and hourly rate.
	got := renderConstraints([]Constraint{
		{Kind: ConstraintRateFloor, Value: map[string]any{"amount": float64(1500)}},
	})
	assert.Equal(t, "Standard rate: $1500 for 3-hour set ($500/hour)", got)
}

func TestRenderConstraintsEmpty(t *testing.T) {
	assert.Equal(t, "No specific constraints defined", renderConstraints(nil))
	// Unknown kinds are skipped.
	assert.Equal(t, "No specific constraints defined", renderConstraints([]Constraint{
		{Kind: "mystery", Value: map[string]any{}},
	}))
}

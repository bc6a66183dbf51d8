package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestInvalidConfig(t *testing.T) {
	err := InvalidConfig("num_voters", "must be positive, got %d", -3)

	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("errors.Is(err, ErrInvalidConfiguration) = false")
	}
	if errors.Is(err, ErrDegenerateElection) {
		t.Errorf("errors.Is(err, ErrDegenerateElection) = true")
	}

	var ce *ConfigError
	if !errors.As(fmt.Errorf("loading: %w", err), &ce) {
		t.Fatalf("errors.As did not find ConfigError")
	}
	if ce.Field != "num_voters" || ce.Reason != "must be positive, got -3" {
		t.Errorf("ConfigError = %+v", ce)
	}
	if got, want := err.Error(), "invalid configuration: num_voters must be positive, got -3"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCandidateBudgets(t *testing.T) {
	c := Candidate{ID: 1, Alpha: 0.25, Resources: 1000}
	if got := c.PublicBudget(); got != 250 {
		t.Errorf("PublicBudget() = %g, want 250", got)
	}
	if got := c.PrivateBudget(); got != 750 {
		t.Errorf("PrivateBudget() = %g, want 750", got)
	}
}

func TestClonePool(t *testing.T) {
	pool := []Candidate{{ID: 1, Alpha: 0.5}, {ID: 2, Alpha: 0.7}}
	clone := ClonePool(pool)
	clone[0].Alpha = 0.9
	if pool[0].Alpha != 0.5 {
		t.Errorf("ClonePool aliases the source: pool[0].Alpha = %g", pool[0].Alpha)
	}
	if len(clone) != len(pool) || clone[1] != pool[1] {
		t.Errorf("ClonePool() = %+v", clone)
	}
}

func TestRiskProfileValid(t *testing.T) {
	tests := []struct {
		p    RiskProfile
		want bool
	}{
		{RiskSafeSeeking, true},
		{RiskSeeking, true},
		{"neutral", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.p.Valid(); got != tt.want {
			t.Errorf("RiskProfile(%q).Valid() = %v, want %v", tt.p, got, tt.want)
		}
	}
}

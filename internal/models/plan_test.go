package models

import "testing"

func TestLimitsFor_TableTests(t *testing.T) {
	tests := []struct {
		name string
		plan string
		want Limits
	}{
		{name: "none plan", plan: PlanNone, want: Limits{}},
		{name: "basic plan", plan: PlanBasic, want: Limits{MaxReads: 10, MaxDownloads: 5}},
		{name: "premium plan", plan: PlanPremium, want: Limits{MaxReads: 100, MaxDownloads: 25}},
		{name: "unknown plan fails closed", plan: "platinum", want: Limits{}},
		{name: "empty plan fails closed", plan: "", want: Limits{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LimitsFor(tt.plan); got != tt.want {
				t.Errorf("LimitsFor(%q) = %+v, want %+v", tt.plan, got, tt.want)
			}
		})
	}
}

func TestKnownPlan(t *testing.T) {
	if KnownPlan(PlanNone) {
		t.Error("none must not be requestable")
	}
	if !KnownPlan(PlanBasic) || !KnownPlan(PlanPremium) {
		t.Error("basic and premium must be requestable")
	}
}

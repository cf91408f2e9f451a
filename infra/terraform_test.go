package infra

import "testing"

func TestParsePlanSummary(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want PlanSummary
	}{
		{
			name: "changes",
			out:  "…\nPlan: 3 to add, 1 to change, 0 to destroy.\n",
			want: PlanSummary{Add: 3, Change: 1, Destroy: 0},
		},
		{
			name: "destroy only",
			out:  "Plan: 0 to add, 0 to change, 12 to destroy.",
			want: PlanSummary{Destroy: 12},
		},
		{
			name: "no changes",
			out:  "No changes. Your infrastructure matches the configuration.",
			want: PlanSummary{},
		},
		{
			name: "empty output",
			out:  "",
			want: PlanSummary{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parsePlanSummary(tt.out); got != tt.want {
				t.Errorf("parsePlanSummary() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlanSummaryHasChanges(t *testing.T) {
	if (PlanSummary{}).HasChanges() {
		t.Error("zero summary should report no changes")
	}
	if !(PlanSummary{Add: 1}).HasChanges() {
		t.Error("summary with adds should report changes")
	}
	if !(PlanSummary{Destroy: 2}).HasChanges() {
		t.Error("summary with destroys should report changes")
	}
}

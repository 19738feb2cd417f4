package models

import "testing"

func TestCategoryRules(t *testing.T) {
	tests := []struct {
		category          Category
		valid             bool
		initiating        bool
		workflowRequiring bool
	}{
		{CategoryTender, true, true, true},
		{CategoryContract, true, false, true},
		{CategoryAmendment, true, false, true},
		{CategoryCorrespondence, true, false, false},
		{CategoryReport, true, false, false},
		{CategoryGeneral, true, false, false},
		{Category("invoice"), false, false, false},
		{Category(""), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			if got := tt.category.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.category.Initiating(); got != tt.initiating {
				t.Errorf("Initiating() = %v, want %v", got, tt.initiating)
			}
			if got := tt.category.WorkflowRequiring(); got != tt.workflowRequiring {
				t.Errorf("WorkflowRequiring() = %v, want %v", got, tt.workflowRequiring)
			}
		})
	}
}

func TestResolutionValid(t *testing.T) {
	for _, r := range []Resolution{ResolutionSkip, ResolutionVersion, ResolutionReplace} {
		if !r.Valid() {
			t.Errorf("Valid(%s) = false, want true", r)
		}
	}
	if Resolution("merge").Valid() {
		t.Error("Valid(merge) = true, want false")
	}
}

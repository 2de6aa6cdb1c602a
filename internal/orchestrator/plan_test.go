package orchestrator

import (
	"errors"
	"testing"

	"github.com/aquasense/aquasense/internal/tools"
)

func TestPlanValidate(t *testing.T) {
	tests := []struct {
		name    string
		plan    Plan
		wantErr error
	}{
		{
			name: "empty plan is valid",
			plan: Plan{},
		},
		{
			name: "single step",
			plan: Plan{Steps: []Step{{Tool: tools.NameRetriever}}},
		},
		{
			name: "valid chain",
			plan: Plan{Steps: []Step{
				{Tool: tools.NameRetriever},
				{Tool: tools.NamePredictor},
				{Tool: tools.NameSynthesizer, DependsOn: []string{tools.NameRetriever, tools.NamePredictor}},
			}},
		},
		{
			name: "dependency outside plan",
			plan: Plan{Steps: []Step{
				{Tool: tools.NameSynthesizer, DependsOn: []string{tools.NamePredictor}},
			}},
			wantErr: ErrUnknownDependency,
		},
		{
			name: "self dependency",
			plan: Plan{Steps: []Step{
				{Tool: tools.NameRetriever, DependsOn: []string{tools.NameRetriever}},
			}},
			wantErr: ErrSelfDependency,
		},
		{
			name: "cycle",
			plan: Plan{Steps: []Step{
				{Tool: "a", DependsOn: []string{"b"}},
				{Tool: "b", DependsOn: []string{"a"}},
			}},
			wantErr: ErrCyclicPlan,
		},
		{
			name: "duplicate step",
			plan: Plan{Steps: []Step{
				{Tool: tools.NameRetriever},
				{Tool: tools.NameRetriever},
			}},
			wantErr: ErrDuplicateStep,
		},
		{
			name: "empty tool name",
			plan: Plan{Steps: []Step{{Tool: ""}}},
			wantErr: ErrEmptyStepTool,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

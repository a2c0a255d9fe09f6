package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every YAML scenario under testdata/scenarios and
// compares each trace against its golden file.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario files found")

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result := RunWithGolden(t, scenario)
			for _, msg := range result.Errors {
				t.Error(msg)
			}
			assert.True(t, result.Pass)
		})
	}
}

func int64p(v int64) *int64 { return &v }

func TestRun_ExpectMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "expect_mismatch",
		Description: "wrong handle expectation must fail the scenario",
		Steps: []Step{
			{Op: OpProvision, Expect: &StepExpect{Handle: int64p(99)}},
		},
	}

	result, err := Run(scenario, t.TempDir())
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "handle = 1, want 99")
}

func TestRun_UnexpectedStepErrorFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected_error",
		Description: "materializing without a calendar fails the step",
		Plans: []PlanSpec{
			{Title: "Rent", Start: 1, UUID: "11111111-1111-4111-8111-111111111111"},
		},
		Steps: []Step{
			{Op: OpMaterialize, Plan: 1},
		},
	}

	result, err := Run(scenario, t.TempDir())
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_ExpectedErrorPasses(t *testing.T) {
	scenario := &Scenario{
		Name:        "expected_error",
		Description: "an expected step error is not a scenario failure",
		Plans: []PlanSpec{
			{Title: "Rent", Start: 1, UUID: "11111111-1111-4111-8111-111111111111"},
		},
		Steps: []Step{
			{Op: OpMaterialize, Plan: 1, Expect: &StepExpect{Error: "no planner calendar configured"}},
		},
	}

	result, err := Run(scenario, t.TempDir())
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Contains(t, result.Trace[0].Error, "no planner calendar configured")
}

func TestRun_AssertionMismatchFails(t *testing.T) {
	mapped := true
	scenario := &Scenario{
		Name:        "assertion_mismatch",
		Description: "a mapping assertion against an unmapped plan fails",
		Plans: []PlanSpec{
			{Title: "Rent", Start: 1, UUID: "11111111-1111-4111-8111-111111111111"},
		},
		Steps: []Step{
			{Op: OpProvision},
		},
		Assertions: []Assertion{
			{Type: AssertMapping, Plan: 1, Mapped: &mapped},
		},
	}

	result, err := Run(scenario, t.TempDir())
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "mapped = false, want true")
}

package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: "a valid scenario"
plans:
  - title: Rent
    start: 1735689600
    rrule: FREQ=MONTHLY
    uuid: 11111111-1111-4111-8111-111111111111
steps:
  - op: provision
    expect: { handle: 1 }
  - op: materialize
    plan: 1
assertions:
  - type: mapping
    plan: 1
    mapped: true
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", s.Name)
	require.Len(t, s.Steps, 2)
	require.NotNil(t, s.Steps[0].Expect)
	require.NotNil(t, s.Steps[0].Expect.Handle)
	assert.Equal(t, int64(1), *s.Steps[0].Expect.Handle)
	assert.Equal(t, int64(1), s.Steps[1].Plan)
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: "typo in steps key"
stepz:
  - op: provision
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingDescription(t *testing.T) {
	path := writeScenario(t, `
name: sample
steps:
  - op: provision
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description is required")
}

func TestLoadScenario_PlanWithoutUUID(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: "plans need a fixed uuid"
plans:
  - title: Rent
    start: 1735689600
steps:
  - op: provision
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uuid is required")
}

func TestLoadScenario_PlanWithBadUUID(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: "uuid must parse"
plans:
  - title: Rent
    start: 1735689600
    uuid: not-a-uuid
steps:
  - op: provision
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid uuid")
}

func TestLoadScenario_UnknownOp(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: "ops are validated"
steps:
  - op: reticulate
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown op "reticulate"`)
}

func TestLoadScenario_StepArgumentValidation(t *testing.T) {
	cases := []struct {
		name    string
		steps   string
		wantErr string
	}{
		{
			name:    "set-calendar needs handle",
			steps:   "  - op: set-calendar",
			wantErr: "handle is required",
		},
		{
			name:    "delete-event needs event",
			steps:   "  - op: delete-event",
			wantErr: "event is required",
		},
		{
			name:    "materialize plan out of range",
			steps:   "  - op: materialize\n    plan: 3",
			wantErr: "out of range",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeScenario(t, `
name: sample
description: "step validation"
steps:
`+tc.steps+"\n")

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadScenario_AssertionValidation(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: "assertions are validated"
steps:
  - op: provision
assertions:
  - type: event_count
    handle: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count is required")
}

package harness

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Scenario defines a reconciliation test scenario: an initial plan set,
// a sequence of steps against the planner and the calendar store, and
// assertions on the final registry and calendar state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Plans are created in the registry before the first step, in
	// order; template ids are assigned 1..n. Each plan must carry a
	// fixed uuid so traces are deterministic.
	Plans []PlanSpec `yaml:"plans,omitempty"`

	// Steps is the main flow. Each step can specify expected outcomes.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state after all steps ran.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// PlanSpec seeds one plan into the registry.
type PlanSpec struct {
	Title    string `yaml:"title"`
	Amount   int64  `yaml:"amount,omitempty"`
	Comment  string `yaml:"comment,omitempty"`
	Start    int64  `yaml:"start"`
	AllDay   bool   `yaml:"all_day,omitempty"`
	Timezone string `yaml:"timezone,omitempty"`
	RRule    string `yaml:"rrule,omitempty"`
	UUID     string `yaml:"uuid"`
}

// Step is a single operation against the planner or the stores.
type Step struct {
	// Op selects the operation; see the package documentation.
	Op string `yaml:"op"`

	// Handle is a calendar handle argument (set-calendar,
	// delete-calendar, insert-event).
	Handle int64 `yaml:"handle,omitempty"`

	// Event is an event handle argument (delete-event).
	Event int64 `yaml:"event,omitempty"`

	// Plan is a template id argument (materialize, delete-plan-event,
	// cache-plan-event, insert-event).
	Plan int64 `yaml:"plan,omitempty"`

	// Name overrides the calendar name for create-calendar.
	Name string `yaml:"name,omitempty"`

	// Expect specifies the expected step outcome. If nil, the step is
	// only required to not error.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// StepExpect is a subset match against the step's trace event.
type StepExpect struct {
	Handle   *int64 `yaml:"handle,omitempty"`
	Event    *int64 `yaml:"event,omitempty"`
	State    string `yaml:"state,omitempty"`
	Restored *int   `yaml:"restored,omitempty"`

	// Error, when set, requires the step to fail with an error whose
	// message contains this substring.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates final registry or calendar state.
type Assertion struct {
	// Type is one of "mapping", "setting", "event_count".
	Type string `yaml:"type"`

	// mapping
	Plan   int64  `yaml:"plan,omitempty"`
	Mapped *bool  `yaml:"mapped,omitempty"`
	Event  *int64 `yaml:"event,omitempty"`

	// setting
	Key    string `yaml:"key,omitempty"`
	Value  string `yaml:"value,omitempty"`
	Absent bool   `yaml:"absent,omitempty"`

	// event_count
	Handle int64 `yaml:"handle,omitempty"`
	Count  *int  `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertMapping    = "mapping"
	AssertSetting    = "setting"
	AssertEventCount = "event_count"
)

// Step operation constants.
const (
	OpProvision       = "provision"
	OpMaterialize     = "materialize"
	OpCachePlanEvent  = "cache-plan-event"
	OpDeletePlanEvent = "delete-plan-event"
	OpCreateCalendar  = "create-calendar"
	OpDeleteCalendar  = "delete-calendar"
	OpWipe            = "wipe"
	OpDeleteEvent     = "delete-event"
	OpInsertEvent     = "insert-event"
	OpSetCalendar     = "set-calendar"
	OpUnsetCalendar   = "unset-calendar"
	OpVerify          = "verify"
	OpRestore         = "restore"
)

// LoadScenario reads and parses a scenario YAML file. Returns an error
// if the file is malformed, contains unknown fields (typos), or is
// missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, p := range s.Plans {
		if p.Title == "" {
			return fmt.Errorf("plans[%d]: title is required", i)
		}
		if p.Start == 0 {
			return fmt.Errorf("plans[%d]: start is required", i)
		}
		if p.UUID == "" {
			return fmt.Errorf("plans[%d]: uuid is required for deterministic traces", i)
		}
		if _, err := uuid.Parse(p.UUID); err != nil {
			return fmt.Errorf("plans[%d]: invalid uuid %q: %v", i, p.UUID, err)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step, int64(len(s.Plans))); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, int64(len(s.Plans))); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step, planCount int64) error {
	requirePlan := func() error {
		if step.Plan < 1 || step.Plan > planCount {
			return fmt.Errorf("steps[%d]: plan %d out of range (have %d plans)", index, step.Plan, planCount)
		}
		return nil
	}

	switch step.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpProvision, OpWipe, OpUnsetCalendar, OpVerify, OpRestore, OpCreateCalendar:
		return nil
	case OpMaterialize, OpCachePlanEvent, OpDeletePlanEvent:
		return requirePlan()
	case OpSetCalendar, OpDeleteCalendar:
		if step.Handle == 0 {
			return fmt.Errorf("steps[%d]: handle is required for %s", index, step.Op)
		}
		return nil
	case OpDeleteEvent:
		if step.Event == 0 {
			return fmt.Errorf("steps[%d]: event is required for delete-event", index)
		}
		return nil
	case OpInsertEvent:
		if step.Handle == 0 {
			return fmt.Errorf("steps[%d]: handle is required for insert-event", index)
		}
		return requirePlan()
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}
}

func validateAssertion(index int, a *Assertion, planCount int64) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertMapping:
		if a.Plan < 1 || a.Plan > planCount {
			return fmt.Errorf("assertions[%d]: plan %d out of range", index, a.Plan)
		}
		if a.Mapped == nil {
			return fmt.Errorf("assertions[%d]: mapped is required for mapping", index)
		}
	case AssertSetting:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for setting", index)
		}
		if !a.Absent && a.Value == "" {
			return fmt.Errorf("assertions[%d]: value or absent is required for setting", index)
		}
	case AssertEventCount:
		if a.Handle == 0 {
			return fmt.Errorf("assertions[%d]: handle is required for event_count", index)
		}
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for event_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

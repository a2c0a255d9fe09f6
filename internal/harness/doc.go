// Package harness provides scenario-based conformance testing for the
// plan/calendar reconciliation engines.
//
// The harness builds a fresh plan registry and local calendar store per
// scenario, executes a sequence of steps against a bound planner, and
// validates per-step expectations plus final assertions. The step trace
// can additionally be compared against a golden file.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	plans:
//	  - title: Rent
//	    start: 1735689600
//	    rrule: FREQ=MONTHLY
//	    timezone: Europe/Berlin
//	    uuid: 11111111-1111-4111-8111-111111111111
//	steps:
//	  - op: provision
//	    expect: { handle: 1 }
//	  - op: materialize
//	    plan: 1
//	  - op: restore
//	    expect: { restored: 1 }
//	assertions:
//	  - type: mapping
//	    plan: 1
//	    mapped: true
//	    event: 2
//	  - type: setting
//	    key: planner.calendar_id
//	    value: "2"
//
// Plan uuids are fixed in the scenario file so traces are identical
// across runs; the runner refuses plans without one.
//
// # Steps
//
//   - provision: find-or-create the planner calendar, persist the handle
//   - materialize: project a plan into the configured calendar
//   - cache-plan-event: copy a plan's live event into the event cache
//   - delete-plan-event: cache-then-delete a plan's event via the planner
//   - create-calendar / delete-calendar / wipe: mutate the calendar store
//     behind the planner's back
//   - delete-event / insert-event: mutate events behind the planner's back
//   - set-calendar / unset-calendar: write the calendar setting (fires
//     the migration engine inline)
//   - verify: run the identity check, clearing invalid configurations
//   - restore: rebuild stale plan-event mappings
//
// # Assertion Types
//
//   - mapping: a plan's registry mapping (present or cleared, event id)
//   - setting: a settings key's value, or its absence
//   - event_count: number of events in a calendar
//
// # Deterministic Testing
//
// Scenarios run with a fixed clock, fixed plan uuids and rowid-allocated
// handles, so repeated runs produce byte-identical traces for golden
// comparison.
package harness

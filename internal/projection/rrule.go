package projection

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// ValidateRRule checks that s is a parseable RFC 5545 RRULE content line
// (e.g. "FREQ=WEEKLY;INTERVAL=2"). An empty string is valid: the plan
// simply has no recurrence.
func ValidateRRule(s string) error {
	if s == "" {
		return nil
	}
	if _, err := rrule.StrToROption(s); err != nil {
		return fmt.Errorf("invalid recurrence rule %q: %w", s, err)
	}
	return nil
}

// RecurrenceEnd computes the effective end of a recurrence: the last
// occurrence for COUNT- or UNTIL-bounded rules, nil for unbounded ones.
// A plan without a rule is a one-shot whose effective end is its start.
//
// Used by tests to assert that the codec's end-or-duration shim
// preserves the effective end condition across a round trip.
func RecurrenceEnd(s string, start time.Time) (*time.Time, error) {
	if s == "" {
		return &start, nil
	}
	opt, err := rrule.StrToROption(s)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", s, err)
	}
	if opt.Count == 0 && opt.Until.IsZero() {
		return nil, nil
	}
	opt.Dtstart = start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", s, err)
	}
	all := r.All()
	if len(all) == 0 {
		return nil, nil
	}
	last := all[len(all)-1]
	return &last, nil
}

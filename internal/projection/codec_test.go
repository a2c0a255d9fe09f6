package projection

import (
	"testing"
	"time"
)

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }

func TestNormalize_PrefersEnd(t *testing.T) {
	f := EventFields{
		Start:    1000,
		End:      int64Ptr(2000),
		Duration: strPtr("PT1H"),
	}
	n := Normalize(f)
	if n.End == nil || *n.End != 2000 {
		t.Fatalf("End = %v, want 2000", n.End)
	}
	if n.Duration != nil {
		t.Errorf("Duration = %q, want nil when End is set", *n.Duration)
	}
}

func TestNormalize_FallsBackToDuration(t *testing.T) {
	f := EventFields{
		Start:    1000,
		Duration: strPtr("PT30M"),
	}
	n := Normalize(f)
	if n.End != nil {
		t.Errorf("End = %v, want nil", *n.End)
	}
	if n.Duration == nil || *n.Duration != "PT30M" {
		t.Fatalf("Duration = %v, want PT30M", n.Duration)
	}
}

func TestNormalize_DefaultsDuration(t *testing.T) {
	n := Normalize(EventFields{Start: 1000})
	if n.Duration == nil || *n.Duration != DefaultDuration {
		t.Fatalf("Duration = %v, want %q", n.Duration, DefaultDuration)
	}
	if n.End != nil {
		t.Errorf("End = %v, want nil", *n.End)
	}
}

func TestNormalize_ExactlyOneOfEndDuration(t *testing.T) {
	cases := []EventFields{
		{Start: 1},
		{Start: 1, End: int64Ptr(2)},
		{Start: 1, Duration: strPtr("P1D")},
		{Start: 1, End: int64Ptr(2), Duration: strPtr("P1D")},
	}
	for i, f := range cases {
		n := Normalize(f)
		hasEnd := n.End != nil
		hasDur := n.Duration != nil
		if hasEnd == hasDur {
			t.Errorf("case %d: End set=%v Duration set=%v, want exactly one", i, hasEnd, hasDur)
		}
	}
}

func TestToPlanFields_ExtractsUUID(t *testing.T) {
	desc := AppendUUID("monthly rent", "9b2fe1d0-8a43-4b21-9c3d-d51f00a3e7c2")
	p := ToPlanFields(EventFields{
		Start:       1000,
		RRule:       "FREQ=MONTHLY",
		Title:       "Rent",
		Timezone:    "Europe/Berlin",
		Description: desc,
	})
	if p.UUID != "9b2fe1d0-8a43-4b21-9c3d-d51f00a3e7c2" {
		t.Errorf("UUID = %q", p.UUID)
	}
	if p.RRule != "FREQ=MONTHLY" || p.Title != "Rent" {
		t.Errorf("fields not carried over: %+v", p)
	}
	if p.Duration == nil || *p.Duration != DefaultDuration {
		t.Errorf("Duration = %v, want default", p.Duration)
	}
}

func TestRoundTrip_PreservesEffectiveEnd(t *testing.T) {
	start := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	rules := []string{
		"",
		"FREQ=DAILY;COUNT=10",
		"FREQ=WEEKLY;UNTIL=20250401T000000Z",
		"FREQ=MONTHLY",
	}
	for _, rule := range rules {
		want, err := RecurrenceEnd(rule, start)
		if err != nil {
			t.Fatalf("RecurrenceEnd(%q) failed: %v", rule, err)
		}

		// Write, then read through the shim.
		written := Normalize(EventFields{Start: start.Unix(), RRule: rule})
		read := ToPlanFields(written)

		got, err := RecurrenceEnd(read.RRule, start)
		if err != nil {
			t.Fatalf("RecurrenceEnd(%q) after round trip failed: %v", read.RRule, err)
		}
		switch {
		case want == nil && got != nil:
			t.Errorf("rule %q: effective end appeared after round trip: %v", rule, got)
		case want != nil && got == nil:
			t.Errorf("rule %q: effective end lost after round trip", rule)
		case want != nil && got != nil && !want.Equal(*got):
			t.Errorf("rule %q: effective end changed: %v -> %v", rule, want, got)
		}
	}
}

package projection

// DefaultDuration is the zero-length RFC 5545 duration token used when an
// event carries neither an end timestamp nor a duration.
const DefaultDuration = "P0S"

// EventFields is the projected field set of a calendar event.
//
// Exactly one of End and Duration may be set on an event that is written
// to the store; Normalize enforces this. Events read back from older
// stores may violate the rule, which is why reads go through Normalize
// before the fields are reinserted anywhere.
type EventFields struct {
	// CalendarID is the containing calendar. Zero for cached copies,
	// where the containing calendar is unknown or long gone.
	CalendarID int64

	// Start is the event start as a Unix timestamp (UTC milliseconds
	// are not used; the store works in seconds).
	Start int64

	// End is the event end as a Unix timestamp, or nil.
	End *int64

	// Duration is an RFC 5545 duration token (e.g. "P1D", "PT1H"), or nil.
	Duration *string

	// RRule is the recurrence rule in RFC 5545 RRULE content form
	// (e.g. "FREQ=MONTHLY;INTERVAL=1"). Empty for one-shot events.
	RRule string

	Title    string
	AllDay   bool
	Timezone string

	// Description carries the plan's UUID token. See AppendUUID.
	Description string

	// CustomAppPackage and CustomAppURI let a calendar app launch back
	// into the owning application from the event.
	CustomAppPackage string
	CustomAppURI     string
}

// PlanFields is the plan-side view of the projected data, produced by
// ToPlanFields when an event is read back from the store.
type PlanFields struct {
	Start    int64
	End      *int64
	Duration *string
	RRule    string
	Title    string
	AllDay   bool
	Timezone string
	UUID     string
}

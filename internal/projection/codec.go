package projection

// Normalize applies the end-or-duration shim to fields read from a store
// before they are written anywhere else.
//
// Rules:
//   - End set: keep End, drop Duration.
//   - End absent: keep Duration, defaulting to DefaultDuration when it is
//     also absent.
//
// The result always has exactly one of End and Duration populated, which
// is what stricter store versions require on insert.
func Normalize(f EventFields) EventFields {
	out := f
	if out.End != nil {
		out.Duration = nil
		return out
	}
	if out.Duration == nil {
		d := DefaultDuration
		out.Duration = &d
	}
	return out
}

// ToPlanFields converts projected event fields back into the plan-side
// view. The shim is applied first, so exactly one of End and Duration is
// populated in the result. The UUID is extracted from the description;
// it is empty when the event carries no token.
func ToPlanFields(f EventFields) PlanFields {
	n := Normalize(f)
	uuid, _ := ExtractUUID(n.Description)
	return PlanFields{
		Start:    n.Start,
		End:      n.End,
		Duration: n.Duration,
		RRule:    n.RRule,
		Title:    n.Title,
		AllDay:   n.AllDay,
		Timezone: n.Timezone,
		UUID:     uuid,
	}
}

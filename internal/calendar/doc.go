// Package calendar abstracts the external calendar store that hosts the
// planner calendar and its events.
//
// The store is shared, externally mutable, and hostile: calendars can be
// deleted, wiped, or recreated under a reused handle by forces outside
// this system. Handles are therefore volatile identity and are always
// paired with a fingerprint path (account-name/account-type/name) that
// callers re-verify before every privileged use.
//
// Error model, mirrored in every method:
//   - structural failure (store unreachable, malformed response):
//     non-nil error, no state may be trusted;
//   - logical absence (calendar or event does not exist): nil error with
//     a nil or zero result.
//
// Callers MUST keep the two apart: logical absence drives state
// transitions, a structural failure aborts the operation.
package calendar

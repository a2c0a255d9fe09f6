// Package planner reconciles the locally-authoritative plan registry
// with the external calendar store that mirrors plan schedules.
//
// The external store is treated as hostile: calendars can be deleted,
// wiped, or recreated under a reused handle outside this system's
// control. Four engines keep the two sides consistent without ever
// silently and permanently losing a plan:
//
//   - Verifier: confirms a configured handle still points at our
//     calendar, by fingerprint, never by handle alone.
//   - Provisioner: find-or-create of the dedicated planner calendar.
//   - Migrator: moves plan events when the configured calendar changes,
//     per plan, with partial-failure tolerance instead of a transaction.
//   - Restorer: rebuilds stale plan-event mappings in three tiers,
//     ending at the durable event cache.
//
// Concurrency: every operation is a synchronous, blocking call against
// a single registry and a single calendar store. Callers must serialize
// reconciliation passes; the engines read-then-write plan rows without
// optimistic concurrency control. A crash mid-migration leaves a valid,
// partially migrated state that a later restore pass repairs.
package planner

// Package store provides SQLite-backed durable storage for the plan
// registry, the event cache, and the persisted planner settings.
//
// Tables:
//   - plans: the locally-authoritative plan rows. plan_id is the nullable
//     foreign key into the external event store; uuid is the immutable
//     content fingerprint generated once at creation and never reused.
//   - event_cache: write-once copies of events this system deleted,
//     discovered later only by scanning descriptions for a uuid token.
//     Last-resort reconstruction source for the restoration engine.
//   - settings: three scalar entries (calendar handle, calendar
//     fingerprint path, last execution timestamp). Writes fire change
//     observers, which is how the migration engine learns about a
//     calendar switch.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// The registry is single-writer: the connection pool is capped at one
// connection, and callers serialize reconciliation passes themselves.
package store

// Package projection maps plan recurrence data onto the field set of the
// external calendar store, and back.
//
// The codec carries two compatibility rules inherited from the stores it
// has to interoperate with:
//
//   - End-or-duration shim: some store versions populated both an end
//     timestamp and an RFC 5545 duration on the same event, and stricter
//     versions reject inserts that carry both. Reads prefer the end
//     timestamp and fall back to duration ("P0S" when neither is set);
//     writes emit exactly one of the two. See Normalize.
//
//   - UUID-in-description addressing: the store offers no custom-property
//     channel that survives event recreation, so the plan's content
//     fingerprint is embedded as a token inside the free-text description.
//     Matching is delimited exact-token, never raw substring, so one UUID
//     can not be found inside a longer hex run. See ContainsUUID.
package projection

// Package sync implements the reconciliation engine that keeps the bucket
// store consistent with the legacy source store.
//
// A reconciliation cycle has three stages:
//
//   - Plan: compares the id/last-modified indexes of both stores and splits the
//     ids into three disjoint sets (create, delete, update). Planning is pure.
//   - Executor: launches one unit of work per planned id. Units are isolated:
//     a failure or panic in one unit is captured in that id's outcomes and
//     never cancels or blocks another unit.
//   - Reporter: folds the outcomes of each created or updated id into a status
//     block and writes it back onto the source record.
//
// # Core Interfaces
//
//   - Manager: runs one complete cycle (Plan, Executor, Reporter) and returns
//     a CycleResult. The coordinator subpackage drives it on a fixed delay
//     behind a leader gate.
//
// # Idempotence
//
// An id is only updated when the source timestamp is strictly newer than the
// bucket timestamp, so repeating a cycle over unchanged stores writes nothing.
// Source timestamps that cannot be parsed are never considered newer.
//
// # Error Handling
//
// Only the index fetches can fail a cycle; they are reported as *Error.
// Every per-id failure ends up in the outcomes of that id and is retried
// naturally on the next cycle. Status write-back failures are logged only.
package sync

// Package tasks orchestrates practice sessions and bulk operations against the backend.
//
// # Controller
//
// [Controller] holds the active repertoire's song store and view state and applies every
// user action to them:
//
//  1. View changes (sort, reverse, search, repertoire switch) only touch local state and
//     release the render lock.
//  2. Row actions (practice, priority, difficulty, target, skills, media, archive) lock the
//     rendered order, call the backend, then reload the store. Rows keep their positions
//     until the next view change.
//  3. Reorders (drop, move, save visual order) go through [ordering.Reconciler], which
//     submits the full order and reloads.
//
// Fetched songs, repertoires and skills are written to the optional [Cacher] so the list
// can be shown offline. Cache failures are logged and ignored.
//
// # Bulk Operations
//
// [BulkExport] writes one file per repertoire through a rate-limited worker pool, and
// [Dump] fetches the raw JSON of every list endpoint.
//
// # Progress Reporting
//
// Long-running operations send [ProgressUpdate] values on an optional channel. Updates use
// select with default to prevent blocking.
package tasks

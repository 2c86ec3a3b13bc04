// Package repositories implements the local SQLite cache of backend data.
//
// The cache is a read-only fallback for offline listing and export. It is replaced
// wholesale on every fetch and never written back to the backend, so there is no
// conflict resolution.
//
// Key Implementations:
//   - [RepertoireRepository] : repertoire list snapshot ordered by sort_order
//   - [SongRepository] : per-repertoire song snapshots with fetch timestamps
//   - [SkillRepository] : skills catalogue snapshot
//
// Rows keep the full backend JSON in a data column; the indexed columns exist only
// for lookups and ordering.
package repositories

// Package models defines the domain entities exchanged with the practice-tracking backend.
//
// The package contains two categories of types:
//
// 1. Library entities decoded from the REST API
//   - [Song] : a song with practice counters, tags and skill assignments
//   - [SkillAssignment] : tri-state mastery marker linking a song to a skill
//   - [Repertoire] : a named grouping of songs with default skills and ordering
//   - [Skill] : an entry of the global skills catalogue
//
// 2. Request and result payloads
//   - [SongInput], [RepertoireInput] : bodies for create/update calls
//   - [ReorderResult], [ShareResult], [TimePracticed], [SyncStats] : endpoint responses
//
// Derived values (practice progress, mastered counts, skill tiers) are computed here so that the
// ordering and rendering layers never re-implement the tri-state rules.
package models

package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Priority is the urgency tag of a song.
type Priority string

const (
	PriorityHigh Priority = "high"
	PriorityMid  Priority = "mid"
	PriorityLow  Priority = "low"
)

// Rank maps the priority to its sort rank, most urgent first.
//
// Unknown values rank as mid, the backend default.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// Next returns the priority the backend assigns on toggle (mid → high → low → mid).
func (p Priority) Next() Priority {
	switch p {
	case PriorityMid:
		return PriorityHigh
	case PriorityHigh:
		return PriorityLow
	default:
		return PriorityMid
	}
}

// Difficulty is the difficulty tag of a song.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// Rank maps the difficulty to its sort rank. A missing difficulty ranks as normal.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 0
	case DifficultyHard:
		return 2
	default:
		return 1
	}
}

// Next returns the difficulty the backend assigns on toggle (normal → easy → hard → normal).
func (d Difficulty) Next() Difficulty {
	switch d {
	case DifficultyEasy:
		return DifficultyHard
	case DifficultyHard:
		return DifficultyNormal
	default:
		return DifficultyEasy
	}
}

// Mastery is the tri-state is_mastered marker of a skill assignment.
//
// The wire format is null (not assigned), 0/false (assigned) or 1/true (mastered).
type Mastery int8

const (
	Unassigned Mastery = iota
	Unmastered
	Mastered
)

// Assigned reports whether the skill is assigned to the song at all.
func (m Mastery) Assigned() bool { return m != Unassigned }

// Tier is the skill sort value: 2 mastered, 1 assigned, 0 unassigned.
func (m Mastery) Tier() int {
	switch m {
	case Mastered:
		return 2
	case Unmastered:
		return 1
	default:
		return 0
	}
}

func (m *Mastery) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "null":
		*m = Unassigned
	case "0", "false":
		*m = Unmastered
	case "1", "true":
		*m = Mastered
	default:
		return fmt.Errorf("invalid is_mastered value %s", data)
	}
	return nil
}

func (m Mastery) MarshalJSON() ([]byte, error) {
	switch m {
	case Mastered:
		return []byte("1"), nil
	case Unmastered:
		return []byte("0"), nil
	default:
		return []byte("null"), nil
	}
}

// SkillAssignment links a song to a skill of the catalogue.
type SkillAssignment struct {
	SkillID    int     `json:"id"`
	Name       string  `json:"name"`
	IsMastered Mastery `json:"is_mastered"`
}

// Skill is an entry of the global skills catalogue.
type Skill struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Song is a practice item owned by a repertoire.
type Song struct {
	ID               int               `json:"id"`
	SongNumber       int               `json:"song_number"`
	Title            string            `json:"title"`
	Artist           string            `json:"artist"`
	Priority         Priority          `json:"priority"`
	Difficulty       Difficulty        `json:"difficulty,omitempty"`
	PracticeCount    int               `json:"practice_count"`
	PracticeTarget   int               `json:"practice_target"`
	PracticeProgress float64           `json:"practice_progress"`
	SkillsProgress   float64           `json:"skills_progress"`
	LastPracticed    string            `json:"last_practiced,omitempty"`
	ReleaseDate      string            `json:"release_date,omitempty"`
	Skills           []SkillAssignment `json:"skills"`
	RepertoireID     int               `json:"repertoire_id"`
	AudioPath        string            `json:"audio_path,omitempty"`
	ChartPath        string            `json:"chart_path,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	PerformanceHints string            `json:"performance_hints,omitempty"`
}

// UnmarshalJSON decodes a song and enforces one assignment per skill id (first wins).
//
// Null strings decode to "" and a missing difficulty defaults to normal.
func (s *Song) UnmarshalJSON(data []byte) error {
	type wire Song
	var w struct {
		wire
		LastPracticed *string `json:"last_practiced"`
		ReleaseDate   *string `json:"release_date"`
		AudioPath     *string `json:"audio_path"`
		ChartPath     *string `json:"chart_path"`
		Notes         *string `json:"notes"`
		Hints         *string `json:"performance_hints"`
		Difficulty    *string `json:"difficulty"`
		PracticeCount *int    `json:"practice_count"`
		Target        *int    `json:"practice_target"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*s = Song(w.wire)
	s.LastPracticed = deref(w.LastPracticed)
	s.ReleaseDate = deref(w.ReleaseDate)
	s.AudioPath = deref(w.AudioPath)
	s.ChartPath = deref(w.ChartPath)
	s.Notes = deref(w.Notes)
	s.PerformanceHints = deref(w.Hints)
	s.Difficulty = Difficulty(deref(w.Difficulty))
	if s.Difficulty == "" {
		s.Difficulty = DifficultyNormal
	}
	if w.PracticeCount != nil {
		s.PracticeCount = *w.PracticeCount
	}
	if w.Target != nil {
		s.PracticeTarget = *w.Target
	}

	seen := make(map[int]bool, len(s.Skills))
	skills := make([]SkillAssignment, 0, len(s.Skills))
	for _, sk := range s.Skills {
		if seen[sk.SkillID] {
			continue
		}
		seen[sk.SkillID] = true
		skills = append(skills, sk)
	}
	s.Skills = skills
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Progress is the practice percentage, capped at 100. A zero target yields 0.
func (s Song) Progress() float64 {
	if s.PracticeTarget <= 0 {
		return 0
	}
	return math.Min(100, float64(s.PracticeCount)/float64(s.PracticeTarget)*100)
}

// HasTarget reports whether the song tracks a practice target.
func (s Song) HasTarget() bool { return s.PracticeTarget > 0 }

// PracticeGap is the signed number of practice rounds left (target - count).
func (s Song) PracticeGap() int { return s.PracticeTarget - s.PracticeCount }

// AssignedSkills returns the skill assignments that are actually assigned to the song.
func (s Song) AssignedSkills() []SkillAssignment {
	assigned := make([]SkillAssignment, 0, len(s.Skills))
	for _, sk := range s.Skills {
		if sk.IsMastered.Assigned() {
			assigned = append(assigned, sk)
		}
	}
	return assigned
}

// MasteredCount counts mastered assigned skills.
func (s Song) MasteredCount() int {
	n := 0
	for _, sk := range s.Skills {
		if sk.IsMastered == Mastered {
			n++
		}
	}
	return n
}

// SkillTier returns the tier of the named skill for this song (0 when not assigned or unknown).
func (s Song) SkillTier(name string) int {
	for _, sk := range s.Skills {
		if sk.Name == name {
			return sk.IsMastered.Tier()
		}
	}
	return 0
}

// MediaKind selects one of the files linked to a song.
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaChart MediaKind = "chart"
)

// HasAudio reports whether an audio file is linked.
func (s Song) HasAudio() bool { return s.AudioPath != "" }

// HasChart reports whether a chart file is linked.
func (s Song) HasChart() bool { return s.ChartPath != "" }

// LastPracticedAt parses last_practiced. ok is false when the song was never practiced
// or the timestamp is not in a known layout.
func (s Song) LastPracticedAt() (t time.Time, ok bool) {
	return ParseTimestamp(s.LastPracticed)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the ISO-like timestamps the backend emits.
func ParseTimestamp(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MasterySummary counts skill mastery across songs.
type MasterySummary struct {
	Mastered int
	Assigned int
}

// Percent is the rounded mastered percentage, 0 when nothing is assigned.
func (m MasterySummary) Percent() int {
	if m.Assigned == 0 {
		return 0
	}
	return int(math.Round(float64(m.Mastered) / float64(m.Assigned) * 100))
}

// OverallMastery counts mastered and assigned skills over songs. Unassigned entries are ignored.
func OverallMastery(songs []Song) MasterySummary {
	var sum MasterySummary
	for _, s := range songs {
		for _, sk := range s.Skills {
			if !sk.IsMastered.Assigned() {
				continue
			}
			sum.Assigned++
			if sk.IsMastered == Mastered {
				sum.Mastered++
			}
		}
	}
	return sum
}

// Repertoire is a named grouping of songs.
type Repertoire struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	DefaultSkills    []Skill `json:"default_skills"`
	SongCount        int     `json:"song_count"`
	Notes            string  `json:"notes"`
	MP3Folder        string  `json:"mp3_folder"`
	SheetFolder      string  `json:"sheet_folder"`
	SonglistFolder   string  `json:"songlist_folder"`
	SortOrder        int     `json:"sort_order"`
	CopiedFromUserID *int    `json:"copied_from_user_id"`
	CopiedDate       string  `json:"copied_date"`
}

// UnmarshalJSON decodes a repertoire, mapping null strings to "".
func (r *Repertoire) UnmarshalJSON(data []byte) error {
	type wire Repertoire
	var w struct {
		wire
		Notes          *string `json:"notes"`
		MP3Folder      *string `json:"mp3_folder"`
		SheetFolder    *string `json:"sheet_folder"`
		SonglistFolder *string `json:"songlist_folder"`
		SortOrder      *int    `json:"sort_order"`
		CopiedDate     *string `json:"copied_date"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Repertoire(w.wire)
	r.Notes = deref(w.Notes)
	r.MP3Folder = deref(w.MP3Folder)
	r.SheetFolder = deref(w.SheetFolder)
	r.SonglistFolder = deref(w.SonglistFolder)
	r.CopiedDate = deref(w.CopiedDate)
	if w.SortOrder != nil {
		r.SortOrder = *w.SortOrder
	}
	return nil
}

// DefaultSkillIDs returns the ids of the skills seeded into new songs.
func (r Repertoire) DefaultSkillIDs() []int {
	ids := make([]int, len(r.DefaultSkills))
	for i, sk := range r.DefaultSkills {
		ids[i] = sk.ID
	}
	return ids
}

// User is the authenticated account.
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool { return u.Role == "admin" }

// SongInput is the body for creating or updating a song.
type SongInput struct {
	Title          string   `json:"title,omitempty"`
	Artist         string   `json:"artist,omitempty"`
	SongNumber     int      `json:"song_number,omitempty"`
	RepertoireID   int      `json:"repertoire_id,omitempty"`
	Priority       Priority `json:"priority,omitempty"`
	PracticeTarget *int     `json:"practice_target,omitempty"`
	ReleaseDate    string   `json:"release_date,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	Hints          string   `json:"performance_hints,omitempty"`
	SkillIDs       []int    `json:"skill_ids,omitempty"`
}

// RepertoireInput is the body for creating or updating a repertoire.
type RepertoireInput struct {
	Name           string  `json:"name,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	MP3Folder      *string `json:"mp3_folder,omitempty"`
	SheetFolder    *string `json:"sheet_folder,omitempty"`
	SonglistFolder *string `json:"songlist_folder,omitempty"`
	SkillIDs       []int   `json:"skill_ids,omitempty"`
}

// ReorderResult is returned by the song reorder endpoint.
type ReorderResult struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// ShareResult is returned when a repertoire is copied to another user.
type ShareResult struct {
	Message         string `json:"message"`
	NewRepertoireID int    `json:"new_repertoire_id"`
	SongsCopied     int    `json:"songs_copied"`
}

// TimePracticed summarises practice time for a repertoire.
type TimePracticed struct {
	Seconds   int    `json:"seconds"`
	Hours     int    `json:"hours"`
	Minutes   int    `json:"minutes"`
	Formatted string `json:"formatted"`
	StartDate string `json:"start_date"`
}

// SyncStats holds the counters reported by sync and undo-sync. The set of keys is backend-defined.
type SyncStats map[string]any

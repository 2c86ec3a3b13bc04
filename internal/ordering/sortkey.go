package ordering

import (
	"fmt"
	"strings"

	"github.com/desertthunder/rehearse/internal/shared"
)

// KeyKind enumerates the sort keys.
type KeyKind int

const (
	KeySongNumber KeyKind = iota
	KeyName
	KeyPriority
	KeyDifficulty
	KeyLastPracticed
	KeyReleaseDate
	KeySkillsMastered
	KeyPracticeGap
	KeyPracticeProgress
	KeySkill
)

const skillPrefix = "skill:"

var keyNames = map[KeyKind]string{
	KeySongNumber:       "song_number",
	KeyName:             "name",
	KeyPriority:         "priority",
	KeyDifficulty:       "difficulty",
	KeyLastPracticed:    "last_practiced",
	KeyReleaseDate:      "release_date",
	KeySkillsMastered:   "skills_mastered",
	KeyPracticeGap:      "practice_gap",
	KeyPracticeProgress: "practice_progress",
}

var keyLabels = map[KeyKind]string{
	KeySongNumber:       "#",
	KeyName:             "Name",
	KeyPriority:         "Priority",
	KeyDifficulty:       "Difficulty",
	KeyLastPracticed:    "Last practiced",
	KeyReleaseDate:      "Release date",
	KeySkillsMastered:   "Skills mastered",
	KeyPracticeGap:      "Practice gap",
	KeyPracticeProgress: "Progress",
}

// SortKey identifies a comparator. Skill carries the skill name for [KeySkill] only.
type SortKey struct {
	Kind  KeyKind
	Skill string
}

// DefaultKey is the canonical song_number ordering.
var DefaultKey = SortKey{Kind: KeySongNumber}

// SkillKey builds the per-skill key for name.
func SkillKey(name string) SortKey { return SortKey{Kind: KeySkill, Skill: name} }

// ParseSortKey resolves the wire name of a key, e.g. "priority" or "skill:Chords".
func ParseSortKey(v string) (SortKey, error) {
	if name, ok := strings.CutPrefix(v, skillPrefix); ok {
		if name == "" {
			return SortKey{}, fmt.Errorf("%w: missing skill name in %q", shared.ErrInvalidSortKey, v)
		}
		return SkillKey(name), nil
	}
	for kind, name := range keyNames {
		if name == v {
			return SortKey{Kind: kind}, nil
		}
	}
	return SortKey{}, fmt.Errorf("%w: %q", shared.ErrInvalidSortKey, v)
}

func (k SortKey) String() string {
	if k.Kind == KeySkill {
		return skillPrefix + k.Skill
	}
	return keyNames[k.Kind]
}

// Label is the human-readable key name.
func (k SortKey) Label() string {
	if k.Kind == KeySkill {
		return k.Skill
	}
	return keyLabels[k.Kind]
}

// IsDate reports whether the key applies reverse inside its own missing-value branch.
func (k SortKey) IsDate() bool {
	return k.Kind == KeyLastPracticed || k.Kind == KeyReleaseDate
}

// Keys lists the selectable keys: the fixed ones followed by one key per skill name.
func Keys(skills []string) []SortKey {
	keys := make([]SortKey, 0, int(KeySkill)+len(skills))
	for kind := KeySongNumber; kind < KeySkill; kind++ {
		keys = append(keys, SortKey{Kind: kind})
	}
	for _, name := range skills {
		keys = append(keys, SkillKey(name))
	}
	return keys
}

// KeyNames returns the wire names of the fixed keys.
func KeyNames() []string {
	names := make([]string, 0, len(keyNames))
	for kind := KeySongNumber; kind < KeySkill; kind++ {
		names = append(names, keyNames[kind])
	}
	return names
}

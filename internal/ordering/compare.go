package ordering

import (
	"cmp"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/desertthunder/rehearse/internal/models"
)

// Comparator orders two songs, returning a negative, zero or positive integer.
type Comparator func(a, b *models.Song) int

// ComparatorFor returns the comparator for key with the direction applied.
//
// Non-date keys are negated as a whole under reverse. The date keys take the flag into
// their missing-value branches:
//   - last_practiced: never practiced songs sort last in both directions
//   - release_date: songs without a date sort last ascending and first reversed
//
// Each call builds its own collator, so the result must not be shared across goroutines.
func ComparatorFor(key SortKey, reverse bool) Comparator {
	switch key.Kind {
	case KeyLastPracticed:
		return compareLastPracticed(reverse)
	case KeyReleaseDate:
		return compareReleaseDate(reverse)
	}

	base := baseComparator(key)
	if !reverse {
		return base
	}
	return func(a, b *models.Song) int { return -base(a, b) }
}

func baseComparator(key SortKey) Comparator {
	switch key.Kind {
	case KeyName:
		col := collate.New(language.Und)
		return func(a, b *models.Song) int {
			return col.CompareString(a.Title, b.Title)
		}
	case KeyPriority:
		return func(a, b *models.Song) int {
			return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
		}
	case KeyDifficulty:
		return func(a, b *models.Song) int {
			return cmp.Compare(a.Difficulty.Rank(), b.Difficulty.Rank())
		}
	case KeySkillsMastered:
		return func(a, b *models.Song) int {
			return cmp.Compare(a.MasteredCount(), b.MasteredCount())
		}
	case KeyPracticeGap:
		return func(a, b *models.Song) int {
			return cmp.Compare(a.PracticeGap(), b.PracticeGap())
		}
	case KeyPracticeProgress:
		return func(a, b *models.Song) int {
			return cmp.Compare(a.Progress(), b.Progress())
		}
	case KeySkill:
		name := key.Skill
		// higher tier first, so unassigned songs end up last
		return func(a, b *models.Song) int {
			return cmp.Compare(b.SkillTier(name), a.SkillTier(name))
		}
	default:
		return func(a, b *models.Song) int {
			return cmp.Compare(a.SongNumber, b.SongNumber)
		}
	}
}

func compareLastPracticed(reverse bool) Comparator {
	return func(a, b *models.Song) int {
		switch {
		case a.LastPracticed == "" && b.LastPracticed == "":
			return 0
		case a.LastPracticed == "":
			return 1
		case b.LastPracticed == "":
			return -1
		}

		var c int
		at, aok := a.LastPracticedAt()
		bt, bok := b.LastPracticedAt()
		if aok && bok {
			c = at.Compare(bt)
		} else {
			c = strings.Compare(a.LastPracticed, b.LastPracticed)
		}
		if reverse {
			return -c
		}
		return c
	}
}

func compareReleaseDate(reverse bool) Comparator {
	missing := 1
	if reverse {
		missing = -1
	}
	return func(a, b *models.Song) int {
		switch {
		case a.ReleaseDate == "" && b.ReleaseDate == "":
			return 0
		case a.ReleaseDate == "":
			return missing
		case b.ReleaseDate == "":
			return -missing
		}

		c := strings.Compare(a.ReleaseDate, b.ReleaseDate)
		if reverse {
			return -c
		}
		return c
	}
}

package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/rehearse/internal/formatter"
	"github.com/desertthunder/rehearse/internal/models"
)

var (
	_ list.Item         = songItem{}
	_ list.ItemDelegate = songDelegate{}
)

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song    *models.Song
	grabbed bool
}

func (i songItem) FilterValue() string { return i.song.Title }

// row renders the song as one line.
func (i songItem) row(now time.Time) string {
	s := i.song

	title := s.Title
	if s.Artist != "" {
		title = fmt.Sprintf("%s · %s", s.Title, s.Artist)
	}

	count := fmt.Sprintf("%d", s.PracticeCount)
	if s.HasTarget() {
		count = fmt.Sprintf("%d/%d", s.PracticeCount, s.PracticeTarget)
	}

	var media string
	if s.HasAudio() {
		media += "♪"
	}
	if s.HasChart() {
		media += "▤"
	}

	return fmt.Sprintf("%3d  %-40s %-4s %-6s %-7s %-14s %s %s",
		s.SongNumber, truncate(title, 40), s.Priority, s.Difficulty, count,
		formatter.LastPracticed(s, now), skillBadges(s), media)
}

// skillBadges numbers the assigned skills the way the 1-9 keys address them.
func skillBadges(s *models.Song) string {
	assigned := s.AssignedSkills()
	parts := make([]string, 0, len(assigned))
	for n, sk := range assigned {
		mark := "·"
		if sk.IsMastered == models.Mastered {
			mark = "✓"
		}
		parts = append(parts, fmt.Sprintf("%d:%s%s", n+1, sk.Name, mark))
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// songDelegate draws one line per song.
type songDelegate struct {
	now func() time.Time
}

func (d songDelegate) Height() int                             { return 1 }
func (d songDelegate) Spacing() int                            { return 0 }
func (d songDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d songDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(songItem)
	if !ok {
		return
	}

	line := it.row(d.now())
	switch {
	case it.grabbed:
		line = styles.grabbed.Render("» " + line)
	case index == m.Index():
		line = styles.selected.Render("> " + line)
	default:
		line = "  " + line
	}
	fmt.Fprint(w, line)
}

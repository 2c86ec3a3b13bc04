// package formatter renders repertoires for export (CSV, Markdown, plain text, JSON) and songs as CLI tables
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/desertthunder/rehearse/internal/models"
	"github.com/desertthunder/rehearse/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or its common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	case FormatJSON:
		return ".json"
	default:
		return ".csv"
	}
}

// Mastery is the exported overall mastery block.
type Mastery struct {
	Mastered int `json:"mastered"`
	Assigned int `json:"assigned"`
	Percent  int `json:"percent"`
}

// Export is one repertoire with its songs in rendered order.
type Export struct {
	Repertoire models.Repertoire `json:"repertoire"`
	Sort       string            `json:"sort"`
	Songs      []*models.Song    `json:"songs"`
	Mastery    Mastery           `json:"mastery"`
	ExportedAt time.Time         `json:"exported_at"`
}

// NewExport builds an export, computing mastery over the exported songs.
func NewExport(rep models.Repertoire, sort string, songs []*models.Song) *Export {
	plain := make([]models.Song, len(songs))
	for i, s := range songs {
		plain[i] = *s
	}
	sum := models.OverallMastery(plain)

	return &Export{
		Repertoire: rep,
		Sort:       sort,
		Songs:      songs,
		Mastery:    Mastery{Mastered: sum.Mastered, Assigned: sum.Assigned, Percent: sum.Percent()},
		ExportedAt: time.Now(),
	}
}

// skillsCell renders assigned skills as "Chords*, Solo" with mastered ones starred.
func skillsCell(s *models.Song) string {
	parts := []string{}
	for _, sk := range s.AssignedSkills() {
		name := sk.Name
		if sk.IsMastered == models.Mastered {
			name += "*"
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, ", ")
}

func practiceCell(s *models.Song) string {
	if !s.HasTarget() {
		return strconv.Itoa(s.PracticeCount)
	}
	return fmt.Sprintf("%d/%d", s.PracticeCount, s.PracticeTarget)
}

// ExportToCSV writes one row per song in export order.
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Number", "Title", "Artist", "Priority", "Difficulty", "Practice Count", "Practice Target", "Last Practiced", "Release Date", "Skills"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, s := range export.Songs {
		record := []string{
			strconv.Itoa(s.SongNumber),
			s.Title,
			s.Artist,
			string(s.Priority),
			string(s.Difficulty),
			strconv.Itoa(s.PracticeCount),
			strconv.Itoa(s.PracticeTarget),
			s.LastPracticed,
			s.ReleaseDate,
			skillsCell(s),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading, summary and a song table.
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Repertoire.Name)
	if export.Repertoire.Notes != "" {
		fmt.Fprintf(&buf, "**Notes**: %s\n\n", export.Repertoire.Notes)
	}

	fmt.Fprintf(&buf, "**Songs**: %d\n", len(export.Songs))
	fmt.Fprintf(&buf, "**Sort**: %s\n", export.Sort)
	fmt.Fprintf(&buf, "**Mastery**: %d%% (%d/%d skills)\n\n", export.Mastery.Percent, export.Mastery.Mastered, export.Mastery.Assigned)

	buf.WriteString("## Songs\n\n")
	buf.WriteString("| # | Title | Artist | Priority | Practice | Skills |\n")
	buf.WriteString("|---|-------|--------|----------|----------|--------|\n")
	for _, s := range export.Songs {
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s | %s |\n",
			s.SongNumber, escapeCell(s.Title), escapeCell(s.Artist), s.Priority, practiceCell(s), escapeCell(skillsCell(s)))
	}

	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ExportToText renders a numbered plain text setlist.
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Repertoire: %s\n", export.Repertoire.Name)
	if export.Repertoire.Notes != "" {
		fmt.Fprintf(&buf, "Notes: %s\n", export.Repertoire.Notes)
	}
	fmt.Fprintf(&buf, "Songs: %d\n\n", len(export.Songs))

	for _, s := range export.Songs {
		if s.Artist == "" {
			fmt.Fprintf(&buf, "%d. %s\n", s.SongNumber, s.Title)
			continue
		}
		fmt.Fprintf(&buf, "%d. %s - %s\n", s.SongNumber, s.Artist, s.Title)
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes the whole export.
func ExportToJSON(export *Export) ([]byte, error) {
	data, err := shared.MarshalJSON(export, true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

// Render dispatches on format.
func Render(export *Export, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatText:
		return ExportToText(export)
	case FormatJSON:
		return ExportToJSON(export)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
}

// Slug turns a repertoire name into a file name stem: accents stripped, lowercased,
// non-alphanumerics collapsed to single dashes.
func Slug(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// WriteExport renders export and writes it into dir as {id}-{slug}{ext}, returning the path.
func WriteExport(export *Export, format Format, dir string) (string, error) {
	data, err := Render(export, format)
	if err != nil {
		return "", fmt.Errorf("failed to render export: %w", err)
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	stem := strconv.Itoa(export.Repertoire.ID)
	if slug := Slug(export.Repertoire.Name); slug != "" {
		stem += "-" + slug
	}
	path := filepath.Join(dir, stem+format.Extension())

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// LastPracticed renders last_practiced relative to now, "never" when missing and the
// raw value when it does not parse.
func LastPracticed(s *models.Song, now time.Time) string {
	if s.LastPracticed == "" {
		return "never"
	}
	t, ok := s.LastPracticedAt()
	if !ok {
		return s.LastPracticed
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Bytes renders a byte count, e.g. "42 kB".
func Bytes(n int) string {
	return humanize.Bytes(uint64(n))
}

// WriteSongTable prints songs as an aligned table.
func WriteSongTable(w io.Writer, songs []*models.Song, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "#\tID\tTITLE\tARTIST\tPRI\tDIFF\tPRACTICE\tSKILLS\tLAST PRACTICED")
	for _, s := range songs {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			s.SongNumber, s.ID, s.Title, s.Artist, s.Priority, s.Difficulty,
			practiceCell(s), s.MasteredCount(), len(s.AssignedSkills()), LastPracticed(s, now))
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

// WriteRepertoireTable prints repertoires as an aligned table.
func WriteRepertoireTable(w io.Writer, reps []models.Repertoire) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "ID\tNAME\tSONGS\tDEFAULT SKILLS")
	for _, r := range reps {
		names := make([]string, len(r.DefaultSkills))
		for i, sk := range r.DefaultSkills {
			names[i] = sk.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Name, humanize.Comma(int64(r.SongCount)), strings.Join(names, ", "))
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

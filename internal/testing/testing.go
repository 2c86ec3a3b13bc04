// package testing contains shared testing utilities
package testing

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/rehearse/internal/models"
	"github.com/desertthunder/rehearse/internal/shared"
)

// MockService is an in-memory test double for [services.Service].
//
// Mutations behave like the real backend closely enough for reload-driven callers:
// reorder renumbers song_number 1..N, toggles cycle tags. Errs injects a failure per
// method name.
type MockService struct {
	mu sync.Mutex

	Songs       []models.Song
	Repertoires []models.Repertoire
	Skills      []models.Skill
	User        *models.User
	PDF         []byte

	Errs     map[string]error
	Calls    []string
	Reorders [][]int
	nextID   int
}

// NewMockService returns a fake seeded with songs and repertoires.
func NewMockService(songs []models.Song, reps []models.Repertoire) *MockService {
	m := &MockService{
		Songs:       slices.Clone(songs),
		Repertoires: slices.Clone(reps),
		User:        &models.User{ID: 1, Email: "tester@example.com", Role: "admin"},
		Errs:        map[string]error{},
		nextID:      1000,
	}
	return m
}

// record logs the call and returns the injected error for name, if any.
func (m *MockService) record(name string) error {
	m.Calls = append(m.Calls, name)
	return m.Errs[name]
}

// CallCount returns how many times name was called.
func (m *MockService) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *MockService) song(id int) (*models.Song, error) {
	for i := range m.Songs {
		if m.Songs[i].ID == id {
			return &m.Songs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
}

func (m *MockService) repertoire(id int) (*models.Repertoire, error) {
	for i := range m.Repertoires {
		if m.Repertoires[i].ID == id {
			return &m.Repertoires[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", shared.ErrRepertoireNotFound, id)
}

func (m *MockService) Login(ctx context.Context, email, password string, remember bool) (*models.User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Login"); err != nil {
		return nil, "", err
	}
	u := *m.User
	u.Email = email
	return &u, shared.SessionCookieName + "=mock", nil
}

func (m *MockService) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("Logout")
}

func (m *MockService) Me(ctx context.Context) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Me"); err != nil {
		return nil, err
	}
	u := *m.User
	return &u, nil
}

func (m *MockService) ListSongs(ctx context.Context, repertoireID *int) ([]models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListSongs"); err != nil {
		return nil, err
	}

	var out []models.Song
	for _, s := range m.Songs {
		if repertoireID == nil || s.RepertoireID == *repertoireID {
			s.Skills = slices.Clone(s.Skills)
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Song) int { return cmp.Compare(a.SongNumber, b.SongNumber) })
	return out, nil
}

func (m *MockService) CreateSong(ctx context.Context, in models.SongInput) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateSong"); err != nil {
		return 0, err
	}
	m.nextID++
	s := models.Song{
		ID:           m.nextID,
		SongNumber:   in.SongNumber,
		Title:        in.Title,
		Artist:       in.Artist,
		Priority:     cmp.Or(in.Priority, models.PriorityMid),
		Difficulty:   models.DifficultyNormal,
		RepertoireID: in.RepertoireID,
		ReleaseDate:  in.ReleaseDate,
		Notes:        in.Notes,
	}
	if in.PracticeTarget != nil {
		s.PracticeTarget = *in.PracticeTarget
	}
	m.Songs = append(m.Songs, s)
	return s.ID, nil
}

func (m *MockService) UpdateSong(ctx context.Context, id int, in models.SongInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateSong"); err != nil {
		return err
	}
	s, err := m.song(id)
	if err != nil {
		return err
	}
	s.Title = cmp.Or(in.Title, s.Title)
	s.Artist = cmp.Or(in.Artist, s.Artist)
	s.Notes = cmp.Or(in.Notes, s.Notes)
	return nil
}

func (m *MockService) DeleteSong(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteSong"); err != nil {
		return err
	}
	return m.remove(id)
}

func (m *MockService) remove(id int) error {
	i := slices.IndexFunc(m.Songs, func(s models.Song) bool { return s.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	m.Songs = slices.Delete(m.Songs, i, i+1)
	return nil
}

// mutate applies fn to song id under the lock.
func (m *MockService) mutate(name string, id int, fn func(*models.Song)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(name); err != nil {
		return err
	}
	s, err := m.song(id)
	if err != nil {
		return err
	}
	fn(s)
	return nil
}

func (m *MockService) PracticeSong(ctx context.Context, id int) error {
	return m.mutate("PracticeSong", id, func(s *models.Song) {
		s.PracticeCount++
		s.LastPracticed = "2025-01-01T12:00:00"
	})
}

func (m *MockService) TogglePriority(ctx context.Context, id int) error {
	return m.mutate("TogglePriority", id, func(s *models.Song) { s.Priority = s.Priority.Next() })
}

func (m *MockService) ToggleDifficulty(ctx context.Context, id int) error {
	return m.mutate("ToggleDifficulty", id, func(s *models.Song) { s.Difficulty = s.Difficulty.Next() })
}

func (m *MockService) IncreaseTarget(ctx context.Context, id int) error {
	return m.mutate("IncreaseTarget", id, func(s *models.Song) { s.PracticeTarget++ })
}

func (m *MockService) ArchiveSong(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ArchiveSong"); err != nil {
		return err
	}
	return m.remove(id)
}

func (m *MockService) ToggleSkill(ctx context.Context, songID, skillID int) error {
	return m.mutate("ToggleSkill", songID, func(s *models.Song) {
		for i := range s.Skills {
			if s.Skills[i].SkillID == skillID {
				if s.Skills[i].IsMastered == models.Mastered {
					s.Skills[i].IsMastered = models.Unmastered
				} else {
					s.Skills[i].IsMastered = models.Mastered
				}
			}
		}
	})
}

func (m *MockService) SetMedia(ctx context.Context, id int, kind models.MediaKind, path string) error {
	return m.mutate("SetMedia", id, func(s *models.Song) {
		if kind == models.MediaAudio {
			s.AudioPath = path
		} else {
			s.ChartPath = path
		}
	})
}

// ReorderSongs renumbers the listed songs 1..k and appends the rest of the repertoire
// in their previous order.
func (m *MockService) ReorderSongs(ctx context.Context, orderedIDs []int, repertoireID *int) (*models.ReorderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ReorderSongs"); err != nil {
		return nil, err
	}
	m.Reorders = append(m.Reorders, slices.Clone(orderedIDs))

	inScope := func(s models.Song) bool { return repertoireID == nil || s.RepertoireID == *repertoireID }
	for _, id := range orderedIDs {
		s, err := m.song(id)
		if err != nil || !inScope(*s) {
			return nil, fmt.Errorf("%w: invalid song id %d in ordered_ids", shared.ErrAPIRequest, id)
		}
	}

	var rest []*models.Song
	for i := range m.Songs {
		if inScope(m.Songs[i]) && !slices.Contains(orderedIDs, m.Songs[i].ID) {
			rest = append(rest, &m.Songs[i])
		}
	}
	slices.SortStableFunc(rest, func(a, b *models.Song) int { return cmp.Compare(a.SongNumber, b.SongNumber) })

	n := 0
	for _, id := range orderedIDs {
		s, _ := m.song(id)
		n++
		s.SongNumber = n
	}
	for _, s := range rest {
		n++
		s.SongNumber = n
	}
	return &models.ReorderResult{Message: "Order updated", Count: n}, nil
}

func (m *MockService) ListRepertoires(ctx context.Context) ([]models.Repertoire, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListRepertoires"); err != nil {
		return nil, err
	}
	out := slices.Clone(m.Repertoires)
	for i := range out {
		out[i].SongCount = 0
		for _, s := range m.Songs {
			if s.RepertoireID == out[i].ID {
				out[i].SongCount++
			}
		}
	}
	slices.SortStableFunc(out, func(a, b models.Repertoire) int { return cmp.Compare(a.SortOrder, b.SortOrder) })
	return out, nil
}

func (m *MockService) CreateRepertoire(ctx context.Context, in models.RepertoireInput) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateRepertoire"); err != nil {
		return 0, err
	}
	m.nextID++
	m.Repertoires = append(m.Repertoires, models.Repertoire{ID: m.nextID, Name: in.Name, SortOrder: len(m.Repertoires)})
	return m.nextID, nil
}

func (m *MockService) UpdateRepertoire(ctx context.Context, id int, in models.RepertoireInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateRepertoire"); err != nil {
		return err
	}
	r, err := m.repertoire(id)
	if err != nil {
		return err
	}
	r.Name = cmp.Or(in.Name, r.Name)
	if in.Notes != nil {
		r.Notes = *in.Notes
	}
	return nil
}

func (m *MockService) DeleteRepertoire(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteRepertoire"); err != nil {
		return err
	}
	i := slices.IndexFunc(m.Repertoires, func(r models.Repertoire) bool { return r.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %d", shared.ErrRepertoireNotFound, id)
	}
	m.Repertoires = slices.Delete(m.Repertoires, i, i+1)
	return nil
}

func (m *MockService) ReorderRepertoires(ctx context.Context, order []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ReorderRepertoires"); err != nil {
		return err
	}
	for pos, id := range order {
		if r, err := m.repertoire(id); err == nil {
			r.SortOrder = pos
		}
	}
	return nil
}

func (m *MockService) SyncRepertoire(ctx context.Context, id int) (models.SyncStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SyncRepertoire"); err != nil {
		return nil, err
	}
	return models.SyncStats{"added": 0, "updated": 0}, nil
}

func (m *MockService) UndoSyncRepertoire(ctx context.Context, id int) (models.SyncStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UndoSyncRepertoire"); err != nil {
		return nil, err
	}
	return models.SyncStats{"restored": 0}, nil
}

func (m *MockService) ArchiveRepertoire(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ArchiveRepertoire"); err != nil {
		return err
	}
	_, err := m.repertoire(id)
	return err
}

func (m *MockService) ShareRepertoire(ctx context.Context, id, targetUserID int) (*models.ShareResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ShareRepertoire"); err != nil {
		return nil, err
	}
	n := 0
	for _, s := range m.Songs {
		if s.RepertoireID == id {
			n++
		}
	}
	m.nextID++
	return &models.ShareResult{Message: "Repertoire shared", NewRepertoireID: m.nextID, SongsCopied: n}, nil
}

func (m *MockService) TimePracticed(ctx context.Context, id int) (*models.TimePracticed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("TimePracticed"); err != nil {
		return nil, err
	}
	return &models.TimePracticed{Seconds: 3900, Hours: 1, Minutes: 5, Formatted: "1h 5m"}, nil
}

func (m *MockService) SetlistPDF(ctx context.Context, id int, maxSongNumber *int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SetlistPDF"); err != nil {
		return nil, err
	}
	if m.PDF == nil {
		return []byte("%PDF-1.4 mock"), nil
	}
	return m.PDF, nil
}

func (m *MockService) AddSkillsToSongs(ctx context.Context, id int, skillIDs []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("AddSkillsToSongs")
}

func (m *MockService) ListSkills(ctx context.Context) ([]models.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListSkills"); err != nil {
		return nil, err
	}
	return slices.Clone(m.Skills), nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

package tasks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/desertthunder/rehearse/internal/models"
	"github.com/desertthunder/rehearse/internal/ordering"
	"github.com/desertthunder/rehearse/internal/repositories"
	"github.com/desertthunder/rehearse/internal/services"
	"github.com/desertthunder/rehearse/internal/shared"
	tu "github.com/desertthunder/rehearse/internal/testing"
)

func fixtureSongs() []models.Song {
	return []models.Song{
		{ID: 1, SongNumber: 1, Title: "Alpha", RepertoireID: 1, Priority: models.PriorityLow, Difficulty: models.DifficultyNormal,
			Skills: []models.SkillAssignment{
				{SkillID: 1, Name: "Chords", IsMastered: models.Mastered},
				{SkillID: 2, Name: "Solo", IsMastered: models.Unassigned},
				{SkillID: 3, Name: "Vocals", IsMastered: models.Unmastered},
			}},
		{ID: 2, SongNumber: 2, Title: "Bravo", RepertoireID: 1, Priority: models.PriorityMid, Difficulty: models.DifficultyHard,
			Skills: []models.SkillAssignment{{SkillID: 1, Name: "Chords", IsMastered: models.Unmastered}}},
		{ID: 3, SongNumber: 3, Title: "Charlie", RepertoireID: 1, Priority: models.PriorityHigh, Difficulty: models.DifficultyEasy},
		{ID: 4, SongNumber: 1, Title: "Delta", RepertoireID: 2, Priority: models.PriorityMid},
	}
}

func fixtureRepertoires() []models.Repertoire {
	return []models.Repertoire{
		{ID: 1, Name: "Pub Night", SortOrder: 0},
		{ID: 2, Name: "Wedding", SortOrder: 1},
	}
}

func newTestController(t *testing.T, opts ControllerOpts) (*Controller, *tu.MockService) {
	t.Helper()
	mock := tu.NewMockService(fixtureSongs(), fixtureRepertoires())
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	c := NewController(mock, opts)

	repID := 1
	if err := c.SwitchRepertoire(context.Background(), &repID); err != nil {
		t.Fatalf("failed to load repertoire: %v", err)
	}
	return c, mock
}

func renderedIDs(c *Controller) []int {
	return ordering.IDs(c.Render())
}

func TestController(t *testing.T) {
	ctx := context.Background()

	t.Run("SwitchRepertoire", func(t *testing.T) {
		c, mock := newTestController(t, ControllerOpts{})

		if got := renderedIDs(c); !slices.Equal(got, []int{1, 2, 3}) {
			t.Errorf("expected [1 2 3], got %v", got)
		}

		other := 2
		c.SelectSort(ordering.SortKey{Kind: ordering.KeyPriority})
		c.Render()
		c.state.BeginRowAction()
		if err := c.SwitchRepertoire(ctx, &other); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.state.Lock.Locked || len(c.state.Lock.Snapshot) != 0 {
			t.Errorf("expected lock to be dropped, got %+v", &c.state.Lock)
		}
		if got := renderedIDs(c); !slices.Equal(got, []int{4}) {
			t.Errorf("expected [4], got %v", got)
		}
		if mock.CallCount("ListSongs") != 2 {
			t.Errorf("expected 2 loads, got %d", mock.CallCount("ListSongs"))
		}
	})

	t.Run("Initial Sort", func(t *testing.T) {
		sort := ordering.DefaultSort()
		sort.Select(ordering.SortKey{Kind: ordering.KeyPriority})
		c, _ := newTestController(t, ControllerOpts{Sort: &sort})

		if got := renderedIDs(c); !slices.Equal(got, []int{3, 2, 1}) {
			t.Errorf("expected [3 2 1], got %v", got)
		}
	})

	t.Run("Row Action Holds Order Until View Change", func(t *testing.T) {
		c, mock := newTestController(t, ControllerOpts{})
		c.SelectSort(ordering.SortKey{Kind: ordering.KeyPriority})

		if got := renderedIDs(c); !slices.Equal(got, []int{3, 2, 1}) {
			t.Fatalf("expected [3 2 1], got %v", got)
		}

		if err := c.TogglePriority(ctx, 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if song, _ := c.store.Lookup(1); song.Priority != models.PriorityMid {
			t.Fatalf("expected reloaded priority mid, got %s", song.Priority)
		}
		if got := renderedIDs(c); !slices.Equal(got, []int{3, 2, 1}) {
			t.Errorf("expected locked order [3 2 1], got %v", got)
		}

		c.Search("")
		if got := renderedIDs(c); !slices.Equal(got, []int{3, 1, 2}) {
			t.Errorf("expected [3 1 2] after unlock, got %v", got)
		}
		if mock.CallCount("ListSongs") != 2 {
			t.Errorf("expected one reload after the action, got %d loads", mock.CallCount("ListSongs"))
		}
	})

	t.Run("Row Actions Reach Backend", func(t *testing.T) {
		c, mock := newTestController(t, ControllerOpts{})

		c.Practice(ctx, 2)
		c.ToggleDifficulty(ctx, 2)
		c.IncreaseTarget(ctx, 2)
		c.SetMedia(ctx, 2, models.MediaAudio, "/music/bravo.mp3")

		song, _ := c.store.Lookup(2)
		if song.PracticeCount != 1 || song.Difficulty != models.DifficultyNormal || song.PracticeTarget != 1 || !song.HasAudio() {
			t.Errorf("unexpected song after actions %+v", song)
		}

		if err := c.Archive(ctx, 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := c.store.Lookup(2); ok {
			t.Error("expected archived song to drop out on reload")
		}
		if got := renderedIDs(c); !slices.Equal(got, []int{1, 3}) {
			t.Errorf("expected locked snapshot minus archived song, got %v", got)
		}
		if mock.CallCount("ListSongs") != 6 {
			t.Errorf("expected a reload per action, got %d", mock.CallCount("ListSongs"))
		}
	})

	t.Run("Row Action Failure Skips Reload", func(t *testing.T) {
		c, mock := newTestController(t, ControllerOpts{})
		mock.Errs["PracticeSong"] = &services.APIError{Status: 404, Message: "Song not found"}

		err := c.Practice(ctx, 1)
		if services.UserMessage(err) != "Song not found" {
			t.Errorf("expected server text, got %v", err)
		}
		if mock.CallCount("ListSongs") != 1 {
			t.Errorf("expected no reload, got %d loads", mock.CallCount("ListSongs"))
		}
		if !c.state.Lock.Locked {
			t.Error("expected lock to stay held")
		}
	})

	t.Run("ToggleNthSkill", func(t *testing.T) {
		c, mock := newTestController(t, ControllerOpts{})

		if err := c.ToggleNthSkill(ctx, 1, 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		song, _ := c.store.Lookup(1)
		if song.Skills[2].IsMastered != models.Mastered {
			t.Errorf("expected second assigned skill (Vocals) to toggle, got %+v", song.Skills)
		}

		if err := c.ToggleNthSkill(ctx, 1, 3); !errors.Is(err, shared.ErrSkillNotFound) {
			t.Errorf("expected ErrSkillNotFound, got %v", err)
		}
		if err := c.ToggleNthSkill(ctx, 99, 1); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
		if mock.CallCount("ToggleSkill") != 1 {
			t.Errorf("expected one toggle, got %d", mock.CallCount("ToggleSkill"))
		}
	})

	t.Run("Mastery Ignores Unassigned", func(t *testing.T) {
		c, _ := newTestController(t, ControllerOpts{})

		m := c.Mastery()
		if m.Mastered != 1 || m.Assigned != 3 || m.Percent() != 33 {
			t.Errorf("unexpected mastery %+v", m)
		}
	})

	t.Run("SortKeys", func(t *testing.T) {
		c, mock := newTestController(t, ControllerOpts{})

		keys := c.SortKeys()
		if last := keys[len(keys)-1]; last != ordering.SkillKey("Vocals") {
			t.Errorf("expected skill keys from songs, got %v", keys)
		}

		mock.Skills = []models.Skill{{ID: 9, Name: "Theory"}}
		if _, err := c.LoadSkills(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		keys = c.SortKeys()
		if last := keys[len(keys)-1]; last != ordering.SkillKey("Theory") {
			t.Errorf("expected skill keys from catalogue, got %v", keys)
		}
	})
}

func TestControllerReorder(t *testing.T) {
	ctx := context.Background()

	t.Run("Unchanged Drop Sends Nothing", func(t *testing.T) {
		c, mock := newTestController(t, ControllerOpts{})
		rendered := renderedIDs(c)

		outcome, err := c.Drop(ctx, rendered)
		if err != nil || outcome != ordering.Unchanged {
			t.Errorf("expected unchanged, got %v, %v", outcome, err)
		}
		if mock.CallCount("ReorderSongs") != 0 {
			t.Error("expected no reorder request")
		}
	})

	t.Run("Drop Submits And Reloads", func(t *testing.T) {
		c, mock := newTestController(t, ControllerOpts{})
		renderedIDs(c)

		outcome, err := c.Drop(ctx, []int{2, 3, 1})
		if err != nil || outcome != ordering.Submitted {
			t.Fatalf("expected submitted, got %v, %v", outcome, err)
		}
		if !slices.Equal(mock.Reorders[0], []int{2, 3, 1}) {
			t.Errorf("unexpected submitted order %v", mock.Reorders[0])
		}
		if got := renderedIDs(c); !slices.Equal(got, []int{2, 3, 1}) {
			t.Errorf("expected renumbered order [2 3 1], got %v", got)
		}
	})

	t.Run("Drop Refused Under Other Sort", func(t *testing.T) {
		c, mock := newTestController(t, ControllerOpts{})
		c.SelectSort(ordering.SortKey{Kind: ordering.KeyName})
		renderedIDs(c)

		if _, err := c.Drop(ctx, []int{3, 2, 1}); !errors.Is(err, shared.ErrDragDisabled) {
			t.Errorf("expected ErrDragDisabled, got %v", err)
		}
		if _, err := c.Move(ctx, 1, 1); !errors.Is(err, shared.ErrDragDisabled) {
			t.Errorf("expected ErrDragDisabled, got %v", err)
		}
		if mock.CallCount("ReorderSongs") != 0 {
			t.Error("expected no reorder request")
		}
	})

	t.Run("Drop Refused While Searching", func(t *testing.T) {
		c, _ := newTestController(t, ControllerOpts{})
		c.Search("a")

		if _, err := c.Drop(ctx, []int{3, 1}); !errors.Is(err, shared.ErrDragDisabled) {
			t.Errorf("expected ErrDragDisabled, got %v", err)
		}
	})

	t.Run("Move", func(t *testing.T) {
		c, mock := newTestController(t, ControllerOpts{})

		outcome, err := c.Move(ctx, 3, -2)
		if err != nil || outcome != ordering.Submitted {
			t.Fatalf("expected submitted, got %v, %v", outcome, err)
		}
		if !slices.Equal(mock.Reorders[0], []int{3, 1, 2}) {
			t.Errorf("unexpected submitted order %v", mock.Reorders[0])
		}

		if _, err := c.Move(ctx, 42, 1); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("Move After Row Action Renders New Order", func(t *testing.T) {
		c, mock := newTestController(t, ControllerOpts{})

		if err := c.Practice(ctx, 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !c.state.Lock.Locked {
			t.Fatal("expected row action to lock the order")
		}

		outcome, err := c.Move(ctx, 3, -2)
		if err != nil || outcome != ordering.Submitted {
			t.Fatalf("expected submitted, got %v, %v", outcome, err)
		}
		if c.state.Lock.Locked {
			t.Error("expected accepted reorder to release the lock")
		}
		if got := renderedIDs(c); !slices.Equal(got, []int{3, 1, 2}) {
			t.Errorf("expected renumbered order [3 1 2], got %v", got)
		}

		if _, err := c.Move(ctx, 1, 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mock.Reorders) != 2 || !slices.Equal(mock.Reorders[1], []int{3, 2, 1}) {
			t.Errorf("expected second move to build on [3 1 2], got %v", mock.Reorders)
		}
	})

	t.Run("Failed Drop Keeps Store", func(t *testing.T) {
		c, mock := newTestController(t, ControllerOpts{})
		mock.Errs["ReorderSongs"] = &services.APIError{Status: 400, Message: "Invalid song id in ordered_ids"}
		renderedIDs(c)

		outcome, err := c.Drop(ctx, []int{2, 1, 3})
		if err != nil || outcome != ordering.Failed {
			t.Errorf("expected failed without error, got %v, %v", outcome, err)
		}
		if mock.CallCount("ListSongs") != 1 {
			t.Error("expected no reload after failed reorder")
		}
	})

	t.Run("SaveVisualOrder", func(t *testing.T) {
		c, mock := newTestController(t, ControllerOpts{})
		c.SelectSort(ordering.SortKey{Kind: ordering.KeyPriority})

		outcome, err := c.SaveVisualOrder(ctx)
		if err != nil || outcome != ordering.Submitted {
			t.Fatalf("expected submitted, got %v, %v", outcome, err)
		}
		if !slices.Equal(mock.Reorders[0], []int{3, 2, 1}) {
			t.Errorf("expected rendered priority order, got %v", mock.Reorders[0])
		}
		if c.state.Sort.Key != ordering.DefaultKey || c.state.Sort.History != nil {
			t.Errorf("expected sort reset, got %+v", c.state.Sort)
		}
		if got := renderedIDs(c); !slices.Equal(got, []int{3, 2, 1}) {
			t.Errorf("expected new canonical order, got %v", got)
		}
	})
}

type failingCache struct{ calls int }

func (f *failingCache) CacheRepertoires([]models.Repertoire) error { f.calls++; return errors.New("disk full") }
func (f *failingCache) CacheSongs(*int, []models.Song) error       { f.calls++; return errors.New("disk full") }
func (f *failingCache) CacheSkills([]models.Skill) error           { f.calls++; return errors.New("disk full") }
func (f *failingCache) CachedRepertoires() ([]models.Repertoire, error) {
	return nil, shared.ErrCacheMiss
}
func (f *failingCache) CachedSongs(*int) ([]models.Song, error) { return nil, shared.ErrCacheMiss }

func TestControllerCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Reload Fills Cache For Offline Use", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		cache := repositories.NewCache(db)

		online, _ := newTestController(t, ControllerOpts{Cache: cache})
		if _, err := online.LoadRepertoires(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		offline := NewController(tu.NewMockService(nil, nil), ControllerOpts{Cache: cache, Logger: shared.NewLogger(io.Discard)})
		repID := 1
		if err := offline.LoadOffline(&repID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := renderedIDs(offline); !slices.Equal(got, []int{1, 2, 3}) {
			t.Errorf("expected cached songs [1 2 3], got %v", got)
		}
		if len(offline.Repertoires()) != 2 {
			t.Errorf("expected cached repertoires, got %v", offline.Repertoires())
		}

		missing := 2
		if err := offline.LoadOffline(&missing); !errors.Is(err, shared.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("Cache Failures Are Ignored", func(t *testing.T) {
		cache := &failingCache{}
		c, _ := newTestController(t, ControllerOpts{Cache: cache})

		if _, err := c.LoadRepertoires(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if err := c.Reload(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if cache.calls != 3 {
			t.Errorf("expected 3 cache writes, got %d", cache.calls)
		}
	})

	t.Run("Offline Without Cache", func(t *testing.T) {
		c := NewController(tu.NewMockService(nil, nil), ControllerOpts{Logger: shared.NewLogger(io.Discard)})
		if err := c.LoadOffline(nil); !errors.Is(err, shared.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})
}

func TestDump(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/songs":
			w.WriteHeader(http.StatusInternalServerError)
		case "/api/auth/me":
			w.Write([]byte(`{"user":{"id":1}}`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer server.Close()

	api := services.NewAPIService(server.URL, nil, services.WithLogger(shared.NewLogger(io.Discard)))
	progress := make(chan ProgressUpdate, 10)

	result, err := Dump(context.Background(), api, progress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.User == nil || result.Repertoires == nil || result.Skills == nil {
		t.Errorf("expected successful endpoints to be filled, got %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Endpoint != "/api/songs" {
		t.Errorf("expected songs failure, got %+v", result.Errors)
	}
	if data := result.Data(); len(data.Errors) != 1 {
		t.Errorf("expected encoded error, got %+v", data.Errors)
	}
	if len(progress) != 4 {
		t.Errorf("expected 4 progress updates, got %d", len(progress))
	}

	t.Run("Nil Client", func(t *testing.T) {
		if _, err := Dump(context.Background(), nil, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

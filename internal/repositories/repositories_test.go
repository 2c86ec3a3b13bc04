package repositories

import (
	"database/sql"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/rehearse/internal/models"
	"github.com/desertthunder/rehearse/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func songIDs(songs []models.Song) []int {
	ids := make([]int, len(songs))
	for i, s := range songs {
		ids[i] = s.ID
	}
	return ids
}

func TestRepertoireRepository(t *testing.T) {
	reps := []models.Repertoire{
		{ID: 2, Name: "Wedding", SortOrder: 1, SongCount: 3},
		{ID: 1, Name: "Pub Night", SortOrder: 0, Notes: "bring capo", DefaultSkills: []models.Skill{{ID: 4, Name: "Chords"}}},
	}

	t.Run("ReplaceAll And List", func(t *testing.T) {
		repo := NewRepertoireRepository(setupTestDB(t))

		if err := repo.ReplaceAll(reps); err != nil {
			t.Fatalf("failed to cache repertoires: %v", err)
		}

		got, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list repertoires: %v", err)
		}
		if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
			t.Fatalf("expected sort_order ordering [1 2], got %+v", got)
		}
		if got[0].Notes != "bring capo" || !slices.Equal(got[0].DefaultSkillIDs(), []int{4}) {
			t.Errorf("expected full record to survive, got %+v", got[0])
		}
	})

	t.Run("ReplaceAll Drops Stale Rows", func(t *testing.T) {
		repo := NewRepertoireRepository(setupTestDB(t))

		repo.ReplaceAll(reps)
		if err := repo.ReplaceAll(reps[:1]); err != nil {
			t.Fatalf("failed to replace repertoires: %v", err)
		}

		got, _ := repo.List()
		if len(got) != 1 || got[0].ID != 2 {
			t.Errorf("expected only repertoire 2, got %+v", got)
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewRepertoireRepository(setupTestDB(t))
		repo.ReplaceAll(reps)

		rep, err := repo.Get(2)
		if err != nil || rep.Name != "Wedding" {
			t.Errorf("unexpected repertoire %+v, %v", rep, err)
		}

		if _, err := repo.Get(99); !errors.Is(err, shared.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})
}

func TestSongRepository(t *testing.T) {
	one, two := 1, 2
	songs := []models.Song{
		{ID: 10, SongNumber: 2, Title: "Jolene", RepertoireID: 1, Skills: []models.SkillAssignment{
			{SkillID: 1, Name: "Chords", IsMastered: models.Mastered},
			{SkillID: 2, Name: "Solo", IsMastered: models.Unassigned},
		}},
		{ID: 11, SongNumber: 1, Title: "Wagon Wheel", RepertoireID: 1, LastPracticed: "2024-05-01T10:00:00"},
	}

	t.Run("ReplaceRepertoire And List", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))

		if err := repo.ReplaceRepertoire(&one, songs); err != nil {
			t.Fatalf("failed to cache songs: %v", err)
		}

		got, err := repo.ListByRepertoire(&one)
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}
		if !slices.Equal(songIDs(got), []int{11, 10}) {
			t.Errorf("expected song_number order [11 10], got %v", songIDs(got))
		}
	})

	t.Run("Mastery Survives Round Trip", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		repo.ReplaceRepertoire(&one, songs)

		got, _ := repo.ListByRepertoire(&one)
		jolene := got[1]
		if jolene.Skills[0].IsMastered != models.Mastered || jolene.Skills[1].IsMastered != models.Unassigned {
			t.Errorf("expected tri-state mastery to survive, got %+v", jolene.Skills)
		}
		if got[0].LastPracticed != "2024-05-01T10:00:00" {
			t.Errorf("expected last_practiced to survive, got %q", got[0].LastPracticed)
		}
	})

	t.Run("Repertoires Are Independent", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		repo.ReplaceRepertoire(&one, songs)
		repo.ReplaceRepertoire(&two, []models.Song{{ID: 20, SongNumber: 1, Title: "Hallelujah"}})

		if err := repo.ReplaceRepertoire(&one, songs[:1]); err != nil {
			t.Fatalf("failed to replace songs: %v", err)
		}

		first, _ := repo.ListByRepertoire(&one)
		second, _ := repo.ListByRepertoire(&two)
		if !slices.Equal(songIDs(first), []int{10}) || !slices.Equal(songIDs(second), []int{20}) {
			t.Errorf("unexpected snapshots %v %v", songIDs(first), songIDs(second))
		}

		all, _ := repo.ListByRepertoire(nil)
		if len(all) != 2 {
			t.Errorf("expected 2 songs overall, got %d", len(all))
		}
	})

	t.Run("Cache Miss", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))

		if _, err := repo.ListByRepertoire(&one); !errors.Is(err, shared.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
		if _, err := repo.FetchedAt(1); !errors.Is(err, shared.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("FetchedAt", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		before := time.Now().Add(-time.Minute)
		repo.ReplaceRepertoire(&one, songs)

		fetched, err := repo.FetchedAt(1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fetched.Before(before) {
			t.Errorf("expected recent fetch time, got %v", fetched)
		}
	})
}

func TestSkillRepository(t *testing.T) {
	repo := NewSkillRepository(setupTestDB(t))

	if err := repo.ReplaceAll([]models.Skill{{ID: 2, Name: "Solo"}, {ID: 1, Name: "Chords"}}); err != nil {
		t.Fatalf("failed to cache skills: %v", err)
	}

	got, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list skills: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Chords" {
		t.Errorf("expected name ordering, got %+v", got)
	}
}

func TestRepositoryErrors(t *testing.T) {
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.Close()

	cache := NewCache(db)

	t.Run("Closed Database", func(t *testing.T) {
		if err := cache.Repertoires.ReplaceAll(nil); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := cache.Songs.ListByRepertoire(nil); err == nil || errors.Is(err, shared.ErrCacheMiss) {
			t.Errorf("expected query error, got %v", err)
		}
		if _, err := cache.Skills.List(); err == nil {
			t.Error("expected error on closed database")
		}
	})

	t.Run("Missing Tables", func(t *testing.T) {
		raw, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create test database: %v", err)
		}
		defer raw.Close()

		if _, err := NewRepertoireRepository(raw).List(); err == nil {
			t.Error("expected error without migrations")
		}
	})
}

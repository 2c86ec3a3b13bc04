package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/rehearse/internal/models"
)

// Cache groups the repositories sharing one database.
type Cache struct {
	Repertoires *RepertoireRepository
	Songs       *SongRepository
	Skills      *SkillRepository
}

// NewCache creates all repositories over db.
func NewCache(db *sql.DB) *Cache {
	return &Cache{
		Repertoires: NewRepertoireRepository(db),
		Songs:       NewSongRepository(db),
		Skills:      NewSkillRepository(db),
	}
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CacheRepertoires replaces the repertoire snapshot.
func (c *Cache) CacheRepertoires(reps []models.Repertoire) error {
	return c.Repertoires.ReplaceAll(reps)
}

// CacheSongs replaces the song snapshot of one repertoire (all songs when nil).
func (c *Cache) CacheSongs(repertoireID *int, songs []models.Song) error {
	return c.Songs.ReplaceRepertoire(repertoireID, songs)
}

// CacheSkills replaces the skills snapshot.
func (c *Cache) CacheSkills(skills []models.Skill) error {
	return c.Skills.ReplaceAll(skills)
}

// CachedRepertoires returns the repertoire snapshot.
func (c *Cache) CachedRepertoires() ([]models.Repertoire, error) {
	return c.Repertoires.List()
}

// CachedSongs returns the song snapshot of one repertoire (all songs when nil).
func (c *Cache) CachedSongs(repertoireID *int) ([]models.Song, error) {
	return c.Songs.ListByRepertoire(repertoireID)
}

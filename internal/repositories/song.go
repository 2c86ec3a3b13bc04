package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/rehearse/internal/models"
	"github.com/desertthunder/rehearse/internal/shared"
)

// SongRepository stores song snapshots per repertoire.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// ReplaceRepertoire swaps the cached songs of one repertoire for songs.
// A nil repertoireID replaces the whole table.
func (r *SongRepository) ReplaceRepertoire(repertoireID *int, songs []models.Song) error {
	now := time.Now()

	return withTx(r.db, func(tx *sql.Tx) error {
		var err error
		if repertoireID == nil {
			_, err = tx.Exec("DELETE FROM songs")
		} else {
			_, err = tx.Exec("DELETE FROM songs WHERE repertoire_id = ?", *repertoireID)
		}
		if err != nil {
			return fmt.Errorf("failed to clear songs: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO songs (id, repertoire_id, song_number, title, artist, data, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range songs {
			data, err := json.Marshal(s)
			if err != nil {
				return fmt.Errorf("failed to encode song %d: %w", s.ID, err)
			}

			repID := s.RepertoireID
			if repertoireID != nil {
				repID = *repertoireID
			}
			if _, err := stmt.Exec(s.ID, repID, s.SongNumber, s.Title, s.Artist, string(data), now); err != nil {
				return fmt.Errorf("failed to insert song %d: %w", s.ID, err)
			}
		}
		return nil
	})
}

// ListByRepertoire returns cached songs in song_number order, all songs when repertoireID is nil.
// An empty snapshot is a [shared.ErrCacheMiss].
func (r *SongRepository) ListByRepertoire(repertoireID *int) ([]models.Song, error) {
	query := "SELECT data FROM songs"
	args := []any{}
	if repertoireID != nil {
		query += " WHERE repertoire_id = ?"
		args = append(args, *repertoireID)
	}
	query += " ORDER BY repertoire_id ASC, song_number ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}

		var s models.Song
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			return nil, fmt.Errorf("failed to decode song: %w", err)
		}
		songs = append(songs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if len(songs) == 0 {
		return nil, shared.ErrCacheMiss
	}
	return songs, nil
}

// FetchedAt returns when the songs of repertoireID were last cached.
func (r *SongRepository) FetchedAt(repertoireID int) (time.Time, error) {
	var fetched time.Time
	err := r.db.QueryRow(
		"SELECT fetched_at FROM songs WHERE repertoire_id = ? ORDER BY fetched_at DESC LIMIT 1", repertoireID,
	).Scan(&fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: repertoire %d", shared.ErrCacheMiss, repertoireID)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query fetch time: %w", err)
	}
	return fetched, nil
}

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

// RepertoireRepository stores the last fetched repertoire list.
type RepertoireRepository struct {
	db *sql.DB
}

// NewRepertoireRepository creates a new RepertoireRepository with the given database connection
func NewRepertoireRepository(db *sql.DB) *RepertoireRepository {
	return &RepertoireRepository{db: db}
}

// ReplaceAll swaps the cached list for reps.
func (r *RepertoireRepository) ReplaceAll(reps []models.Repertoire) error {
	now := time.Now()

	return withTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM repertoires"); err != nil {
			return fmt.Errorf("failed to clear repertoires: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO repertoires (id, name, song_count, sort_order, notes, data, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, rep := range reps {
			data, err := json.Marshal(rep)
			if err != nil {
				return fmt.Errorf("failed to encode repertoire %d: %w", rep.ID, err)
			}
			if _, err := stmt.Exec(rep.ID, rep.Name, rep.SongCount, rep.SortOrder, rep.Notes, string(data), now); err != nil {
				return fmt.Errorf("failed to insert repertoire %d: %w", rep.ID, err)
			}
		}
		return nil
	})
}

// List returns the cached repertoires in sort_order.
func (r *RepertoireRepository) List() ([]models.Repertoire, error) {
	rows, err := r.db.Query("SELECT data FROM repertoires ORDER BY sort_order ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query repertoires: %w", err)
	}
	defer rows.Close()

	var reps []models.Repertoire
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan repertoire: %w", err)
		}

		var rep models.Repertoire
		if err := json.Unmarshal([]byte(data), &rep); err != nil {
			return nil, fmt.Errorf("failed to decode repertoire: %w", err)
		}
		reps = append(reps, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return reps, nil
}

// Get returns one cached repertoire, or an error wrapping [shared.ErrCacheMiss].
func (r *RepertoireRepository) Get(id int) (*models.Repertoire, error) {
	var data string
	err := r.db.QueryRow("SELECT data FROM repertoires WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: repertoire %d", shared.ErrCacheMiss, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repertoire: %w", err)
	}

	var rep models.Repertoire
	if err := json.Unmarshal([]byte(data), &rep); err != nil {
		return nil, fmt.Errorf("failed to decode repertoire: %w", err)
	}
	return &rep, nil
}

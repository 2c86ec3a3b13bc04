package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/rehearse/internal/models"
)

// SkillRepository stores the skills catalogue.
type SkillRepository struct {
	db *sql.DB
}

func NewSkillRepository(db *sql.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

// ReplaceAll swaps the cached catalogue for skills.
func (r *SkillRepository) ReplaceAll(skills []models.Skill) error {
	return withTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM skills"); err != nil {
			return fmt.Errorf("failed to clear skills: %w", err)
		}
		for _, sk := range skills {
			if _, err := tx.Exec("INSERT INTO skills (id, name) VALUES (?, ?)", sk.ID, sk.Name); err != nil {
				return fmt.Errorf("failed to insert skill %d: %w", sk.ID, err)
			}
		}
		return nil
	})
}

// List returns the cached skills ordered by name.
func (r *SkillRepository) List() ([]models.Skill, error) {
	rows, err := r.db.Query("SELECT id, name FROM skills ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query skills: %w", err)
	}
	defer rows.Close()

	var skills []models.Skill
	for rows.Next() {
		var sk models.Skill
		if err := rows.Scan(&sk.ID, &sk.Name); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return skills, nil
}

// package services defines the backend client for the practice tracker REST API
package services

import (
	"context"

	"github.com/desertthunder/rehearse/internal/models"
)

// Service is the practice tracker backend as seen by the client.
//
// Every mutation returns only an error: callers reload the affected list afterwards
// instead of patching local state.
type Service interface {
	// Login signs in with email and password and returns the session cookie to store.
	Login(ctx context.Context, email, password string, remember bool) (*models.User, string, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)

	// ListSongs returns the songs of a repertoire, or all songs when repertoireID is nil.
	ListSongs(ctx context.Context, repertoireID *int) ([]models.Song, error)
	CreateSong(ctx context.Context, in models.SongInput) (int, error)
	UpdateSong(ctx context.Context, id int, in models.SongInput) error
	DeleteSong(ctx context.Context, id int) error

	PracticeSong(ctx context.Context, id int) error
	TogglePriority(ctx context.Context, id int) error
	ToggleDifficulty(ctx context.Context, id int) error
	IncreaseTarget(ctx context.Context, id int) error
	ArchiveSong(ctx context.Context, id int) error
	ToggleSkill(ctx context.Context, songID, skillID int) error

	// SetMedia links path to the song, or unlinks the file when path is empty.
	SetMedia(ctx context.Context, id int, kind models.MediaKind, path string) error

	// ReorderSongs submits the full song order; the backend renumbers song_number 1..N.
	ReorderSongs(ctx context.Context, orderedIDs []int, repertoireID *int) (*models.ReorderResult, error)

	ListRepertoires(ctx context.Context) ([]models.Repertoire, error)
	CreateRepertoire(ctx context.Context, in models.RepertoireInput) (int, error)
	UpdateRepertoire(ctx context.Context, id int, in models.RepertoireInput) error
	DeleteRepertoire(ctx context.Context, id int) error
	ReorderRepertoires(ctx context.Context, order []int) error
	SyncRepertoire(ctx context.Context, id int) (models.SyncStats, error)
	UndoSyncRepertoire(ctx context.Context, id int) (models.SyncStats, error)
	ArchiveRepertoire(ctx context.Context, id int) error
	ShareRepertoire(ctx context.Context, id, targetUserID int) (*models.ShareResult, error)
	TimePracticed(ctx context.Context, id int) (*models.TimePracticed, error)
	// SetlistPDF renders the setlist, limited to songs numbered up to maxSongNumber when set.
	SetlistPDF(ctx context.Context, id int, maxSongNumber *int) ([]byte, error)
	AddSkillsToSongs(ctx context.Context, id int, skillIDs []int) error

	ListSkills(ctx context.Context) ([]models.Skill, error)
}

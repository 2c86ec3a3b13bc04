package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/rehearse/internal/models"
	"github.com/desertthunder/rehearse/internal/shared"
)

// Backend implements [Service] over the REST API.
type Backend struct {
	api *APIService
}

// NewBackend creates a typed client on top of api.
func NewBackend(api *APIService) *Backend {
	return &Backend{api: api}
}

// API exposes the underlying raw client.
func (b *Backend) API() *APIService { return b.api }

type messageResponse struct {
	Message string `json:"message"`
}

type idResponse struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
}

// call sends in as JSON (when non-nil) and decodes a 2xx body into out (when non-nil).
func (b *Backend) call(ctx context.Context, method, path string, in, out any) (*APIResponse, error) {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, err := b.api.Do(ctx, method, path, body)
	if err != nil {
		return resp, err
	}
	if !resp.OK() {
		return resp, &APIError{Method: method, Path: path, Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return resp, fmt.Errorf("%w: failed to decode %s %s: %v", shared.ErrAPIRequest, method, path, err)
		}
	}
	return resp, nil
}

func (b *Backend) post(ctx context.Context, path string, in any) error {
	_, err := b.call(ctx, http.MethodPost, path, in, nil)
	return err
}

func songPath(id int, suffix string) string {
	return "/api/songs/" + strconv.Itoa(id) + suffix
}

func repertoirePath(id int, suffix string) string {
	return "/api/repertoires/" + strconv.Itoa(id) + suffix
}

// Login calls POST /api/auth/login and captures the session cookie.
//
// Wrong credentials are reported as [shared.ErrAuthFailed] without firing the
// unauthorized hook.
func (b *Backend) Login(ctx context.Context, email, password string, remember bool) (*models.User, string, error) {
	body, err := json.Marshal(map[string]any{"email": email, "password": password, "remember": remember})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := b.api.do(ctx, http.MethodPost, "/api/auth/login", body, false)
	if err != nil {
		return nil, "", err
	}
	if !resp.OK() {
		return nil, "", fmt.Errorf("%w: %s", shared.ErrAuthFailed, errorMessage(resp))
	}

	var out struct {
		User models.User `json:"user"`
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, "", fmt.Errorf("%w: failed to decode login response: %v", shared.ErrAPIRequest, err)
	}

	cookie := ""
	for _, ck := range (&http.Response{Header: resp.Headers}).Cookies() {
		if ck.Name == shared.SessionCookieName {
			cookie = ck.Name + "=" + ck.Value
		}
	}
	if cookie == "" {
		return nil, "", fmt.Errorf("%w: login response carried no session cookie", shared.ErrAuthFailed)
	}

	b.api.SetSession(cookie)
	return &out.User, cookie, nil
}

// Logout calls POST /api/auth/logout.
func (b *Backend) Logout(ctx context.Context) error {
	return b.post(ctx, "/api/auth/logout", nil)
}

// Me calls GET /api/auth/me.
func (b *Backend) Me(ctx context.Context) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	if _, err := b.call(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ListSongs calls GET /api/songs, scoped by repertoire_id when set.
func (b *Backend) ListSongs(ctx context.Context, repertoireID *int) ([]models.Song, error) {
	path := "/api/songs"
	if repertoireID != nil {
		path += "?" + url.Values{"repertoire_id": {strconv.Itoa(*repertoireID)}}.Encode()
	}

	var songs []models.Song
	if _, err := b.call(ctx, http.MethodGet, path, nil, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// CreateSong calls POST /api/songs and returns the new id.
func (b *Backend) CreateSong(ctx context.Context, in models.SongInput) (int, error) {
	var out idResponse
	if _, err := b.call(ctx, http.MethodPost, "/api/songs", in, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// UpdateSong calls PUT /api/songs/{id}.
func (b *Backend) UpdateSong(ctx context.Context, id int, in models.SongInput) error {
	_, err := b.call(ctx, http.MethodPut, songPath(id, ""), in, nil)
	return err
}

// DeleteSong calls DELETE /api/songs/{id}.
func (b *Backend) DeleteSong(ctx context.Context, id int) error {
	_, err := b.call(ctx, http.MethodDelete, songPath(id, ""), nil, nil)
	return err
}

func (b *Backend) PracticeSong(ctx context.Context, id int) error {
	return b.post(ctx, songPath(id, "/practice"), nil)
}

func (b *Backend) TogglePriority(ctx context.Context, id int) error {
	return b.post(ctx, songPath(id, "/priority/toggle"), nil)
}

func (b *Backend) ToggleDifficulty(ctx context.Context, id int) error {
	return b.post(ctx, songPath(id, "/difficulty/toggle"), nil)
}

func (b *Backend) IncreaseTarget(ctx context.Context, id int) error {
	return b.post(ctx, songPath(id, "/target/increase"), nil)
}

func (b *Backend) ArchiveSong(ctx context.Context, id int) error {
	return b.post(ctx, songPath(id, "/archive"), nil)
}

// ToggleSkill calls POST /api/songs/{id}/skills/{skill_id}/toggle.
func (b *Backend) ToggleSkill(ctx context.Context, songID, skillID int) error {
	return b.post(ctx, songPath(songID, "/skills/"+strconv.Itoa(skillID)+"/toggle"), nil)
}

// SetMedia calls POST /api/songs/{id}/{kind} with {file_path}, or DELETE when path is empty.
func (b *Backend) SetMedia(ctx context.Context, id int, kind models.MediaKind, path string) error {
	if kind != models.MediaAudio && kind != models.MediaChart {
		return fmt.Errorf("%w: media kind %q", shared.ErrInvalidArgument, kind)
	}

	endpoint := songPath(id, "/"+string(kind))
	if path == "" {
		_, err := b.call(ctx, http.MethodDelete, endpoint, nil, nil)
		return err
	}
	return b.post(ctx, endpoint, map[string]string{"file_path": path})
}

// ReorderSongs calls POST /api/songs/reorder with {ordered_ids, repertoire_id}.
func (b *Backend) ReorderSongs(ctx context.Context, orderedIDs []int, repertoireID *int) (*models.ReorderResult, error) {
	in := struct {
		OrderedIDs   []int `json:"ordered_ids"`
		RepertoireID *int  `json:"repertoire_id"`
	}{OrderedIDs: orderedIDs, RepertoireID: repertoireID}
	if in.OrderedIDs == nil {
		in.OrderedIDs = []int{}
	}

	var out models.ReorderResult
	if _, err := b.call(ctx, http.MethodPost, "/api/songs/reorder", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRepertoires calls GET /api/repertoires, ordered by sort_order.
func (b *Backend) ListRepertoires(ctx context.Context) ([]models.Repertoire, error) {
	var reps []models.Repertoire
	if _, err := b.call(ctx, http.MethodGet, "/api/repertoires", nil, &reps); err != nil {
		return nil, err
	}
	return reps, nil
}

func (b *Backend) CreateRepertoire(ctx context.Context, in models.RepertoireInput) (int, error) {
	var out idResponse
	if _, err := b.call(ctx, http.MethodPost, "/api/repertoires", in, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (b *Backend) UpdateRepertoire(ctx context.Context, id int, in models.RepertoireInput) error {
	_, err := b.call(ctx, http.MethodPut, repertoirePath(id, ""), in, nil)
	return err
}

func (b *Backend) DeleteRepertoire(ctx context.Context, id int) error {
	_, err := b.call(ctx, http.MethodDelete, repertoirePath(id, ""), nil, nil)
	return err
}

// ReorderRepertoires calls POST /api/repertoires/reorder with {order}.
func (b *Backend) ReorderRepertoires(ctx context.Context, order []int) error {
	return b.post(ctx, "/api/repertoires/reorder", map[string][]int{"order": order})
}

func (b *Backend) SyncRepertoire(ctx context.Context, id int) (models.SyncStats, error) {
	stats := models.SyncStats{}
	if _, err := b.call(ctx, http.MethodPost, repertoirePath(id, "/sync"), nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (b *Backend) UndoSyncRepertoire(ctx context.Context, id int) (models.SyncStats, error) {
	stats := models.SyncStats{}
	if _, err := b.call(ctx, http.MethodPost, repertoirePath(id, "/undo-sync"), nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (b *Backend) ArchiveRepertoire(ctx context.Context, id int) error {
	return b.post(ctx, repertoirePath(id, "/archive"), nil)
}

// ShareRepertoire calls POST /api/repertoires/{id}/share with {target_user_id}.
func (b *Backend) ShareRepertoire(ctx context.Context, id, targetUserID int) (*models.ShareResult, error) {
	var out models.ShareResult
	in := map[string]int{"target_user_id": targetUserID}
	if _, err := b.call(ctx, http.MethodPost, repertoirePath(id, "/share"), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Backend) TimePracticed(ctx context.Context, id int) (*models.TimePracticed, error) {
	var out models.TimePracticed
	if _, err := b.call(ctx, http.MethodGet, repertoirePath(id, "/time-practiced"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetlistPDF calls POST /api/repertoires/{id}/setlist-pdf with {max_song_number} and returns the PDF bytes.
func (b *Backend) SetlistPDF(ctx context.Context, id int, maxSongNumber *int) ([]byte, error) {
	in := struct {
		MaxSongNumber *int `json:"max_song_number"`
	}{maxSongNumber}

	resp, err := b.call(ctx, http.MethodPost, repertoirePath(id, "/setlist-pdf"), in, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// AddSkillsToSongs calls POST /api/repertoires/{id}/add-skills-to-songs with {skill_ids}.
func (b *Backend) AddSkillsToSongs(ctx context.Context, id int, skillIDs []int) error {
	return b.post(ctx, repertoirePath(id, "/add-skills-to-songs"), map[string][]int{"skill_ids": skillIDs})
}

// ListSkills calls GET /api/skills.
func (b *Backend) ListSkills(ctx context.Context) ([]models.Skill, error) {
	var skills []models.Skill
	if _, err := b.call(ctx, http.MethodGet, "/api/skills", nil, &skills); err != nil {
		return nil, err
	}
	return skills, nil
}

var _ Service = (*Backend)(nil)

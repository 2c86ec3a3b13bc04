// package tasks drives practice sessions against the backend.
//
// The core abstraction is Controller, which owns the song store, the view state and the
// reorder reconciler for one repertoire at a time. Long-running operations emit progress
// updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/rehearse/internal/models"
	"github.com/desertthunder/rehearse/internal/ordering"
	"github.com/desertthunder/rehearse/internal/services"
	"github.com/desertthunder/rehearse/internal/shared"
)

// Cacher persists fetched data for offline reads. Implemented by repositories.Cache.
type Cacher interface {
	CacheRepertoires(reps []models.Repertoire) error
	CacheSongs(repertoireID *int, songs []models.Song) error
	CacheSkills(skills []models.Skill) error
	CachedRepertoires() ([]models.Repertoire, error)
	CachedSongs(repertoireID *int) ([]models.Song, error)
}

// APIClient defines the interface for making raw API requests.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type APIClient interface {
	Get(ctx context.Context, path string) (*services.APIResponse, error)
}

// ControllerOpts contains optional dependencies for a [Controller].
type ControllerOpts struct {
	Cache  Cacher
	Logger *log.Logger
	// Sort is the initial sort; zero value means song_number ascending.
	Sort *ordering.SortState
}

// Controller owns the song list of the active repertoire and applies every user action to it.
//
// Mutations follow one pattern: lock the rendered order, call the backend, reload the
// store. The lock keeps rows from jumping while the reload lands; any sort, search or
// repertoire change releases it.
type Controller struct {
	srv        services.Service
	cache      Cacher
	logger     *log.Logger
	store      *ordering.Store
	state      *ordering.State
	reconciler *ordering.Reconciler

	repertoires []models.Repertoire
	skills      []models.Skill
}

// NewController creates a controller over srv.
func NewController(srv services.Service, opts ControllerOpts) *Controller {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	c := &Controller{
		srv:    srv,
		cache:  opts.Cache,
		logger: opts.Logger,
		store:  ordering.NewStore(),
		state:  ordering.NewState(),
	}
	if opts.Sort != nil {
		c.state.Sort = *opts.Sort
	}
	c.reconciler = ordering.NewReconciler(srv, ordering.LoaderFunc(c.Reload), shared.WithLogger(opts.Logger, "component", "reorder"))
	return c
}

// State exposes the view state.
func (c *Controller) State() *ordering.State { return c.state }

// Store exposes the song store.
func (c *Controller) Store() *ordering.Store { return c.store }

// RepertoireID returns the active repertoire, nil for all songs.
func (c *Controller) RepertoireID() *int { return c.store.RepertoireID() }

// Repertoires returns the list from the last [Controller.LoadRepertoires].
func (c *Controller) Repertoires() []models.Repertoire { return c.repertoires }

// Skills returns the catalogue from the last [Controller.LoadSkills].
func (c *Controller) Skills() []models.Skill { return c.skills }

// Render returns the songs to display in order.
func (c *Controller) Render() []*models.Song { return c.state.Render(c.store) }

// Mastery summarises skill mastery over the whole store, ignoring the search filter.
func (c *Controller) Mastery() models.MasterySummary {
	return models.OverallMastery(c.store.Songs())
}

// SortKeys lists the selectable sort keys, one per skill in the catalogue.
// Skill names come from the songs in the store when the catalogue was not loaded.
func (c *Controller) SortKeys() []ordering.SortKey {
	var names []string
	if len(c.skills) > 0 {
		for _, sk := range c.skills {
			names = append(names, sk.Name)
		}
	} else {
		for _, s := range c.store.Songs() {
			for _, sk := range s.Skills {
				if !slices.Contains(names, sk.Name) {
					names = append(names, sk.Name)
				}
			}
		}
	}
	return ordering.Keys(names)
}

// LoadRepertoires fetches the repertoire list and caches it.
func (c *Controller) LoadRepertoires(ctx context.Context) ([]models.Repertoire, error) {
	reps, err := c.srv.ListRepertoires(ctx)
	if err != nil {
		return nil, err
	}
	c.repertoires = reps

	if c.cache != nil {
		if err := c.cache.CacheRepertoires(reps); err != nil {
			c.logger.Warn("failed to cache repertoires", "error", err)
		}
	}
	return reps, nil
}

// LoadSkills fetches the skills catalogue and caches it.
func (c *Controller) LoadSkills(ctx context.Context) ([]models.Skill, error) {
	skills, err := c.srv.ListSkills(ctx)
	if err != nil {
		return nil, err
	}
	c.skills = skills

	if c.cache != nil {
		if err := c.cache.CacheSkills(skills); err != nil {
			c.logger.Warn("failed to cache skills", "error", err)
		}
	}
	return skills, nil
}

// SwitchRepertoire activates repertoireID (nil for all songs), drops the lock and loads its songs.
func (c *Controller) SwitchRepertoire(ctx context.Context, repertoireID *int) error {
	c.state.SwitchRepertoire()
	c.store.Replace(repertoireID, nil)
	return c.Reload(ctx)
}

// Reload refetches the songs of the active repertoire and replaces the store.
func (c *Controller) Reload(ctx context.Context) error {
	repID := c.store.RepertoireID()

	songs, err := c.srv.ListSongs(ctx, repID)
	if err != nil {
		return fmt.Errorf("failed to load songs: %w", err)
	}
	c.store.Replace(repID, songs)
	c.logger.Debug("reloaded songs", "count", len(songs), "locked", c.state.Lock.Locked)

	if c.cache != nil {
		if err := c.cache.CacheSongs(repID, songs); err != nil {
			c.logger.Warn("failed to cache songs", "error", err)
		}
	}
	return nil
}

// LoadOffline fills the store from the local cache without contacting the backend.
func (c *Controller) LoadOffline(repertoireID *int) error {
	if c.cache == nil {
		return fmt.Errorf("%w: no cache configured", shared.ErrCacheMiss)
	}

	songs, err := c.cache.CachedSongs(repertoireID)
	if err != nil {
		return err
	}
	c.state.SwitchRepertoire()
	c.store.Replace(repertoireID, songs)

	if reps, err := c.cache.CachedRepertoires(); err == nil {
		c.repertoires = reps
	}
	return nil
}

// LoadOfflineRepertoires fills the repertoire list from the local cache.
func (c *Controller) LoadOfflineRepertoires() ([]models.Repertoire, error) {
	if c.cache == nil {
		return nil, fmt.Errorf("%w: no cache configured", shared.ErrCacheMiss)
	}

	reps, err := c.cache.CachedRepertoires()
	if err != nil {
		return nil, err
	}
	c.repertoires = reps
	return reps, nil
}

// SelectSort applies a click on key.
func (c *Controller) SelectSort(key ordering.SortKey) { c.state.SelectSort(key) }

// ToggleReverse flips the primary direction.
func (c *Controller) ToggleReverse() { c.state.ToggleReverse() }

// ResetSort returns to song_number ascending.
func (c *Controller) ResetSort() { c.state.ResetSort() }

// Search sets the title filter.
func (c *Controller) Search(query string) { c.state.SetQuery(query) }

// rowAction locks the current rendered order, runs call and reloads on success.
// On failure the lock stays held and the store is left as it was.
func (c *Controller) rowAction(ctx context.Context, name string, id int, call func() error) error {
	c.Render()
	c.state.BeginRowAction()

	if err := call(); err != nil {
		c.logger.Error("row action failed", "action", name, "song_id", id, "error", err)
		return err
	}
	c.logger.Debug("row action", "action", name, "song_id", id)
	return c.Reload(ctx)
}

// Practice records one practice session.
func (c *Controller) Practice(ctx context.Context, id int) error {
	return c.rowAction(ctx, "practice", id, func() error { return c.srv.PracticeSong(ctx, id) })
}

// TogglePriority advances the priority cycle.
func (c *Controller) TogglePriority(ctx context.Context, id int) error {
	return c.rowAction(ctx, "priority", id, func() error { return c.srv.TogglePriority(ctx, id) })
}

// ToggleDifficulty advances the difficulty cycle.
func (c *Controller) ToggleDifficulty(ctx context.Context, id int) error {
	return c.rowAction(ctx, "difficulty", id, func() error { return c.srv.ToggleDifficulty(ctx, id) })
}

// IncreaseTarget raises the practice target by one.
func (c *Controller) IncreaseTarget(ctx context.Context, id int) error {
	return c.rowAction(ctx, "target", id, func() error { return c.srv.IncreaseTarget(ctx, id) })
}

// Archive archives the song. It drops out of the list on reload.
func (c *Controller) Archive(ctx context.Context, id int) error {
	return c.rowAction(ctx, "archive", id, func() error { return c.srv.ArchiveSong(ctx, id) })
}

// ToggleSkill flips mastery of one skill assignment.
func (c *Controller) ToggleSkill(ctx context.Context, songID, skillID int) error {
	return c.rowAction(ctx, "skill", songID, func() error { return c.srv.ToggleSkill(ctx, songID, skillID) })
}

// ToggleNthSkill flips the n-th (1-based) assigned skill of the song.
func (c *Controller) ToggleNthSkill(ctx context.Context, songID, n int) error {
	song, ok := c.store.Lookup(songID)
	if !ok {
		return fmt.Errorf("%w: %d", shared.ErrSongNotFound, songID)
	}

	assigned := song.AssignedSkills()
	if n < 1 || n > len(assigned) {
		return fmt.Errorf("%w: song %d has %d assigned skills", shared.ErrSkillNotFound, songID, len(assigned))
	}
	return c.ToggleSkill(ctx, songID, assigned[n-1].SkillID)
}

// SetMedia links or, with an empty path, unlinks a file.
func (c *Controller) SetMedia(ctx context.Context, id int, kind models.MediaKind, path string) error {
	return c.rowAction(ctx, "media", id, func() error { return c.srv.SetMedia(ctx, id, kind, path) })
}

// Drop submits final as the new order after a manual drag.
func (c *Controller) Drop(ctx context.Context, final []int) (ordering.Outcome, error) {
	return c.reconciler.OnDragComplete(ctx, c.state, c.store.RepertoireID(), final)
}

// Move shifts one song by delta positions and submits the result as a drop.
func (c *Controller) Move(ctx context.Context, id, delta int) (ordering.Outcome, error) {
	if !c.state.CanDrag() {
		return ordering.Unchanged, shared.ErrDragDisabled
	}
	if _, ok := c.store.Lookup(id); !ok {
		return ordering.Unchanged, fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	rendered := ordering.IDs(c.Render())
	return c.Drop(ctx, ordering.MoveID(rendered, id, delta))
}

// SaveVisualOrder makes the rendered order canonical.
func (c *Controller) SaveVisualOrder(ctx context.Context) (ordering.Outcome, error) {
	rendered := ordering.IDs(c.Render())
	return c.reconciler.SaveVisualOrder(ctx, c.state, c.store.RepertoireID(), rendered)
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// EndpointResult represents the result of fetching data from a single API endpoint.
type EndpointResult struct {
	Endpoint string
	Error    error
}

// DumpResult contains all data fetched from the backend.
type DumpResult struct {
	User        any
	Repertoires any
	Songs       any
	Skills      any
	Errors      []EndpointResult
}

// DumpData is the JSON shape of a [DumpResult].
type DumpData struct {
	User        any      `json:"user"`
	Repertoires any      `json:"repertoires,omitempty"`
	Songs       any      `json:"songs,omitempty"`
	Skills      any      `json:"skills,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// Data converts r for encoding.
func (r *DumpResult) Data() DumpData {
	d := DumpData{User: r.User, Repertoires: r.Repertoires, Songs: r.Songs, Skills: r.Skills}
	for _, e := range r.Errors {
		d.Errors = append(d.Errors, fmt.Sprintf("%s: %v", e.Endpoint, e.Error))
	}
	return d
}

type endpointOperation struct {
	path    string
	target  *any
	phase   Phase
	message string
}

// Dump fetches the raw JSON of every list endpoint. Failed endpoints are collected, not fatal.
func Dump(ctx context.Context, api APIClient, progress chan<- ProgressUpdate) (*DumpResult, error) {
	if api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	result := &DumpResult{Errors: []EndpointResult{}}

	endpoints := []endpointOperation{
		{path: "/api/auth/me", target: &result.User, phase: FetchUser, message: "Fetching user..."},
		{path: "/api/repertoires", target: &result.Repertoires, phase: FetchRepertoires, message: "Fetching repertoires..."},
		{path: "/api/songs", target: &result.Songs, phase: FetchSongs, message: "Fetching songs..."},
		{path: "/api/skills", target: &result.Skills, phase: FetchSkills, message: "Fetching skills..."},
	}

	for i, endpoint := range endpoints {
		sendProgress(progress, operationUpdate(endpoint, i+1, len(endpoints)))

		resp, err := api.Get(ctx, endpoint.path)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, EndpointResult{Endpoint: endpoint.path, Error: err})
		case !resp.OK():
			result.Errors = append(result.Errors, EndpointResult{
				Endpoint: endpoint.path,
				Error:    fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode),
			})
		default:
			*endpoint.target = resp.JSONData
		}
	}

	return result, nil
}

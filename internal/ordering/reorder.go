package ordering

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/rehearse/internal/models"
	"github.com/desertthunder/rehearse/internal/shared"
)

// Reorderer submits a full song order for canonical renumbering.
type Reorderer interface {
	ReorderSongs(ctx context.Context, orderedIDs []int, repertoireID *int) (*models.ReorderResult, error)
}

// Loader refetches the song store.
type Loader interface {
	Reload(ctx context.Context) error
}

// LoaderFunc adapts a function to [Loader].
type LoaderFunc func(ctx context.Context) error

func (f LoaderFunc) Reload(ctx context.Context) error { return f(ctx) }

// Outcome describes what a reorder did.
type Outcome int

const (
	// Unchanged means the dropped order matched the rendered one and nothing was sent.
	Unchanged Outcome = iota
	// Submitted means the backend accepted the order and the store was reloaded.
	Submitted
	// Failed means the submission failed; the rendered order is stale until the next reload.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Submitted:
		return "submitted"
	case Failed:
		return "failed"
	default:
		return "unchanged"
	}
}

// Reconciler sends manual reorders to the backend and reloads afterwards.
type Reconciler struct {
	api    Reorderer
	loader Loader
	logger *log.Logger
}

// NewReconciler creates a reconciler. A nil logger logs to stderr.
func NewReconciler(api Reorderer, loader Loader, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Reconciler{api: api, loader: loader, logger: logger}
}

// OnDragComplete handles a drop that produced final as the new order of the rendered list.
//
// Drags are refused with [shared.ErrDragDisabled] unless the view is in song_number order
// without a search filter. A drop that leaves the rendered order untouched sends nothing.
// A failed submission is logged and reported as [Failed] without an error. The returned
// error is only set for a refused drag or a failed reload.
func (r *Reconciler) OnDragComplete(ctx context.Context, state *State, repertoireID *int, final []int) (Outcome, error) {
	if !state.CanDrag() {
		return Unchanged, shared.ErrDragDisabled
	}
	if slices.Equal(final, state.Lock.Snapshot) {
		r.logger.Debug("drop left order unchanged", "count", len(final))
		return Unchanged, nil
	}
	return r.submit(ctx, state, repertoireID, final)
}

// SaveVisualOrder submits rendered as the canonical order under any sort mode.
//
// On success the sort returns to song_number ascending with history cleared and the store
// is reloaded. On failure the sort is left alone.
func (r *Reconciler) SaveVisualOrder(ctx context.Context, state *State, repertoireID *int, rendered []int) (Outcome, error) {
	if len(rendered) == 0 {
		return Unchanged, nil
	}

	res, err := r.api.ReorderSongs(ctx, rendered, repertoireID)
	if err != nil {
		r.logger.Error("failed to save visual order", "error", err)
		return Failed, nil
	}
	r.logger.Info("saved visual order", "count", len(rendered), "message", res.Message)

	state.ResetSort()
	return Submitted, r.loader.Reload(ctx)
}

// submit sends ids and, once accepted, releases any row-action lock so the reload renders
// the renumbered order.
func (r *Reconciler) submit(ctx context.Context, state *State, repertoireID *int, ids []int) (Outcome, error) {
	res, err := r.api.ReorderSongs(ctx, ids, repertoireID)
	if err != nil {
		r.logger.Error("failed to reorder songs", "error", err)
		return Failed, nil
	}
	r.logger.Info("reordered songs", "count", len(ids), "message", res.Message)

	state.Lock.Unlock()
	return Submitted, r.loader.Reload(ctx)
}

// MoveID returns a copy of ids with id moved by delta positions, clamped to the bounds.
// ids is returned unchanged when id is absent.
func MoveID(ids []int, id, delta int) []int {
	out := slices.Clone(ids)
	from := slices.Index(out, id)
	if from < 0 || delta == 0 {
		return out
	}

	to := max(0, min(len(out)-1, from+delta))
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, id)
}

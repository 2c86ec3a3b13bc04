package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rehearse/internal/formatter"
	"github.com/desertthunder/rehearse/internal/models"
	"github.com/desertthunder/rehearse/internal/shared"
)

func repertoireArg(cmd *cli.Command) (int, error) {
	id := cmd.IntArg("id")
	if id <= 0 {
		return 0, fmt.Errorf("%w: repertoire id", shared.ErrMissingArgument)
	}
	return id, nil
}

// optional returns a pointer to the flag value when it was set.
func optional(cmd *cli.Command, name string) *string {
	if !cmd.IsSet(name) {
		return nil
	}
	v := cmd.String(name)
	return &v
}

func repertoireInput(cmd *cli.Command) models.RepertoireInput {
	return models.RepertoireInput{
		Name:           cmd.String("name"),
		Notes:          optional(cmd, "notes"),
		MP3Folder:      optional(cmd, "mp3-folder"),
		SheetFolder:    optional(cmd, "sheet-folder"),
		SonglistFolder: optional(cmd, "songlist-folder"),
		SkillIDs:       cmd.IntSlice("skill"),
	}
}

// RepertoiresList prints all repertoires.
func (r *Runner) RepertoiresList(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}

	reps, err := srv.ListRepertoires(ctx)
	if err != nil {
		return err
	}
	if r.cache != nil {
		if err := r.cache.CacheRepertoires(reps); err != nil {
			r.logger.Warn("failed to cache repertoires", "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(reps, cmd.Bool("pretty"))
	}
	return formatter.WriteRepertoireTable(r.output, reps)
}

// RepertoiresCreate creates a repertoire.
func (r *Runner) RepertoiresCreate(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}

	in := repertoireInput(cmd)
	id, err := srv.CreateRepertoire(ctx, in)
	if err != nil {
		return err
	}
	r.logger.Info("repertoire created", "id", id)
	return r.writePlain("✓ Created repertoire %d: %s\n", id, in.Name)
}

// RepertoiresUpdate updates a repertoire.
func (r *Runner) RepertoiresUpdate(ctx context.Context, cmd *cli.Command) error {
	return r.repertoireAction(ctx, cmd, "Updated", func(ctx context.Context, id int) error {
		return r.backend.UpdateRepertoire(ctx, id, repertoireInput(cmd))
	})
}

// RepertoiresDelete deletes a repertoire.
func (r *Runner) RepertoiresDelete(ctx context.Context, cmd *cli.Command) error {
	return r.repertoireAction(ctx, cmd, "Deleted", func(ctx context.Context, id int) error {
		return r.backend.DeleteRepertoire(ctx, id)
	})
}

// RepertoiresArchive archives a repertoire.
func (r *Runner) RepertoiresArchive(ctx context.Context, cmd *cli.Command) error {
	return r.repertoireAction(ctx, cmd, "Archived", func(ctx context.Context, id int) error {
		return r.backend.ArchiveRepertoire(ctx, id)
	})
}

// RepertoiresAddSkills assigns skills to every song.
func (r *Runner) RepertoiresAddSkills(ctx context.Context, cmd *cli.Command) error {
	skills := cmd.IntSlice("skill")
	return r.repertoireAction(ctx, cmd, fmt.Sprintf("Added %d skills to", len(skills)), func(ctx context.Context, id int) error {
		return r.backend.AddSkillsToSongs(ctx, id, skills)
	})
}

func (r *Runner) repertoireAction(ctx context.Context, cmd *cli.Command, verb string, fn func(context.Context, int) error) error {
	if _, err := r.requireBackend(); err != nil {
		return err
	}
	id, err := repertoireArg(cmd)
	if err != nil {
		return err
	}

	if err := fn(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ %s repertoire %d\n", verb, id)
}

// RepertoiresReorder sets the repertoire order.
func (r *Runner) RepertoiresReorder(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}

	order := cmd.IntArgs("ids")
	if len(order) == 0 {
		return fmt.Errorf("%w: repertoire ids", shared.ErrMissingArgument)
	}
	if err := srv.ReorderRepertoires(ctx, order); err != nil {
		return err
	}
	return r.writePlain("✓ Reordered %d repertoires\n", len(order))
}

// RepertoiresSync syncs a repertoire with its folders.
func (r *Runner) RepertoiresSync(ctx context.Context, cmd *cli.Command) error {
	return r.syncAction(ctx, cmd, "Sync", func(ctx context.Context, id int) (models.SyncStats, error) {
		return r.backend.SyncRepertoire(ctx, id)
	})
}

// RepertoiresUndoSync reverts the last sync.
func (r *Runner) RepertoiresUndoSync(ctx context.Context, cmd *cli.Command) error {
	return r.syncAction(ctx, cmd, "Undo sync", func(ctx context.Context, id int) (models.SyncStats, error) {
		return r.backend.UndoSyncRepertoire(ctx, id)
	})
}

func (r *Runner) syncAction(ctx context.Context, cmd *cli.Command, title string, fn func(context.Context, int) (models.SyncStats, error)) error {
	if _, err := r.requireBackend(); err != nil {
		return err
	}
	id, err := repertoireArg(cmd)
	if err != nil {
		return err
	}

	stats, err := fn(ctx, id)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("%s complete", title))
	for _, k := range slices.Sorted(maps.Keys(stats)) {
		r.writePlain("%-20s %v\n", k, stats[k])
	}
	return nil
}

// RepertoiresShare copies a repertoire to another user.
func (r *Runner) RepertoiresShare(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}
	id, err := repertoireArg(cmd)
	if err != nil {
		return err
	}

	res, err := srv.ShareRepertoire(ctx, id, cmd.Int("user"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s (new repertoire %d, %d songs copied)\n", res.Message, res.NewRepertoireID, res.SongsCopied)
}

// RepertoiresTime shows how long a repertoire has been practiced.
func (r *Runner) RepertoiresTime(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}
	id, err := repertoireArg(cmd)
	if err != nil {
		return err
	}

	tp, err := srv.TimePracticed(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(tp, true)
	}

	formatted := tp.Formatted
	if formatted == "" {
		formatted = fmt.Sprintf("%dh %dm", tp.Hours, tp.Minutes)
	}
	if tp.StartDate != "" {
		return r.writePlain("Time practiced: %s (since %s)\n", formatted, tp.StartDate)
	}
	return r.writePlain("Time practiced: %s\n", formatted)
}

// RepertoiresSetlist downloads the setlist PDF.
func (r *Runner) RepertoiresSetlist(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}
	id, err := repertoireArg(cmd)
	if err != nil {
		return err
	}

	var maxNumber *int
	if cmd.IsSet("max") {
		n := cmd.Int("max")
		maxNumber = &n
	}

	pdf, err := srv.SetlistPDF(ctx, id, maxNumber)
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if path == "" {
		path = fmt.Sprintf("setlist-%d.pdf", id)
	}
	if err := os.WriteFile(path, pdf, 0644); err != nil {
		return fmt.Errorf("failed to write setlist: %w", err)
	}

	r.logger.Info("setlist saved", "path", path, "size", formatter.Bytes(len(pdf)))
	return r.writePlain("✓ Setlist saved to %s (%s)\n", path, formatter.Bytes(len(pdf)))
}

// SkillsList prints the skills catalogue.
func (r *Runner) SkillsList(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}

	skills, err := srv.ListSkills(ctx)
	if err != nil {
		return err
	}
	if r.cache != nil {
		if err := r.cache.CacheSkills(skills); err != nil {
			r.logger.Warn("failed to cache skills", "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(skills, true)
	}
	for _, sk := range skills {
		r.writePlain("%4d  %s\n", sk.ID, sk.Name)
	}
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rehearse/internal/formatter"
	"github.com/desertthunder/rehearse/internal/models"
	"github.com/desertthunder/rehearse/internal/ordering"
	"github.com/desertthunder/rehearse/internal/shared"
	"github.com/desertthunder/rehearse/internal/tasks"
)

// sortState builds the sort from --sort, --reverse and --then.
func sortState(cmd *cli.Command) (ordering.SortState, error) {
	state := ordering.DefaultSort()
	if cmd.String("sort") == "" {
		return state, nil
	}

	key, err := ordering.ParseSortKey(cmd.String("sort"))
	if err != nil {
		return state, err
	}
	state.Key = key
	state.Reverse = cmd.Bool("reverse")

	if then := cmd.String("then"); then != "" {
		tk, err := ordering.ParseSortKey(then)
		if err != nil {
			return state, err
		}
		if tk != key {
			state.History = &ordering.SortLevel{Key: tk}
		}
	}
	return state, nil
}

// repertoireID returns a pointer to --repertoire, nil when unset.
func repertoireID(cmd *cli.Command) *int {
	if !cmd.IsSet("repertoire") {
		return nil
	}
	id := cmd.Int("repertoire")
	return &id
}

func songID(cmd *cli.Command) (int, error) {
	id := cmd.IntArg("id")
	if id <= 0 {
		return 0, fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}
	return id, nil
}

// controller creates a song list controller over the backend and the local cache.
func (r *Runner) controller(cmd *cli.Command) (*tasks.Controller, error) {
	srv, err := r.requireBackend()
	if err != nil {
		return nil, err
	}
	sort, err := sortState(cmd)
	if err != nil {
		return nil, err
	}

	opts := tasks.ControllerOpts{Logger: r.logger, Sort: &sort}
	if r.cache != nil {
		opts.Cache = r.cache
	}
	return tasks.NewController(srv, opts), nil
}

// SongsList prints the songs of a repertoire in rendered order.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	c, err := r.controller(cmd)
	if err != nil {
		return err
	}

	repID := repertoireID(cmd)
	if cmd.Bool("offline") {
		err = c.LoadOffline(repID)
	} else {
		err = c.SwitchRepertoire(ctx, repID)
	}
	if err != nil {
		return err
	}

	c.Search(cmd.String("search"))
	songs := c.Render()
	r.logger.Debug("rendered songs", "count", len(songs), "sort", c.State().Sort.String())

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	if err := formatter.WriteSongTable(r.output, songs, r.now()); err != nil {
		return err
	}
	m := c.Mastery()
	return r.writePlainln("%d songs · sorted by %s · mastery %d%% (%d/%d)",
		len(songs), c.State().Sort, m.Percent(), m.Mastered, m.Assigned)
}

// songInput reads the song flags that were set.
func songInput(cmd *cli.Command) (models.SongInput, error) {
	in := models.SongInput{
		Title:       cmd.String("title"),
		Artist:      cmd.String("artist"),
		SongNumber:  cmd.Int("number"),
		ReleaseDate: cmd.String("release-date"),
		Notes:       cmd.String("notes"),
		Hints:       cmd.String("hints"),
		SkillIDs:    cmd.IntSlice("skill"),
	}
	if id := repertoireID(cmd); id != nil {
		in.RepertoireID = *id
	}
	if cmd.IsSet("target") {
		target := cmd.Int("target")
		in.PracticeTarget = &target
	}

	switch p := models.Priority(cmd.String("priority")); p {
	case "":
	case models.PriorityLow, models.PriorityMid, models.PriorityHigh:
		in.Priority = p
	default:
		return in, fmt.Errorf("%w: priority must be low, mid or high, got %q", shared.ErrInvalidFlag, p)
	}
	return in, nil
}

// SongsAdd creates a song.
func (r *Runner) SongsAdd(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}
	in, err := songInput(cmd)
	if err != nil {
		return err
	}

	id, err := srv.CreateSong(ctx, in)
	if err != nil {
		return err
	}
	r.logger.Info("song created", "id", id)
	return r.writePlain("✓ Created song %d: %s\n", id, in.Title)
}

// SongsEdit updates a song.
func (r *Runner) SongsEdit(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}
	id, err := songID(cmd)
	if err != nil {
		return err
	}
	in, err := songInput(cmd)
	if err != nil {
		return err
	}

	if err := srv.UpdateSong(ctx, id, in); err != nil {
		return err
	}
	return r.writePlain("✓ Updated song %d\n", id)
}

// SongsDelete deletes a song.
func (r *Runner) SongsDelete(ctx context.Context, cmd *cli.Command) error {
	return r.songAction(ctx, cmd, "Deleted", func(ctx context.Context, id int) error {
		return r.backend.DeleteSong(ctx, id)
	})
}

// SongsPractice records one practice session.
func (r *Runner) SongsPractice(ctx context.Context, cmd *cli.Command) error {
	return r.songAction(ctx, cmd, "Practiced", func(ctx context.Context, id int) error {
		return r.backend.PracticeSong(ctx, id)
	})
}

// SongsPriority cycles the priority.
func (r *Runner) SongsPriority(ctx context.Context, cmd *cli.Command) error {
	return r.songAction(ctx, cmd, "Toggled priority of", func(ctx context.Context, id int) error {
		return r.backend.TogglePriority(ctx, id)
	})
}

// SongsDifficulty cycles the difficulty.
func (r *Runner) SongsDifficulty(ctx context.Context, cmd *cli.Command) error {
	return r.songAction(ctx, cmd, "Toggled difficulty of", func(ctx context.Context, id int) error {
		return r.backend.ToggleDifficulty(ctx, id)
	})
}

// SongsTarget increases the practice target.
func (r *Runner) SongsTarget(ctx context.Context, cmd *cli.Command) error {
	return r.songAction(ctx, cmd, "Increased target of", func(ctx context.Context, id int) error {
		return r.backend.IncreaseTarget(ctx, id)
	})
}

// SongsArchive archives a song.
func (r *Runner) SongsArchive(ctx context.Context, cmd *cli.Command) error {
	return r.songAction(ctx, cmd, "Archived", func(ctx context.Context, id int) error {
		return r.backend.ArchiveSong(ctx, id)
	})
}

// SongsSkill toggles mastery of one skill.
func (r *Runner) SongsSkill(ctx context.Context, cmd *cli.Command) error {
	skillID := cmd.IntArg("skill-id")
	if skillID <= 0 {
		return fmt.Errorf("%w: skill id", shared.ErrMissingArgument)
	}
	return r.songAction(ctx, cmd, "Toggled skill on", func(ctx context.Context, id int) error {
		return r.backend.ToggleSkill(ctx, id, skillID)
	})
}

// SongsAudio links or unlinks an audio file.
func (r *Runner) SongsAudio(ctx context.Context, cmd *cli.Command) error {
	return r.setMedia(ctx, cmd, models.MediaAudio)
}

// SongsChart links or unlinks a chart.
func (r *Runner) SongsChart(ctx context.Context, cmd *cli.Command) error {
	return r.setMedia(ctx, cmd, models.MediaChart)
}

func (r *Runner) setMedia(ctx context.Context, cmd *cli.Command, kind models.MediaKind) error {
	path := cmd.StringArg("path")
	unlink := cmd.Bool("unlink")
	if path == "" && !unlink {
		return fmt.Errorf("%w: path (or --unlink)", shared.ErrMissingArgument)
	}
	if unlink {
		path = ""
	}

	verb := fmt.Sprintf("Linked %s to", kind)
	if unlink {
		verb = fmt.Sprintf("Unlinked %s from", kind)
	}
	return r.songAction(ctx, cmd, verb, func(ctx context.Context, id int) error {
		return r.backend.SetMedia(ctx, id, kind, path)
	})
}

// songAction runs a single mutation on the song named by the id argument.
func (r *Runner) songAction(ctx context.Context, cmd *cli.Command, verb string, fn func(context.Context, int) error) error {
	if _, err := r.requireBackend(); err != nil {
		return err
	}
	id, err := songID(cmd)
	if err != nil {
		return err
	}

	if err := fn(ctx, id); err != nil {
		return err
	}
	r.logger.Debug("song action", "action", verb, "id", id)
	return r.writePlain("✓ %s song %d\n", verb, id)
}

// SongsMove moves a song by --by positions in song number order.
func (r *Runner) SongsMove(ctx context.Context, cmd *cli.Command) error {
	id, err := songID(cmd)
	if err != nil {
		return err
	}
	c, err := r.controller(cmd)
	if err != nil {
		return err
	}
	if err := c.SwitchRepertoire(ctx, repertoireID(cmd)); err != nil {
		return err
	}

	outcome, err := c.Move(ctx, id, cmd.Int("by"))
	if err != nil {
		return err
	}
	return r.reportOutcome(outcome, c)
}

// SongsSaveOrder makes the sorted order the new song numbering.
func (r *Runner) SongsSaveOrder(ctx context.Context, cmd *cli.Command) error {
	c, err := r.controller(cmd)
	if err != nil {
		return err
	}
	if err := c.SwitchRepertoire(ctx, repertoireID(cmd)); err != nil {
		return err
	}

	outcome, err := c.SaveVisualOrder(ctx)
	if err != nil {
		return err
	}
	return r.reportOutcome(outcome, c)
}

func (r *Runner) reportOutcome(outcome ordering.Outcome, c *tasks.Controller) error {
	switch outcome {
	case ordering.Unchanged:
		return r.writePlain("Order unchanged, nothing sent\n")
	case ordering.Failed:
		return fmt.Errorf("%w: reorder rejected, run `songs list` to see the current order", shared.ErrAPIRequest)
	}

	if err := r.writePlain("✓ Order saved\n\n"); err != nil {
		return err
	}
	return formatter.WriteSongTable(r.output, c.Render(), r.now())
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rehearse/internal/formatter"
	"github.com/desertthunder/rehearse/internal/ordering"
	"github.com/desertthunder/rehearse/internal/shared"
)

func (r *Runner) requireCache() error {
	if r.cache == nil {
		return fmt.Errorf("%w: local cache not initialized, run `rehearse setup cache`", shared.ErrServiceUnavailable)
	}
	return nil
}

// CacheRepertoire fetches a repertoire's songs into the cache. Without an id every song
// is cached.
func (r *Runner) CacheRepertoire(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}
	if err := r.requireCache(); err != nil {
		return err
	}

	var repID *int
	if id := cmd.IntArg("id"); id > 0 {
		repID = &id
	}

	reps, err := srv.ListRepertoires(ctx)
	if err != nil {
		return err
	}
	if err := r.cache.CacheRepertoires(reps); err != nil {
		return err
	}

	songs, err := srv.ListSongs(ctx, repID)
	if err != nil {
		return err
	}
	if err := r.cache.CacheSongs(repID, songs); err != nil {
		return err
	}

	if skills, err := srv.ListSkills(ctx); err == nil {
		if err := r.cache.CacheSkills(skills); err != nil {
			r.logger.Warn("failed to cache skills", "error", err)
		}
	} else {
		r.logger.Warn("failed to fetch skills", "error", err)
	}

	r.logger.Info("cached songs", "repertoire", repID, "count", len(songs))
	if repID == nil {
		return r.writePlain("✓ Cached %d repertoires and %d songs\n", len(reps), len(songs))
	}
	return r.writePlain("✓ Cached %d songs of repertoire %d\n", len(songs), *repID)
}

// CacheShow lists cached repertoires with their age, or the cached songs of one repertoire.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	if id := cmd.IntArg("id"); id > 0 {
		songs, err := r.cache.CachedSongs(&id)
		if err != nil {
			return err
		}
		seq := ordering.ComputeRenderSequence(songs, "", ordering.DefaultSort(), nil)
		return formatter.WriteSongTable(r.output, seq, r.now())
	}

	reps, err := r.cache.CachedRepertoires()
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Cached repertoires (%d)", len(reps)))
	for _, rep := range reps {
		age := "songs not cached"
		fetched, err := r.cache.Songs.FetchedAt(rep.ID)
		switch {
		case err == nil:
			age = "fetched " + humanize.RelTime(fetched, r.now(), "ago", "from now")
		case !errors.Is(err, shared.ErrCacheMiss):
			return err
		}
		r.writePlain("%4d  %-30s %s\n", rep.ID, rep.Name, age)
	}
	return nil
}

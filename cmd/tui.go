package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rehearse/internal/ordering"
	"github.com/desertthunder/rehearse/internal/shared"
	"github.com/desertthunder/rehearse/internal/tasks"
	"github.com/desertthunder/rehearse/internal/ui"
)

// TUI launches the interactive song list.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}

	// Logs go to a file so they do not tear the alt screen.
	fileLogger, closer, err := shared.NewFileLogger(r.config.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	shared.SetLogLevel(fileLogger, r.config.Logging.Level)

	sort := ordering.DefaultSort()
	if v := r.config.UI.DefaultSort; v != "" {
		key, err := ordering.ParseSortKey(v)
		if err != nil {
			return fmt.Errorf("%w: ui.default_sort: %v", shared.ErrInvalidConfig, err)
		}
		sort.Key = key
	}

	opts := tasks.ControllerOpts{Logger: fileLogger, Sort: &sort}
	if r.cache != nil {
		opts.Cache = r.cache
	}
	ctrl := tasks.NewController(srv, opts)

	defaultRep := r.config.UI.DefaultRepertoire
	if cmd.IsSet("repertoire") {
		defaultRep = cmd.Int("repertoire")
	}

	model := ui.NewModel(ctx, ctrl, ui.Options{DefaultRepertoire: defaultRep, Now: r.now})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if err := model.Err(); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			r.writePlain("Session expired. Sign in at %s\n", r.config.Backend.LoginURL("/"))
		}
		return err
	}
	return nil
}

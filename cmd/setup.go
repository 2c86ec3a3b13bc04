package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rehearse/internal/shared"
)

// SetupConfig writes the embedded example config to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set backend.base_url in %s\n", path)
	r.writePlain("2. Run 'rehearse auth login --email you@example.com' or 'rehearse setup session --curl-file request.sh'\n")
	return nil
}

// SetupCache initializes the cache database and runs migrations.
func (r *Runner) SetupCache(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Database
	r.logger.Info("initializing cache", "path", cfg.Path)

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	switch {
	case cmd.Bool("rollback"):
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.logger.Info("rolled back latest migration")
	case !cmd.Bool("status"):
		r.logger.Info("running database migrations")
		if err := shared.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	statuses, err := shared.Migrations(db)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		mark := "✗"
		if s.Applied {
			mark = "✓"
		}
		r.writePlain("%s %04d %s\n", mark, s.Version, s.Name)
	}
	r.logger.Infof("setup complete for cache: %v", cfg.Path)
	return nil
}

// SetupSession stores the session cookie from a browser cURL command or a raw value.
func (r *Runner) SetupSession(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	raw := cmd.String("cookie")

	given := 0
	for _, v := range []string{curlCmd, curlFile, raw} {
		if v != "" {
			given++
		}
	}
	if given == 0 {
		return fmt.Errorf("%w: one of --curl, --curl-file or --cookie must be provided", shared.ErrMissingArgument)
	}
	if given > 1 {
		return fmt.Errorf("%w: --curl, --curl-file and --cookie are exclusive", shared.ErrInvalidArgument)
	}

	var cookie string
	if raw != "" {
		cookie = shared.SessionCookieName + "=" + raw
	} else {
		var req *shared.CurlRequest
		var err error
		if curlFile != "" {
			req, err = shared.ParseCurlFile(curlFile)
		} else {
			req, err = shared.ParseCurlCommand([]byte(curlCmd))
		}
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		if cookie, err = req.SessionCookie(); err != nil {
			return err
		}
		r.logger.Debug("parsed cURL command", "url", req.URL, "headers", len(req.Headers))
	}

	path := r.config.Backend.SessionFile
	if err := shared.SaveSession(path, cookie); err != nil {
		return err
	}
	if r.api != nil {
		r.api.SetSession(cookie)
	}

	r.logger.Info("session saved", "path", path)
	return r.writePlain("✓ Session saved to %s\n", path)
}

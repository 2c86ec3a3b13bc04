package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rehearse/internal/repositories"
	"github.com/desertthunder/rehearse/internal/services"
	"github.com/desertthunder/rehearse/internal/shared"
)

const (
	defaultConfigPath = "config.toml"
	defaultEnvFile    = ".env"
	envConfigPath     = "REHEARSE_CONFIG"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := defaultConfigPath
	if v := os.Getenv(envConfigPath); v != "" {
		configPath = v
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	if err := config.ApplyEnv(defaultEnvFile); err != nil {
		logger.Fatalf("invalid environment: %v", err)
	}
	shared.SetLogLevel(logger, config.Logging.Level)

	opts := []services.APIOption{
		services.WithLogger(logger),
		services.WithUnauthorized(unauthorizedHook(config.Backend, logger)),
	}
	if cookie, err := shared.LoadSession(config.Backend.SessionFile); err == nil {
		opts = append(opts, services.WithSession(cookie))
	} else if !errors.Is(err, shared.ErrMissingSession) {
		logger.Warn("failed to load session", "error", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	apiService := services.NewAPIService(config.Backend.BaseURL, httpClient, opts...)

	var cache *repositories.Cache
	if db, err := shared.OpenCache(config.Database); err == nil {
		defer db.Close()
		cache = repositories.NewCache(db)
	} else {
		logger.Warn("local cache unavailable", "path", config.Database.Path, "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Backend:    services.NewBackend(apiService),
		API:        apiService,
		Cache:      cache,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "rehearse",
		Usage:    "Track practice progress across repertoires from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrMissingSession):
			fmt.Fprintf(os.Stderr, "Not logged in. Run `rehearse auth login` or sign in at %s\n", config.Backend.LoginURL(""))
			os.Exit(1)
		case errors.Is(err, shared.ErrTransport):
			logger.Fatalf("%s: %v", services.UserMessage(err), err)
		default:
			logger.Fatalf("application error: %s", services.UserMessage(err))
		}
	}
}

// unauthorizedHook reports the login URL returning to the app page. The rejected API path
// is only logged.
func unauthorizedHook(cfg shared.BackendConfig, logger *log.Logger) services.UnauthorizedFunc {
	return func(path string) {
		url := cfg.LoginURL("/")
		logger.Warn("session expired", "path", path, "login", url)
		if cfg.OpenBrowser {
			if err := shared.OpenBrowser(url); err != nil {
				logger.Warn("failed to open browser", "error", err)
			}
		}
	}
}

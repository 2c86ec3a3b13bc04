package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rehearse/internal/shared"
)

// AuthLogin signs in and stores the session cookie.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}

	email := cmd.String("email")
	r.logger.Info("signing in", "email", email)

	user, cookie, err := srv.Login(ctx, email, cmd.String("password"), cmd.Bool("remember"))
	if err != nil {
		return err
	}

	path := r.config.Backend.SessionFile
	if err := shared.SaveSession(path, cookie); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	r.logger.Info("session saved", "path", path)

	return r.writePlain("✓ Signed in as %s\n", user.Email)
}

// AuthLogout ends the session on the server and removes the stored cookie.
//
// The local cookie is removed even when the server call fails.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}

	logoutErr := srv.Logout(ctx)
	if logoutErr != nil && !errors.Is(logoutErr, shared.ErrNotAuthenticated) {
		r.logger.Warn("server logout failed", "error", logoutErr)
	}

	if err := shared.ClearSession(r.config.Backend.SessionFile); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus shows the signed-in user.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}

	user, err := srv.Me(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlainHeader("Authentication Status")
	r.writePlain("User:    %s (id %d)\n", user.Email, user.ID)
	r.writePlain("Role:    %s\n", user.Role)
	return r.writePlain("Server:  %s\n", r.config.Backend.BaseURL)
}

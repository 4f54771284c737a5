package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/practicelog/internal/server"
	"github.com/desertthunder/practicelog/internal/services"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = port
	}

	practice, err := r.practiceService(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, closeSessions, err := services.NewSessionStore(ctx, config.Session)
	if err != nil {
		return err
	}
	defer closeSessions()

	auth := services.NewAuthService(r.store.Users, sessions, services.NewBcryptHasher(config.Auth.BcryptCost), r.logger)

	r.logger.Info("starting practice log API",
		"database", config.Database.Path,
		"sessions", config.Session.Backend,
		"link_policy", practice.Policy())

	return server.NewServer(config, auth, practice, r.db, r.logger).ListenAndServe(ctx)
}

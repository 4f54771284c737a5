package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/practicelog/internal/formatter"
	"github.com/desertthunder/practicelog/internal/models"
	"github.com/desertthunder/practicelog/internal/ui"
	"github.com/urfave/cli/v3"
)

// SessionsExport writes a user's practice history to a file, or to stdout with --output -.
func (r *Runner) SessionsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	practice, err := r.practiceService(cmd)
	if err != nil {
		return err
	}

	user, err := r.store.Users.GetByName(ctx, cmd.String("user"))
	if err != nil {
		return err
	}

	sessions, err := practice.ListSessions(ctx, user.UserID, models.PracticeSessionFilter{})
	if err != nil {
		return err
	}

	export := &formatter.SessionExport{User: user, Sessions: sessions}

	if cmd.String("output") == "-" {
		return formatter.Write(r.output, export, format)
	}

	path, err := formatter.WriteExport(export, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("exported practice sessions", "user", user.UserName, "sessions", len(sessions), "path", path)
	return r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Exported %d sessions to %s", len(sessions), path)))
}

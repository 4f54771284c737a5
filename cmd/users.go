package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/practicelog/internal/models"
	"github.com/desertthunder/practicelog/internal/shared"
	"github.com/desertthunder/practicelog/internal/ui"
	"github.com/urfave/cli/v3"
)

// UsersList prints every registered user.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore(cmd)
	if err != nil {
		return err
	}

	users, err := store.Users.Select(ctx, models.UserFilter{})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(users, true)
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{strconv.FormatInt(u.UserID, 10), u.UserName})
	}

	r.writePlain("%s\n", ui.Styles.Title(fmt.Sprintf("Users (%d)", len(users))))
	return r.writePlain("%s\n", ui.Styles.Table([]string{"ID", "User name"}, rows))
}

// UsersDelete removes a user. Users who still own practice sessions are refused.
func (r *Runner) UsersDelete(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore(cmd)
	if err != nil {
		return err
	}

	id := cmd.Int64("id")
	n, err := store.Users.Delete(ctx, models.UserFilter{UserID: &id})
	if err != nil {
		return err
	}
	if n == 0 {
		return shared.NotFound("User not found")
	}

	r.logger.Info("deleted user", "user_id", id)
	return r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Deleted user %d", id)))
}

// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the practice log HTTP API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override the listen host",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override the listen port",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, then initialize the database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupRollback,
			},
			{
				Name:   "status",
				Usage:  "List migrations and whether they are applied",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupStatus,
			},
		},
	}
}

// usersCommand handles administrative user operations
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Inspect and remove users",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List registered users",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.UsersList,
			},
			{
				Name:  "delete",
				Usage: "Delete a user who owns no practice sessions",
				Flags: []cli.Flag{
					configFlag(),
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "User ID to delete",
						Required: true,
					},
				},
				Action: r.UsersDelete,
			},
		},
	}
}

// piecesCommand handles catalog operations
func piecesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pieces",
		Usage: "Manage the piece catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List pieces, optionally filtered",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "title",
						Usage: "Case-insensitive title substring",
					},
					&cli.StringFlag{
						Name:  "composer",
						Usage: "Case-insensitive composer substring",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PiecesList,
			},
			{
				Name:  "delete",
				Usage: "Delete a piece no practice session references",
				Flags: []cli.Flag{
					configFlag(),
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "Piece ID to delete",
						Required: true,
					},
				},
				Action: r.PiecesDelete,
			},
			{
				Name:  "import",
				Usage: "Import pieces from an OpenOpus catalog dump",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Catalog file (JSON, or YAML with a .yaml/.yml extension)",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "Catalog URL (defaults to import.source_url)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include composers not flagged popular",
					},
				},
				Action: r.PiecesImport,
			},
		},
	}
}

// sessionsCommand handles practice session exports
func sessionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Practice session history",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Export a user's practice sessions",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (csv, markdown, txt)",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path, or - for stdout",
					},
				},
				Action: r.SessionsExport,
			},
		},
	}
}

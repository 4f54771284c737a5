package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/practicelog/internal/models"
	"github.com/desertthunder/practicelog/internal/shared"
	tu "github.com/desertthunder/practicelog/internal/testing"
	"github.com/urfave/cli/v3"
)

const catalogYAML = `composers:
  - complete_name: Frédéric Chopin
    popular: "1"
    works:
      - title: Nocturne Op. 9 No. 2
      - title: Ballade No. 1
  - complete_name: Carl Czerny
    popular: "0"
    works:
      - title: Op. 299
`

// newTestRunner returns a runner over a migrated in-memory database, run from an empty
// working directory so no config.toml is picked up.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	t.Chdir(t.TempDir())

	logger, _ := tu.NewTestLogger()
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		DB:     tu.NewTestDB(t),
		Logger: logger,
		Output: output,
	})
	return runner, output
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "practice", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"practice"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			db := tu.NewTestDB(t)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				DB:         db,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.db != db || runner.store == nil {
				t.Error("expected injected database to back the store")
			}
			if err := runner.Close(); err != nil {
				t.Errorf("closing a runner should not close an injected database: %v", err)
			}
			if err := db.Ping(); err != nil {
				t.Errorf("injected database was closed: %v", err)
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
			if runner.store != nil {
				t.Error("expected the store to be opened lazily")
			}
		})
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("missing file uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: filepath.Join(t.TempDir(), "missing.toml")})

			config, err := runner.loadConfig(nil)
			if err != nil {
				t.Fatalf("loadConfig failed: %v", err)
			}
			if config.Server.Port != 5000 {
				t.Errorf("expected default port, got %d", config.Server.Port)
			}
		})

		t.Run("file overrides defaults", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			tu.MustWriteFile(t, path, "[practice]\nlink_policy = \"atomic\"\n")

			config, err := NewRunner(RunnerOpts{ConfigPath: path}).loadConfig(nil)
			if err != nil {
				t.Fatalf("loadConfig failed: %v", err)
			}
			if config.Practice.LinkPolicy != "atomic" {
				t.Errorf("expected atomic link policy, got %q", config.Practice.LinkPolicy)
			}
			if config.Database.Path != "./practice.db" {
				t.Errorf("unset keys should keep defaults, got %q", config.Database.Path)
			}
		})

		t.Run("invalid file is an error", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			tu.MustWriteFile(t, path, "[session]\nbackend = \"memcached\"\n")

			_, err := NewRunner(RunnerOpts{ConfigPath: path}).loadConfig(nil)
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeJSON(map[string]int{"count": 2}, false); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if output.String() != "{\"count\":2}\n" {
			t.Errorf("unexpected output %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writeJSON(map[string]int{}, true); err == nil {
			t.Error("expected error from failing writer")
		}

		limited := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
		if err := NewRunner(RunnerOpts{Output: &limited}).writeJSON(map[string]int{}, false); err == nil {
			t.Error("expected error when the trailing newline cannot be written")
		}
	})
}

func TestPiecesCommands(t *testing.T) {
	t.Run("import from file, list and delete", func(t *testing.T) {
		runner, output := newTestRunner(t)
		tu.MustWriteFile(t, "catalog.yaml", catalogYAML)

		if err := run(runner, "pieces", "import", "--file", "catalog.yaml"); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !strings.Contains(output.String(), "Imported 2 pieces from 1 composers") {
			t.Errorf("unexpected import output: %s", output.String())
		}

		output.Reset()
		if err := run(runner, "pieces", "list", "--composer", "chopin", "--json"); err != nil {
			t.Fatalf("list failed: %v", err)
		}

		var pieces []models.Piece
		if err := json.Unmarshal(output.Bytes(), &pieces); err != nil {
			t.Fatalf("list output is not JSON: %v\n%s", err, output.String())
		}
		if len(pieces) != 2 {
			t.Fatalf("expected 2 pieces, got %d", len(pieces))
		}

		output.Reset()
		if err := run(runner, "pieces", "list", "--title", "ballade"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Ballade No. 1") || strings.Contains(output.String(), "Nocturne") {
			t.Errorf("unexpected table output: %s", output.String())
		}

		id := strconv.FormatInt(pieces[0].PieceID, 10)
		if err := run(runner, "pieces", "delete", "--id", id); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		err := run(runner, "pieces", "delete", "--id", id)
		if shared.KindOf(err) != shared.KindNotFound {
			t.Errorf("expected not found deleting twice, got %v", err)
		}
	})

	t.Run("import is repeatable", func(t *testing.T) {
		runner, output := newTestRunner(t)
		tu.MustWriteFile(t, "catalog.yml", catalogYAML)

		for range 2 {
			if err := run(runner, "pieces", "import", "-f", "catalog.yml", "--all"); err != nil {
				t.Fatalf("import failed: %v", err)
			}
		}
		if !strings.Contains(output.String(), "3 already in the catalog") {
			t.Errorf("second import should report duplicates: %s", output.String())
		}
	})

	t.Run("import from URL", func(t *testing.T) {
		t.Chdir(t.TempDir())
		body := `{"composers":[{"complete_name":"Johann Sebastian Bach","popular":"1","works":[{"title":"Cello Suite No. 1"}]}]}`
		rt := tu.NewMockRoundTripper(tu.JSONResponse(http.StatusOK, body), nil)

		logger, _ := tu.NewTestLogger()
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			DB:         tu.NewTestDB(t),
			HTTPClient: &http.Client{Transport: rt},
			Logger:     logger,
			Output:     output,
		})

		if err := run(runner, "pieces", "import", "--url", "https://catalog.example/dump.json"); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if len(rt.Requests) != 1 || rt.Requests[0].URL.Host != "catalog.example" {
			t.Errorf("expected one request to the given URL, got %v", rt.Requests)
		}
		if !strings.Contains(output.String(), "Imported 1 pieces") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("import failure", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		runner.httpClient = &http.Client{Transport: tu.NewMockRoundTripper(tu.JSONResponse(http.StatusInternalServerError, "{}"), nil)}

		if err := run(runner, "pieces", "import"); err == nil {
			t.Error("expected error when the catalog cannot be downloaded")
		}
	})
}

func TestUsersCommands(t *testing.T) {
	runner, output := newTestRunner(t)
	ctx := context.Background()

	alice, err := runner.store.Users.Insert(ctx, &models.User{UserName: "alice", PasswordHash: "digest"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	bob, err := runner.store.Users.Insert(ctx, &models.User{UserName: "bob", PasswordHash: "digest"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	_, err = runner.store.Sessions.Insert(ctx, &models.PracticeSession{
		StartDatetime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		DurationMins:  30,
		Instrument:    "violin",
		UserID:        alice.UserID,
	})
	if err != nil {
		t.Fatalf("insert session failed: %v", err)
	}

	if err := run(runner, "users", "list"); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(output.String(), "Users (2)") || !strings.Contains(output.String(), "bob") {
		t.Errorf("unexpected list output: %s", output.String())
	}

	err = run(runner, "users", "delete", "--id", strconv.FormatInt(alice.UserID, 10))
	if shared.KindOf(err) != shared.KindClient {
		t.Fatalf("deleting a user with sessions should be refused, got %v", err)
	}
	if shared.AsError(err).Message != "User still owns practice sessions" {
		t.Errorf("unexpected message %q", shared.AsError(err).Message)
	}

	if err := run(runner, "users", "delete", "--id", strconv.FormatInt(bob.UserID, 10)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	err = run(runner, "users", "delete", "--id", strconv.FormatInt(bob.UserID, 10))
	if shared.KindOf(err) != shared.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSessionsExport(t *testing.T) {
	runner, output := newTestRunner(t)
	ctx := context.Background()

	alice, err := runner.store.Users.Insert(ctx, &models.User{UserName: "alice", PasswordHash: "digest"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	piece, err := runner.store.Pieces.Insert(ctx, &models.Piece{Title: "Nocturne", Composer: "Chopin"})
	if err != nil {
		t.Fatalf("insert piece failed: %v", err)
	}
	session, err := runner.store.Sessions.Insert(ctx, &models.PracticeSession{
		StartDatetime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		DurationMins:  30,
		Instrument:    "piano",
		UserID:        alice.UserID,
	})
	if err != nil {
		t.Fatalf("insert session failed: %v", err)
	}
	if _, err := runner.store.Links.Insert(ctx, &models.PieceLink{PracticeSessionID: session.PracticeSessionID, PieceID: piece.PieceID}); err != nil {
		t.Fatalf("insert link failed: %v", err)
	}

	t.Run("stdout", func(t *testing.T) {
		output.Reset()
		if err := run(runner, "sessions", "export", "--user", "alice", "--format", "txt", "--output", "-"); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(output.String(), "1. 2024-01-01T10:00:00 piano [30m]") {
			t.Errorf("unexpected export: %s", output.String())
		}
		if !strings.Contains(output.String(), "Chopin - Nocturne") {
			t.Errorf("export missing piece: %s", output.String())
		}
	})

	t.Run("default file", func(t *testing.T) {
		if err := run(runner, "sessions", "export", "-u", "alice", "--format", "markdown"); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		tu.AssertFileExists(t, "alice_sessions.md")
		if !strings.Contains(tu.MustReadFile(t, "alice_sessions.md"), "## 2024-01-01") {
			t.Error("markdown export missing day heading")
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		err := run(runner, "sessions", "export", "--user", "nobody")
		if shared.KindOf(err) != shared.KindNotFound {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		err := run(runner, "sessions", "export", "--user", "alice", "--format", "pdf")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Chdir(t.TempDir())

	logger, _ := tu.NewTestLogger()
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: logger, Output: output})
	t.Cleanup(func() { runner.Close() })

	if err := run(runner, "setup", "database", "--config", "config.toml"); err != nil {
		t.Fatalf("setup database failed: %v", err)
	}
	tu.AssertFileExists(t, "config.toml")
	tu.AssertFileExists(t, "practice.db")
	if !strings.Contains(output.String(), "Database ready: ./practice.db") {
		t.Errorf("unexpected output: %s", output.String())
	}

	output.Reset()
	if err := run(runner, "setup", "status"); err != nil {
		t.Fatalf("setup status failed: %v", err)
	}
	if strings.Contains(output.String(), "pending") || !strings.Contains(output.String(), "applied") {
		t.Errorf("all migrations should be applied: %s", output.String())
	}

	if err := run(runner, "setup", "rollback"); err != nil {
		t.Fatalf("setup rollback failed: %v", err)
	}

	output.Reset()
	if err := run(runner, "setup", "status"); err != nil {
		t.Fatalf("setup status failed: %v", err)
	}
	if !strings.Contains(output.String(), "pending") {
		t.Errorf("latest migration should be pending after rollback: %s", output.String())
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rehearse/internal/models"
	"github.com/desertthunder/rehearse/internal/repositories"
	"github.com/desertthunder/rehearse/internal/services"
	"github.com/desertthunder/rehearse/internal/shared"
	tu "github.com/desertthunder/rehearse/internal/testing"
)

func fixtureSongs() []models.Song {
	return []models.Song{
		{ID: 1, SongNumber: 1, Title: "Alpha", Artist: "The As", RepertoireID: 1, Priority: models.PriorityLow},
		{ID: 2, SongNumber: 2, Title: "Bravo", Artist: "The Bs", RepertoireID: 1, Priority: models.PriorityMid},
		{ID: 3, SongNumber: 3, Title: "Charlie", Artist: "The Cs", RepertoireID: 1, Priority: models.PriorityHigh},
		{ID: 4, SongNumber: 1, Title: "Delta", Artist: "The Ds", RepertoireID: 2, Priority: models.PriorityMid},
	}
}

func fixtureRepertoires() []models.Repertoire {
	return []models.Repertoire{
		{ID: 1, Name: "Pub Night", SortOrder: 0, SongCount: 3},
		{ID: 2, Name: "Wedding", SortOrder: 1, SongCount: 1},
	}
}

func newTestRunner(t *testing.T, mock *tu.MockService) (*Runner, *bytes.Buffer) {
	t.Helper()
	output := &bytes.Buffer{}
	config := shared.DefaultConfig()
	config.Backend.SessionFile = filepath.Join(t.TempDir(), "session")

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Backend: mock,
		Logger:  shared.NewLogger(io.Discard),
		Output:  output,
		Now:     func() time.Time { return time.Date(2025, 1, 2, 12, 0, 0, 0, time.Local) },
	})
	return runner, output
}

func newTestCache(t *testing.T) *repositories.Cache {
	t.Helper()
	db, err := shared.OpenCache(shared.DatabaseConfig{Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repositories.NewCache(db)
}

// run executes args against a fresh command tree, as main does.
func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "rehearse", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"rehearse"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			backend := tu.NewMockService(nil, nil)
			api := &services.APIService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Backend:    backend,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
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
			if runner.backend != backend {
				t.Error("expected backend to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writes plain text without formatting", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("simple text")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "simple text" {
				t.Errorf("expected 'simple text', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("requireBackend", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})

		err := run(runner, "songs", "list")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestSongsCommands(t *testing.T) {
	t.Run("list renders sorted songs", func(t *testing.T) {
		runner, output := newTestRunner(t, tu.NewMockService(fixtureSongs(), fixtureRepertoires()))

		if err := run(runner, "songs", "list", "--repertoire", "1", "--sort", "priority"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		hi, mid, lo := strings.Index(result, "Charlie"), strings.Index(result, "Bravo"), strings.Index(result, "Alpha")
		if hi < 0 || !(hi < mid && mid < lo) {
			t.Errorf("expected high, mid, low order:\n%s", result)
		}
		if !strings.Contains(result, "3 songs") || !strings.Contains(result, "sorted by") {
			t.Errorf("expected summary line, got:\n%s", result)
		}
		if strings.Contains(result, "Delta") {
			t.Error("expected songs of other repertoires to be excluded")
		}
	})

	t.Run("list filters by search", func(t *testing.T) {
		runner, output := newTestRunner(t, tu.NewMockService(fixtureSongs(), fixtureRepertoires()))

		if err := run(runner, "songs", "list", "--search", "ELT", "--json", "--pretty=false"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var songs []models.Song
		if err := json.Unmarshal(output.Bytes(), &songs); err != nil {
			t.Fatalf("expected JSON output, got %v", err)
		}
		if len(songs) != 1 || songs[0].ID != 4 {
			t.Errorf("expected only Delta, got %+v", songs)
		}
	})

	t.Run("list rejects unknown sort key", func(t *testing.T) {
		runner, _ := newTestRunner(t, tu.NewMockService(fixtureSongs(), fixtureRepertoires()))

		err := run(runner, "songs", "list", "--sort", "tempo")
		if !errors.Is(err, shared.ErrInvalidSortKey) {
			t.Errorf("expected ErrInvalidSortKey, got %v", err)
		}
	})

	t.Run("list offline reads the cache", func(t *testing.T) {
		mock := tu.NewMockService(fixtureSongs(), fixtureRepertoires())
		runner, output := newTestRunner(t, mock)
		runner.cache = newTestCache(t)

		if err := run(runner, "cache", "repertoire", "1"); err != nil {
			t.Fatalf("failed to cache: %v", err)
		}
		output.Reset()

		mock.Errs["ListSongs"] = shared.ErrTransport
		if err := run(runner, "songs", "list", "--repertoire", "1", "--offline"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Charlie") {
			t.Errorf("expected cached songs, got:\n%s", output.String())
		}
	})

	t.Run("practice", func(t *testing.T) {
		mock := tu.NewMockService(fixtureSongs(), fixtureRepertoires())
		runner, output := newTestRunner(t, mock)

		if err := run(runner, "songs", "practice", "2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if mock.CallCount("PracticeSong") != 1 {
			t.Errorf("expected one practice call, got %d", mock.CallCount("PracticeSong"))
		}
		if !strings.Contains(output.String(), "Practiced song 2") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("row action requires an id", func(t *testing.T) {
		runner, _ := newTestRunner(t, tu.NewMockService(fixtureSongs(), fixtureRepertoires()))

		err := run(runner, "songs", "archive")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("add rejects invalid priority", func(t *testing.T) {
		mock := tu.NewMockService(fixtureSongs(), fixtureRepertoires())
		runner, _ := newTestRunner(t, mock)

		err := run(runner, "songs", "add", "--title", "Echo", "--priority", "urgent")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
		if mock.CallCount("CreateSong") != 0 {
			t.Error("expected no request")
		}
	})

	t.Run("move submits the new order", func(t *testing.T) {
		mock := tu.NewMockService(fixtureSongs(), fixtureRepertoires())
		runner, output := newTestRunner(t, mock)

		if err := run(runner, "songs", "move", "--repertoire", "1", "--by", "2", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(mock.Reorders) != 1 || !slices.Equal(mock.Reorders[0], []int{2, 3, 1}) {
			t.Errorf("expected reorder [2 3 1], got %v", mock.Reorders)
		}
		if !strings.Contains(output.String(), "Order saved") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("move by zero sends nothing", func(t *testing.T) {
		mock := tu.NewMockService(fixtureSongs(), fixtureRepertoires())
		runner, output := newTestRunner(t, mock)

		if err := run(runner, "songs", "move", "--repertoire", "1", "--by", "0", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if mock.CallCount("ReorderSongs") != 0 {
			t.Error("expected no reorder request")
		}
		if !strings.Contains(output.String(), "Order unchanged") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("save-order submits the sorted view", func(t *testing.T) {
		mock := tu.NewMockService(fixtureSongs(), fixtureRepertoires())
		runner, _ := newTestRunner(t, mock)

		if err := run(runner, "songs", "save-order", "--repertoire", "1", "--sort", "name", "--reverse"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(mock.Reorders) != 1 || !slices.Equal(mock.Reorders[0], []int{3, 2, 1}) {
			t.Errorf("expected reorder [3 2 1], got %v", mock.Reorders)
		}
	})

	t.Run("failed reorder is reported", func(t *testing.T) {
		mock := tu.NewMockService(fixtureSongs(), fixtureRepertoires())
		mock.Errs["ReorderSongs"] = &services.APIError{Status: 400, Message: "Invalid song IDs"}
		runner, _ := newTestRunner(t, mock)

		err := run(runner, "songs", "move", "--repertoire", "1", "--by", "1", "1")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestRepertoiresCommands(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		mock := tu.NewMockService(fixtureSongs(), fixtureRepertoires())
		runner, output := newTestRunner(t, mock)
		runner.cache = newTestCache(t)

		if err := run(runner, "repertoires", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{"Pub Night", "Wedding"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected %q in output:\n%s", want, output.String())
			}
		}

		cached, err := runner.cache.CachedRepertoires()
		if err != nil || len(cached) != 2 {
			t.Errorf("expected repertoires to be cached, got %v (%v)", cached, err)
		}
	})

	t.Run("reorder", func(t *testing.T) {
		mock := tu.NewMockService(fixtureSongs(), fixtureRepertoires())
		runner, _ := newTestRunner(t, mock)

		if err := run(runner, "repertoires", "reorder", "2", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if mock.CallCount("ReorderRepertoires") != 1 {
			t.Error("expected a reorder call")
		}
	})

	t.Run("setlist writes the pdf", func(t *testing.T) {
		mock := tu.NewMockService(fixtureSongs(), fixtureRepertoires())
		mock.PDF = []byte("%PDF-1.4")
		runner, _ := newTestRunner(t, mock)
		path := filepath.Join(t.TempDir(), "setlist.pdf")

		if err := run(runner, "repertoires", "setlist", "--output", path, "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil || string(data) != "%PDF-1.4" {
			t.Errorf("expected pdf to be written, got %q (%v)", data, err)
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login saves the session", func(t *testing.T) {
		runner, output := newTestRunner(t, tu.NewMockService(nil, nil))

		if err := run(runner, "auth", "login", "--email", "me@example.com", "--password", "secret"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		cookie, err := shared.LoadSession(runner.config.Backend.SessionFile)
		if err != nil || cookie != shared.SessionCookieName+"=mock" {
			t.Errorf("expected stored session, got %q (%v)", cookie, err)
		}
		if !strings.Contains(output.String(), "me@example.com") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("logout clears the session", func(t *testing.T) {
		runner, _ := newTestRunner(t, tu.NewMockService(nil, nil))
		if err := shared.SaveSession(runner.config.Backend.SessionFile, "session=abc"); err != nil {
			t.Fatal(err)
		}

		if err := run(runner, "auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := shared.LoadSession(runner.config.Backend.SessionFile); !errors.Is(err, shared.ErrMissingSession) {
			t.Errorf("expected ErrMissingSession, got %v", err)
		}
	})

	t.Run("status when signed out", func(t *testing.T) {
		mock := tu.NewMockService(nil, nil)
		mock.Errs["Me"] = shared.ErrNotAuthenticated
		runner, _ := newTestRunner(t, mock)

		if err := run(runner, "auth", "status"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestExportCommand(t *testing.T) {
	t.Run("writes one file per repertoire", func(t *testing.T) {
		runner, output := newTestRunner(t, tu.NewMockService(fixtureSongs(), fixtureRepertoires()))
		dir := t.TempDir()

		err := run(runner, "export", "--format", "markdown", "--output", dir, "--workers", "2", "--rate", "1000")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		files, _ := filepath.Glob(filepath.Join(dir, "*.md"))
		if len(files) != 2 {
			t.Errorf("expected 2 markdown files, got %v", files)
		}
		if !strings.Contains(output.String(), "Exported: 2/2 repertoires") {
			t.Errorf("expected summary, got:\n%s", output.String())
		}
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		runner, _ := newTestRunner(t, tu.NewMockService(fixtureSongs(), fixtureRepertoires()))

		if err := run(runner, "export", "--format", "xlsx", "--output", t.TempDir()); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestCacheCommands(t *testing.T) {
	t.Run("requires the cache", func(t *testing.T) {
		runner, _ := newTestRunner(t, tu.NewMockService(fixtureSongs(), fixtureRepertoires()))

		if err := run(runner, "cache", "show"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("show lists cached repertoires", func(t *testing.T) {
		runner, output := newTestRunner(t, tu.NewMockService(fixtureSongs(), fixtureRepertoires()))
		runner.cache = newTestCache(t)

		if err := run(runner, "cache", "repertoire", "2"); err != nil {
			t.Fatalf("failed to cache: %v", err)
		}
		output.Reset()

		if err := run(runner, "cache", "show"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		result := output.String()
		if !strings.Contains(result, "Wedding") || !strings.Contains(result, "songs not cached") {
			t.Errorf("expected Pub Night uncached and Wedding cached:\n%s", result)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("session from raw cookie", func(t *testing.T) {
		runner, _ := newTestRunner(t, tu.NewMockService(nil, nil))

		if err := run(runner, "setup", "session", "--cookie", "abc123"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		cookie, _ := shared.LoadSession(runner.config.Backend.SessionFile)
		if cookie != "session=abc123" {
			t.Errorf("expected session=abc123, got %q", cookie)
		}
	})

	t.Run("session requires exactly one source", func(t *testing.T) {
		runner, _ := newTestRunner(t, tu.NewMockService(nil, nil))

		if err := run(runner, "setup", "session"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := run(runner, "setup", "session", "--cookie", "a", "--curl", "curl x"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("cache migrations", func(t *testing.T) {
		runner, output := newTestRunner(t, tu.NewMockService(nil, nil))
		runner.config.Database.Path = filepath.Join(t.TempDir(), "cache.db")

		if err := run(runner, "setup", "cache"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "✓ 0001") {
			t.Errorf("expected applied migration, got:\n%s", output.String())
		}
	})
}

func TestUnauthorizedHook(t *testing.T) {
	var logs bytes.Buffer
	cfg := shared.BackendConfig{BaseURL: "http://127.0.0.1:5000", LoginPath: "/login"}

	unauthorizedHook(cfg, shared.NewLogger(&logs))("/api/songs?repertoire_id=1")

	result := logs.String()
	if !strings.Contains(result, "next=%2F") {
		t.Errorf("expected login to return to the app page, got %s", result)
	}
	if strings.Contains(result, "next=%2Fapi") {
		t.Errorf("expected the API path to stay out of the login URL, got %s", result)
	}
}

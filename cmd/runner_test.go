package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/services"
	"github.com/desertthunder/sortify/internal/shared"
	tu "github.com/desertthunder/sortify/internal/testing"
)

// fakeRunner returns a runner wired to a fake Spotify serving tracks, with its config saved at configPath.
func fakeRunner(t *testing.T, tracks []tu.FakeTrack, cred models.Credential) (*Runner, *tu.FakeSpotify, *bytes.Buffer, string) {
	t.Helper()

	fake := tu.NewFakeSpotify(t, tracks)

	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = "test_id"
	config.Credentials.Spotify.ClientSecret = "test_secret"
	config.Credentials.Spotify.AccessToken = cred.AccessToken
	config.Credentials.Spotify.RefreshToken = cred.RefreshToken
	config.Credentials.Spotify.ExpiresAt = cred.ExpiresAt
	config.Spotify.AuthURL = fake.AuthURL()
	config.Spotify.TokenURL = fake.TokenURL()
	config.Spotify.APIURL = fake.APIURL()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := shared.SaveConfig(configPath, config); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	spotify, err := services.NewSpotifyService(
		config.Credentials.Spotify.Map(),
		services.Endpoints{AuthURL: fake.AuthURL(), TokenURL: fake.TokenURL(), APIURL: fake.APIURL()},
		fake.Server.Client(),
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotify,
		Logger:     shared.NewLogger(&bytes.Buffer{}),
		Output:     output,
	})
	return runner, fake, output, configPath
}

func liveCredential() models.Credential {
	return models.Credential{
		AccessToken:  tu.TestAccessToken,
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			spotify := &services.SpotifyService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Spotify:    spotify,
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
			if runner.spotify != spotify {
				t.Error("expected spotify to be set")
			}
		})

		t.Run("with zero options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
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

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("test"); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "group", "serve", "tui"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("credential", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		if _, err := runner.credential(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}

		runner.config.Credentials.Spotify.AccessToken = "a"
		runner.config.Credentials.Spotify.ExpiresAt = 42
		cred, err := runner.credential()
		if err != nil || cred.AccessToken != "a" || cred.ExpiresAt != 42 {
			t.Errorf("expected stored credential, got %+v %v", cred, err)
		}
	})

	t.Run("requireSpotify", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		if _, err := runner.pipeline(true); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("saveCredential", func(t *testing.T) {
		t.Run("saves tokens successfully", func(t *testing.T) {
			runner, _, _, configPath := fakeRunner(t, nil, models.Credential{})

			cred := models.Credential{AccessToken: "new_access_token", RefreshToken: "new_refresh_token", ExpiresAt: 1_800_000_000}
			if err := runner.saveCredential(cred); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			loaded, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}

			sc := loaded.Credentials.Spotify
			if sc.AccessToken != "new_access_token" || sc.RefreshToken != "new_refresh_token" || sc.ExpiresAt != 1_800_000_000 {
				t.Errorf("expected tokens to be saved, got %+v", sc)
			}
		})

		t.Run("handles nil config error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			runner.config = nil

			err := runner.saveCredential(models.Credential{AccessToken: "test"})
			if err == nil || !strings.Contains(err.Error(), "config is nil") {
				t.Errorf("expected nil config error, got %v", err)
			}
		})

		t.Run("handles empty configPath", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config})

			if err := runner.saveCredential(models.Credential{AccessToken: "new_token"}); err != nil {
				t.Fatalf("expected no error with empty path, got %v", err)
			}
			if config.Credentials.Spotify.AccessToken != "new_token" {
				t.Error("expected config to be updated in memory")
			}
		})

		t.Run("handles SaveConfig failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config:     shared.DefaultConfig(),
				ConfigPath: filepath.Join(t.TempDir(), "missing", "config.toml"),
			})

			err := runner.saveCredential(models.Credential{AccessToken: "test"})
			if err == nil || !strings.Contains(err.Error(), "failed to save config") {
				t.Errorf("expected save config error, got %v", err)
			}
		})

		t.Run("handles Update error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			err := runner.saveCredential(models.Credential{})
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
			if !strings.Contains(err.Error(), "failed to update spotify configuration") {
				t.Errorf("expected update error, got %v", err)
			}
		})
	})
}

func TestGroupCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("JSON To Stdout", func(t *testing.T) {
		runner, _, output, _ := fakeRunner(t, tu.GenerateTracks(20), liveCredential())

		if err := groupCommand(runner).Run(ctx, []string{"group", "--format", "json"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var got map[string][]string
		if err := json.Unmarshal(output.Bytes(), &got); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", output.String(), err)
		}
		if len(got) != 8 {
			t.Errorf("expected 8 playlists, got %d", len(got))
		}
	})

	t.Run("Clusters Flag", func(t *testing.T) {
		runner, _, output, _ := fakeRunner(t, tu.GenerateTracks(20), liveCredential())

		if err := groupCommand(runner).Run(ctx, []string{"group", "-f", "json", "--clusters", "3"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var got map[string][]string
		if err := json.Unmarshal(output.Bytes(), &got); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("expected 3 playlists, got %d", len(got))
		}
	})

	t.Run("Clusters Above Eight", func(t *testing.T) {
		runner, fake, _, _ := fakeRunner(t, tu.GenerateTracks(20), liveCredential())

		err := groupCommand(runner).Run(ctx, []string{"group", "--clusters", "12"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
		if fake.PageHits.Load() != 0 {
			t.Error("expected no requests with an invalid cluster count")
		}
	})

	t.Run("Output File", func(t *testing.T) {
		runner, _, output, _ := fakeRunner(t, tu.GenerateTracks(12), liveCredential())
		path := filepath.Join(t.TempDir(), "playlists.md")

		if err := groupCommand(runner).Run(ctx, []string{"group", "--format", "md", "--output", path}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, path)
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "## playlist #1") {
			t.Errorf("expected markdown playlists, got %s", content)
		}
		if !strings.Contains(output.String(), "Wrote 8 playlists") {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})

	t.Run("Expired Credential Is Refreshed And Saved", func(t *testing.T) {
		cred := liveCredential()
		cred.ExpiresAt = time.Now().Add(-time.Minute).Unix()
		runner, fake, _, configPath := fakeRunner(t, tu.GenerateTracks(10), cred)
		fake.AccessToken = tu.RefreshedAccessToken

		if err := groupCommand(runner).Run(ctx, []string{"group"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if sc := loaded.Credentials.Spotify; sc.AccessToken != tu.RefreshedAccessToken || sc.RefreshToken != "refresh" {
			t.Errorf("expected refreshed tokens saved, got %+v", sc)
		}
	})

	t.Run("Not Authenticated", func(t *testing.T) {
		runner, _, _, _ := fakeRunner(t, nil, models.Credential{})

		err := groupCommand(runner).Run(ctx, []string{"group"})
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Unknown Format", func(t *testing.T) {
		runner, _, _, _ := fakeRunner(t, nil, liveCredential())

		err := groupCommand(runner).Run(ctx, []string{"group", "--format", "yaml"})
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("Insufficient Data", func(t *testing.T) {
		runner, _, _, _ := fakeRunner(t, tu.GenerateTracks(4), liveCredential())

		err := groupCommand(runner).Run(ctx, []string{"group"})
		if !errors.Is(err, shared.ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})
}

func TestSetupCommand(t *testing.T) {
	tempDir := t.TempDir()
	originalDir := tu.MustGetwd(t)
	tu.MustChdir(t, tempDir)
	defer tu.MustChdir(t, originalDir)

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})

	if err := setupCommand(runner).Run(context.Background(), []string{"setup", "--config", "config.toml"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tu.AssertFileExists(t, "config.toml")
	tu.AssertFileExists(t, "sortify.db")
	if !strings.Contains(output.String(), "schema v1") {
		t.Errorf("expected schema version in output, got %q", output.String())
	}

	// Running again keeps the existing config and finds nothing to migrate.
	if err := setupCommand(runner).Run(context.Background(), []string{"setup", "--config", "config.toml"}); err != nil {
		t.Fatalf("expected second setup to succeed, got %v", err)
	}
}

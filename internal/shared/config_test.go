package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./spotybot.db" {
			t.Errorf("expected database path ./spotybot.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}
		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Telegram.MessagesPerSecond != 30 {
			t.Errorf("expected 30 messages per second, got %v", config.Telegram.MessagesPerSecond)
		}
		if config.Telegram.PauseEvery != 10 {
			t.Errorf("expected pause every 10 items, got %d", config.Telegram.PauseEvery)
		}
		if config.Telegram.PauseDuration != time.Second {
			t.Errorf("expected pause duration 1s, got %v", config.Telegram.PauseDuration)
		}
		if config.Registration.PendingTTL != time.Hour {
			t.Errorf("expected pending ttl 1h, got %v", config.Registration.PendingTTL)
		}
		if config.Credentials.Spotify.RequestTimeout != 15*time.Second {
			t.Errorf("expected request timeout 15s, got %v", config.Credentials.Spotify.RequestTimeout)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "127.0.0.1"
port = 8080

[telegram]
token = "123:abc"
pause_duration = "250ms"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:8080/authorize"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Server.Addr() != "127.0.0.1:8080" {
			t.Errorf("expected addr 127.0.0.1:8080, got %s", config.Server.Addr())
		}
		if config.Telegram.PauseDuration != 250*time.Millisecond {
			t.Errorf("expected pause duration 250ms, got %v", config.Telegram.PauseDuration)
		}
		if config.Telegram.MessagesPerSecond != 30 {
			t.Errorf("expected unset keys to keep defaults, got %v", config.Telegram.MessagesPerSecond)
		}
		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			"TELEGRAM_BOT_TOKEN":   "env-token",
			"SPOTIFY_CLIENT_ID":    "env-id",
			"SPOTIFY_SECRET":       "env-secret",
			"SPOTIFY_REDIRECT_URI": "https://bot.example.com/authorize",
			"DATABASE_PATH":        "/data/bot.db",
			"PORT":                 "9000",
		}
		config := DefaultConfig()
		if err := config.ApplyEnv(func(k string) string { return env[k] }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if config.Telegram.Token != "env-token" {
			t.Errorf("expected token from env, got %s", config.Telegram.Token)
		}
		if config.Credentials.Spotify.ClientSecret != "env-secret" {
			t.Errorf("expected secret from env, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Credentials.Spotify.RedirectURI != "https://bot.example.com/authorize" {
			t.Errorf("expected redirect uri from env, got %s", config.Credentials.Spotify.RedirectURI)
		}
		if config.Database.Path != "/data/bot.db" {
			t.Errorf("expected database path from env, got %s", config.Database.Path)
		}
		if config.Server.Port != 9000 {
			t.Errorf("expected port 9000, got %d", config.Server.Port)
		}
	})

	t.Run("ApplyEnv Invalid Port", func(t *testing.T) {
		config := DefaultConfig()
		err := config.ApplyEnv(func(k string) string {
			if k == "PORT" {
				return "eighty"
			}
			return ""
		})
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.Validate(); err != nil {
			t.Errorf("expected example config to validate, got %v", err)
		}

		config.Telegram.Token = ""
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		config = DefaultConfig()
		config.Telegram.MessagesPerSecond = 0
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Telegram     TelegramConfig     `toml:"telegram"`
	Credentials  CredentialsConfig  `toml:"credentials"`
	Database     DatabaseConfig     `toml:"database"`
	Server       ServerConfig       `toml:"server"`
	Registration RegistrationConfig `toml:"registration"`
	Log          LogConfig          `toml:"log"`
}

// TelegramConfig contains bot credentials and outbound pacing settings.
type TelegramConfig struct {
	Token             string        `toml:"token"`
	PollTimeout       int           `toml:"poll_timeout"`
	HandlerTimeout    time.Duration `toml:"handler_timeout"`
	MessagesPerSecond float64       `toml:"messages_per_second"`
	PauseEvery        int           `toml:"pause_every"`
	PauseDuration     time.Duration `toml:"pause_duration"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID       string        `toml:"client_id"`
	ClientSecret   string        `toml:"client_secret"`
	RedirectURI    string        `toml:"redirect_uri"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// Map returns the credentials in the form accepted by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RegistrationConfig controls the lifetime of pending registration claims.
type RegistrationConfig struct {
	PendingTTL time.Duration `toml:"pending_ttl"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides config values with the deployment environment variables when they are set.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := getenv("SPOTIFY_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
	if v := getenv("DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT=%q", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	return nil
}

// Validate reports the first missing setting required to run the bot.
func (c *Config) Validate() error {
	switch {
	case c.Telegram.Token == "":
		return fmt.Errorf("%w: telegram.token", ErrMissingCredentials)
	case c.Credentials.Spotify.ClientID == "":
		return fmt.Errorf("%w: credentials.spotify.client_id", ErrMissingCredentials)
	case c.Credentials.Spotify.ClientSecret == "":
		return fmt.Errorf("%w: credentials.spotify.client_secret", ErrMissingCredentials)
	case c.Credentials.Spotify.RedirectURI == "":
		return fmt.Errorf("%w: credentials.spotify.redirect_uri", ErrMissingConfig)
	case c.Database.Path == "":
		return fmt.Errorf("%w: database.path", ErrMissingConfig)
	case c.Telegram.MessagesPerSecond <= 0:
		return fmt.Errorf("%w: telegram.messages_per_second must be positive", ErrInvalidConfig)
	}
	return nil
}

package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Spotify     SpotifyAPIConfig  `toml:"spotify"`
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Grouping    GroupingConfig    `toml:"grouping"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify OAuth client credentials and, after `sortify auth`, the CLI user's tokens.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	ExpiresAt    int64  `toml:"expires_at"` // epoch seconds
}

// SpotifyAPIConfig holds the Spotify endpoints. Tests point these at httptest servers.
type SpotifyAPIConfig struct {
	AuthURL  string `toml:"auth_url"`
	TokenURL string `toml:"token_url"`
	APIURL   string `toml:"api_url"`
	PageSize int    `toml:"page_size"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	CookieName   string `toml:"cookie_name"`
	SecureCookie bool   `toml:"secure_cookie"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// MaxClusters is the most playlists a grouping may produce.
const MaxClusters = 8

// GroupingConfig tunes feature fetching and clustering.
type GroupingConfig struct {
	Clusters      int     `toml:"clusters"`
	Seed          int64   `toml:"seed"`
	MaxIterations int     `toml:"max_iterations"`
	Runs          int     `toml:"runs"`
	Workers       int     `toml:"workers"`
	RateLimit     float64 `toml:"rate_limit"` // feature requests per second, 0 disables
	BatchSize     int     `toml:"batch_size"`
}

// Validate reports the first invalid grouping parameter.
func (g GroupingConfig) Validate() error {
	switch {
	case g.Clusters <= 0 || g.Clusters > MaxClusters:
		return fmt.Errorf("%w: grouping.clusters must be in [1, %d]", ErrInvalidConfig, MaxClusters)
	case g.MaxIterations <= 0:
		return fmt.Errorf("%w: grouping.max_iterations must be positive", ErrInvalidConfig)
	case g.Runs <= 0:
		return fmt.Errorf("%w: grouping.runs must be positive", ErrInvalidConfig)
	case g.BatchSize <= 0 || g.BatchSize > 100:
		return fmt.Errorf("%w: grouping.batch_size must be in [1, 100]", ErrInvalidConfig)
	case g.RateLimit < 0:
		return fmt.Errorf("%w: grouping.rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Map returns the credentials in the shape expected by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// Token converts the stored CLI tokens to an [oauth2.Token]. Returns nil when no access token is stored.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" {
		return nil
	}
	t := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
	}
	if s.ExpiresAt > 0 {
		t.Expiry = time.Unix(s.ExpiresAt, 0)
	}
	return t
}

// Update stores the tokens from a completed OAuth exchange or refresh.
//
// An empty refresh token in the new token keeps the stored one, since Spotify may omit it on refresh.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		s.ExpiresAt = token.Expiry.Unix()
	} else {
		s.ExpiresAt = 0
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file keep the embedded defaults.
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

// SaveConfig encodes config as TOML and writes it to path. The file holds tokens, so it is written 0600.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

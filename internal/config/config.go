package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	Withings WithingsConfig `yaml:"withings"`
	Data     DataConfig     `yaml:"data"`
	Log      LogConfig      `yaml:"log"`
}

// WithingsConfig contains the vendor app registration and OAuth settings.
type WithingsConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	// RedirectURI must match the app registration exactly. The callback
	// receiver binds to its port, so it has to be a loopback address.
	RedirectURI string        `yaml:"redirect_uri"`
	AuthTimeout time.Duration `yaml:"auth_timeout"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// DataConfig contains local storage locations.
type DataConfig struct {
	// Dir holds the persisted measurement store.
	Dir string `yaml:"dir"`
	// TokenDir holds the OAuth token file. Defaults to Dir when empty.
	TokenDir string `yaml:"token_dir,omitempty"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultRedirectURI is the redirect the Withings app registration uses
// for local development.
const DefaultRedirectURI = "http://localhost:8000/callback"

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Withings: WithingsConfig{
			RedirectURI: DefaultRedirectURI,
			AuthTimeout: 300 * time.Second,
			HTTPTimeout: 30 * time.Second,
		},
		Data: DataConfig{
			Dir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".bodycomp", "data")
}

// DefaultConfigPath returns the config file location, honouring the
// BODYCOMP_CONFIG_PATH environment variable.
func DefaultConfigPath() string {
	if path := os.Getenv("BODYCOMP_CONFIG_PATH"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".bodycomp", "config.yaml")
}

// Validate checks the configuration for inconsistencies. Credentials may
// legitimately be empty until the user runs the credentials command, so
// they are checked at authentication time, not here.
func (c *Config) Validate() error {
	if c.Withings.RedirectURI != "" {
		u, err := url.Parse(c.Withings.RedirectURI)
		if err != nil {
			return fmt.Errorf("invalid redirect_uri: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid redirect_uri scheme: %s", u.Scheme)
		}
	}
	if c.Withings.AuthTimeout < 0 {
		return fmt.Errorf("auth_timeout must not be negative")
	}
	if c.Withings.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must not be negative")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	return nil
}

// RedirectPort extracts the port the callback receiver must bind to.
func (c *Config) RedirectPort() (int, error) {
	u, err := url.Parse(c.Withings.RedirectURI)
	if err != nil {
		return 0, fmt.Errorf("invalid redirect_uri: %w", err)
	}
	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			return 443, nil
		}
		return 80, nil
	}
	var n int
	if _, err := fmt.Sscanf(port, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid redirect_uri port: %s", port)
	}
	return n, nil
}

// TokenDir returns the directory for the token file.
func (c *Config) TokenDir() string {
	if c.Data.TokenDir != "" {
		return c.Data.TokenDir
	}
	return c.Data.Dir
}

// StorePath returns the path of the persisted measurement store.
func (c *Config) StorePath() string {
	return filepath.Join(c.Data.Dir, "measurements_withings.csv")
}

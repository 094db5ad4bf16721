package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultRedirectURI, cfg.Withings.RedirectURI)
	assert.Equal(t, 300*time.Second, cfg.Withings.AuthTimeout)
	assert.Equal(t, 30*time.Second, cfg.Withings.HTTPTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Data.Dir)
	require.NoError(t, cfg.Validate())
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
withings:
  client_id: abc
  client_secret: def
`))
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.Withings.ClientID)
	assert.Equal(t, "def", cfg.Withings.ClientSecret)
	assert.Equal(t, DefaultRedirectURI, cfg.Withings.RedirectURI)
	assert.Equal(t, 300*time.Second, cfg.Withings.AuthTimeout)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
withings:
  redirect_uri: http://localhost:9000/cb
  auth_timeout: 2m
log:
  level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/cb", cfg.Withings.RedirectURI)
	assert.Equal(t, 2*time.Minute, cfg.Withings.AuthTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParseInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "withings: ["},
		{"bad log level", "log:\n  level: loud"},
		{"bad redirect scheme", "withings:\n  redirect_uri: ftp://localhost:8000/cb"},
		{"negative timeout", "withings:\n  auth_timeout: -5s"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoaderMissingFileYieldsDefaults(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "nope", "config.yaml"))

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultRedirectURI, cfg.Withings.RedirectURI)
	assert.Same(t, cfg, l.Get())
}

func TestLoaderSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	l := NewLoader(path)

	cfg := Default()
	cfg.Withings.ClientID = "abc"
	cfg.Withings.ClientSecret = "topsecret"
	require.NoError(t, l.Save(cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if info.Mode().Perm() != 0o600 && os.Getenv("GOOS") != "windows" {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "config holds the client secret")
	}

	got, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Withings.ClientID)
	assert.Equal(t, "topsecret", got.Withings.ClientSecret)
}

func TestLoaderSaveRejectsInvalid(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "config.yaml"))

	cfg := Default()
	cfg.Log.Level = "loud"
	assert.Error(t, l.Save(cfg))
}

func TestLoaderEnvSubstitution(t *testing.T) {
	t.Setenv("BODYCOMP_TEST_SECRET", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "withings:\n  client_id: abc\n  client_secret: ${BODYCOMP_TEST_SECRET}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Withings.ClientSecret)
}

func TestDefaultConfigPathEnvOverride(t *testing.T) {
	t.Setenv("BODYCOMP_CONFIG_PATH", "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", DefaultConfigPath())

	t.Setenv("BODYCOMP_CONFIG_PATH", "")
	assert.Contains(t, DefaultConfigPath(), "config.yaml")
}

func TestRedirectPort(t *testing.T) {
	cases := []struct {
		uri     string
		want    int
		wantErr bool
	}{
		{"http://localhost:8000/callback", 8000, false},
		{"http://localhost:9123/cb", 9123, false},
		{"http://localhost/callback", 80, false},
		{"https://localhost/callback", 443, false},
		{"://bad", 0, true},
	}
	for _, tc := range cases {
		cfg := Default()
		cfg.Withings.RedirectURI = tc.uri
		got, err := cfg.RedirectPort()
		if tc.wantErr {
			assert.Error(t, err, tc.uri)
			continue
		}
		require.NoError(t, err, tc.uri)
		assert.Equal(t, tc.want, got, tc.uri)
	}
}

func TestTokenDirAndStorePath(t *testing.T) {
	cfg := Default()
	cfg.Data.Dir = "/data"

	assert.Equal(t, "/data", cfg.TokenDir())
	assert.Equal(t, filepath.Join("/data", "measurements_withings.csv"), cfg.StorePath())

	cfg.Data.TokenDir = "/tokens"
	assert.Equal(t, "/tokens", cfg.TokenDir())
}

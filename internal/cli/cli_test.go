package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodycomp/bodycomp/internal/config"
	apperrors "github.com/bodycomp/bodycomp/internal/errors"
)

// runCLI executes a command against an isolated config and data
// directory, returning captured output. Flag state is package-global in
// cobra, so every run resets it explicitly.
func runCLI(t *testing.T, configPath, dataDir string, args ...string) (string, error) {
	t.Helper()
	InitCLI()

	globalFlags = GlobalFlags{}
	for _, c := range RootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)

	full := append([]string{"--config", configPath, "--data-dir", dataDir}, args...)
	err := Execute(full)
	return out.String(), err
}

func testPaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "config.yaml"), filepath.Join(dir, "data")
}

func TestCredentialsCommandSavesConfig(t *testing.T) {
	configPath, dataDir := testPaths(t)

	out, err := runCLI(t, configPath, dataDir, "credentials",
		"--client-id", "my-id", "--client-secret", "my-secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Credentials saved.")

	cfg, err := config.NewLoader(configPath).Load()
	require.NoError(t, err)
	assert.Equal(t, "my-id", cfg.Withings.ClientID)
	assert.Equal(t, "my-secret", cfg.Withings.ClientSecret)
	assert.Equal(t, config.DefaultRedirectURI, cfg.Withings.RedirectURI)
}

func TestCredentialsCommandCustomRedirect(t *testing.T) {
	configPath, dataDir := testPaths(t)

	_, err := runCLI(t, configPath, dataDir, "credentials",
		"--client-id", "id", "--client-secret", "sec",
		"--redirect-uri", "http://localhost:9000/cb")
	require.NoError(t, err)

	cfg, err := config.NewLoader(configPath).Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/cb", cfg.Withings.RedirectURI)
}

func TestCredentialsCommandRequiresFlags(t *testing.T) {
	configPath, dataDir := testPaths(t)

	_, err := runCLI(t, configPath, dataDir, "credentials", "--client-id", "only-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client-secret")
}

func TestStatusCommandFreshState(t *testing.T) {
	configPath, dataDir := testPaths(t)

	out, err := runCLI(t, configPath, dataDir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not authenticated")
	assert.Contains(t, out, "Stored measurements: 0")
}

func TestStatusCommandJSON(t *testing.T) {
	configPath, dataDir := testPaths(t)

	out, err := runCLI(t, configPath, dataDir, "--json", "status")
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, false, got["authenticated"])
	assert.Equal(t, float64(0), got["measurements"])
	assert.Contains(t, got["store"], "measurements_withings.csv")
}

func TestClearCommandOnEmptyState(t *testing.T) {
	configPath, dataDir := testPaths(t)

	out, err := runCLI(t, configPath, dataDir, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared successfully")
}

func TestImportWithoutCredentials(t *testing.T) {
	configPath, dataDir := testPaths(t)

	_, err := runCLI(t, configPath, dataDir, "import")
	require.Error(t, err)

	var mc *apperrors.ErrMissingCredentials
	assert.ErrorAs(t, err, &mc)
}

func TestVersionCommand(t *testing.T) {
	configPath, dataDir := testPaths(t)

	out, err := runCLI(t, configPath, dataDir, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bodycomp Version:")
	assert.Contains(t, out, "Go Version:")
}

package config

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/bodycomp/bodycomp/internal/errors"
)

// Loader handles configuration loading and persistence.
type Loader struct {
	path string
	mu   sync.RWMutex
	cfg  *Config
}

// NewLoader creates a new configuration loader for the given path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the configuration from the file. A missing file is not an
// error: the tool works from defaults until the user saves credentials.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.path); err != nil {
		if os.IsNotExist(err) {
			l.cfg = Default()
			return l.cfg, nil
		}
		return nil, err
	}

	content, err := os.ReadFile(l.path)
	if err != nil {
		return nil, &errors.ErrFileRead{Path: l.path, Err: err}
	}

	content = substituteEnvVars(content)
	cfg, err := Parse(content)
	if err != nil {
		return nil, err
	}

	l.cfg = cfg
	return cfg, nil
}

// Get returns the current configuration.
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Save writes the configuration back to the file, creating the parent
// directory when needed. The file is user-readable only since it holds
// the client secret.
func (l *Loader) Save(cfg *Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		return &errors.ErrConfigValidation{Err: err}
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &errors.ErrDirectoryCreate{Path: dir, Err: err}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(l.path, data, 0o600); err != nil {
		return &errors.ErrFileWrite{Path: l.path, Err: err}
	}

	l.cfg = cfg
	return nil
}

// Parse parses configuration from a byte slice, applying defaults for
// anything the file leaves unset.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &errors.ErrConfigParse{Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &errors.ErrConfigValidation{Err: err}
	}

	return cfg, nil
}

func substituteEnvVars(content []byte) []byte {
	return []byte(os.ExpandEnv(string(content)))
}

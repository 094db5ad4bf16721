package withings

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bodycomp/bodycomp/internal/errors"
	"github.com/bodycomp/bodycomp/internal/models"
)

const tokenFileName = "withings_token.json"

// TokenStore persists a single OAuth token record for the Withings
// integration. The file is owner-readable only because it holds live
// credentials.
type TokenStore struct {
	path string
}

// NewTokenStore creates a token store rooted at dir.
func NewTokenStore(dir string) *TokenStore {
	return &TokenStore{path: filepath.Join(dir, tokenFileName)}
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

// Save writes the full token record, replacing any prior content.
func (s *TokenStore) Save(tok *models.Token) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &errors.ErrDirectoryCreate{Path: dir, Err: err}
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return &errors.ErrFileWrite{Path: s.path, Err: err}
	}
	return nil
}

// Load returns the stored record. Absence and unparsable content are
// treated identically: (nil, nil). The caller re-authenticates either
// way, so a corrupt file must not be fatal.
func (s *TokenStore) Load() (*models.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &errors.ErrFileRead{Path: s.path, Err: err}
	}

	var tok models.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, nil
	}
	if !tok.Valid() {
		return nil, nil
	}
	return &tok, nil
}

// Clear removes the stored record. Nothing stored is not an error.
func (s *TokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

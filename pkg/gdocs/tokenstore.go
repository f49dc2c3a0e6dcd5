package gdocs

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultTokenFile is the token file name kept beside the client secrets.
const DefaultTokenFile = "token_docs.json"

var errIncompleteCredential = errors.New("refusing to persist an incomplete credential")

// TokenPathFor returns where the token for a client secrets file lives.
func TokenPathFor(credentialsFile string) string {
	if credentialsFile == "" {
		return DefaultTokenFile
	}
	return filepath.Join(filepath.Dir(credentialsFile), DefaultTokenFile)
}

// TokenStore persists an authorized user as JSON at a single path.
type TokenStore struct {
	fs   afero.Fs
	path string
}

// NewTokenStore returns a store at path. A nil fs uses the OS filesystem.
func NewTokenStore(fs afero.Fs, path string) *TokenStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &TokenStore{
		fs:   fs,
		path: path,
	}
}

// Path returns the token file path.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the stored credential. A missing file returns an error matching
// os.ErrNotExist.
func (s *TokenStore) Load() (*AuthorizedUser, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, err
	}
	u, err := ParseAuthorizedUser(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing token file %s: %w", s.path, err)
	}
	return u, nil
}

// Save writes u, replacing any previous token. Incomplete credentials are
// never written.
func (s *TokenStore) Save(u *AuthorizedUser) error {
	if !u.Complete() {
		return errIncompleteCredential
	}

	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding token: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("error creating token directory: %w", err)
		}
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o600); err != nil {
		return fmt.Errorf("error writing token file %s: %w", s.path, err)
	}
	return nil
}

// Exists reports whether a token file is present.
func (s *TokenStore) Exists() bool {
	_, err := s.fs.Stat(s.path)
	return err == nil
}

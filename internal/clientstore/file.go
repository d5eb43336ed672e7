package clientstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	tokenFileName   = "token.json"
	profileFileName = "profile.json"
)

// FileStore persists session state as two files under a private directory.
type FileStore struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewFileStore prepares dir for use. now defaults to time.Now.
func NewFileStore(dir string, now func() time.Time) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("clientstore: state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("clientstore: create state directory: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &FileStore{dir: dir, now: now}, nil
}

// Dir returns the directory holding the state files.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Token() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.read(tokenFileName)
	if err != nil || !ok {
		return "", false, err
	}

	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		// A corrupt token file is treated like a missing cookie.
		return "", false, s.remove(tokenFileName)
	}
	if !stored.valid(s.now()) {
		return "", false, s.remove(tokenFileName)
	}
	return stored.Token, true, nil
}

func (s *FileStore) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}

	data, err := json.Marshal(storedToken{Token: token, ExpiresAt: s.now().Add(TokenLifetime).UTC()})
	if err != nil {
		return fmt.Errorf("clientstore: encode token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(tokenFileName, data)
}

func (s *FileStore) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(tokenFileName)
}

func (s *FileStore) Profile() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(profileFileName)
}

func (s *FileStore) SetProfile(profile []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(profileFileName, profile)
}

func (s *FileStore) ClearProfile() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(profileFileName)
}

func (s *FileStore) read(name string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("clientstore: read %s: %w", name, err)
	}
	return data, true, nil
}

// write replaces the file atomically so readers never see a partial value.
func (s *FileStore) write(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("clientstore: write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("clientstore: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("clientstore: write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("clientstore: write %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clientstore: remove %s: %w", name, err)
	}
	return nil
}

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName   = "noteward"
	sessionFileName = "session.json"
)

// ErrMissingUserID is returned when Set is called without a user id.
// An authenticated record without an identity is never valid.
var ErrMissingUserID = errors.New("session record requires a user id")

// fileRecord is the on-disk shape of the session. isLoggedIn is the string
// "true" when authenticated and absent otherwise.
type fileRecord struct {
	UserID     string `json:"userId,omitempty"`
	UserName   string `json:"userName,omitempty"`
	UserEmail  string `json:"userEmail,omitempty"`
	UserRole   string `json:"userRole,omitempty"`
	IsLoggedIn string `json:"isLoggedIn,omitempty"`
}

// FileStore persists the session record in ~/.config/noteward/session.json
// so it survives process restarts on the same device
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store. The config directory can be
// overridden with NOTEWARD_CONFIG_DIR.
func NewFileStore() (*FileStore, error) {
	dir := os.Getenv("NOTEWARD_CONFIG_DIR")
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".config", configDirName)
	}

	return &FileStore{path: filepath.Join(dir, sessionFileName)}, nil
}

// load reads the session file. A missing file means no session.
func (s *FileStore) load() (*fileRecord, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return &fileRecord{}, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	return &rec, nil
}

// save writes the session file, creating the config directory if needed
func (s *FileStore) save(rec *fileRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

func (s *FileStore) Set(rec Record) error {
	if rec.UserID == "" {
		return ErrMissingUserID
	}

	role := rec.Role
	if role == "" {
		role = RoleUser
	}

	return s.save(&fileRecord{
		UserID:     rec.UserID,
		UserName:   rec.Name,
		UserEmail:  rec.Email,
		UserRole:   string(role),
		IsLoggedIn: "true",
	})
}

func (s *FileStore) Patch(p Patch) error {
	rec, err := s.load()
	if err != nil {
		return err
	}

	if p.Name != nil {
		rec.UserName = *p.Name
	}
	if p.Email != nil {
		rec.UserEmail = *p.Email
	}
	if p.Role != nil {
		rec.UserRole = string(*p.Role)
	}

	return s.save(rec)
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session file: %w", err)
	}
	return nil
}

func (s *FileStore) IsAuthenticated() bool {
	rec, err := s.load()
	if err != nil {
		return false
	}
	return rec.IsLoggedIn == "true"
}

func (s *FileStore) CurrentUserID() (string, bool) {
	rec, err := s.load()
	if err != nil || rec.UserID == "" {
		return "", false
	}
	return rec.UserID, true
}

func (s *FileStore) Current() (Record, bool) {
	rec, err := s.load()
	if err != nil {
		return Record{}, false
	}

	return Record{
		UserID: rec.UserID,
		Name:   rec.UserName,
		Email:  rec.UserEmail,
		Role:   ParseRole(rec.UserRole),
	}, rec.IsLoggedIn == "true"
}

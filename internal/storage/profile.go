// Package storage holds the client's on-device state: the signed-in
// profile and the scribbles persisted for the home-screen widget.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// User is the signed-in user's locally persisted profile.
type User struct {
	// ID is the opaque server user id used to authenticate the socket.
	ID string `json:"id"`
	// Name is the user's display name.
	Name string `json:"name,omitempty"`
	// PartnerID is the paired partner's id, empty before pairing.
	PartnerID string `json:"partnerId,omitempty"`
	// PartnerName is the partner's display name.
	PartnerName string `json:"partnerName,omitempty"`
	// UpdatedAtMs is the wall-clock timestamp of the most recent write.
	UpdatedAtMs int64 `json:"updatedAtMs,omitempty"`
}

// ProfileStore keeps the signed-in user's profile in a JSON file.
type ProfileStore struct {
	path string
	mu   sync.Mutex
}

// NewProfileStore returns a store backed by the file at path. The file is
// created on the first SaveUser.
func NewProfileStore(path string) *ProfileStore {
	return &ProfileStore{path: path}
}

// Path returns the backing file path.
func (s *ProfileStore) Path() string { return s.path }

// GetUser returns the persisted profile, or nil when nobody is signed in.
func (s *ProfileStore) GetUser() (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if strings.TrimSpace(u.ID) == "" {
		return nil, nil
	}
	return &u, nil
}

// SaveUser persists u, replacing any existing profile.
func (s *ProfileStore) SaveUser(u User) error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("missing user id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	u.UpdatedAtMs = time.Now().UnixMilli()
	raw, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Clear signs the user out by removing the profile file.
func (s *ProfileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

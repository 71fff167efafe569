package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"studyflow/db"
	"studyflow/models"
)

// StateService owns the single user record. Every mutation runs as a reducer
// against the latest snapshot under the lock and persists the full record
// before it becomes visible, so a slow writer can never clobber state written
// in between.
type StateService struct {
	repo db.SnapshotRepository

	mu      sync.Mutex
	current *models.UserData
}

func NewStateService(repo db.SnapshotRepository) *StateService {
	s := &StateService{repo: repo}
	s.current = s.load()
	return s
}

func (s *StateService) load() *models.UserData {
	raw, err := s.repo.LoadSnapshot()
	if err != nil {
		log.Printf("[ERROR] Failed to load stored snapshot, starting with defaults: %v", err)
		return models.DefaultUserData()
	}

	if strings.TrimSpace(raw) == "" {
		log.Printf("[INFO] No stored snapshot found, starting with defaults")
		return models.DefaultUserData()
	}

	data := &models.UserData{}
	if err := json.Unmarshal([]byte(raw), data); err != nil {
		log.Printf("[ERROR] Stored snapshot failed to parse, starting with defaults: %v", err)
		return models.DefaultUserData()
	}

	return data
}

// Snapshot returns a copy of the most recently persisted record.
func (s *StateService) Snapshot() *models.UserData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Apply runs reduce against a copy of the latest record, persists the result
// and publishes it. When reduce returns an error nothing is persisted.
func (s *StateService) Apply(reduce func(*models.UserData) error) (*models.UserData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	if err := reduce(next); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := s.repo.SaveSnapshot(string(raw)); err != nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}

	s.current = next
	return next.Clone(), nil
}

// Merge shallowly applies a partial update: every field present in the patch
// fully replaces the corresponding top-level field.
func (s *StateService) Merge(patch models.UserDataPatch) (*models.UserData, error) {
	return s.Apply(func(u *models.UserData) error {
		patch.ApplyTo(u)
		return nil
	})
}

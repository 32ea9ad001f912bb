package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// Store implements ports.RecordingStore using the local filesystem.
// It stores recordings as indented JSON files in a configured directory.
type Store struct {
	BasePath string
}

// NewStore creates a new Store with the given base path.
// If basePath is empty, it defaults to ".turbo/recordings".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".turbo", "recordings")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(id domain.RequestID) (string, error) {
	if id == "" {
		return "", fmt.Errorf("request id cannot be empty")
	}
	if strings.ContainsAny(string(id), `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid request id %q", id)
	}
	return filepath.Join(s.BasePath, string(id)+".json"), nil
}

// Save writes the recording atomically via a temporary file.
func (s *Store) Save(ctx context.Context, rec *domain.Recording) error {
	p, err := s.path(rec.RequestID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure recording directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recording: %w", err)
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write recording file: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("failed to commit recording file: %w", err)
	}
	return nil
}

// Load reads a recording file.
func (s *Store) Load(ctx context.Context, id domain.RequestID) (*domain.Recording, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	return ReadFile(p)
}

// ReadFile decodes a recording from an arbitrary path.
func ReadFile(path string) (*domain.Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrRecordingNotFound
		}
		return nil, fmt.Errorf("failed to read recording file: %w", err)
	}

	var rec domain.Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recording: %w", err)
	}
	if rec.Version != domain.RecordingVersion {
		return nil, fmt.Errorf("unsupported recording version %d", rec.Version)
	}
	return &rec, nil
}

// Delete removes the recording file.
func (s *Store) Delete(ctx context.Context, id domain.RequestID) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete recording file: %w", err)
	}
	return nil
}

// List returns the ids of every stored recording.
func (s *Store) List(ctx context.Context) ([]domain.RequestID, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.RequestID{}, nil
		}
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}

	var ids []domain.RequestID
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, domain.RequestID(strings.TrimSuffix(name, ".json")))
	}
	return ids, nil
}

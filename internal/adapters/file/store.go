package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
)

// Store implements ports.ThreadStore on the local filesystem.
// Each thread record is a JSON file under the base directory.
type Store struct {
	BasePath string
}

// New creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".tendril/threads".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".tendril", "threads")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(threadID string) string {
	return filepath.Join(s.BasePath, threadID+".json")
}

func validateThreadID(threadID string) error {
	if threadID == "" {
		return fmt.Errorf("thread ID cannot be empty")
	}
	if strings.ContainsAny(threadID, `/\`) || threadID != filepath.Base(threadID) {
		return fmt.Errorf("thread ID %q must not contain path separators", threadID)
	}
	return nil
}

// Save persists the record to a JSON file atomically.
// It writes to a temporary file, fsyncs, and renames it into place.
func (s *Store) Save(ctx context.Context, threadID string, rec *domain.ThreadRecord) error {
	if err := validateThreadID(threadID); err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure thread directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal thread record: %w", err)
	}

	// The temp file lives in the destination directory so the rename
	// stays on a single filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+threadID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := s.path(threadID)

	// os.Rename over an existing destination fails on Windows, so remove it
	// first. The remove+rename window is far narrower than a partial write.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to replace existing thread file: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}

	return nil
}

// Load reads the record for the given thread ID.
func (s *Store) Load(ctx context.Context, threadID string) (*domain.ThreadRecord, error) {
	if err := validateThreadID(threadID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrThreadNotFound
		}
		return nil, fmt.Errorf("failed to read thread file: %w", err)
	}

	var rec domain.ThreadRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal thread record: %w", err)
	}

	return &rec, nil
}

// Delete removes the thread file. Deleting a missing thread is not an error.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	if err := validateThreadID(threadID); err != nil {
		return err
	}

	err := os.Remove(s.path(threadID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete thread file: %w", err)
	}

	return nil
}

// List returns the IDs of all persisted threads.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	return ids, nil
}

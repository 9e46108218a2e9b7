package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smallnest/graphlstm/store"
)

// FileCheckpointStore writes one JSON file per checkpoint into a directory
type FileCheckpointStore struct {
	mu   sync.RWMutex
	path string
}

var _ store.CheckpointStore = (*FileCheckpointStore)(nil)

// NewFileCheckpointStore creates the directory if needed
func NewFileCheckpointStore(path string) (*FileCheckpointStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileCheckpointStore{path: path}, nil
}

func (f *FileCheckpointStore) filename(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid checkpoint id %q", id)
	}
	return filepath.Join(f.path, id+".json"), nil
}

// Save stores a checkpoint
func (f *FileCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	name, err := f.filename(checkpoint.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, name); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint by ID
func (f *FileCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	name, err := f.filename(checkpointID)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return readCheckpoint(name, checkpointID)
}

func readCheckpoint(name, id string) (*store.Checkpoint, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrCheckpointNotFound, id)
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint %s: %w", id, err)
	}
	return &cp, nil
}

// List returns all checkpoints of a run ordered by step
func (f *FileCheckpointStore) List(_ context.Context, runID string) ([]*store.Checkpoint, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.list(runID)
}

func (f *FileCheckpointStore) list(runID string) ([]*store.Checkpoint, error) {
	entries, err := os.ReadDir(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint directory: %w", err)
	}

	var checkpoints []*store.Checkpoint
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		cp, err := readCheckpoint(filepath.Join(f.path, entry.Name()), id)
		if err != nil {
			return nil, err
		}
		if cp.RunID == runID {
			checkpoints = append(checkpoints, cp)
		}
	}
	store.SortByStep(checkpoints)
	return checkpoints, nil
}

// Delete removes a checkpoint
func (f *FileCheckpointStore) Delete(_ context.Context, checkpointID string) error {
	name, err := f.filename(checkpointID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", store.ErrCheckpointNotFound, checkpointID)
		}
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Clear removes all checkpoints of a run
func (f *FileCheckpointStore) Clear(_ context.Context, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	checkpoints, err := f.list(runID)
	if err != nil {
		return err
	}
	for _, cp := range checkpoints {
		if err := os.Remove(filepath.Join(f.path, cp.ID+".json")); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete checkpoint: %w", err)
		}
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/graphlstm/tensor"
)

// ErrCheckpointNotFound is returned by Load and Delete for unknown IDs.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// NodeState is the saved (memory, hidden) pair of one node.
type NodeState struct {
	Node   string        `json:"node"`
	Index  int           `json:"index"`
	Memory tensor.Matrix `json:"memory"`
	Hidden tensor.Matrix `json:"hidden"`
}

// Checkpoint is the recurrent state of a net after a given step, optionally
// with the weights it was computed with.
type Checkpoint struct {
	ID        string                   `json:"id"`
	RunID     string                   `json:"run_id"`
	Step      int                      `json:"step"`
	States    []NodeState              `json:"states"`
	Weights   map[string]tensor.Matrix `json:"weights,omitempty"`
	Metadata  map[string]any           `json:"metadata"`
	Timestamp time.Time                `json:"timestamp"`
	Version   int                      `json:"version"`
}

// CheckpointStore defines the interface for checkpoint persistence
type CheckpointStore interface {
	// Save stores a checkpoint, replacing one with the same ID
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// List returns all checkpoints of a run ordered by step
	List(ctx context.Context, runID string) ([]*Checkpoint, error)

	// Delete removes a checkpoint
	Delete(ctx context.Context, checkpointID string) error

	// Clear removes all checkpoints of a run
	Clear(ctx context.Context, runID string) error
}

// NewCheckpointID returns a fresh checkpoint ID.
func NewCheckpointID() string {
	return "checkpoint_" + uuid.NewString()
}

// SortByStep orders checkpoints by step, then by timestamp.
func SortByStep(checkpoints []*Checkpoint) {
	sort.SliceStable(checkpoints, func(i, j int) bool {
		if checkpoints[i].Step != checkpoints[j].Step {
			return checkpoints[i].Step < checkpoints[j].Step
		}
		return checkpoints[i].Timestamp.Before(checkpoints[j].Timestamp)
	})
}

// Latest returns the checkpoint of runID with the highest step.
func Latest(ctx context.Context, cs CheckpointStore, runID string) (*Checkpoint, error) {
	checkpoints, err := cs.List(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(checkpoints) == 0 {
		return nil, ErrCheckpointNotFound
	}
	SortByStep(checkpoints)
	return checkpoints[len(checkpoints)-1], nil
}

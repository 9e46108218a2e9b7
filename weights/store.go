// Package weights holds the named weight and bias variables shared by the cells
// of a Graph LSTM net.
//
// A Store is injected into every cell instead of living in a process-wide
// namespace. Create and Get are deliberately separate operations: creating a
// name twice fails with ErrAlreadyExists, fetching a name that was never
// created fails with ErrNotFound.
package weights

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/smallnest/graphlstm/tensor"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrAlreadyExists is returned when creating a variable whose name is taken.
	ErrAlreadyExists = errors.New("weight variable already exists")

	// ErrNotFound is returned when fetching a variable that does not exist.
	ErrNotFound = errors.New("weight variable does not exist")
)

// Variable is a named parameter matrix.
type Variable struct {
	Name  string
	Value *mat.Dense
}

// Store maps variable names to parameters.
type Store interface {
	// Create initializes a new variable. It fails if the name exists.
	Create(name string, rows, cols int, init tensor.Initializer) (*Variable, error)

	// Get fetches an existing variable.
	Get(name string) (*Variable, error)

	// Has reports whether the variable exists.
	Has(name string) bool

	// Names lists all variable names in sorted order.
	Names() []string
}

// MemoryStore is an in-process Store safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	vars map[string]*Variable
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vars: make(map[string]*Variable)}
}

// Create implements Store.
func (s *MemoryStore) Create(name string, rows, cols int, init tensor.Initializer) (*Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty variable name", ErrNotFound)
	}
	if init == nil {
		init = tensor.ZerosInitializer{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vars[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}

	value, err := init.Initialize(rows, cols)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %w", name, err)
	}
	if r, c := value.Dims(); r != rows || c != cols {
		return nil, fmt.Errorf("%w: initializer for %s returned [%d,%d], want [%d,%d]", tensor.ErrShape, name, r, c, rows, cols)
	}

	v := &Variable{Name: name, Value: value}
	s.vars[name] = v
	return v, nil
}

// Get implements Store.
func (s *MemoryStore) Get(name string) (*Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return v, nil
}

// Has implements Store.
func (s *MemoryStore) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.vars[name]
	return ok
}

// Names implements Store.
func (s *MemoryStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies every variable into its serializable form.
func (s *MemoryStore) Snapshot() map[string]tensor.Matrix {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[string]tensor.Matrix, len(s.vars))
	for name, v := range s.vars {
		snap[name] = tensor.Snapshot(v.Value)
	}
	return snap
}

// Restore loads a snapshot. Existing variables keep their identity and get the
// snapshot value; variables missing from the store are created.
func (s *MemoryStore) Restore(snap map[string]tensor.Matrix) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, m := range snap {
		value, err := m.Dense()
		if err != nil {
			return fmt.Errorf("failed to restore %s: %w", name, err)
		}
		if v, ok := s.vars[name]; ok {
			r, c := v.Value.Dims()
			if r != m.Rows || c != m.Cols {
				return fmt.Errorf("%w: %s is [%d,%d], snapshot is [%d,%d]", tensor.ErrShape, name, r, c, m.Rows, m.Cols)
			}
			v.Value.Copy(value)
			continue
		}
		s.vars[name] = &Variable{Name: name, Value: value}
	}
	return nil
}

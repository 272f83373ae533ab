package installation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-jumpgate/internal/remote"
)

// ErrNotInstalled indicates that no parameters were saved for the scope yet.
var ErrNotInstalled = errors.New("installation: not installed")

// Scope identifies the space environment an installation belongs to.
type Scope struct {
	SpaceID     string
	Environment string
}

// Key is the canonical "space:environment" form of the scope.
func (s Scope) Key() string {
	env := strings.TrimSpace(s.Environment)
	if env == "" {
		env = remote.DefaultEnvironment
	}
	return strings.TrimSpace(s.SpaceID) + ":" + env
}

// Record is what a repository persists. Parameters and TargetState are
// always written together.
type Record struct {
	Parameters  Parameters  `json:"parameters"`
	TargetState TargetState `json:"targetState"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Repository persists installation records.
type Repository interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, record Record) (*Record, error)
}

// LoadOrDefault returns the stored parameters or Default() when nothing was
// saved yet.
func LoadOrDefault(ctx context.Context, repo Repository) (Parameters, *TargetState, error) {
	record, err := repo.Load(ctx)
	if errors.Is(err, ErrNotInstalled) {
		return Default(), nil, nil
	}
	if err != nil {
		return Parameters{}, nil, err
	}
	state := record.TargetState
	return record.Parameters.Clone(), &state, nil
}

func cloneRecord(record Record) Record {
	out := record
	out.Parameters = record.Parameters.Clone()
	out.TargetState = TargetState{EditorInterface: map[string]EditorAssignment{}}
	for id, assignment := range record.TargetState.EditorInterface {
		copied := assignment
		copied.Editors = append([]remote.WidgetRef(nil), assignment.Editors...)
		out.TargetState.EditorInterface[id] = copied
	}
	return out
}

// MemoryRepository keeps the record in memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	record *Record
	now    func() time.Time
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

func (r *MemoryRepository) Load(context.Context) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.record == nil {
		return nil, ErrNotInstalled
	}
	out := cloneRecord(*r.record)
	return &out, nil
}

func (r *MemoryRepository) Save(_ context.Context, record Record) (*Record, error) {
	if err := record.Parameters.Validate(); err != nil {
		return nil, err
	}
	stored := cloneRecord(record)
	stored.UpdatedAt = r.now().UTC()

	r.mu.Lock()
	r.record = &stored
	r.mu.Unlock()

	out := cloneRecord(stored)
	return &out, nil
}

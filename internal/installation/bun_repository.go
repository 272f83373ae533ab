package installation

import (
	"context"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-jumpgate/internal/identity"
)

const installationNamespace = "installation"

// InstallationModel is the table row of one installation record.
type InstallationModel struct {
	bun.BaseModel `bun:"table:installations,alias:inst"`

	ID          uuid.UUID   `bun:",pk,type:uuid" json:"id"`
	Scope       string      `bun:"scope,notnull,unique" json:"scope"`
	SpaceID     string      `bun:"space_id,notnull" json:"space_id"`
	Environment string      `bun:"environment,notnull" json:"environment"`
	Parameters  Parameters  `bun:"parameters,type:jsonb" json:"parameters"`
	TargetState TargetState `bun:"target_state,type:jsonb" json:"target_state"`
	CreatedAt   time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// NewInstallationRepository builds the generic repository for installation rows.
func NewInstallationRepository(db *bun.DB) repository.Repository[*InstallationModel] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*InstallationModel]{
		NewRecord: func() *InstallationModel { return &InstallationModel{} },
		GetID: func(m *InstallationModel) uuid.UUID {
			return m.ID
		},
		SetID: func(m *InstallationModel, id uuid.UUID) {
			m.ID = id
		},
		GetIdentifier: func() string {
			return "scope"
		},
		GetIdentifierValue: func(m *InstallationModel) string {
			return m.Scope
		},
	})
}

// BunRepository stores the installation of one scope in a SQL table.
type BunRepository struct {
	scope        Scope
	repo         repository.Repository[*InstallationModel]
	cacheService cache.CacheService
	cachePrefix  string
	now          func() time.Time
}

// NewBunRepository returns an uncached repository.
func NewBunRepository(db *bun.DB, scope Scope) *BunRepository {
	return NewBunRepositoryWithCache(db, scope, nil, nil)
}

// NewBunRepositoryWithCache wraps reads with the repository cache when both
// cache collaborators are provided.
func NewBunRepositoryWithCache(db *bun.DB, scope Scope, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewInstallationRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = installationNamespace + cache.KeySeparator
	}
	return &BunRepository{
		scope:        scope,
		repo:         base,
		cacheService: svc,
		cachePrefix:  prefix,
		now:          time.Now,
	}
}

// RecordID is the deterministic row id of a scope.
func RecordID(scope Scope) uuid.UUID {
	return identity.InstallationUUID(scope.Key())
}

func (r *BunRepository) Load(ctx context.Context) (*Record, error) {
	model, err := r.repo.GetByIdentifier(ctx, r.scope.Key())
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotInstalled
		}
		return nil, fmt.Errorf("installation repository: %w", err)
	}
	record := Record{
		Parameters:  model.Parameters,
		TargetState: model.TargetState,
		UpdatedAt:   model.UpdatedAt,
	}
	if record.Parameters.PatternMatches == nil {
		record.Parameters.PatternMatches = map[string]string{}
	}
	out := cloneRecord(record)
	return &out, nil
}

func (r *BunRepository) Save(ctx context.Context, record Record) (*Record, error) {
	if err := record.Parameters.Validate(); err != nil {
		return nil, err
	}
	stored := cloneRecord(record)
	now := r.now().UTC()

	model := &InstallationModel{
		ID:          RecordID(r.scope),
		Scope:       r.scope.Key(),
		SpaceID:     r.scope.SpaceID,
		Environment: envOrDefault(r.scope.Environment),
		Parameters:  stored.Parameters,
		TargetState: stored.TargetState,
		UpdatedAt:   now,
	}

	existing, err := r.repo.GetByIdentifier(ctx, model.Scope)
	switch {
	case err == nil:
		model.ID = existing.ID
		model.CreatedAt = existing.CreatedAt
		if _, err := r.repo.Update(ctx, model); err != nil {
			return nil, fmt.Errorf("installation repository: update: %w", err)
		}
	case isNotFound(err):
		model.CreatedAt = now
		if _, err := r.repo.Create(ctx, model); err != nil {
			return nil, fmt.Errorf("installation repository: create: %w", err)
		}
	default:
		return nil, fmt.Errorf("installation repository: %w", err)
	}

	if err := r.invalidate(ctx); err != nil {
		return nil, err
	}
	stored.UpdatedAt = now
	return &stored, nil
}

func (r *BunRepository) invalidate(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return true
	}
	return errors.Is(err, ErrNotInstalled)
}

func envOrDefault(env string) string {
	if env == "" {
		return "master"
	}
	return env
}

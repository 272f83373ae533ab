// Package setup drives the configuration screen: role selection, source
// credentials, connection verification, matches and the final configure
// step that persists everything at once.
package setup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-jumpgate/internal/connection"
	"github.com/goliatone/go-jumpgate/internal/doctype"
	"github.com/goliatone/go-jumpgate/internal/installation"
	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/internal/matching"
	"github.com/goliatone/go-jumpgate/internal/notify"
	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// User-facing messages of the configure step and the matcher.
const (
	MessageRoleRequired    = `You need to select one of the "Space type" options before installing the app.`
	MessageSuggested       = "Suggested automatically based on a matching name"
	MessageEmptyHeading    = "Nothing to see here (yet!)"
	MessageEmptyBody       = "Once you publish some guidelines in the source space, they will show up here allowing you to assign them to the content types in the target space."
	MessageTypePresent     = "Design System Pattern content type is present in this space."
	MessageTypeWillCreate  = "Installing this app will automatically create a new content type in this space."
	messageConfigureFailed = "Failed to save the app configuration."
)

var (
	// ErrNotLoaded is returned when an operation runs before Load.
	ErrNotLoaded = errors.New("setup: screen is not loaded")
	// ErrConfigureRejected is returned when Configure refuses to persist.
	ErrConfigureRejected = errors.New("setup: configuration rejected")
	// ErrUnknownContentType is returned when a match targets a content type
	// that is not eligible.
	ErrUnknownContentType = errors.New("setup: unknown content type")
)

// ContentTypeLister lists the content types of the local space.
type ContentTypeLister interface {
	ListContentTypes(ctx context.Context) ([]*remote.ContentType, error)
}

// Ensurer provisions the documentation content type.
type Ensurer interface {
	Ensure(ctx context.Context) (bool, error)
}

// Dependencies are the collaborators of a Screen.
type Dependencies struct {
	Repository   installation.Repository
	Factory      *remote.Factory
	Validator    *connection.Validator
	Provisioner  Ensurer
	SourceConfig remote.SourceConfig
	WidgetID     string
	Logger       interfaces.Logger
}

// Screen is the state of one configuration session. It has a single
// writer; the mutex only guards against concurrent HTTP handlers.
type Screen struct {
	mu     sync.Mutex
	deps   Dependencies
	logger interfaces.Logger

	loaded            bool
	params            installation.Parameters
	currentState      *installation.TargetState
	store             *matching.Store
	contentTypes      []matching.ContentType
	contentTypeExists bool
	entries           []*remote.DocumentationEntry
	entriesLoaded     bool
	suggested         matching.Suggestions
}

// NewScreen returns an unloaded screen.
func NewScreen(deps Dependencies) *Screen {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	if deps.Repository == nil {
		deps.Repository = installation.NewMemoryRepository()
	}
	return &Screen{
		deps:      deps,
		logger:    logger,
		store:     matching.NewStore(nil),
		suggested: matching.Suggestions{},
	}
}

// Load reads the saved parameters (or defaults), the local content types and,
// when the connection is verified, the documentation entries.
func (s *Screen) Load(ctx context.Context) error {
	params, current, err := installation.LoadOrDefault(ctx, s.deps.Repository)
	if err != nil {
		return fmt.Errorf("setup: load parameters: %w", err)
	}
	types, exists := s.fetchContentTypes(ctx)

	s.mu.Lock()
	s.params = params
	s.currentState = current
	s.store = matching.NewStore(params.PatternMatches)
	s.contentTypes = types
	s.contentTypeExists = exists
	s.entries = nil
	s.entriesLoaded = false
	s.suggested = matching.Suggestions{}
	s.loaded = true
	verified := params.ConnectionVerified()
	s.mu.Unlock()

	s.logger.Info("setup.loaded", "space_type", string(params.SpaceType), "content_types", len(types))
	if verified {
		s.refreshEntries(ctx)
	}
	return nil
}

// Loaded reports whether Load has completed at least once.
func (s *Screen) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// SetRole changes the space role. Consumers must re-verify; the combined
// role reads the local space and is verified immediately.
func (s *Screen) SetRole(ctx context.Context, role installation.SpaceRole) error {
	if !role.Valid() {
		return fmt.Errorf("setup: invalid role %q", role)
	}
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	s.params.SpaceType = role
	s.entries = nil
	s.entriesLoaded = false
	switch role {
	case installation.RoleConsumer:
		s.params.SourceConnectionValidated = false
	case installation.RoleSourceAndConsumer:
		s.params.SourceConnectionValidated = true
	}
	s.mu.Unlock()

	s.logger.Debug("setup.role_changed", "space_type", string(role))
	if role == installation.RoleSourceAndConsumer {
		s.refreshEntries(ctx)
	}
	return nil
}

// SetCredentials stores trimmed source credentials and clears verification.
func (s *Screen) SetCredentials(spaceID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	s.params.SourceSpaceID = strings.TrimSpace(spaceID)
	s.params.SourceDeliveryToken = strings.TrimSpace(token)
	s.params.SourceConnectionValidated = false
	s.entries = nil
	s.entriesLoaded = false
	return nil
}

// Verify validates the source credentials and, on success, loads the
// source documentation and suggests matches.
func (s *Screen) Verify(ctx context.Context, n interfaces.Notifier) (connection.Result, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return connection.Result{}, ErrNotLoaded
	}
	spaceID, token := s.params.SourceSpaceID, s.params.SourceDeliveryToken
	s.mu.Unlock()

	result := s.validate(ctx, spaceID, token, n)

	s.mu.Lock()
	s.params.SourceConnectionValidated = result.OK
	if !result.OK {
		s.entries = nil
		s.entriesLoaded = false
	}
	s.mu.Unlock()

	if result.OK {
		s.refreshEntries(ctx)
	}
	return result, nil
}

// SetMatch assigns a documentation entry to a content type. An empty
// entryID records an explicit opt-out.
func (s *Screen) SetMatch(contentTypeID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	if !s.eligible(contentTypeID) {
		return fmt.Errorf("%w: %s", ErrUnknownContentType, contentTypeID)
	}
	if entryID == "" {
		s.store.Clear(contentTypeID)
	} else {
		s.store.Set(contentTypeID, entryID)
	}
	delete(s.suggested, contentTypeID)
	return nil
}

// ClearMatch records an explicit opt-out for the content type.
func (s *Screen) ClearMatch(contentTypeID string) error {
	return s.SetMatch(contentTypeID, matching.NoAssignment)
}

// Configure checks the parameters, provisions what the role needs and
// saves parameters and target state together. Refusals are reported to n
// and returned as ErrConfigureRejected; nothing is persisted in that case.
func (s *Screen) Configure(ctx context.Context, n interfaces.Notifier) (*installation.Record, error) {
	if n == nil {
		n = notify.Discard()
	}
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	params := s.params.Clone()
	params.PatternMatches = s.store.Snapshot()
	current := s.currentState
	exists := s.contentTypeExists
	s.mu.Unlock()

	switch params.SpaceType {
	case installation.RoleUnset:
		n.Error(MessageRoleRequired)
		return nil, fmt.Errorf("%w: space role not selected", ErrConfigureRejected)
	case installation.RoleConsumer:
		if !params.HasCredentials() {
			n.Error(connection.MessageMissingCredentials)
			return nil, fmt.Errorf("%w: source credentials missing", ErrConfigureRejected)
		}
		result := s.validate(ctx, params.SourceSpaceID, params.SourceDeliveryToken, n)
		if !result.OK {
			s.mu.Lock()
			s.params.SourceConnectionValidated = false
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrConfigureRejected, result.Reason)
		}
		params.SourceConnectionValidated = true
	default:
		if !exists {
			if err := s.ensureDocumentationType(ctx); err != nil {
				n.Error(messageConfigureFailed)
				return nil, err
			}
		}
	}

	record := installation.Record{
		Parameters:  params,
		TargetState: installation.BuildTargetState(current, params.PatternMatches, s.deps.WidgetID),
	}
	saved, err := s.deps.Repository.Save(ctx, record)
	if err != nil {
		n.Error(messageConfigureFailed)
		return nil, fmt.Errorf("setup: save: %w", err)
	}

	s.mu.Lock()
	s.params = saved.Parameters.Clone()
	state := saved.TargetState
	s.currentState = &state
	s.mu.Unlock()

	s.logger.Info("setup.configured",
		"space_type", string(params.SpaceType),
		"matches", len(params.PatternMatches),
	)
	return saved, nil
}

func (s *Screen) validate(ctx context.Context, spaceID, token string, n interfaces.Notifier) connection.Result {
	if s.deps.Validator == nil {
		if n != nil {
			n.Error(connection.MessageCouldNotConnect)
		}
		return connection.Result{Reason: connection.ReasonCouldNotConnect}
	}
	return s.deps.Validator.ValidateWith(ctx, spaceID, token, n)
}

func (s *Screen) ensureDocumentationType(ctx context.Context) error {
	if s.deps.Provisioner == nil {
		return fmt.Errorf("setup: documentation type missing and no provisioner configured")
	}
	created, err := s.deps.Provisioner.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("setup: provision documentation type: %w", err)
	}
	types, exists := s.fetchContentTypes(ctx)
	s.mu.Lock()
	s.contentTypes = types
	s.contentTypeExists = exists || created
	s.mu.Unlock()
	return nil
}

func (s *Screen) fetchContentTypes(ctx context.Context) ([]matching.ContentType, bool) {
	if s.deps.Factory == nil {
		return []matching.ContentType{}, false
	}
	local, err := s.deps.Factory.Local()
	if err != nil {
		s.logger.Debug("setup.content_types.no_local_client")
		return []matching.ContentType{}, false
	}
	return listContentTypes(ctx, local, s.deps.SourceConfig.ContentTypeID, s.logger)
}

func listContentTypes(ctx context.Context, lister ContentTypeLister, docTypeID string, logger interfaces.Logger) ([]matching.ContentType, bool) {
	items, err := lister.ListContentTypes(ctx)
	if err != nil {
		logger.Warn("setup.content_types.list_failed", "error", err)
		return []matching.ContentType{}, false
	}
	out := make([]matching.ContentType, 0, len(items))
	for _, ct := range items {
		if ct == nil {
			continue
		}
		out = append(out, matching.ContentType{ID: ct.Sys.ID, DisplayName: ct.Name})
	}
	return out, doctype.Exists(items, docTypeID)
}

// refreshEntries loads the complete documentation list, then suggests.
func (s *Screen) refreshEntries(ctx context.Context) {
	s.mu.Lock()
	params := s.params.Clone()
	s.mu.Unlock()

	source := remote.EmptySource()
	if s.deps.Factory != nil {
		source = installation.SourceFor(params, s.deps.Factory, s.deps.SourceConfig, s.logger)
	}
	entries := source.ListDocumentationEntries(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.params.SpaceType != params.SpaceType || !s.params.ConnectionVerified() {
		return
	}
	s.entries = entries
	s.entriesLoaded = true

	candidates := make([]matching.Candidate, 0, len(entries))
	for _, e := range entries {
		candidates = append(candidates, matching.Candidate{ID: e.ID, DisplayName: e.DisplayName})
	}
	eligible := matching.Eligible(s.contentTypes, s.deps.SourceConfig.ContentTypeID)
	added := matching.Suggest(eligible, candidates, s.store)
	s.suggested.Merge(added)
	if len(added) > 0 {
		s.logger.Debug("setup.suggested", "count", len(added))
	}
}

func (s *Screen) eligible(contentTypeID string) bool {
	for _, ct := range s.contentTypes {
		if ct.ID == contentTypeID {
			return ct.ID != s.deps.SourceConfig.ContentTypeID
		}
	}
	return false
}

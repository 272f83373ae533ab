// Package editor renders the documentation panel shown inside the entry
// editor of a matched content type.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-jumpgate/internal/identity"
	"github.com/goliatone/go-jumpgate/internal/installation"
	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/internal/richtext"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// DefaultMaxDepth bounds nested documentation entries.
const DefaultMaxDepth = 4

var (
	// ErrSessionNotFound is returned for unknown or closed session ids.
	ErrSessionNotFound = errors.New("editor: session not found")
	// ErrContentTypeRequired is returned when Open has no content type.
	ErrContentTypeRequired = errors.New("editor: content type id required")
)

// Config tunes the service.
type Config struct {
	Source   remote.SourceConfig
	MaxDepth int
	// Sanitize runs rendered bodies through the HTML sanitizer.
	Sanitize bool
	// IdleTimeout closes panels that nobody looked at or watched for that
	// long. Zero disables reclaiming.
	IdleTimeout time.Duration
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSourceFunc replaces how a panel picks its documentation source.
func WithSourceFunc(fn func(installation.Parameters) remote.Source) Option {
	return func(s *Service) {
		if fn != nil {
			s.sourceFor = fn
		}
	}
}

// WithClock replaces time.Now for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service opens and tracks panels.
type Service struct {
	repo      installation.Repository
	cfg       Config
	sanitizer *richtext.Sanitizer
	exporter  *richtext.MarkdownExporter
	logger    interfaces.Logger
	sourceFor func(installation.Parameters) remote.Source
	now       func() time.Time

	mu     sync.Mutex
	panels map[string]*Panel
	stop   chan struct{}
	once   sync.Once
}

// NewService returns a service reading installation parameters from repo
// and documentation through factory.
func NewService(repo installation.Repository, factory *remote.Factory, cfg Config, opts ...Option) *Service {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	s := &Service{
		repo:     repo,
		cfg:      cfg,
		exporter: richtext.NewMarkdownExporter(),
		logger:   logging.NoOp(),
		now:      time.Now,
		panels:   map[string]*Panel{},
		stop:     make(chan struct{}),
	}
	if cfg.Sanitize {
		s.sanitizer = richtext.NewSanitizer()
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sourceFor == nil {
		s.sourceFor = func(p installation.Parameters) remote.Source {
			return installation.SourceFor(p, factory, cfg.Source, s.logger)
		}
	}
	if cfg.IdleTimeout > 0 {
		go s.sweepEvery(max(cfg.IdleTimeout/4, time.Second))
	}
	return s
}

// Open starts a panel for contentTypeID. A content type without a match, or
// with an explicit opt-out, yields a panel that is unavailable and never
// calls the platform.
func (s *Service) Open(ctx context.Context, contentTypeID string) (*Panel, error) {
	contentTypeID = strings.TrimSpace(contentTypeID)
	if contentTypeID == "" {
		return nil, ErrContentTypeRequired
	}
	params, _, err := installation.LoadOrDefault(ctx, s.repo)
	if err != nil {
		return nil, fmt.Errorf("editor: load parameters: %w", err)
	}

	entryID := params.PatternMatches[contentTypeID]
	source := remote.EmptySource()
	if entryID != "" {
		source = s.sourceFor(params)
	}

	id := identity.SessionID()
	logger := logging.WithFields(s.logger, map[string]any{
		"session_id":      id,
		"content_type_id": contentTypeID,
	})
	panel := newPanel(context.WithoutCancel(ctx), id, contentTypeID, entryID, source, s.sanitizer, s.cfg.MaxDepth, logger)
	panel.clock = s.now
	panel.touch(s.now())

	s.mu.Lock()
	s.panels[id] = panel
	s.mu.Unlock()
	s.Sweep()

	logger.Debug("editor.opened", "entry_id", entryID, "space_type", string(params.SpaceType))
	return panel, nil
}

// Panel returns an open panel and marks it as used.
func (s *Service) Panel(id string) (*Panel, bool) {
	s.mu.Lock()
	p, ok := s.panels[id]
	s.mu.Unlock()
	if ok {
		p.touch(s.now())
	}
	return p, ok
}

// Sweep closes panels idle for longer than Config.IdleTimeout. Panels with
// a live subscriber are never idle. It returns how many were closed.
func (s *Service) Sweep() int {
	if s.cfg.IdleTimeout <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.IdleTimeout)
	var idle []*Panel
	s.mu.Lock()
	for id, p := range s.panels {
		if p.idleSince(cutoff) {
			idle = append(idle, p)
			delete(s.panels, id)
		}
	}
	s.mu.Unlock()
	for _, p := range idle {
		p.Close()
		p.logger.Debug("editor.reclaimed", "idle_timeout", s.cfg.IdleTimeout)
	}
	return len(idle)
}

func (s *Service) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Render returns the current view of panel id.
func (s *Service) Render(id string) (View, error) {
	p, ok := s.Panel(id)
	if !ok {
		return View{}, ErrSessionNotFound
	}
	return p.Render(), nil
}

// Settle waits for panel id to resolve everything it references.
func (s *Service) Settle(ctx context.Context, id string) (View, error) {
	p, ok := s.Panel(id)
	if !ok {
		return View{}, ErrSessionNotFound
	}
	return p.Settle(ctx)
}

// Markdown settles panel id and exports its documentation as Markdown.
func (s *Service) Markdown(ctx context.Context, id string) (string, error) {
	v, err := s.Settle(ctx, id)
	if err != nil {
		return "", err
	}
	return s.ExportView(v)
}

// ExportView converts a view to Markdown. Views that are not ready export
// their unavailable message.
func (s *Service) ExportView(v View) (string, error) {
	return s.exporter.Convert(viewHTML(v, s.sanitizer))
}

// Close tears panel id down and forgets it.
func (s *Service) Close(id string) error {
	s.mu.Lock()
	p, ok := s.panels[id]
	delete(s.panels, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	p.Close()
	p.logger.Debug("editor.closed")
	return nil
}

// Shutdown stops the sweeper and closes every panel.
func (s *Service) Shutdown() {
	s.once.Do(func() { close(s.stop) })
	s.mu.Lock()
	panels := s.panels
	s.panels = map[string]*Panel{}
	s.mu.Unlock()
	for _, p := range panels {
		p.Close()
	}
}

// Len returns the number of open panels.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.panels)
}

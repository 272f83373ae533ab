package remote

import (
	"context"
	"strings"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// Source reads documentation through an API and never fails: list errors
// yield an empty slice, lookup errors yield (nil, false).
type Source interface {
	ListDocumentationEntries(ctx context.Context) []*DocumentationEntry
	GetDocumentationEntry(ctx context.Context, id string) (*DocumentationEntry, bool)
	GetAsset(ctx context.Context, id string) (*DocumentationAsset, bool)
}

// SourceConfig describes where documentation lives.
type SourceConfig struct {
	ContentTypeID string
	DefaultLocale string
	Limit         int
}

type source struct {
	api    API
	cfg    SourceConfig
	logger interfaces.Logger
}

// NewSource wraps api with the fail-soft policy. A nil api yields a source
// that has nothing to offer.
func NewSource(api API, cfg SourceConfig, logger interfaces.Logger) Source {
	if logger == nil {
		logger = logging.NoOp()
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultListLimit
	}
	return &source{api: api, cfg: cfg, logger: logger}
}

// EmptySource returns a source with no documentation.
func EmptySource() Source {
	return &source{logger: logging.NoOp(), cfg: SourceConfig{Limit: DefaultListLimit}}
}

func (s *source) ListDocumentationEntries(ctx context.Context) []*DocumentationEntry {
	if s.api == nil {
		return []*DocumentationEntry{}
	}
	entries, err := s.api.ListEntries(ctx, Query{
		ContentType: s.cfg.ContentTypeID,
		Limit:       s.cfg.Limit,
		Order:       "fields." + FieldName,
	})
	if err != nil {
		s.logger.Warn("remote.documentation.list_failed",
			"variant", string(s.api.Variant()),
			"content_type", s.cfg.ContentTypeID,
			"error", err,
		)
		return []*DocumentationEntry{}
	}

	out := make([]*DocumentationEntry, 0, len(entries))
	for _, entry := range entries {
		if doc := DecodeDocumentationEntry(entry, s.cfg.DefaultLocale); doc != nil {
			out = append(out, doc)
		}
	}
	s.logger.Debug("remote.documentation.listed", "count", len(out))
	return out
}

func (s *source) GetDocumentationEntry(ctx context.Context, id string) (*DocumentationEntry, bool) {
	if s.api == nil || strings.TrimSpace(id) == "" {
		return nil, false
	}
	entry, err := s.api.GetEntry(ctx, id)
	if err != nil {
		s.logger.Warn("remote.documentation.get_failed", "entry_id", id, "error", err)
		return nil, false
	}
	return DecodeDocumentationEntry(entry, s.cfg.DefaultLocale), true
}

func (s *source) GetAsset(ctx context.Context, id string) (*DocumentationAsset, bool) {
	if s.api == nil || strings.TrimSpace(id) == "" {
		return nil, false
	}
	asset, err := s.api.GetAsset(ctx, id)
	if err != nil {
		s.logger.Warn("remote.asset.get_failed", "asset_id", id, "error", err)
		return nil, false
	}
	return DecodeAsset(asset, s.cfg.DefaultLocale), true
}

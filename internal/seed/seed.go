// Package seed publishes Markdown documentation files as documentation
// entries in the local space.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/internal/markdown"
	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

const maxEntryIDLength = 64

// ErrNoDocuments is returned when a directory holds no documentation files.
var ErrNoDocuments = errors.New("seed: no documentation files found")

// EntryWriter is the part of the local client used to upsert entries.
type EntryWriter interface {
	GetEntry(ctx context.Context, id string) (*remote.Entry, error)
	PutEntry(ctx context.Context, contentTypeID, id string, fields map[string]any, version int) (*remote.Entry, error)
	PublishEntry(ctx context.Context, entry *remote.Entry) (*remote.Entry, error)
}

// Config describes where seeded entries go.
type Config struct {
	ContentTypeID string
	DefaultLocale string
	Locales       []string
	SkipPublish   bool
}

// Result describes one seeded entry.
type Result struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Locales   []string `json:"locales"`
	Created   bool     `json:"created"`
	Published bool     `json:"published"`
	Version   int      `json:"version"`
}

// Report summarises a seeding run.
type Report struct {
	Entries []Result `json:"entries"`
	Skipped []string `json:"skipped,omitempty"`
}

// Seeder converts and upserts documentation files.
type Seeder struct {
	writer    EntryWriter
	cfg       Config
	converter *markdown.Converter
	logger    interfaces.Logger
}

// NewSeeder returns a seeder writing through w.
func NewSeeder(w EntryWriter, cfg Config, logger interfaces.Logger) *Seeder {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Seeder{writer: w, cfg: cfg, converter: markdown.NewConverter(), logger: logger}
}

// SeedDirectory loads every Markdown file below dir and seeds it.
func (s *Seeder) SeedDirectory(ctx context.Context, fsys fs.FS, dir string) (Report, error) {
	loader := markdown.NewLoader(fsys, markdown.LoaderConfig{
		DefaultLocale: s.cfg.DefaultLocale,
		Locales:       s.cfg.Locales,
		Recursive:     true,
	})
	docs, err := loader.LoadDirectory(ctx, dir, markdown.LoadParams{})
	if err != nil {
		return Report{}, fmt.Errorf("seed: load %s: %w", dir, err)
	}
	if len(docs) == 0 {
		return Report{}, fmt.Errorf("%w in %s", ErrNoDocuments, dir)
	}
	return s.Seed(ctx, docs)
}

// Seed upserts docs. Files that only differ by their locale directory form
// one entry with one value per locale.
func (s *Seeder) Seed(ctx context.Context, docs []*markdown.Document) (Report, error) {
	if s.writer == nil {
		return Report{}, remote.ErrNoLocalClient
	}
	report := Report{Entries: []Result{}}
	for _, group := range s.group(docs) {
		id, name := s.identify(group)
		if id == "" {
			for _, doc := range group {
				report.Skipped = append(report.Skipped, doc.FilePath)
			}
			s.logger.Warn("seed.skipped", "path", group[0].FilePath, "reason", "missing name")
			continue
		}
		result, err := s.upsert(ctx, id, name, group)
		if err != nil {
			return report, err
		}
		report.Entries = append(report.Entries, result)
	}
	return report, nil
}

func (s *Seeder) group(docs []*markdown.Document) [][]*markdown.Document {
	byKey := map[string][]*markdown.Document{}
	var keys []string
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		key := s.groupKey(doc)
		if _, ok := byKey[key]; !ok {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], doc)
	}
	sort.Strings(keys)
	out := make([][]*markdown.Document, 0, len(keys))
	for _, key := range keys {
		out = append(out, byKey[key])
	}
	return out
}

// groupKey drops the locale directory from the path.
func (s *Seeder) groupKey(doc *markdown.Document) string {
	segments := strings.Split(filepath.ToSlash(doc.FilePath), "/")
	kept := segments[:0:0]
	for _, segment := range segments {
		if segment == doc.Locale {
			continue
		}
		kept = append(kept, segment)
	}
	return strings.Join(kept, "/")
}

// identify returns the entry id and display name of a group: an explicit id
// wins, otherwise the slug of the default locale name.
func (s *Seeder) identify(group []*markdown.Document) (id, name string) {
	primary := group[0]
	for _, doc := range group {
		if doc.Locale == s.cfg.DefaultLocale {
			primary = doc
			break
		}
	}
	name = primary.Meta.Name
	for _, doc := range group {
		if doc.Meta.ID != "" {
			return truncate(doc.Meta.ID), name
		}
	}
	if name == "" {
		return "", ""
	}
	normalized, err := slug.Normalize(name)
	if err != nil || normalized == "" {
		return "", ""
	}
	return truncate(normalized), name
}

func (s *Seeder) fields(group []*markdown.Document) map[string]any {
	name := map[string]any{}
	description := map[string]any{}
	url := map[string]any{}
	content := map[string]any{}
	for _, doc := range group {
		locale := doc.Locale
		if locale == "" {
			locale = s.cfg.DefaultLocale
		}
		if doc.Meta.Name != "" {
			name[locale] = doc.Meta.Name
		}
		if doc.Meta.Description != "" {
			description[locale] = doc.Meta.Description
		}
		if doc.Meta.URL != "" {
			url[locale] = doc.Meta.URL
		}
		content[locale] = s.converter.Convert(doc.Body)
	}
	fields := map[string]any{
		remote.FieldName:    name,
		remote.FieldContent: content,
	}
	if len(description) > 0 {
		fields[remote.FieldDescription] = description
	}
	if len(url) > 0 {
		fields[remote.FieldExternalReferenceURL] = url
	}
	return fields
}

func (s *Seeder) upsert(ctx context.Context, id, name string, group []*markdown.Document) (Result, error) {
	result := Result{ID: id, Name: name}
	for _, doc := range group {
		result.Locales = append(result.Locales, doc.Locale)
	}
	sort.Strings(result.Locales)

	version := 0
	existing, err := s.writer.GetEntry(ctx, id)
	switch {
	case err == nil:
		version = existing.Sys.Version
	case errors.Is(err, remote.ErrNotFound):
		result.Created = true
	default:
		return result, fmt.Errorf("seed: lookup %s: %w", id, err)
	}

	entry, err := s.writer.PutEntry(ctx, s.cfg.ContentTypeID, id, s.fields(group), version)
	if err != nil {
		return result, fmt.Errorf("seed: write %s: %w", id, err)
	}
	result.Version = entry.Sys.Version
	if !s.cfg.SkipPublish {
		published, err := s.writer.PublishEntry(ctx, entry)
		if err != nil {
			return result, fmt.Errorf("seed: publish %s: %w", id, err)
		}
		result.Published = true
		result.Version = published.Sys.Version
	}
	s.logger.Info("seed.entry",
		"entry_id", id,
		"created", result.Created,
		"published", result.Published,
		"locales", len(result.Locales),
	)
	return result, nil
}

func truncate(id string) string {
	if len(id) > maxEntryIDLength {
		return id[:maxEntryIDLength]
	}
	return id
}

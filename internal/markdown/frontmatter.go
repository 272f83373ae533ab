package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
)

// Meta is the frontmatter of a documentation file.
type Meta struct {
	ID          string
	Name        string
	Description string
	URL         string
	Custom      map[string]any
}

// Document is a parsed documentation file.
type Document struct {
	FilePath     string
	Locale       string
	Meta         Meta
	Body         []byte
	Checksum     []byte
	LastModified time.Time
}

// ParseFrontMatter extracts metadata and the Markdown body from source.
func ParseFrontMatter(source []byte) (Meta, []byte, error) {
	var env frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &env)
	if err != nil {
		return Meta{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return env.meta(), body, nil
}

// BuildDocument assembles a Document from a file's path, locale, raw content
// and modification time.
func BuildDocument(path string, locale string, source []byte, modified time.Time) (*Document, error) {
	meta, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}
	return &Document{
		FilePath:     path,
		Locale:       locale,
		Meta:         meta,
		Body:         body,
		LastModified: modified,
	}, nil
}

type frontMatterEnvelope struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	URL         string         `yaml:"url"`
	Custom      map[string]any `yaml:",inline"`
}

// meta accepts "title" as an alias of "name".
func (env frontMatterEnvelope) meta() Meta {
	name := strings.TrimSpace(env.Name)
	if name == "" {
		name = strings.TrimSpace(env.Title)
	}
	custom := make(map[string]any, len(env.Custom))
	for key, value := range env.Custom {
		custom[key] = value
	}
	return Meta{
		ID:          strings.TrimSpace(env.ID),
		Name:        name,
		Description: strings.TrimSpace(env.Description),
		URL:         strings.TrimSpace(env.URL),
		Custom:      custom,
	}
}

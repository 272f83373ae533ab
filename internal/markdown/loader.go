package markdown

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// LoaderConfig configures documentation discovery. Files under a directory
// named after one of Locales take that locale; the rest use DefaultLocale.
type LoaderConfig struct {
	DefaultLocale string
	Locales       []string
	Recursive     bool
}

// LoadParams override the loader configuration for one call.
type LoadParams struct {
	Recursive *bool
}

var documentExtensions = []string{".md", ".markdown"}

// Loader reads documentation files from a filesystem.
type Loader struct {
	fsys fs.FS
	cfg  LoaderConfig
}

func NewLoader(fsys fs.FS, cfg LoaderConfig) *Loader {
	cfg.Locales = slices.Clone(cfg.Locales)
	return &Loader{fsys: fsys, cfg: cfg}
}

// LoadFile parses one file and stamps its locale and checksum.
func (l *Loader) LoadFile(ctx context.Context, name string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = path.Clean(name)
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("markdown: read %s: %w", name, err)
	}
	info, err := fs.Stat(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("markdown: stat %s: %w", name, err)
	}
	doc, err := BuildDocument(name, l.localeOf(name), data, info.ModTime())
	if err != nil {
		return nil, fmt.Errorf("markdown: %s: %w", name, err)
	}
	sum := sha256.Sum256(data)
	doc.Checksum = sum[:]
	return doc, nil
}

// LoadDirectory parses every Markdown file under dir, ordered by path.
func (l *Loader) LoadDirectory(ctx context.Context, dir string, params LoadParams) ([]*Document, error) {
	recursive := l.cfg.Recursive
	if params.Recursive != nil {
		recursive = *params.Recursive
	}
	root := path.Clean(dir)

	var docs []*Document
	err := fs.WalkDir(l.fsys, root, func(name string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir():
			if name != root && !recursive {
				return fs.SkipDir
			}
			return nil
		case !slices.Contains(documentExtensions, strings.ToLower(path.Ext(name))):
			return nil
		}
		doc, err := l.LoadFile(ctx, name)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("markdown: walk %s: %w", root, err)
	}
	slices.SortFunc(docs, func(a, b *Document) int { return strings.Compare(a.FilePath, b.FilePath) })
	return docs, nil
}

func (l *Loader) localeOf(name string) string {
	for _, segment := range strings.Split(path.Dir(name), "/") {
		if slices.Contains(l.cfg.Locales, segment) {
			return segment
		}
	}
	return l.cfg.DefaultLocale
}

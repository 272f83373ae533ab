package editor

import (
	"context"
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/internal/resolver"
	"github.com/goliatone/go-jumpgate/internal/richtext"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// Panel is one open entry editor. Its resolver session memoizes every
// entry and asset it fetches until Close.
type Panel struct {
	id            string
	contentTypeID string
	entryID       string
	maxDepth      int

	session   *resolver.Session
	entries   *resolver.Memo[*remote.DocumentationEntry]
	assets    *resolver.Memo[*remote.DocumentationAsset]
	sanitizer *richtext.Sanitizer
	logger    interfaces.Logger

	clock    func() time.Time
	mu       sync.Mutex
	lastSeen time.Time
	watchers int
}

func newPanel(parent context.Context, id, contentTypeID, entryID string, source remote.Source, sanitizer *richtext.Sanitizer, maxDepth int, logger interfaces.Logger) *Panel {
	session := resolver.NewSession(parent, resolver.WithLogger(logger))
	return &Panel{
		id:            id,
		contentTypeID: contentTypeID,
		entryID:       entryID,
		maxDepth:      maxDepth,
		session:       session,
		entries:       resolver.NewMemo[*remote.DocumentationEntry](session, string(richtext.ReferenceEntry), source.GetDocumentationEntry),
		assets:        resolver.NewMemo[*remote.DocumentationAsset](session, string(richtext.ReferenceAsset), source.GetAsset),
		sanitizer:     sanitizer,
		logger:        logger,
		clock:         time.Now,
	}
}

// ID is the session id of the panel.
func (p *Panel) ID() string { return p.id }

// ContentTypeID is the content type the panel documents.
func (p *Panel) ContentTypeID() string { return p.contentTypeID }

// EntryID is the matched documentation entry, "" when there is none.
func (p *Panel) EntryID() string { return p.entryID }

// Subscribe registers fn for settled references. The panel does not go
// idle while a subscription is open.
func (p *Panel) Subscribe(fn resolver.Listener) func() {
	unsubscribe := p.session.Subscribe(fn)
	p.mu.Lock()
	p.watchers++
	p.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			p.mu.Lock()
			p.watchers--
			p.mu.Unlock()
			p.touch(p.clock())
		})
	}
}

func (p *Panel) touch(now time.Time) {
	p.mu.Lock()
	if now.After(p.lastSeen) {
		p.lastSeen = now
	}
	p.mu.Unlock()
}

func (p *Panel) idleSince(cutoff time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watchers == 0 && p.lastSeen.Before(cutoff)
}

// Closed reports whether the panel was torn down.
func (p *Panel) Closed() bool { return p.session.Closed() }

// Done is closed when the panel is closed.
func (p *Panel) Done() <-chan struct{} { return p.session.Context().Done() }

// Close tears the panel down. Pending fetches are discarded.
func (p *Panel) Close() { p.session.Close() }

// Render builds the current view. References seen for the first time start
// fetching and render as nothing until they settle.
func (p *Panel) Render() View {
	v := View{SessionID: p.id, ContentTypeID: p.contentTypeID, EntryID: p.entryID}
	if p.entryID == "" || p.session.Closed() {
		return unavailable(v)
	}

	entry, state := p.entries.Lookup(p.entryID)
	switch state {
	case resolver.Resolved:
	case resolver.Failed, resolver.Unseen:
		return unavailable(v)
	default:
		v.Status = StatusLoading
		v.Pending = p.session.Pending()
		return v
	}
	if entry == nil {
		return unavailable(v)
	}

	v.Status = StatusReady
	v.Title = entry.DisplayName
	v.Description = entry.ShortDescription
	v.PreviewURL = entry.PreviewURL
	if entry.PreviewAssetID != "" {
		if asset, st := p.assets.Lookup(entry.PreviewAssetID); st == resolver.Resolved && asset != nil && asset.URL != "" {
			v.PreviewImage = &Image{
				URL:         asset.URL,
				Title:       asset.Title,
				Description: asset.Description,
				Width:       asset.Width,
				Height:      asset.Height,
			}
		}
	}
	emb := &embedder{panel: p, stack: []string{entry.ID}}
	v.BodyHTML = p.sanitizer.Sanitize(richtext.NewHTMLRenderer(emb).Render(entry.Body))
	v.Pending = p.session.Pending()
	return v
}

// Settle renders until no fetch is pending, so every reachable reference
// has been resolved or has failed.
func (p *Panel) Settle(ctx context.Context) (View, error) {
	for {
		v := p.Render()
		if p.session.Pending() == 0 {
			return v, nil
		}
		if err := p.session.WaitContext(ctx); err != nil {
			return v, fmt.Errorf("editor: settle %s: %w", p.id, err)
		}
	}
}

// embedder renders embeds for one nesting level. stack holds the entry ids
// of the enclosing documents.
type embedder struct {
	panel *Panel
	stack []string
}

func (e *embedder) EmbeddedAsset(id string) string {
	asset, state := e.panel.assets.Lookup(id)
	if state != resolver.Resolved || asset == nil || asset.URL == "" {
		return ""
	}
	return assetHTML(asset)
}

func (e *embedder) EmbeddedEntry(id string) string {
	if len(e.stack) > e.panel.maxDepth || slices.Contains(e.stack, id) {
		e.panel.logger.Debug("editor.embed.skipped", "entry_id", id, "depth", len(e.stack))
		return ""
	}
	entry, state := e.panel.entries.Lookup(id)
	if state != resolver.Resolved || entry == nil {
		return ""
	}
	child := &embedder{panel: e.panel, stack: append(slices.Clone(e.stack), id)}
	var b strings.Builder
	b.WriteString(`<section class="embedded-entry" data-entry-id="`)
	b.WriteString(html.EscapeString(id))
	b.WriteString(`">`)
	if entry.DisplayName != "" {
		b.WriteString("<header>")
		b.WriteString(html.EscapeString(entry.DisplayName))
		b.WriteString("</header>")
	}
	b.WriteString(richtext.NewHTMLRenderer(child).Render(entry.Body))
	b.WriteString("</section>")
	return b.String()
}

func assetHTML(a *remote.DocumentationAsset) string {
	var b strings.Builder
	if !a.IsImage() {
		label := a.Title
		if label == "" {
			label = a.FileName
		}
		b.WriteString(`<a href="`)
		b.WriteString(html.EscapeString(a.URL))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(label))
		b.WriteString("</a>")
		return b.String()
	}
	b.WriteString(`<figure><img src="`)
	b.WriteString(html.EscapeString(a.URL))
	b.WriteString(`" alt="`)
	b.WriteString(html.EscapeString(a.Title))
	b.WriteString(`"`)
	if a.Width > 0 && a.Height > 0 {
		b.WriteString(` width="` + strconv.Itoa(a.Width) + `" height="` + strconv.Itoa(a.Height) + `"`)
	}
	b.WriteString("/>")
	if a.Description != "" {
		b.WriteString("<figcaption>")
		b.WriteString(html.EscapeString(a.Description))
		b.WriteString("</figcaption>")
	}
	b.WriteString("</figure>")
	return b.String()
}

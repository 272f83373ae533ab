package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-jumpgate/internal/installation"
	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/internal/remote/remotetest"
	"github.com/goliatone/go-jumpgate/internal/resolver"
	"github.com/goliatone/go-jumpgate/internal/richtext"
)

const (
	docType   = "designSystemPattern"
	entryPath = "/spaces/source1/environments/master/entries/"
)

type fixture struct {
	srv     *remotetest.Server
	repo    *installation.MemoryRepository
	service *Service
}

func newFixture(t *testing.T, matches map[string]string) *fixture {
	t.Helper()
	srv := remotetest.NewServer()
	t.Cleanup(srv.Close)

	space := srv.AddSpace("source1", "Source", "org1")
	space.AddContentType(docType, "Design System Pattern")
	space.AddImageAsset("img1", "Button preview", "//images.example.com/button.png", 640, 480)
	space.AddEntry("button", docType, map[string]any{
		"name":                 "Button",
		"description":          "Primary actions",
		"externalReferenceUrl": "https://storybook.example.com/button",
		"previewImage":         remote.NewLink("Asset", "img1"),
		"content": richtext.Document(
			richtext.Block(richtext.NodeParagraph, richtext.Text("Press me", richtext.MarkBold)),
			richtext.Embedded(richtext.NodeEmbeddedAssetBlock, "Asset", "img1"),
			richtext.Embedded(richtext.NodeEmbeddedEntryBlock, "Entry", "card"),
			richtext.Embedded(richtext.NodeEmbeddedEntryBlock, "Entry", "missing"),
		),
	})
	space.AddEntry("card", docType, map[string]any{
		"name": "Card",
		"content": richtext.Document(
			richtext.Block(richtext.NodeParagraph, richtext.Text("Cards group content")),
			richtext.Embedded(richtext.NodeEmbeddedEntryBlock, "Entry", "button"),
		),
	})
	srv.AddDeliveryToken("cda-token", "source1")

	repo := installation.NewMemoryRepository()
	params := installation.Parameters{
		SpaceType:                 installation.RoleConsumer,
		SourceSpaceID:             "source1",
		SourceDeliveryToken:       "cda-token",
		SourceConnectionValidated: true,
		PatternMatches:            matches,
	}
	if _, err := repo.Save(context.Background(), installation.Record{
		Parameters:  params,
		TargetState: installation.BuildTargetState(nil, matches, ""),
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	factory := remote.NewFactory(nil, remote.WithBaseURL(srv.URL))
	service := NewService(repo, factory, Config{
		Source:   remote.SourceConfig{ContentTypeID: docType, DefaultLocale: "en-US"},
		Sanitize: true,
	})
	t.Cleanup(service.Shutdown)
	return &fixture{srv: srv, repo: repo, service: service}
}

func settle(t *testing.T, s *Service, id string) View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := s.Settle(ctx, id)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	return v
}

func TestOpenWithoutMatchIsUnavailableWithoutRemoteCalls(t *testing.T) {
	f := newFixture(t, map[string]string{"footer": ""})
	ctx := context.Background()

	for _, ct := range []string{"footer", "unmatched"} {
		panel, err := f.service.Open(ctx, ct)
		if err != nil {
			t.Fatalf("open %s: %v", ct, err)
		}
		v := panel.Render()
		if v.Status != StatusUnavailable || v.Heading != MessageUnavailableHeading || v.Message != MessageUnavailableBody {
			t.Fatalf("%s: expected unavailable view, got %+v", ct, v)
		}
	}
	if n := len(f.srv.Requests()); n != 0 {
		t.Fatalf("expected no remote calls, got %d", n)
	}
}

func TestOpenRequiresContentType(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.service.Open(context.Background(), "  "); !errors.Is(err, ErrContentTypeRequired) {
		t.Fatalf("expected ErrContentTypeRequired, got %v", err)
	}
}

func TestPanelRendersLoadingThenReady(t *testing.T) {
	f := newFixture(t, map[string]string{"buttonBlock": "button"})
	panel, err := f.service.Open(context.Background(), "buttonBlock")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if first := panel.Render(); first.Status != StatusLoading {
		t.Fatalf("expected loading on first render, got %+v", first)
	}

	v := settle(t, f.service, panel.ID())
	if v.Status != StatusReady {
		t.Fatalf("expected ready, got %+v", v)
	}
	if v.Title != "Button" || v.Description != "Primary actions" {
		t.Fatalf("unexpected heading fields %+v", v)
	}
	if v.PreviewURL != "https://storybook.example.com/button" {
		t.Fatalf("unexpected preview url %q", v.PreviewURL)
	}
	if v.PreviewImage == nil || v.PreviewImage.URL != "https://images.example.com/button.png" || v.PreviewImage.Width != 640 {
		t.Fatalf("unexpected preview image %+v", v.PreviewImage)
	}
	for _, want := range []string{"<strong>Press me</strong>", "<figure>", `width="640"`, "Cards group content", "<header>Card</header>"} {
		if !strings.Contains(v.BodyHTML, want) {
			t.Fatalf("body missing %q: %s", want, v.BodyHTML)
		}
	}
	if strings.Count(v.BodyHTML, "Press me") != 1 {
		t.Fatalf("cyclic embed must not render the root entry again: %s", v.BodyHTML)
	}
	if v.Pending != 0 {
		t.Fatalf("expected nothing pending, got %d", v.Pending)
	}
}

func TestPanelFetchesEachReferenceOnce(t *testing.T) {
	f := newFixture(t, map[string]string{"buttonBlock": "button"})
	panel, _ := f.service.Open(context.Background(), "buttonBlock")
	settle(t, f.service, panel.ID())
	for i := 0; i < 3; i++ {
		panel.Render()
	}

	if n := f.srv.CountRequests("GET", entryPath+"button"); n != 1 {
		t.Fatalf("expected one fetch of the root entry, got %d", n)
	}
	if n := f.srv.CountRequests("GET", entryPath+"missing"); n != 1 {
		t.Fatalf("failed references are not retried, got %d fetches", n)
	}
	if n := f.srv.CountRequests("GET", "/spaces/source1/environments/master/assets/img1"); n != 1 {
		t.Fatalf("expected one asset fetch, got %d", n)
	}
}

func TestPanelWithDeletedEntryIsUnavailable(t *testing.T) {
	f := newFixture(t, map[string]string{"ghost": "deleted"})
	panel, _ := f.service.Open(context.Background(), "ghost")
	if v := settle(t, f.service, panel.ID()); v.Status != StatusUnavailable {
		t.Fatalf("expected unavailable, got %+v", v)
	}
}

func TestCloseDiscardsPanel(t *testing.T) {
	f := newFixture(t, map[string]string{"buttonBlock": "button"})
	panel, _ := f.service.Open(context.Background(), "buttonBlock")
	panel.Render()

	if err := f.service.Close(panel.ID()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !panel.Closed() {
		t.Fatalf("panel should be closed")
	}
	if v := panel.Render(); v.Status != StatusUnavailable {
		t.Fatalf("closed panel renders unavailable, got %+v", v)
	}
	if _, err := f.service.Render(panel.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := f.service.Close(panel.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second close: expected ErrSessionNotFound, got %v", err)
	}
	if f.service.Len() != 0 {
		t.Fatalf("expected no open panels")
	}
}

func TestPanelNotifiesSettledReferences(t *testing.T) {
	f := newFixture(t, map[string]string{"buttonBlock": "button"})
	panel, _ := f.service.Open(context.Background(), "buttonBlock")

	var mu sync.Mutex
	var keys []string
	panel.Subscribe(func(e resolver.Event) {
		mu.Lock()
		keys = append(keys, e.Key)
		mu.Unlock()
	})
	settle(t, f.service, panel.ID())

	mu.Lock()
	defer mu.Unlock()
	if len(keys) == 0 || keys[0] != "entry:button" {
		t.Fatalf("expected the root entry to settle first, got %v", keys)
	}
}

func TestMarkdownExport(t *testing.T) {
	f := newFixture(t, map[string]string{"buttonBlock": "button"})
	panel, _ := f.service.Open(context.Background(), "buttonBlock")

	md, err := f.service.Markdown(context.Background(), panel.ID())
	if err != nil {
		t.Fatalf("markdown: %v", err)
	}
	for _, want := range []string{"# Button", "**Press me**", "https://storybook.example.com/button"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestSweepReclaimsIdlePanels(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	service := NewService(installation.NewMemoryRepository(), remote.NewFactory(nil), Config{
		IdleTimeout: 10 * time.Minute,
	}, WithClock(clock.Now))
	t.Cleanup(service.Shutdown)
	ctx := context.Background()

	abandoned, _ := service.Open(ctx, "heroBanner")
	used, _ := service.Open(ctx, "card")
	watched, _ := service.Open(ctx, "footer")
	unsubscribe := watched.Subscribe(func(resolver.Event) {})

	clock.Advance(6 * time.Minute)
	if _, ok := service.Panel(used.ID()); !ok {
		t.Fatal("expected used panel to be open")
	}
	clock.Advance(6 * time.Minute)

	if n := service.Sweep(); n != 1 {
		t.Fatalf("expected one reclaimed panel, got %d", n)
	}
	if !abandoned.Closed() {
		t.Fatal("expected abandoned panel to be closed")
	}
	if _, err := service.Render(abandoned.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if used.Closed() || watched.Closed() {
		t.Fatal("expected recently used and watched panels to stay open")
	}

	unsubscribe()
	clock.Advance(11 * time.Minute)
	if n := service.Sweep(); n != 2 {
		t.Fatalf("expected the remaining panels to be reclaimed, got %d", n)
	}
	if service.Len() != 0 {
		t.Fatalf("expected no open panels, got %d", service.Len())
	}
}

func TestSweepDisabledWithoutIdleTimeout(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	service := NewService(installation.NewMemoryRepository(), remote.NewFactory(nil), Config{}, WithClock(clock.Now))
	t.Cleanup(service.Shutdown)

	if _, err := service.Open(context.Background(), "heroBanner"); err != nil {
		t.Fatalf("open: %v", err)
	}
	clock.Advance(24 * time.Hour)
	if n := service.Sweep(); n != 0 || service.Len() != 1 {
		t.Fatalf("expected panels to be kept, swept %d, open %d", n, service.Len())
	}
}

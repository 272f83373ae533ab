package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-jumpgate"
	"github.com/goliatone/go-jumpgate/internal/commands/appcmd"
	"github.com/goliatone/go-jumpgate/internal/connection"
	"github.com/goliatone/go-jumpgate/internal/di"
	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/internal/provision"
	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/internal/remote/remotetest"
	"github.com/goliatone/go-jumpgate/internal/richtext"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

type quietProvider struct{}

func (quietProvider) GetLogger(string) interfaces.Logger { return logging.NoOp() }

type stubInstaller struct {
	spaceID string
	err     error
}

func (s *stubInstaller) Install(_ context.Context, spaceID string) (*provision.Result, error) {
	s.spaceID = spaceID
	if s.err != nil {
		return nil, s.err
	}
	return &provision.Result{SpaceID: spaceID, OrganizationID: "org1", AppDefinitionID: "def-1", CreatedDefinition: true}, nil
}

// harness swaps the package seams for the duration of a test.
type harness struct {
	cfg     jumpgate.Config
	extra   []jumpgate.Option
	prompts []string
	answer  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{cfg: jumpgate.DefaultConfig()}
	h.cfg.Cache.Enabled = false

	origBuilder, origLoad, origPrompt := moduleBuilder, loadConfig, promptSecret
	t.Cleanup(func() {
		moduleBuilder, loadConfig, promptSecret = origBuilder, origLoad, origPrompt
	})

	loadConfig = func(string) (jumpgate.Config, error) { return h.cfg, nil }
	moduleBuilder = func(cfg jumpgate.Config, opts ...jumpgate.Option) (*jumpgate.Module, error) {
		all := append([]jumpgate.Option{di.WithLoggerProvider(quietProvider{})}, h.extra...)
		return jumpgate.New(cfg, append(all, opts...)...)
	}
	promptSecret = func(message string) (string, error) {
		h.prompts = append(h.prompts, message)
		if h.answer == "" {
			return "", errors.New("no answer")
		}
		return h.answer, nil
	}
	return h
}

func (h *harness) run(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append([]string{"--no-color"}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestConfigCommandRedactsSecrets(t *testing.T) {
	h := newHarness(t)
	h.cfg.Space.ID = "target"
	h.cfg.Space.ManagementToken = "secret-token"

	stdout, _, err := h.run("config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if strings.Contains(stdout, "secret-token") {
		t.Fatalf("token leaked:\n%s", stdout)
	}
	for _, want := range []string{"default_locale: en-US", redacted, "content_type_id: designSystemPattern"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in output:\n%s", want, stdout)
		}
	}

	stdout, _, err = h.run("config", "--show-secrets")
	if err != nil {
		t.Fatalf("config --show-secrets: %v", err)
	}
	if !strings.Contains(stdout, "secret-token") {
		t.Fatalf("expected token with --show-secrets:\n%s", stdout)
	}
}

func TestInstallPromptsForMissingToken(t *testing.T) {
	h := newHarness(t)
	h.answer = "cma-token"

	installer := &stubInstaller{}
	var gotToken string
	h.extra = append(h.extra, di.WithInstallerFactory(func(token string, _ provision.Config) (appcmd.AppInstaller, error) {
		gotToken = token
		return installer, nil
	}))

	stdout, _, err := h.run("install", "--space-id", "abc123")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if len(h.prompts) != 1 || gotToken != "cma-token" {
		t.Fatalf("expected one prompt answered with the token, prompts=%v token=%q", h.prompts, gotToken)
	}
	if installer.spaceID != "abc123" {
		t.Fatalf("installer ran against %q", installer.spaceID)
	}
	if !strings.Contains(stdout, "Jumpgate successfully installed and configured") ||
		!strings.Contains(stdout, "https://app.contentful.com/spaces/abc123/apps") {
		t.Fatalf("unexpected output:\n%s", stdout)
	}
}

func TestInstallFailureExitsWithStepMessage(t *testing.T) {
	h := newHarness(t)
	installer := &stubInstaller{err: &provision.Error{Step: provision.StepVerifyToken, Message: provision.MessageTokenInvalid}}
	h.extra = append(h.extra, di.WithInstallerFactory(func(string, provision.Config) (appcmd.AppInstaller, error) {
		return installer, nil
	}))

	_, stderr, err := h.run("install", "--space-id", "abc123", "--cma-token", "bad")
	if err == nil {
		t.Fatal("expected install to fail")
	}
	if len(h.prompts) != 0 {
		t.Fatalf("did not expect a prompt, got %v", h.prompts)
	}
	want := "Jumpgate script failed with the following error: " + provision.MessageTokenInvalid
	if !strings.Contains(stderr, want) {
		t.Fatalf("expected %q in stderr:\n%s", want, stderr)
	}
}

func TestInstallRequiresSpace(t *testing.T) {
	h := newHarness(t)
	if _, _, err := h.run("install", "--cma-token", "x"); err == nil {
		t.Fatal("expected missing space id to fail")
	}
}

func newPlatform(t *testing.T) (*remotetest.Server, *remotetest.Space) {
	t.Helper()
	platform := remotetest.NewServer()
	t.Cleanup(platform.Close)

	source := platform.AddSpace("source1", "Source", "org1")
	source.AddContentType("designSystemPattern", "Design System Pattern")
	source.AddEntry("hero", "designSystemPattern", map[string]any{
		"name":        "Hero Banner",
		"description": "Large intro block",
		"content": richtext.Document(
			richtext.Block(richtext.NodeParagraph, richtext.Text("Use one per page", richtext.MarkBold)),
		),
	})
	platform.AddDeliveryToken("cda-token", "source1")
	return platform, source
}

func TestVerifyReportsOutcome(t *testing.T) {
	platform, _ := newPlatform(t)
	h := newHarness(t)
	h.cfg.Remote.DeliveryBaseURL = platform.URL

	stdout, _, err := h.run("verify", "--source-space", "source1", "--delivery-token", "cda-token")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.Contains(stdout, connection.MessageValidated) {
		t.Fatalf("unexpected output:\n%s", stdout)
	}

	_, stderr, err := h.run("verify", "--source-space", "source1", "--delivery-token", "wrong")
	if err == nil {
		t.Fatal("expected wrong token to fail")
	}
	if !strings.Contains(stderr, connection.MessageCouldNotConnect) {
		t.Fatalf("unexpected stderr:\n%s", stderr)
	}
}

func TestExportExplicitEntry(t *testing.T) {
	platform, _ := newPlatform(t)
	h := newHarness(t)
	h.cfg.Remote.DeliveryBaseURL = platform.URL

	stdout, _, err := h.run("export", "heroBannerSection",
		"--entry", "hero", "--source-space", "source1", "--delivery-token", "cda-token")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, want := range []string{"# Hero Banner", "**Use one per page**"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in markdown:\n%s", want, stdout)
		}
	}
}

func TestExportWithoutMatchIsUnavailable(t *testing.T) {
	h := newHarness(t)
	out := filepath.Join(t.TempDir(), "footer.md")

	if _, _, err := h.run("export", "footer", "--out", out); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "Design System not available") {
		t.Fatalf("expected unavailable message, got:\n%s", data)
	}
}

func TestSeedWritesEntries(t *testing.T) {
	platform := remotetest.NewServer()
	t.Cleanup(platform.Close)
	target := platform.AddSpace("target", "Target", "org1")
	target.AddContentType("designSystemPattern", "Design System Pattern")
	platform.AddManagementToken("cma-token", remote.User{Email: "ops@example.com"})

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "en-US"), 0o755); err != nil {
		t.Fatal(err)
	}
	doc := "---\nname: Primary Button\ndescription: Main call to action\n---\nUse **one** per view.\n"
	if err := os.WriteFile(filepath.Join(dir, "en-US", "button.md"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	h := newHarness(t)
	h.cfg.Remote.ManagementBaseURL = platform.URL

	stdout, _, err := h.run("seed", dir, "--space-id", "target", "--cma-token", "cma-token", "--locales", "en-US")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(stdout, "Seeded 1 documentation entries") {
		t.Fatalf("unexpected output:\n%s", stdout)
	}
	if target.Entries["primary-button"] == nil {
		t.Fatal("expected primary-button to be stored")
	}
}

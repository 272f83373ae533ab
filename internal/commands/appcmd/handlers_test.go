package appcmd

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-jumpgate/internal/commands"
	"github.com/goliatone/go-jumpgate/internal/connection"
	"github.com/goliatone/go-jumpgate/internal/installation"
	"github.com/goliatone/go-jumpgate/internal/provision"
	"github.com/goliatone/go-jumpgate/internal/seed"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

type stubValidator struct {
	calls  int
	result connection.Result
	last   [2]string
}

func (s *stubValidator) ValidateWith(_ context.Context, spaceID, token string, _ interfaces.Notifier) connection.Result {
	s.calls++
	s.last = [2]string{spaceID, token}
	return s.result
}

type stubScreen struct {
	loaded      bool
	loads       int
	role        installation.SpaceRole
	credentials [2]string
	matches     map[string]string
	configured  int
	err         error
}

func (s *stubScreen) Loaded() bool { return s.loaded }

func (s *stubScreen) Load(context.Context) error {
	s.loads++
	s.loaded = true
	return nil
}

func (s *stubScreen) SetRole(_ context.Context, role installation.SpaceRole) error {
	s.role = role
	return nil
}

func (s *stubScreen) SetCredentials(spaceID, token string) error {
	s.credentials = [2]string{spaceID, token}
	return nil
}

func (s *stubScreen) SetMatch(contentTypeID, entryID string) error {
	if s.matches == nil {
		s.matches = map[string]string{}
	}
	s.matches[contentTypeID] = entryID
	return nil
}

func (s *stubScreen) Configure(context.Context, interfaces.Notifier) (*installation.Record, error) {
	s.configured++
	if s.err != nil {
		return nil, s.err
	}
	params := installation.Default()
	params.SpaceType = s.role
	params.PatternMatches = s.matches
	return &installation.Record{Parameters: params}, nil
}

type stubInstaller struct {
	spaceID string
	err     error
}

func (s *stubInstaller) Install(_ context.Context, spaceID string) (*provision.Result, error) {
	s.spaceID = spaceID
	if s.err != nil {
		return nil, s.err
	}
	return &provision.Result{SpaceID: spaceID, AppDefinitionID: "def-1", CreatedDefinition: true}, nil
}

type stubSeeder struct {
	fsys fs.FS
	dir  string
}

func (s *stubSeeder) SeedDirectory(_ context.Context, fsys fs.FS, dir string) (seed.Report, error) {
	s.fsys = fsys
	s.dir = dir
	return seed.Report{Entries: []seed.Result{{ID: "button", Name: "Button", Created: true}}}, nil
}

func TestVerifyConnectionValidation(t *testing.T) {
	validator := &stubValidator{result: connection.Result{OK: true}}
	h := NewVerifyConnectionHandler(validator, nil)

	err := h.Execute(context.Background(), VerifyConnectionCommand{SpaceID: " ", DeliveryToken: "tok"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if validator.calls != 0 {
		t.Fatal("validator must not run for invalid messages")
	}
}

func TestVerifyConnectionOutcomes(t *testing.T) {
	validator := &stubValidator{result: connection.Result{OK: true}}
	h := NewVerifyConnectionHandler(validator, nil)

	var out connection.Result
	if err := h.Execute(context.Background(), VerifyConnectionCommand{SpaceID: " abc ", DeliveryToken: " tok ", Output: &out}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !out.OK {
		t.Fatalf("expected ok output, got %+v", out)
	}
	if validator.last != [2]string{"abc", "tok"} {
		t.Fatalf("expected trimmed credentials, got %v", validator.last)
	}

	validator.result = connection.Result{Reason: connection.ReasonDocumentationTypeMissing}
	err := h.Execute(context.Background(), VerifyConnectionCommand{SpaceID: "abc", DeliveryToken: "tok", Output: &out})
	if !errors.Is(err, ErrConnectionRejected) {
		t.Fatalf("expected ErrConnectionRejected, got %v", err)
	}
	if out.Reason != connection.ReasonDocumentationTypeMissing {
		t.Fatalf("expected reason in output, got %+v", out)
	}
}

func TestConfigureInstallationAppliesEdits(t *testing.T) {
	screen := &stubScreen{}
	h := NewConfigureInstallationHandler(screen, nil)

	var record installation.Record
	err := h.Execute(context.Background(), ConfigureInstallationCommand{
		Role:          "consumer",
		SourceSpaceID: "source1",
		DeliveryToken: "cda",
		Matches:       map[string]string{"hero": "heroEntry", "footer": ""},
		Output:        &record,
	})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if screen.loads != 1 || screen.configured != 1 {
		t.Fatalf("expected one load and one configure, got %d/%d", screen.loads, screen.configured)
	}
	if screen.role != installation.RoleConsumer {
		t.Fatalf("expected consumer role, got %q", screen.role)
	}
	if screen.credentials != [2]string{"source1", "cda"} {
		t.Fatalf("unexpected credentials %v", screen.credentials)
	}
	if record.Parameters.PatternMatches["hero"] != "heroEntry" {
		t.Fatalf("expected record output, got %+v", record.Parameters)
	}

	if err := h.Execute(context.Background(), ConfigureInstallationCommand{}); err != nil {
		t.Fatalf("configure again: %v", err)
	}
	if screen.loads != 1 {
		t.Fatalf("expected loaded screen to be reused, got %d loads", screen.loads)
	}
}

func TestConfigureInstallationRejectsUnknownRole(t *testing.T) {
	screen := &stubScreen{}
	h := NewConfigureInstallationHandler(screen, nil)

	err := h.Execute(context.Background(), ConfigureInstallationCommand{Role: "publisher"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if screen.configured != 0 {
		t.Fatal("configure must not run")
	}
}

func TestConfigureInstallationSurfacesScreenError(t *testing.T) {
	screenErr := errors.New("rejected")
	h := NewConfigureInstallationHandler(&stubScreen{err: screenErr}, nil)

	err := h.Execute(context.Background(), ConfigureInstallationCommand{})
	if !errors.Is(err, screenErr) {
		t.Fatalf("expected screen error, got %v", err)
	}
}

func TestInstallAppMergesDefaults(t *testing.T) {
	installer := &stubInstaller{}
	var gotToken string
	var gotCfg provision.Config
	factory := func(token string, cfg provision.Config) (AppInstaller, error) {
		gotToken = token
		gotCfg = cfg
		return installer, nil
	}
	h := NewInstallAppHandler(factory, provision.Config{AppName: "Jumpgate", AppURL: provision.DefaultAppURL, Environment: "master"}, nil)

	var out provision.Result
	err := h.Execute(context.Background(), InstallAppCommand{SpaceID: "space1", ManagementToken: " cma ", AppURL: "https://docs.example.com", Output: &out})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if gotToken != "cma" {
		t.Fatalf("expected trimmed token, got %q", gotToken)
	}
	if gotCfg.AppName != "Jumpgate" || gotCfg.AppURL != "https://docs.example.com" || gotCfg.Environment != "master" {
		t.Fatalf("unexpected config %+v", gotCfg)
	}
	if installer.spaceID != "space1" || out.AppDefinitionID != "def-1" {
		t.Fatalf("unexpected install result %+v", out)
	}
}

func TestInstallAppKeepsProvisionMessage(t *testing.T) {
	failure := &provision.Error{Step: provision.StepSpace, Message: provision.MessageSpaceLookup}
	factory := func(string, provision.Config) (AppInstaller, error) {
		return &stubInstaller{err: failure}, nil
	}
	h := NewInstallAppHandler(factory, provision.Config{}, nil)

	err := h.Execute(context.Background(), InstallAppCommand{SpaceID: "space1", ManagementToken: "cma"})
	var perr *provision.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected provision error, got %v", err)
	}
	if perr.Message != provision.MessageSpaceLookup {
		t.Fatalf("unexpected message %q", perr.Message)
	}
}

func TestInstallAppValidatesSpaceID(t *testing.T) {
	called := false
	factory := func(string, provision.Config) (AppInstaller, error) {
		called = true
		return &stubInstaller{}, nil
	}
	h := NewInstallAppHandler(factory, provision.Config{}, nil)

	err := h.Execute(context.Background(), InstallAppCommand{SpaceID: "Not Valid", ManagementToken: "cma"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatal("factory must not run for invalid messages")
	}
}

func TestSeedDocumentationUsesDirFS(t *testing.T) {
	seeder := &stubSeeder{}
	docs := fstest.MapFS{"button.md": {Data: []byte("---\nname: Button\n---\nBody\n")}}
	var gotDir string
	dirFS := func(dir string) (fs.FS, string) {
		gotDir = dir
		return docs, "."
	}
	h := NewSeedDocumentationHandler(seeder, dirFS, nil)

	var report seed.Report
	if err := h.Execute(context.Background(), SeedDocumentationCommand{Directory: " ./docs ", Output: &report}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if gotDir != "./docs" || seeder.dir != "." {
		t.Fatalf("unexpected directory mapping %q -> %q", gotDir, seeder.dir)
	}
	if len(report.Entries) != 1 || report.Entries[0].ID != "button" {
		t.Fatalf("unexpected report %+v", report)
	}

	if err := h.Execute(context.Background(), SeedDocumentationCommand{}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error for empty directory, got %v", err)
	}
}

type recordingRegistry struct {
	handlers []any
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}

func TestRegisterCommandsSkipsMissingDependencies(t *testing.T) {
	reg := &recordingRegistry{}
	set, err := RegisterCommands(reg, Dependencies{Validator: &stubValidator{}, Seeder: &stubSeeder{}}, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if set.Verify == nil || set.Seed == nil {
		t.Fatal("expected verify and seed handlers")
	}
	if set.Configure != nil || set.Install != nil {
		t.Fatal("expected configure and install handlers to be absent")
	}
	if len(reg.handlers) != 2 {
		t.Fatalf("expected 2 registered handlers, got %d", len(reg.handlers))
	}

	if _, err := RegisterCommands(nil, Dependencies{}, nil); err == nil {
		t.Fatal("expected error without dependencies")
	}
}

func TestDispatcherRetriesVerification(t *testing.T) {
	validator := &flakyValidator{failures: 1}
	handler := NewVerifyConnectionHandler(validator, nil, commands.WithTimeout[VerifyConnectionCommand](time.Second))

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(1))
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), VerifyConnectionCommand{SpaceID: "abc", DeliveryToken: "tok"}); err != nil {
		t.Fatalf("dispatch: expected success after retry, got %v", err)
	}
	if validator.calls != 2 {
		t.Fatalf("expected 2 attempts (initial + retry), got %d", validator.calls)
	}
}

type flakyValidator struct {
	failures int
	calls    int
}

func (f *flakyValidator) ValidateWith(context.Context, string, string, interfaces.Notifier) connection.Result {
	f.calls++
	if f.calls <= f.failures {
		return connection.Result{Reason: connection.ReasonCouldNotConnect}
	}
	return connection.Result{OK: true}
}

package provision

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/internal/remote/remotetest"
)

func newServer(t *testing.T) *remotetest.Server {
	t.Helper()
	srv := remotetest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddSpace("target", "Target", "org1")
	srv.AddManagementToken("cma-token", remote.User{Email: "ops@example.com"})
	return srv
}

func installer(t *testing.T, srv *remotetest.Server, token string) *Installer {
	t.Helper()
	i, err := NewAccountInstaller(token, Config{}, nil, remote.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("installer: %v", err)
	}
	return i
}

func assertFailure(t *testing.T, err error, step Step, message string) {
	t.Helper()
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if perr.Step != step || perr.Error() != message {
		t.Fatalf("expected %s %q, got %s %q", step, message, perr.Step, perr.Error())
	}
}

func TestInstallCreatesDefinitionWhenMissing(t *testing.T) {
	srv := newServer(t)
	srv.AddAppDefinition("org1", remote.AppDefinition{
		Sys:  remote.Sys{ID: "other"},
		Name: "Other app",
		Src:  "https://other.example.com",
	})

	result, err := installer(t, srv, "cma-token").Install(context.Background(), " target ")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if !result.CreatedDefinition || result.AppDefinitionID == "" || result.AppDefinitionID == "other" {
		t.Fatalf("expected a new definition, got %+v", result)
	}
	if result.OrganizationID != "org1" || result.UserEmail != "ops@example.com" {
		t.Fatalf("unexpected result %+v", result)
	}

	defs := srv.AppDefinitions("org1")
	created := defs[len(defs)-1]
	if created.Name != DefaultAppName || created.Src != DefaultAppURL || len(created.Locations) != 2 {
		t.Fatalf("unexpected definition %+v", created)
	}

	var install *remotetest.Request
	for _, req := range srv.Requests() {
		if req.Method == "PUT" && strings.Contains(req.Path, "/app_installations/") {
			r := req
			install = &r
		}
	}
	if install == nil {
		t.Fatalf("install request not sent")
	}
	if !strings.Contains(install.Header.Get("X-Contentful-Marketplace"), "i-accept-end-user-license-agreement") {
		t.Fatalf("marketplace header missing")
	}
	if !strings.Contains(install.Body, `"parameters":{}`) {
		t.Fatalf("expected empty parameters, got %s", install.Body)
	}
	if len(result.Steps) != 5 {
		t.Fatalf("expected five timed steps, got %+v", result.Steps)
	}
}

func TestInstallReusesDefinitionServedFromAppURL(t *testing.T) {
	srv := newServer(t)
	srv.AddAppDefinition("org1", remote.AppDefinition{
		Sys:  remote.Sys{ID: "existing"},
		Name: "Jumpgate (staging)",
		Src:  DefaultAppURL + "/index.html",
	})

	result, err := installer(t, srv, "cma-token").Install(context.Background(), "target")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if result.CreatedDefinition || result.AppDefinitionID != "existing" {
		t.Fatalf("expected reuse, got %+v", result)
	}
	if n := srv.CountRequests("POST", "/organizations/org1/app_definitions"); n != 0 {
		t.Fatalf("no definition should be created, got %d", n)
	}
}

func TestInstallFailures(t *testing.T) {
	t.Run("invalid token", func(t *testing.T) {
		srv := newServer(t)
		_, err := installer(t, srv, "revoked").Install(context.Background(), "target")
		assertFailure(t, err, StepVerifyToken, MessageTokenInvalid)
	})
	t.Run("malformed token", func(t *testing.T) {
		_, err := NewAccountInstaller("has space", Config{}, nil)
		assertFailure(t, err, StepVerifyToken, MessageTokenInvalid)
	})
	t.Run("api failure", func(t *testing.T) {
		srv := newServer(t)
		srv.FailPath("/users/me", 500)
		_, err := installer(t, srv, "cma-token").Install(context.Background(), "target")
		assertFailure(t, err, StepVerifyToken, "There was an issue with calling the Contentful management API: InternalServerError")
	})
	t.Run("unknown space", func(t *testing.T) {
		srv := newServer(t)
		_, err := installer(t, srv, "cma-token").Install(context.Background(), "missing")
		assertFailure(t, err, StepSpace, MessageSpaceLookup)
	})
	t.Run("definitions forbidden", func(t *testing.T) {
		srv := newServer(t)
		srv.FailPath("/organizations/org1/app_definitions", 403)
		_, err := installer(t, srv, "cma-token").Install(context.Background(), "target")
		assertFailure(t, err, StepListDefinitions, MessageListDefinitions)
	})
	t.Run("install rejected", func(t *testing.T) {
		srv := newServer(t)
		srv.FailPath("/spaces/target/environments/master/app_installations", 422)
		_, err := installer(t, srv, "cma-token").Install(context.Background(), "target")
		assertFailure(t, err, StepInstall, MessageInstall)
	})
}

type stubAccount struct {
	createErr error
}

func (stubAccount) CurrentUser(context.Context) (*remote.User, error) {
	return &remote.User{Email: "a@example.com"}, nil
}

func (stubAccount) Space(_ context.Context, id string) (*remote.Space, error) {
	org := remote.NewLink("Organization", "org1")
	return &remote.Space{Sys: remote.Sys{ID: id, Organization: &org}}, nil
}

func (stubAccount) ListAppDefinitions(context.Context, string) ([]*remote.AppDefinition, error) {
	return nil, nil
}

func (s stubAccount) CreateAppDefinition(_ context.Context, _ string, def remote.AppDefinition) (*remote.AppDefinition, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	def.Sys = remote.Sys{ID: "created"}
	return &def, nil
}

func (stubAccount) InstallApp(context.Context, string, string, string, json.RawMessage) (*remote.AppInstallation, error) {
	return &remote.AppInstallation{}, nil
}

func TestInstallCreateDefinitionFailure(t *testing.T) {
	i := NewInstaller(stubAccount{createErr: errors.New("forbidden")}, Config{}, nil)
	_, err := i.Install(context.Background(), "target")
	assertFailure(t, err, StepCreateDefinition, MessageCreateDefinition)
}

func TestStepsAreTimed(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	i := NewInstaller(stubAccount{}, Config{}, nil, WithClock(clock))

	result, err := i.Install(context.Background(), "target")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	want := []Step{StepVerifyToken, StepSpace, StepListDefinitions, StepCreateDefinition, StepInstall}
	if len(result.Steps) != len(want) {
		t.Fatalf("expected %d steps, got %+v", len(want), result.Steps)
	}
	for n, timing := range result.Steps {
		if timing.Step != want[n] || timing.Duration != time.Second {
			t.Fatalf("step %d: unexpected timing %+v", n, timing)
		}
	}
	if result.AppDefinitionID != "created" {
		t.Fatalf("unexpected definition %q", result.AppDefinitionID)
	}
}

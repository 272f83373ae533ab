package jumpgate_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-jumpgate"
	"github.com/goliatone/go-jumpgate/internal/commands/appcmd"
	"github.com/goliatone/go-jumpgate/internal/di"
	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/internal/remote/remotetest"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

type quietProvider struct{}

func (quietProvider) GetLogger(string) interfaces.Logger { return logging.NoOp() }

func TestConfigValidateRejectsUnknownStorage(t *testing.T) {
	cfg := jumpgate.DefaultConfig()
	cfg.Storage.Provider = "dropbox"
	if err := cfg.Validate(); !errors.Is(err, jumpgate.ErrStorageProviderUnknown) {
		t.Fatalf("expected ErrStorageProviderUnknown, got %v", err)
	}
}

func TestConfigValidateRedisNeedsAddress(t *testing.T) {
	cfg := jumpgate.DefaultConfig()
	cfg.Cache.Provider = "redis"
	if err := cfg.Validate(); !errors.Is(err, jumpgate.ErrRedisAddrRequired) {
		t.Fatalf("expected ErrRedisAddrRequired, got %v", err)
	}
}

func TestNewFailsOnInvalidConfig(t *testing.T) {
	cfg := jumpgate.DefaultConfig()
	cfg.Logging.Provider = ""
	if _, err := jumpgate.New(cfg); !errors.Is(err, jumpgate.ErrLoggingProviderRequired) {
		t.Fatalf("expected ErrLoggingProviderRequired, got %v", err)
	}
}

func TestModuleServesHealthAndVerifies(t *testing.T) {
	platform := remotetest.NewServer()
	t.Cleanup(platform.Close)
	source := platform.AddSpace("source1", "Source", "org1")
	source.AddContentType("designSystemPattern", "Design System Pattern")
	platform.AddDeliveryToken("cda-token", "source1")

	cfg := jumpgate.DefaultConfig()
	cfg.Remote.DeliveryBaseURL = platform.URL
	cfg.Remote.ManagementBaseURL = platform.URL

	module, err := jumpgate.New(cfg, di.WithLoggerProvider(quietProvider{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })

	if module.Setup() == nil || module.Editor() == nil || module.Installer() == nil {
		t.Fatal("expected setup, editor and installer")
	}
	if module.Seeder() != nil {
		t.Fatal("seeder requires a local space")
	}

	server := httptest.NewServer(module.Handler())
	t.Cleanup(server.Close)
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	msg := appcmd.VerifyConnectionCommand{SpaceID: "source1", DeliveryToken: "cda-token"}
	var result jumpgate.ConnectionResult
	msg.Output = &result
	if err := module.Commands().Verify.Execute(context.Background(), msg); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.OK {
		t.Fatalf("expected connection to validate, got %+v", result)
	}

	msg.DeliveryToken = "wrong"
	if err := module.Commands().Verify.Execute(context.Background(), msg); !errors.Is(err, appcmd.ErrConnectionRejected) {
		t.Fatalf("expected ErrConnectionRejected, got %v", err)
	}
	if result.OK {
		t.Fatal("expected failed verification to be reported in output")
	}
}

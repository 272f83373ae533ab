package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-jumpgate/internal/runtimeconfig"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{"locale", func(c *runtimeconfig.Config) { c.DefaultLocale = " " }, runtimeconfig.ErrDefaultLocaleRequired},
		{"doc type", func(c *runtimeconfig.Config) { c.Documentation.ContentTypeID = "" }, runtimeconfig.ErrDocumentationTypeRequired},
		{"space id", func(c *runtimeconfig.Config) { c.Space.ID = "Not A Space" }, runtimeconfig.ErrSpaceIDInvalid},
		{"list limit", func(c *runtimeconfig.Config) { c.Remote.ListLimit = 1001 }, runtimeconfig.ErrListLimitInvalid},
		{"timeout", func(c *runtimeconfig.Config) { c.Remote.Timeout = -time.Second }, runtimeconfig.ErrRemoteTimeoutInvalid},
		{"storage provider", func(c *runtimeconfig.Config) { c.Storage.Provider = "s3" }, runtimeconfig.ErrStorageProviderUnknown},
		{"storage driver", func(c *runtimeconfig.Config) {
			c.Storage.Provider = runtimeconfig.StorageBun
			c.Storage.Driver = "mysql"
			c.Storage.DSN = "x"
		}, runtimeconfig.ErrStorageDriverUnknown},
		{"storage dsn", func(c *runtimeconfig.Config) { c.Storage.Provider = runtimeconfig.StorageBun }, runtimeconfig.ErrStorageDSNRequired},
		{"cache ttl", func(c *runtimeconfig.Config) { c.Cache.DefaultTTL = 0 }, runtimeconfig.ErrCacheTTLInvalid},
		{"cache provider", func(c *runtimeconfig.Config) { c.Cache.Provider = "memcached" }, runtimeconfig.ErrCacheProviderUnknown},
		{"redis addr", func(c *runtimeconfig.Config) { c.Cache.Provider = runtimeconfig.CacheRedis }, runtimeconfig.ErrRedisAddrRequired},
		{"editor depth", func(c *runtimeconfig.Config) { c.Editor.MaxDepth = -1 }, runtimeconfig.ErrEditorDepthInvalid},
		{"editor idle timeout", func(c *runtimeconfig.Config) { c.Editor.SessionIdleTimeout = -time.Second }, runtimeconfig.ErrEditorIdleTimeoutInvalid},
		{"logging provider", func(c *runtimeconfig.Config) { c.Logging.Provider = "" }, runtimeconfig.ErrLoggingProviderRequired},
		{"logging unknown", func(c *runtimeconfig.Config) { c.Logging.Provider = "syslog" }, runtimeconfig.ErrLoggingProviderUnknown},
		{"logging level", func(c *runtimeconfig.Config) { c.Logging.Level = "loud" }, runtimeconfig.ErrLoggingLevelInvalid},
		{"logging format", func(c *runtimeconfig.Config) {
			c.Logging.Provider = "gologger"
			c.Logging.Format = "xml"
		}, runtimeconfig.ErrLoggingFormatInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDisabledCacheSkipsCacheChecks(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Cache.DefaultTTL = 0
	cfg.Cache.Provider = "nope"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected disabled cache to skip checks, got %v", err)
	}
}

func TestLoadReadsFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jumpgate.yaml")
	content := []byte(`
default_locale: de-DE
space:
  id: target
remote:
  timeout: 3s
cache:
  provider: redis
  redis:
    addr: localhost:6379
logging:
  provider: zerolog
  level: debug
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("JUMPGATE_SPACE_MANAGEMENT_TOKEN", "cma-from-env")
	t.Setenv("JUMPGATE_EDITOR_MAX_DEPTH", "2")

	cfg, err := runtimeconfig.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultLocale != "de-DE" || cfg.Space.ID != "target" {
		t.Fatalf("expected file values, got locale=%q space=%q", cfg.DefaultLocale, cfg.Space.ID)
	}
	if cfg.Remote.Timeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %s", cfg.Remote.Timeout)
	}
	if cfg.Cache.Redis.Addr != "localhost:6379" || cfg.Cache.Redis.Prefix != "jumpgate:" {
		t.Fatalf("unexpected redis config %+v", cfg.Cache.Redis)
	}
	if cfg.Space.ManagementToken != "cma-from-env" {
		t.Fatalf("expected env token, got %q", cfg.Space.ManagementToken)
	}
	if cfg.Editor.MaxDepth != 2 {
		t.Fatalf("expected env max depth, got %d", cfg.Editor.MaxDepth)
	}
	if cfg.Documentation.ContentTypeID != "designSystemPattern" || cfg.Remote.ListLimit != 1000 {
		t.Fatalf("expected defaults to survive, got %+v", cfg.Documentation)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := runtimeconfig.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.WidgetID != "pattern-reference" || cfg.Space.Environment != "master" {
		t.Fatalf("unexpected defaults %+v", cfg.App)
	}
}

func TestLoadRejectsInvalidFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jumpgate.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  provider: s3\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := runtimeconfig.Load(path); !errors.Is(err, runtimeconfig.ErrStorageProviderUnknown) {
		t.Fatalf("expected ErrStorageProviderUnknown, got %v", err)
	}
}

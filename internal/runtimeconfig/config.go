package runtimeconfig

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var ErrDefaultLocaleRequired = errors.New("jumpgate config: default locale is required")
var ErrDocumentationTypeRequired = errors.New("jumpgate config: documentation content type id is required")
var ErrSpaceIDInvalid = errors.New("jumpgate config: space id must be 1-64 lowercase letters or digits")
var ErrListLimitInvalid = errors.New("jumpgate config: remote list limit must be between 1 and 1000")
var ErrRemoteTimeoutInvalid = errors.New("jumpgate config: remote timeout must be zero or positive")
var ErrStorageProviderUnknown = errors.New("jumpgate config: storage provider is invalid")
var ErrStorageDriverUnknown = errors.New("jumpgate config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("jumpgate config: storage dsn is required for the bun provider")
var ErrCacheProviderUnknown = errors.New("jumpgate config: cache provider is invalid")
var ErrCacheTTLInvalid = errors.New("jumpgate config: cache ttl must be positive when cache is enabled")
var ErrRedisAddrRequired = errors.New("jumpgate config: redis address is required for the redis cache provider")
var ErrEditorDepthInvalid = errors.New("jumpgate config: editor max depth must be zero or positive")
var ErrEditorIdleTimeoutInvalid = errors.New("jumpgate config: editor session idle timeout must be zero or positive")

// ErrLoggingProviderRequired indicates the logging provider was left blank.
var ErrLoggingProviderRequired = errors.New("jumpgate config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("jumpgate config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("jumpgate config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("jumpgate config: logging format is invalid")

var spaceIDPattern = regexp.MustCompile(`^[a-z0-9]{1,64}$`)

// Storage providers.
const (
	StorageMemory   = "memory"
	StorageBun      = "bun"
	StoragePlatform = "platform"
)

// Cache providers.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config aggregates the runtime settings of the app backend, the CLI and
// the editor panels.
type Config struct {
	DefaultLocale string              `mapstructure:"default_locale" yaml:"default_locale"`
	App           AppConfig           `mapstructure:"app" yaml:"app"`
	Space         SpaceConfig         `mapstructure:"space" yaml:"space"`
	Remote        RemoteConfig        `mapstructure:"remote" yaml:"remote"`
	Documentation DocumentationConfig `mapstructure:"documentation" yaml:"documentation"`
	Storage       StorageConfig       `mapstructure:"storage" yaml:"storage"`
	Cache         CacheConfig         `mapstructure:"cache" yaml:"cache"`
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
	Editor        EditorConfig        `mapstructure:"editor" yaml:"editor"`
	Seed          SeedConfig          `mapstructure:"seed" yaml:"seed"`
	Logging       LoggingConfig       `mapstructure:"logging" yaml:"logging"`
	Features      Features            `mapstructure:"features" yaml:"features"`
}

// AppConfig identifies the app definition and its editor widget.
type AppConfig struct {
	Name         string `mapstructure:"name" yaml:"name"`
	URL          string `mapstructure:"url" yaml:"url"`
	DefinitionID string `mapstructure:"definition_id" yaml:"definition_id,omitempty"`
	WidgetID     string `mapstructure:"widget_id" yaml:"widget_id"`
}

// SpaceConfig is the local space the app is installed in.
type SpaceConfig struct {
	ID              string `mapstructure:"id" yaml:"id,omitempty"`
	Environment     string `mapstructure:"environment" yaml:"environment"`
	ManagementToken string `mapstructure:"management_token" yaml:"management_token,omitempty"`
	OrganizationID  string `mapstructure:"organization_id" yaml:"organization_id,omitempty"`
}

// RemoteConfig points at the platform APIs.
type RemoteConfig struct {
	ManagementBaseURL string        `mapstructure:"management_base_url" yaml:"management_base_url"`
	DeliveryBaseURL   string        `mapstructure:"delivery_base_url" yaml:"delivery_base_url"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ListLimit         int           `mapstructure:"list_limit" yaml:"list_limit"`
}

// DocumentationConfig names the documentation content type.
type DocumentationConfig struct {
	ContentTypeID   string `mapstructure:"content_type_id" yaml:"content_type_id"`
	ContentTypeName string `mapstructure:"content_type_name" yaml:"content_type_name"`
}

// StorageConfig selects where installation parameters live.
type StorageConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
	Driver   string `mapstructure:"driver" yaml:"driver,omitempty"`
	DSN      string `mapstructure:"dsn" yaml:"dsn,omitempty"`
}

// CacheConfig captures remote response cache behaviour.
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled" yaml:"enabled"`
	DefaultTTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Provider   string        `mapstructure:"provider" yaml:"provider"`
	Redis      RedisConfig   `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig configures the redis cache provider.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// ServerConfig configures the HTTP backend.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	BasePath       string        `mapstructure:"base_path" yaml:"base_path"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins,omitempty"`
}

// EditorConfig bounds entry-editor rendering. Panels untouched for
// SessionIdleTimeout are closed; zero keeps them until deleted.
type EditorConfig struct {
	MaxDepth           int           `mapstructure:"max_depth" yaml:"max_depth"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout" yaml:"session_idle_timeout"`
}

// SeedConfig controls markdown seeding.
type SeedConfig struct {
	Locales     []string `mapstructure:"locales" yaml:"locales,omitempty"`
	SkipPublish bool     `mapstructure:"skip_publish" yaml:"skip_publish"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider" yaml:"provider"`
	Level     string   `mapstructure:"level" yaml:"level"`
	Format    string   `mapstructure:"format" yaml:"format,omitempty"`
	AddSource bool     `mapstructure:"add_source" yaml:"add_source"`
	Focus     []string `mapstructure:"focus" yaml:"focus,omitempty"`
}

// Features toggles optional behaviour.
type Features struct {
	SanitizeHTML bool `mapstructure:"sanitize_html" yaml:"sanitize_html"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		DefaultLocale: "en-US",
		App: AppConfig{
			Name:     "Jumpgate",
			URL:      "https://jumpgate.vercel.app",
			WidgetID: "pattern-reference",
		},
		Space: SpaceConfig{
			Environment: "master",
		},
		Remote: RemoteConfig{
			ManagementBaseURL: "https://api.contentful.com",
			DeliveryBaseURL:   "https://cdn.contentful.com",
			Timeout:           15 * time.Second,
			ListLimit:         1000,
		},
		Documentation: DocumentationConfig{
			ContentTypeID:   "designSystemPattern",
			ContentTypeName: "Design System Pattern",
		},
		Storage: StorageConfig{
			Provider: StorageMemory,
			Driver:   "sqlite",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
			Provider:   CacheMemory,
			Redis: RedisConfig{
				Prefix: "jumpgate:",
			},
		},
		Server: ServerConfig{
			Addr:        ":8080",
			BasePath:    "/api",
			ReadTimeout: 15 * time.Second,
		},
		Editor: EditorConfig{
			MaxDepth:           4,
			SessionIdleTimeout: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Features: Features{
			SanitizeHTML: true,
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.DefaultLocale) == "" {
		return ErrDefaultLocaleRequired
	}
	if strings.TrimSpace(cfg.Documentation.ContentTypeID) == "" {
		return ErrDocumentationTypeRequired
	}
	if id := strings.TrimSpace(cfg.Space.ID); id != "" && !spaceIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %s", ErrSpaceIDInvalid, id)
	}
	if cfg.Remote.ListLimit < 1 || cfg.Remote.ListLimit > 1000 {
		return fmt.Errorf("%w: %d", ErrListLimitInvalid, cfg.Remote.ListLimit)
	}
	if cfg.Remote.Timeout < 0 {
		return ErrRemoteTimeoutInvalid
	}
	if cfg.Editor.MaxDepth < 0 {
		return ErrEditorDepthInvalid
	}
	if cfg.Editor.SessionIdleTimeout < 0 {
		return ErrEditorIdleTimeoutInvalid
	}

	switch normalize(cfg.Storage.Provider) {
	case StorageMemory, StoragePlatform:
	case StorageBun:
		switch normalize(cfg.Storage.Driver) {
		case "sqlite", "sqlite3", "postgres", "postgresql":
		default:
			return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.DefaultTTL <= 0 {
			return ErrCacheTTLInvalid
		}
		switch normalize(cfg.Cache.Provider) {
		case "", CacheMemory:
		case CacheRedis:
			if strings.TrimSpace(cfg.Cache.Redis.Addr) == "" {
				return ErrRedisAddrRequired
			}
		default:
			return fmt.Errorf("%w: %s", ErrCacheProviderUnknown, cfg.Cache.Provider)
		}
	}

	provider := normalize(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger", "zerolog":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}

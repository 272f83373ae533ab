package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. JUMPGATE_SPACE_ID.
const EnvPrefix = "JUMPGATE"

// Load reads configuration from path (optional), then JUMPGATE_* environment
// variables, on top of DefaultConfig. With an empty path it looks for
// jumpgate.yaml in the working directory and tolerates its absence.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if trimmed := strings.TrimSpace(path); trimmed != "" {
		v.SetConfigFile(trimmed)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("jumpgate config: read %s: %w", trimmed, err)
		}
	} else {
		v.SetConfigName("jumpgate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("jumpgate config: read: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("jumpgate config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply even when
// the file does not mention them.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("default_locale", cfg.DefaultLocale)

	v.SetDefault("app.name", cfg.App.Name)
	v.SetDefault("app.url", cfg.App.URL)
	v.SetDefault("app.definition_id", cfg.App.DefinitionID)
	v.SetDefault("app.widget_id", cfg.App.WidgetID)

	v.SetDefault("space.id", cfg.Space.ID)
	v.SetDefault("space.environment", cfg.Space.Environment)
	v.SetDefault("space.management_token", cfg.Space.ManagementToken)
	v.SetDefault("space.organization_id", cfg.Space.OrganizationID)

	v.SetDefault("remote.management_base_url", cfg.Remote.ManagementBaseURL)
	v.SetDefault("remote.delivery_base_url", cfg.Remote.DeliveryBaseURL)
	v.SetDefault("remote.timeout", cfg.Remote.Timeout)
	v.SetDefault("remote.list_limit", cfg.Remote.ListLimit)

	v.SetDefault("documentation.content_type_id", cfg.Documentation.ContentTypeID)
	v.SetDefault("documentation.content_type_name", cfg.Documentation.ContentTypeName)

	v.SetDefault("storage.provider", cfg.Storage.Provider)
	v.SetDefault("storage.driver", cfg.Storage.Driver)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.DefaultTTL)
	v.SetDefault("cache.provider", cfg.Cache.Provider)
	v.SetDefault("cache.redis.addr", cfg.Cache.Redis.Addr)
	v.SetDefault("cache.redis.password", cfg.Cache.Redis.Password)
	v.SetDefault("cache.redis.db", cfg.Cache.Redis.DB)
	v.SetDefault("cache.redis.prefix", cfg.Cache.Redis.Prefix)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.base_path", cfg.Server.BasePath)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)

	v.SetDefault("editor.max_depth", cfg.Editor.MaxDepth)
	v.SetDefault("editor.session_idle_timeout", cfg.Editor.SessionIdleTimeout)

	v.SetDefault("seed.locales", cfg.Seed.Locales)
	v.SetDefault("seed.skip_publish", cfg.Seed.SkipPublish)

	v.SetDefault("logging.provider", cfg.Logging.Provider)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.add_source", cfg.Logging.AddSource)
	v.SetDefault("logging.focus", cfg.Logging.Focus)

	v.SetDefault("features.sanitize_html", cfg.Features.SanitizeHTML)
}

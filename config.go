package jumpgate

import "github.com/goliatone/go-jumpgate/internal/runtimeconfig"

var (
	ErrDefaultLocaleRequired     = runtimeconfig.ErrDefaultLocaleRequired
	ErrDocumentationTypeRequired = runtimeconfig.ErrDocumentationTypeRequired
	ErrSpaceIDInvalid            = runtimeconfig.ErrSpaceIDInvalid
	ErrListLimitInvalid          = runtimeconfig.ErrListLimitInvalid
	ErrStorageProviderUnknown    = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDSNRequired        = runtimeconfig.ErrStorageDSNRequired
	ErrCacheProviderUnknown      = runtimeconfig.ErrCacheProviderUnknown
	ErrRedisAddrRequired         = runtimeconfig.ErrRedisAddrRequired
	ErrLoggingProviderRequired   = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown    = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid       = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid      = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config              = runtimeconfig.Config
	AppConfig           = runtimeconfig.AppConfig
	SpaceConfig         = runtimeconfig.SpaceConfig
	RemoteConfig        = runtimeconfig.RemoteConfig
	DocumentationConfig = runtimeconfig.DocumentationConfig
	StorageConfig       = runtimeconfig.StorageConfig
	CacheConfig         = runtimeconfig.CacheConfig
	RedisConfig         = runtimeconfig.RedisConfig
	ServerConfig        = runtimeconfig.ServerConfig
	EditorConfig        = runtimeconfig.EditorConfig
	SeedConfig          = runtimeconfig.SeedConfig
	LoggingConfig       = runtimeconfig.LoggingConfig
	Features            = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads jumpgate.yaml (or path) and JUMPGATE_* overrides.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}

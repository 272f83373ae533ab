package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-jumpgate/internal/cache"
	"github.com/goliatone/go-jumpgate/internal/commands/appcmd"
	"github.com/goliatone/go-jumpgate/internal/connection"
	"github.com/goliatone/go-jumpgate/internal/doctype"
	"github.com/goliatone/go-jumpgate/internal/editor"
	jumphttp "github.com/goliatone/go-jumpgate/internal/http"
	"github.com/goliatone/go-jumpgate/internal/installation"
	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/internal/logging/console"
	"github.com/goliatone/go-jumpgate/internal/logging/gologger"
	"github.com/goliatone/go-jumpgate/internal/logging/zerologger"
	"github.com/goliatone/go-jumpgate/internal/provision"
	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/internal/runtimeconfig"
	"github.com/goliatone/go-jumpgate/internal/seed"
	"github.com/goliatone/go-jumpgate/internal/setup"
	"github.com/goliatone/go-jumpgate/internal/storage"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// ErrLocalSpaceRequired is returned when a component needs management access
// to the current space and none was configured.
var ErrLocalSpaceRequired = errors.New("di: platform storage requires space id and management token")

// Container wires configuration, storage, remote clients and services.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	httpClient    *http.Client
	responseCache interfaces.ResponseCache
	closeCache    func() error
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	bunDB   *bun.DB
	ownDB   bool
	repo    installation.Repository
	scope   installation.Scope
	factory *remote.Factory
	local   *remote.Client

	remoteOpts  []remote.Option
	registry    appcmd.CommandRegistry
	validator   *connection.Validator
	provisioner *doctype.Provisioner
	screen      *setup.Screen
	editorSvc   *editor.Service
	seeder      *seed.Seeder
	installers  appcmd.InstallerFactory
	handlers    *appcmd.HandlerSet
	api         *jumphttp.API
}

// Option mutates the container before services are built.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected from configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithBunDB supplies an open database for the bun storage provider. The
// container does not close it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithResponseCache overrides the remote response cache.
func WithResponseCache(rc interfaces.ResponseCache) Option {
	return func(c *Container) {
		c.responseCache = rc
	}
}

// WithCache overrides the repository cache used around the bun repository.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithRepository bypasses storage configuration entirely.
func WithRepository(repo installation.Repository) Option {
	return func(c *Container) {
		c.repo = repo
	}
}

// WithHTTPClient sets the client used by every remote call.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithRemoteOptions appends options applied to local, external and account
// clients.
func WithRemoteOptions(opts ...remote.Option) Option {
	return func(c *Container) {
		c.remoteOpts = append(c.remoteOpts, opts...)
	}
}

// WithCommandRegistry registers the app command handlers with reg.
func WithCommandRegistry(reg appcmd.CommandRegistry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// WithInstallerFactory replaces the account installer factory.
func WithInstallerFactory(factory appcmd.InstallerFactory) Option {
	return func(c *Container) {
		c.installers = factory
	}
}

// NewContainer validates cfg and builds every service it describes.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		scope: installation.Scope{
			SpaceID:     strings.TrimSpace(cfg.Space.ID),
			Environment: cfg.Space.Environment,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	ctx := context.Background()
	steps := []func(context.Context) error{
		c.configureLogging,
		c.configureCache,
		c.configureRemote,
		c.configureRepository,
		c.configureServices,
		c.configureCommands,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	c.logger.Info("container.ready",
		"storage", cfg.Storage.Provider,
		"cache", c.cacheProvider(),
		"local_space", c.local != nil,
	)
	return c, nil
}

func (c *Container) configureLogging(context.Context) error {
	if c.loggerProvider != nil {
		c.logger = logging.ModuleLogger(c.loggerProvider, "jumpgate.di")
		return nil
	}

	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: gologger provider: %w", err)
		}
		c.loggerProvider = provider
	case "zerolog":
		provider, err := zerologger.NewProvider(zerologger.Config{Level: logCfg.Level, Writer: os.Stderr})
		if err != nil {
			return fmt.Errorf("di: zerolog provider: %w", err)
		}
		c.loggerProvider = provider
	default:
		level, _ := console.ParseLevel(logCfg.Level)
		c.loggerProvider = console.NewProvider(console.Options{
			Writer:   os.Stderr,
			MinLevel: &level,
			Color:    !color.NoColor,
		})
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "jumpgate.di")
	return nil
}

func (c *Container) configureCache(ctx context.Context) error {
	cacheCfg := c.Config.Cache
	if !cacheCfg.Enabled {
		return nil
	}

	ttl := cacheCfg.DefaultTTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	if c.responseCache == nil {
		base := cache.Config{Prefix: cacheCfg.Redis.Prefix, DefaultTTL: ttl}
		switch strings.ToLower(strings.TrimSpace(cacheCfg.Provider)) {
		case runtimeconfig.CacheRedis:
			rc, err := cache.NewRedis(ctx, cache.RedisConfig{
				Addr:     cacheCfg.Redis.Addr,
				Password: cacheCfg.Redis.Password,
				DB:       cacheCfg.Redis.DB,
				Cache:    base,
			})
			if err != nil {
				return fmt.Errorf("di: redis cache: %w", err)
			}
			c.responseCache = rc
			c.closeCache = rc.Close
		default:
			c.responseCache = cache.NewMemory(base)
		}
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		cfg.TTL = ttl
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		} else {
			c.logger.Warn("container.repository_cache.disabled", "error", err)
		}
	}
	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func (c *Container) cacheProvider() string {
	if c.responseCache == nil {
		return "none"
	}
	return c.Config.Cache.Provider
}

func (c *Container) configureRemote(context.Context) error {
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.Config.Remote.Timeout}
	}

	shared := []remote.Option{
		remote.WithHTTPClient(c.httpClient),
		remote.WithLogger(logging.RemoteLogger(c.loggerProvider)),
	}
	if agent := strings.TrimSpace(c.Config.App.Name); agent != "" {
		shared = append(shared, remote.WithUserAgent(agent))
	}
	if c.responseCache != nil {
		shared = append(shared, remote.WithCache(c.responseCache, c.Config.Cache.DefaultTTL))
	}

	external := append([]remote.Option{remote.WithBaseURL(c.Config.Remote.DeliveryBaseURL)}, shared...)
	external = append(external, c.remoteOpts...)

	if c.scope.SpaceID != "" && strings.TrimSpace(c.Config.Space.ManagementToken) != "" {
		localOpts := []remote.Option{
			remote.WithBaseURL(c.Config.Remote.ManagementBaseURL),
			remote.WithEnvironment(c.Config.Space.Environment),
		}
		localOpts = append(localOpts, shared...)
		localOpts = append(localOpts, c.remoteOpts...)
		local, err := remote.NewLocal(c.scope.SpaceID, c.Config.Space.ManagementToken, localOpts...)
		if err != nil {
			return fmt.Errorf("di: local space client: %w", err)
		}
		c.local = local
	}

	c.factory = remote.NewFactory(c.local, external...)

	if c.installers == nil {
		accountOpts := []remote.Option{
			remote.WithBaseURL(c.Config.Remote.ManagementBaseURL),
			remote.WithHTTPClient(c.httpClient),
		}
		accountOpts = append(accountOpts, c.remoteOpts...)
		c.installers = appcmd.AccountInstallers(logging.ProvisionLogger(c.loggerProvider), accountOpts...)
	}
	return nil
}

func (c *Container) configureRepository(ctx context.Context) error {
	if c.repo != nil {
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(c.Config.Storage.Provider)) {
	case runtimeconfig.StorageBun:
		if c.bunDB == nil {
			db, err := storage.Open(ctx, storage.Config{
				Driver: c.Config.Storage.Driver,
				DSN:    c.Config.Storage.DSN,
			})
			if err != nil {
				return err
			}
			c.bunDB = db
			c.ownDB = true
		}
		if err := storage.Migrate(ctx, c.bunDB, (*installation.InstallationModel)(nil)); err != nil {
			return err
		}
		c.repo = installation.NewBunRepositoryWithCache(c.bunDB, c.scope, c.cacheService, c.keySerializer)
	case runtimeconfig.StoragePlatform:
		if c.local == nil {
			return ErrLocalSpaceRequired
		}
		c.repo = installation.NewPlatformRepository(
			c.local,
			c.Config.App.DefinitionID,
			c.Config.App.WidgetID,
			logging.ModuleLogger(c.loggerProvider, "jumpgate.installation"),
		)
	default:
		c.repo = installation.NewMemoryRepository()
	}
	return nil
}

func (c *Container) configureServices(context.Context) error {
	docs := c.Config.Documentation
	sourceCfg := remote.SourceConfig{
		ContentTypeID: docs.ContentTypeID,
		DefaultLocale: c.Config.DefaultLocale,
		Limit:         c.Config.Remote.ListLimit,
	}

	c.validator = connection.NewValidator(
		connection.FromFactory(c.factory),
		connection.Config{
			ContentTypeID:   docs.ContentTypeID,
			ContentTypeName: docs.ContentTypeName,
			Timeout:         c.Config.Remote.Timeout,
		},
		connection.WithLogger(logging.ConnectionLogger(c.loggerProvider)),
	)

	deps := setup.Dependencies{
		Repository:   c.repo,
		Factory:      c.factory,
		Validator:    c.validator,
		SourceConfig: sourceCfg,
		WidgetID:     c.Config.App.WidgetID,
		Logger:       logging.SetupLogger(c.loggerProvider),
	}
	if c.local != nil {
		c.provisioner = doctype.NewProvisioner(
			c.local,
			doctype.Definition(docs.ContentTypeID, docs.ContentTypeName),
			logging.ModuleLogger(c.loggerProvider, "jumpgate.doctype"),
		)
		deps.Provisioner = c.provisioner

		c.seeder = seed.NewSeeder(c.local, seed.Config{
			ContentTypeID: docs.ContentTypeID,
			DefaultLocale: c.Config.DefaultLocale,
			Locales:       c.Config.Seed.Locales,
			SkipPublish:   c.Config.Seed.SkipPublish,
		}, logging.SeedLogger(c.loggerProvider))
	}
	c.screen = setup.NewScreen(deps)

	c.editorSvc = editor.NewService(c.repo, c.factory, editor.Config{
		Source:      sourceCfg,
		MaxDepth:    c.Config.Editor.MaxDepth,
		Sanitize:    c.Config.Features.SanitizeHTML,
		IdleTimeout: c.Config.Editor.SessionIdleTimeout,
	}, editor.WithLogger(logging.EditorLogger(c.loggerProvider)))
	return nil
}

func (c *Container) configureCommands(context.Context) error {
	deps := appcmd.Dependencies{
		Validator:        c.validator,
		Screen:           c.screen,
		InstallerFactory: c.installers,
		InstallDefaults: provision.Config{
			AppName:     c.Config.App.Name,
			AppURL:      c.Config.App.URL,
			Environment: c.Config.Space.Environment,
		},
		DirFS: appcmd.OSDirFS,
	}
	if c.seeder != nil {
		deps.Seeder = c.seeder
	}

	handlers, err := appcmd.RegisterCommands(c.registry, deps, c.loggerProvider)
	if err != nil {
		return err
	}
	c.handlers = handlers

	c.api = jumphttp.NewAPI(
		jumphttp.WithBasePath(c.Config.Server.BasePath),
		jumphttp.WithConfigScreen(c.screen),
		jumphttp.WithEditorService(c.editorSvc),
		jumphttp.WithConfigureHandler(handlers.Configure),
		jumphttp.WithAllowedOrigins(c.Config.Server.AllowedOrigins...),
		jumphttp.WithLogger(logging.ModuleLogger(c.loggerProvider, "jumpgate.http")),
	)
	return nil
}

// LoggerProvider returns the provider every module logger is derived from.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// Logger returns the container's own logger.
func (c *Container) Logger() interfaces.Logger { return c.logger }

// ResponseCache returns the remote response cache, or nil when disabled.
func (c *Container) ResponseCache() interfaces.ResponseCache { return c.responseCache }

// Repository returns the installation repository.
func (c *Container) Repository() installation.Repository { return c.repo }

// Scope is the space environment the container was configured for.
func (c *Container) Scope() installation.Scope { return c.scope }

// RemoteFactory returns the client factory.
func (c *Container) RemoteFactory() *remote.Factory { return c.factory }

// LocalClient returns the management client of the current space, or nil.
func (c *Container) LocalClient() *remote.Client { return c.local }

// Validator returns the connection validator.
func (c *Container) Validator() *connection.Validator { return c.validator }

// Provisioner returns the documentation type provisioner, or nil without a
// local space.
func (c *Container) Provisioner() *doctype.Provisioner { return c.provisioner }

// Screen returns the configuration screen.
func (c *Container) Screen() *setup.Screen { return c.screen }

// Editor returns the entry editor panel service.
func (c *Container) Editor() *editor.Service { return c.editorSvc }

// Seeder returns the markdown seeder, or nil without a local space.
func (c *Container) Seeder() *seed.Seeder { return c.seeder }

// Commands returns the app command handlers.
func (c *Container) Commands() *appcmd.HandlerSet { return c.handlers }

// API returns the HTTP backend.
func (c *Container) API() *jumphttp.API { return c.api }

// Close releases the editor sessions, the redis connection and any database
// the container opened itself.
func (c *Container) Close() error {
	var errs []error
	if c.editorSvc != nil {
		c.editorSvc.Shutdown()
	}
	if c.closeCache != nil {
		errs = append(errs, c.closeCache())
		c.closeCache = nil
	}
	if c.ownDB && c.bunDB != nil {
		errs = append(errs, c.bunDB.Close())
		c.bunDB = nil
	}
	return errors.Join(errs...)
}

package appcmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-jumpgate/internal/commands"
	"github.com/goliatone/go-jumpgate/internal/connection"
	"github.com/goliatone/go-jumpgate/internal/installation"
	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/internal/provision"
	"github.com/goliatone/go-jumpgate/internal/seed"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

const (
	verifyOperation    = "connection.verify"
	configureOperation = "installation.configure"
	installOperation   = "app.install"
	seedOperation      = "documentation.seed"
)

// ErrConnectionRejected is returned when a source space fails validation.
var ErrConnectionRejected = errors.New("appcmd: source connection rejected")

var (
	_ command.Commander[VerifyConnectionCommand]      = (*VerifyConnectionHandler)(nil)
	_ command.Commander[ConfigureInstallationCommand] = (*ConfigureInstallationHandler)(nil)
	_ command.Commander[InstallAppCommand]            = (*InstallAppHandler)(nil)
	_ command.Commander[SeedDocumentationCommand]     = (*SeedDocumentationHandler)(nil)
)

// ConnectionValidator validates source space credentials.
type ConnectionValidator interface {
	ValidateWith(ctx context.Context, spaceID, token string, n interfaces.Notifier) connection.Result
}

// ConfigScreen is the configuration surface driven by ConfigureInstallationCommand.
type ConfigScreen interface {
	Loaded() bool
	Load(ctx context.Context) error
	SetRole(ctx context.Context, role installation.SpaceRole) error
	SetCredentials(spaceID, token string) error
	SetMatch(contentTypeID, entryID string) error
	Configure(ctx context.Context, n interfaces.Notifier) (*installation.Record, error)
}

// AppInstaller installs the app into a space.
type AppInstaller interface {
	Install(ctx context.Context, spaceID string) (*provision.Result, error)
}

// InstallerFactory builds an installer bound to a management token.
type InstallerFactory func(token string, cfg provision.Config) (AppInstaller, error)

// DocumentationSeeder upserts markdown documents as documentation entries.
type DocumentationSeeder interface {
	SeedDirectory(ctx context.Context, fsys fs.FS, dir string) (seed.Report, error)
}

// DirFS maps a directory argument to the filesystem and root passed to the seeder.
type DirFS func(dir string) (fs.FS, string)

// OSDirFS roots the seeder at the directory on the local disk.
func OSDirFS(dir string) (fs.FS, string) {
	return os.DirFS(dir), "."
}

// VerifyConnectionHandler runs connection validation.
type VerifyConnectionHandler struct {
	inner *commands.Handler[VerifyConnectionCommand]
}

// NewVerifyConnectionHandler creates a handler bound to the validator.
func NewVerifyConnectionHandler(validator ConnectionValidator, logger interfaces.Logger, opts ...commands.HandlerOption[VerifyConnectionCommand]) *VerifyConnectionHandler {
	logger = ensureLogger(logger)

	exec := func(ctx context.Context, msg VerifyConnectionCommand) error {
		result := validator.ValidateWith(ctx, strings.TrimSpace(msg.SpaceID), strings.TrimSpace(msg.DeliveryToken), msg.Notifier)
		if msg.Output != nil {
			*msg.Output = result
		}
		if !result.OK {
			return fmt.Errorf("%w: %s", ErrConnectionRejected, result.Reason)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[VerifyConnectionCommand]{
		commands.WithLogger[VerifyConnectionCommand](logger),
		commands.WithOperation[VerifyConnectionCommand](verifyOperation),
		commands.WithMessageFields(func(msg VerifyConnectionCommand) map[string]any {
			return map[string]any{"space_id": strings.TrimSpace(msg.SpaceID)}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[VerifyConnectionCommand](logger)),
	}
	return &VerifyConnectionHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[VerifyConnectionCommand].
func (h *VerifyConnectionHandler) Execute(ctx context.Context, msg VerifyConnectionCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ConfigureInstallationHandler applies edits to the config screen and saves.
type ConfigureInstallationHandler struct {
	inner *commands.Handler[ConfigureInstallationCommand]
}

// NewConfigureInstallationHandler creates a handler bound to the screen.
func NewConfigureInstallationHandler(screen ConfigScreen, logger interfaces.Logger, opts ...commands.HandlerOption[ConfigureInstallationCommand]) *ConfigureInstallationHandler {
	logger = ensureLogger(logger)

	exec := func(ctx context.Context, msg ConfigureInstallationCommand) error {
		if !screen.Loaded() {
			if err := screen.Load(ctx); err != nil {
				return err
			}
		}
		if msg.Role != "" {
			role, err := installation.ParseRole(msg.Role)
			if err != nil {
				return err
			}
			if err := screen.SetRole(ctx, role); err != nil {
				return err
			}
		}
		if msg.SourceSpaceID != "" || msg.DeliveryToken != "" {
			if err := screen.SetCredentials(msg.SourceSpaceID, msg.DeliveryToken); err != nil {
				return err
			}
		}
		for contentTypeID, entryID := range msg.Matches {
			if err := screen.SetMatch(contentTypeID, entryID); err != nil {
				return err
			}
		}
		record, err := screen.Configure(ctx, msg.Notifier)
		if err != nil {
			return err
		}
		if msg.Output != nil && record != nil {
			*msg.Output = *record
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ConfigureInstallationCommand]{
		commands.WithLogger[ConfigureInstallationCommand](logger),
		commands.WithOperation[ConfigureInstallationCommand](configureOperation),
		commands.WithMessageFields(func(msg ConfigureInstallationCommand) map[string]any {
			fields := map[string]any{}
			if msg.Role != "" {
				fields["role"] = msg.Role
			}
			if len(msg.Matches) > 0 {
				fields["match_count"] = len(msg.Matches)
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ConfigureInstallationCommand](logger)),
	}
	return &ConfigureInstallationHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[ConfigureInstallationCommand].
func (h *ConfigureInstallationHandler) Execute(ctx context.Context, msg ConfigureInstallationCommand) error {
	return h.inner.Execute(ctx, msg)
}

// InstallAppHandler provisions and installs the app.
type InstallAppHandler struct {
	inner *commands.Handler[InstallAppCommand]
}

// NewInstallAppHandler creates a handler that builds one installer per message.
func NewInstallAppHandler(factory InstallerFactory, defaults provision.Config, logger interfaces.Logger, opts ...commands.HandlerOption[InstallAppCommand]) *InstallAppHandler {
	logger = ensureLogger(logger)

	exec := func(ctx context.Context, msg InstallAppCommand) error {
		cfg := defaults
		if msg.AppName != "" {
			cfg.AppName = msg.AppName
		}
		if msg.AppURL != "" {
			cfg.AppURL = msg.AppURL
		}
		if msg.Environment != "" {
			cfg.Environment = msg.Environment
		}
		installer, err := factory(strings.TrimSpace(msg.ManagementToken), cfg)
		if err != nil {
			return err
		}
		result, err := installer.Install(ctx, strings.TrimSpace(msg.SpaceID))
		if err != nil {
			return err
		}
		if msg.Output != nil && result != nil {
			*msg.Output = *result
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[InstallAppCommand]{
		commands.WithLogger[InstallAppCommand](logger),
		commands.WithOperation[InstallAppCommand](installOperation),
		// Installs make several sequential management calls.
		commands.WithTimeout[InstallAppCommand](2 * commands.DefaultCommandTimeout),
		commands.WithMessageFields(func(msg InstallAppCommand) map[string]any {
			return map[string]any{"space_id": strings.TrimSpace(msg.SpaceID)}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[InstallAppCommand](logger)),
	}
	return &InstallAppHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[InstallAppCommand].
func (h *InstallAppHandler) Execute(ctx context.Context, msg InstallAppCommand) error {
	return h.inner.Execute(ctx, msg)
}

// SeedDocumentationHandler seeds documentation entries from markdown.
type SeedDocumentationHandler struct {
	inner *commands.Handler[SeedDocumentationCommand]
}

// NewSeedDocumentationHandler creates a handler bound to the seeder.
func NewSeedDocumentationHandler(seeder DocumentationSeeder, dirFS DirFS, logger interfaces.Logger, opts ...commands.HandlerOption[SeedDocumentationCommand]) *SeedDocumentationHandler {
	logger = ensureLogger(logger)
	if dirFS == nil {
		dirFS = OSDirFS
	}

	exec := func(ctx context.Context, msg SeedDocumentationCommand) error {
		fsys, root := dirFS(strings.TrimSpace(msg.Directory))
		report, err := seeder.SeedDirectory(ctx, fsys, root)
		if err != nil {
			return err
		}
		if msg.Output != nil {
			*msg.Output = report
		}
		logging.WithFields(logger, map[string]any{
			"entry_count":   len(report.Entries),
			"skipped_count": len(report.Skipped),
		}).Info("seed.command.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[SeedDocumentationCommand]{
		commands.WithLogger[SeedDocumentationCommand](logger),
		commands.WithOperation[SeedDocumentationCommand](seedOperation),
		commands.WithTimeout[SeedDocumentationCommand](0),
		commands.WithMessageFields(func(msg SeedDocumentationCommand) map[string]any {
			return map[string]any{"directory": msg.Directory}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SeedDocumentationCommand](logger)),
	}
	return &SeedDocumentationHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[SeedDocumentationCommand].
func (h *SeedDocumentationHandler) Execute(ctx context.Context, msg SeedDocumentationCommand) error {
	return h.inner.Execute(ctx, msg)
}

func ensureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}

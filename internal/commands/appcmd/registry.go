package appcmd

import (
	"errors"

	"github.com/goliatone/go-jumpgate/internal/commands"
	"github.com/goliatone/go-jumpgate/internal/provision"
	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Dependencies are the services behind the app commands.
type Dependencies struct {
	Validator        ConnectionValidator
	Screen           ConfigScreen
	InstallerFactory InstallerFactory
	InstallDefaults  provision.Config
	Seeder           DocumentationSeeder
	DirFS            DirFS
}

// HandlerSet groups the handlers produced by RegisterCommands. Handlers whose
// dependency is missing are nil.
type HandlerSet struct {
	Verify    *VerifyConnectionHandler
	Configure *ConfigureInstallationHandler
	Install   *InstallAppHandler
	Seed      *SeedDocumentationHandler
}

// RegisterCommands builds the app command handlers and registers them with
// the registry when one is supplied.
func RegisterCommands(reg CommandRegistry, deps Dependencies, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if deps.Validator == nil && deps.Screen == nil && deps.InstallerFactory == nil && deps.Seeder == nil {
		return nil, errors.New("app command registration: no dependencies supplied")
	}

	set := &HandlerSet{}
	var handlers []any
	if deps.Validator != nil {
		set.Verify = NewVerifyConnectionHandler(deps.Validator, commands.CommandLogger(provider, "connection"))
		handlers = append(handlers, set.Verify)
	}
	if deps.Screen != nil {
		set.Configure = NewConfigureInstallationHandler(deps.Screen, commands.CommandLogger(provider, "installation"))
		handlers = append(handlers, set.Configure)
	}
	if deps.InstallerFactory != nil {
		set.Install = NewInstallAppHandler(deps.InstallerFactory, deps.InstallDefaults, commands.CommandLogger(provider, "provision"))
		handlers = append(handlers, set.Install)
	}
	if deps.Seeder != nil {
		set.Seed = NewSeedDocumentationHandler(deps.Seeder, deps.DirFS, commands.CommandLogger(provider, "seed"))
		handlers = append(handlers, set.Seed)
	}

	if reg != nil {
		for _, handler := range handlers {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// AccountInstallers builds installers from a management token against the
// default remote endpoints plus opts.
func AccountInstallers(logger interfaces.Logger, opts ...remote.Option) InstallerFactory {
	return func(token string, cfg provision.Config) (AppInstaller, error) {
		installer, err := provision.NewAccountInstaller(token, cfg, logger, opts...)
		if err != nil {
			return nil, err
		}
		return installer, nil
	}
}

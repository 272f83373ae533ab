// Package jumpgate embeds design system documentation in the entry editors
// of a content platform space. New wires the configuration screen, the
// entry editor panel, provisioning and markdown seeding from one Config.
package jumpgate

import (
	"net/http"

	"github.com/goliatone/go-jumpgate/internal/commands/appcmd"
	"github.com/goliatone/go-jumpgate/internal/connection"
	"github.com/goliatone/go-jumpgate/internal/di"
	"github.com/goliatone/go-jumpgate/internal/editor"
	"github.com/goliatone/go-jumpgate/internal/installation"
	"github.com/goliatone/go-jumpgate/internal/provision"
	"github.com/goliatone/go-jumpgate/internal/seed"
	"github.com/goliatone/go-jumpgate/internal/setup"
)

// SetupScreen exports the configuration screen.
type SetupScreen = *setup.Screen

// EditorService exports the entry editor panel service.
type EditorService = *editor.Service

// EditorView exports the rendered state of one panel.
type EditorView = editor.View

// Seeder exports the markdown documentation seeder.
type Seeder = *seed.Seeder

// ConnectionResult exports the outcome of a source connection check.
type ConnectionResult = connection.Result

// InstallationRecord exports a persisted installation.
type InstallationRecord = installation.Record

// InstallResult exports the outcome of provisioning the app in a space.
type InstallResult = provision.Result

// Commands exports the command handlers built for the module.
type Commands = *appcmd.HandlerSet

// Option overrides a container binding.
type Option = di.Option

// Module is the top level jumpgate runtime.
type Module struct {
	container *di.Container
}

// New constructs a module from cfg. Options replace individual bindings.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Setup returns the configuration screen.
func (m *Module) Setup() SetupScreen {
	return m.container.Screen()
}

// Editor returns the entry editor panel service.
func (m *Module) Editor() EditorService {
	return m.container.Editor()
}

// Seeder returns the seeder, or nil when no local space is configured.
func (m *Module) Seeder() Seeder {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Seeder()
}

// Commands returns the verify, configure, install and seed handlers.
func (m *Module) Commands() Commands {
	return m.container.Commands()
}

// Installer returns the install command handler.
func (m *Module) Installer() *appcmd.InstallAppHandler {
	return m.container.Commands().Install
}

// Handler returns the HTTP backend of the app.
func (m *Module) Handler() http.Handler {
	return m.container.API().Handler()
}

// Close releases sessions, caches and databases owned by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

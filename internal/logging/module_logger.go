package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

const (
	rootModule       = "jumpgate"
	remoteModule     = "jumpgate.remote"
	setupModule      = "jumpgate.setup"
	editorModule     = "jumpgate.editor"
	resolverModule   = "jumpgate.resolver"
	provisionModule  = "jumpgate.provision"
	seedModule       = "jumpgate.seed"
	connectionModule = "jumpgate.connection"
)

const (
	fieldSpaceID     = "space_id"
	fieldEnvironment = "environment"
	fieldVariant     = "variant"
)

// ModuleLogger asks provider for the named logger and tags it with a
// module field. A nil provider yields NoOp; an empty name means "jumpgate".
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}
	var logger interfaces.Logger
	if provider != nil {
		logger = provider.GetLogger(module)
	}
	if logger == nil {
		return NoOp()
	}
	return WithFields(logger, map[string]any{"module": module})
}

// RemoteLogger returns the logger namespace used by remote platform clients.
func RemoteLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, remoteModule)
}

// SetupLogger returns the logger namespace used by the configuration screen.
func SetupLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, setupModule)
}

// EditorLogger returns the logger namespace used by entry editor panels.
func EditorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, editorModule)
}

// ResolverLogger returns the logger namespace used by lazy reference resolution.
func ResolverLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, resolverModule)
}

// ProvisionLogger returns the logger namespace used by the installer.
func ProvisionLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, provisionModule)
}

// SeedLogger returns the logger namespace used by documentation seeding.
func SeedLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, seedModule)
}

// ConnectionLogger returns the logger namespace used by connection checks.
func ConnectionLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, connectionModule)
}

// WithSpaceContext enriches the logger with the remote space coordinates.
// Empty values are ignored.
func WithSpaceContext(logger interfaces.Logger, spaceID, environment, variant string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(spaceID); trimmed != "" {
		fields[fieldSpaceID] = trimmed
	}
	if trimmed := strings.TrimSpace(environment); trimmed != "" {
		fields[fieldEnvironment] = trimmed
	}
	if trimmed := strings.TrimSpace(variant); trimmed != "" {
		fields[fieldVariant] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}

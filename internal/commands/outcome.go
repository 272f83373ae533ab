package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	command "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// TelemetryStatus classifies how a command run ended.
type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo is handed to a Telemetry callback once a command returns.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Telemetry replaces the handler's own outcome logging.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs one line per command with its duration in
// milliseconds.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	if logger == nil {
		logger = logging.NoOp()
	}
	return func(ctx context.Context, _ T, info TelemetryInfo) {
		entry := logging.WithFields(logger.WithContext(ctx), info.Fields)
		args := []any{"duration_ms", info.Duration.Milliseconds()}
		if info.Status == TelemetryStatusSuccess {
			entry.Info("command.execute.success", args...)
			return
		}
		entry.Error("command.execute."+string(info.Status), append(args, "error", info.Error)...)
	}
}

// CommandLogger names a handler logger jumpgate.commands.<module>.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	module = strings.TrimSpace(module)
	if module == "" {
		module = "core"
	}
	return logging.WithFields(
		logging.ModuleLogger(provider, "jumpgate.commands."+module),
		map[string]any{"component": "command", "command_module": module},
	)
}

const (
	codeInvalid  = "JUMPGATE_COMMAND_INVALID"
	codeCanceled = "JUMPGATE_COMMAND_CANCELED"
	codeTimeout  = "JUMPGATE_COMMAND_TIMEOUT"
	codeFailed   = "JUMPGATE_COMMAND_FAILED"
)

func statusOf(err error) TelemetryStatus {
	switch {
	case err == nil:
		return TelemetryStatusSuccess
	case isContextError(err):
		return TelemetryStatusContextError
	default:
		return TelemetryStatusFailed
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// invalid tags a message validation failure.
func invalid(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command message rejected").
		WithTextCode(codeInvalid)
}

// failure tags an execution error. Errors already carrying a go-errors
// category pass through unchanged.
func failure(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	msg, code := "command failed", codeFailed
	switch {
	case errors.Is(err, context.Canceled):
		msg, code = "command canceled", codeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		msg, code = "command timed out", codeTimeout
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, msg).WithTextCode(code)
}

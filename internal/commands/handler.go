// Package commands runs jumpgate's go-command handlers with validation,
// a deadline, outcome logging and go-errors tagging.
package commands

import (
	"context"
	"maps"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// DefaultCommandTimeout bounds every handler unless WithTimeout overrides it.
const DefaultCommandTimeout = 30 * time.Second

type HandlerOption[T command.Message] func(*Handler[T])

// Handler implements command.Commander[T] around a plain CommandFunc.
type Handler[T command.Message] struct {
	exec      command.CommandFunc[T]
	logger    interfaces.Logger
	timeout   time.Duration
	operation string
	fields    func(T) map[string]any
	telemetry Telemetry[T]
}

// NewHandler panics on a nil fn.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: nil handler function")
	}
	h := &Handler[T]{exec: fn, logger: logging.NoOp(), timeout: DefaultCommandTimeout}
	for _, opt := range opts {
		opt(h)
	}
	if h.telemetry == nil {
		h.telemetry = DefaultTelemetry[T](h.logger)
	}
	return h
}

func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return invalid(err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return failure(err)
	}

	name := command.GetMessageType(msg)
	fields := map[string]any{"command": name}
	if h.operation != "" {
		fields["operation"] = h.operation
	}
	if h.fields != nil {
		maps.Copy(fields, h.fields(msg))
	}
	logger := logging.WithFields(h.logger.WithContext(ctx), fields)
	logger.Debug("command.execute.start")

	started := time.Now()
	err := h.exec(ctx, msg)
	if err == nil {
		err = ctx.Err()
	}
	h.telemetry(ctx, msg, TelemetryInfo{
		Command:   name,
		Operation: h.operation,
		Fields:    fields,
		Duration:  time.Since(started),
		Error:     err,
		Status:    statusOf(err),
		Logger:    logger,
	})
	return failure(err)
}

// WithTimeout overrides DefaultCommandTimeout. Non-positive values disable
// the deadline.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) { h.timeout = max(timeout, 0) }
}

func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithOperation names the operation in every entry, e.g. "install".
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) { h.operation = operation }
}

// WithMessageFields derives extra log fields from each message.
func WithMessageFields[T command.Message](fn func(T) map[string]any) HandlerOption[T] {
	return func(h *Handler[T]) { h.fields = fn }
}

// WithTelemetry replaces the default outcome logging.
func WithTelemetry[T command.Message](telemetry Telemetry[T]) HandlerOption[T] {
	return func(h *Handler[T]) { h.telemetry = telemetry }
}

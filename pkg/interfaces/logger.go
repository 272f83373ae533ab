package interfaces

import "context"

// LoggerProvider returns the logger for a module name such as
// "jumpgate.remote".
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// Logger takes a message key plus alternating key/value args. The method set
// matches go-logger so its loggers satisfy it directly.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	// WithContext binds ctx so request fields stored by
	// logging.ContextWithFields reach every entry.
	WithContext(ctx context.Context) Logger
}

// FieldsLogger is the optional extension for loggers with persistent fields.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}

package zerologger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// Config captures the options exposed by the zerolog adapter.
type Config struct {
	Level  string
	Writer io.Writer
}

// Provider hands out zerolog-backed loggers.
type Provider struct {
	root zerolog.Logger
}

// NewProvider builds a JSON logger writing to cfg.Writer (stdout by default).
func NewProvider(cfg Config) (*Provider, error) {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	level := zerolog.InfoLevel
	if trimmed := strings.ToLower(strings.TrimSpace(cfg.Level)); trimmed != "" {
		if trimmed == "warning" {
			trimmed = "warn"
		}
		parsed, err := zerolog.ParseLevel(trimmed)
		if err != nil {
			return nil, fmt.Errorf("logging: unsupported zerolog level %q", cfg.Level)
		}
		level = parsed
	}

	root := zerolog.New(zerolog.SyncWriter(writer)).Level(level).With().Timestamp().Logger()
	return &Provider{root: root}, nil
}

// GetLogger returns a child logger tagged with the logger name.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil {
		return logging.NoOp()
	}
	child := p.root
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		child = p.root.With().Str("logger", trimmed).Logger()
	}
	return &adapter{inner: child}
}

type adapter struct {
	inner zerolog.Logger
	ctx   context.Context
}

var (
	_ interfaces.Logger       = (*adapter)(nil)
	_ interfaces.FieldsLogger = (*adapter)(nil)
)

func (l *adapter) Trace(msg string, args ...any) { l.emit(l.inner.Trace(), msg, args) }
func (l *adapter) Debug(msg string, args ...any) { l.emit(l.inner.Debug(), msg, args) }
func (l *adapter) Info(msg string, args ...any)  { l.emit(l.inner.Info(), msg, args) }
func (l *adapter) Warn(msg string, args ...any)  { l.emit(l.inner.Warn(), msg, args) }
func (l *adapter) Error(msg string, args ...any) { l.emit(l.inner.Error(), msg, args) }

// Fatal logs at fatal level without terminating the process.
func (l *adapter) Fatal(msg string, args ...any) {
	l.emit(l.inner.WithLevel(zerolog.FatalLevel), msg, args)
}

func (l *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	return &adapter{inner: l.inner.With().Fields(fields).Logger(), ctx: l.ctx}
}

func (l *adapter) WithContext(ctx context.Context) interfaces.Logger {
	return &adapter{inner: l.inner, ctx: ctx}
}

func (l *adapter) emit(event *zerolog.Event, msg string, args []any) {
	if event == nil {
		return
	}
	if fields := logging.ContextFields(l.ctx); len(fields) > 0 {
		event = event.Fields(fields)
	}
	if len(args) > 0 {
		event = event.Fields(pairs(args))
	}
	event.Msg(msg)
}

// pairs normalises variadic key/value args, promoting a dangling value to a
// positional key.
func pairs(args []any) map[string]any {
	out := make(map[string]any, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		if i == len(args)-1 {
			out[fmt.Sprintf("field_%d", i/2)] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = fmt.Sprintf("field_%d", i/2)
		}
		value := args[i+1]
		if err, isErr := value.(error); isErr {
			value = err.Error()
		}
		out[key] = value
	}
	return out
}

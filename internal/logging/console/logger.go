// Package console writes logfmt-style lines for local runs of the jumpgate
// CLI and server.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// Level represents the severity attached to a log entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

var levelColors = [...]*color.Color{
	color.New(color.FgHiBlack),
	color.New(color.FgCyan),
	color.New(color.FgGreen),
	color.New(color.FgYellow),
	color.New(color.FgRed),
	color.New(color.FgHiRed, color.Bold),
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "INFO"
}

// ParseLevel maps a configured level name to a Level. Unknown names report
// false.
func ParseLevel(name string) (Level, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	switch name {
	case "":
		return LevelInfo, true
	case "WARNING":
		return LevelWarn, true
	}
	if i := slices.Index(levelNames[:], name); i >= 0 {
		return Level(i), true
	}
	return LevelInfo, false
}

// Options configures the console provider. Writer defaults to stdout and
// MinLevel to DEBUG. Color tints the level label.
type Options struct {
	Writer   io.Writer
	TimeFunc func() time.Time
	MinLevel *Level
	Color    bool
}

type sink struct {
	mu    sync.Mutex
	out   io.Writer
	now   func() time.Time
	min   Level
	color bool
}

// NewProvider returns a provider whose loggers share one writer.
func NewProvider(opts Options) interfaces.LoggerProvider {
	s := &sink{out: opts.Writer, now: opts.TimeFunc, min: LevelDebug, color: opts.Color}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.MinLevel != nil {
		s.min = *opts.MinLevel
	}
	return s
}

func (s *sink) GetLogger(name string) interfaces.Logger {
	return &consoleLogger{sink: s, fields: map[string]any{"logger": name}}
}

type consoleLogger struct {
	sink   *sink
	fields map[string]any
	ctx    context.Context
}

var (
	_ interfaces.Logger       = (*consoleLogger)(nil)
	_ interfaces.FieldsLogger = (*consoleLogger)(nil)
)

func (l *consoleLogger) Trace(msg string, args ...any) { l.write(LevelTrace, msg, args) }
func (l *consoleLogger) Debug(msg string, args ...any) { l.write(LevelDebug, msg, args) }
func (l *consoleLogger) Info(msg string, args ...any)  { l.write(LevelInfo, msg, args) }
func (l *consoleLogger) Warn(msg string, args ...any)  { l.write(LevelWarn, msg, args) }
func (l *consoleLogger) Error(msg string, args ...any) { l.write(LevelError, msg, args) }
func (l *consoleLogger) Fatal(msg string, args ...any) { l.write(LevelFatal, msg, args) }

func (l *consoleLogger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	return &consoleLogger{sink: l.sink, fields: logging.Merge(l.fields, fields), ctx: l.ctx}
}

func (l *consoleLogger) WithContext(ctx context.Context) interfaces.Logger {
	return &consoleLogger{sink: l.sink, fields: l.fields, ctx: ctx}
}

func (l *consoleLogger) write(level Level, msg string, args []any) {
	if l.sink == nil || level < l.sink.min {
		return
	}
	fields := logging.Merge(l.fields, logging.ContextFields(l.ctx), pairs(args))
	line := l.sink.format(level, msg, fields)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	// write errors are dropped
	_, _ = io.WriteString(l.sink.out, line)
}

// pairs folds key/value args into a map. Values without a usable string key
// land under arg_<index>.
func pairs(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			out["arg_"+strconv.Itoa(i)] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = "arg_" + strconv.Itoa(i+1)
		}
		out[key] = args[i+1]
	}
	return out
}

func (s *sink) format(level Level, msg string, fields map[string]any) string {
	var b strings.Builder
	b.WriteString(s.now().UTC().Format(time.RFC3339Nano))
	b.WriteByte(' ')
	if s.color && int(level) < len(levelColors) {
		b.WriteString(levelColors[level].Sprint(level.String()))
	} else {
		b.WriteString(level.String())
	}
	b.WriteByte(' ')
	b.WriteString(msg)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, render(fields[k]))
	}
	b.WriteByte('\n')
	return b.String()
}

func render(value any) string {
	var text string
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		text = v
	case time.Time:
		text = v.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if v == nil {
			return "null"
		}
		text = v.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		text = v.String()
	case error:
		text = v.Error()
	case fmt.Stringer:
		text = v.String()
	default:
		text = fmt.Sprint(v)
	}
	if text == "" {
		return `""`
	}
	if strings.ContainsFunc(text, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(text)
	}
	return text
}

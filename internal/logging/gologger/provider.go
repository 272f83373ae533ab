// Package gologger adapts github.com/goliatone/go-logger to the jumpgate
// logging contract.
package gologger

import (
	"context"
	"fmt"
	"slices"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// Config mirrors the logging section of the runtime configuration.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Provider hands out go-logger children named after jumpgate modules.
type Provider struct {
	root *glog.BaseLogger
}

var levels = map[string]string{
	"trace":   glog.Trace,
	"debug":   glog.Debug,
	"info":    glog.Info,
	"warn":    glog.Warn,
	"warning": glog.Warn,
	"error":   glog.Error,
	"fatal":   glog.Fatal,
}

// NewProvider builds the root go-logger. Format is one of json (default),
// console or pretty.
func NewProvider(cfg Config) (*Provider, error) {
	var options []glog.Option
	if level, ok := levels[strings.ToLower(strings.TrimSpace(cfg.Level))]; ok {
		options = append(options, glog.WithLevel(level))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("logging: unsupported go-logger format %q", cfg.Format)
	}
	if cfg.AddSource {
		options = append(options, glog.WithAddSource(true))
	}

	root := glog.NewLogger(options...)
	var focus []string
	for _, name := range cfg.Focus {
		if name = strings.TrimSpace(name); name != "" {
			focus = append(focus, name)
		}
	}
	if len(focus) > 0 {
		root.Focus(focus...)
	}
	return &Provider{root: root}, nil
}

// GetLogger returns the child logger for a module name.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil {
		return logging.NoOp()
	}
	if name = strings.TrimSpace(name); name == "" {
		return wrap(p.root, nil)
	}
	return wrap(p.root.GetLogger(name), nil)
}

func wrap(inner glog.Logger, ctx context.Context) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return &adapter{inner: inner, ctx: ctx}
}

// adapter forwards to go-logger and appends request fields stored on the
// bound context as trailing key/value args.
type adapter struct {
	inner glog.Logger
	ctx   context.Context
}

func (l *adapter) Trace(msg string, args ...any) { l.inner.Trace(msg, l.args(args)...) }
func (l *adapter) Debug(msg string, args ...any) { l.inner.Debug(msg, l.args(args)...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Info(msg, l.args(args)...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, l.args(args)...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Error(msg, l.args(args)...) }
func (l *adapter) Fatal(msg string, args ...any) { l.inner.Fatal(msg, l.args(args)...) }

func (l *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	if with, ok := l.inner.(glog.FieldsLogger); ok {
		return wrap(with.WithFields(logging.Merge(fields)), l.ctx)
	}
	if with, ok := l.inner.(interface{ With(...any) *glog.BaseLogger }); ok {
		return wrap(with.With(sortedPairs(fields)...), l.ctx)
	}
	return l
}

func (l *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return l
	}
	return wrap(l.inner.WithContext(ctx), ctx)
}

func (l *adapter) args(args []any) []any {
	fields := logging.ContextFields(l.ctx)
	if len(fields) == 0 {
		return args
	}
	return append(slices.Clone(args), sortedPairs(fields)...)
}

func sortedPairs(fields map[string]any) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

package logging

import (
	"context"
	"maps"

	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

type fieldsKey struct{}

// WithFields returns logger carrying fields when it implements
// interfaces.FieldsLogger, and logger unchanged otherwise.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(interfaces.FieldsLogger); ok {
		return fl.WithFields(maps.Clone(fields))
	}
	return logger
}

// ContextWithFields layers fields over the ones already on ctx. Loggers
// bound with WithContext add them to every entry.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	return context.WithValue(ctx, fieldsKey{}, Merge(ContextFields(ctx), fields))
}

// ContextFields returns a copy of the fields stored on ctx.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).(map[string]any)
	if len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}

// Merge copies every map into a new one; later maps win on key clashes.
// It returns nil when there is nothing to merge.
func Merge(sets ...map[string]any) map[string]any {
	size := 0
	for _, set := range sets {
		size += len(set)
	}
	if size == 0 {
		return nil
	}
	out := make(map[string]any, size)
	for _, set := range sets {
		maps.Copy(out, set)
	}
	return out
}

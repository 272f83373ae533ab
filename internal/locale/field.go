// Package locale models platform field values that are stored either as a
// single value or keyed by locale code, and resolves them for a locale.
package locale

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags the shape held by a Field.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindScalar
	KindLocalized
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindLocalized:
		return "localized"
	default:
		return "absent"
	}
}

// Field is a tagged union Scalar(T) | Localized(locale -> T) | Absent.
type Field[T any] struct {
	kind   Kind
	scalar T
	values map[string]T
}

// Scalar wraps a value that is not keyed by locale.
func Scalar[T any](value T) Field[T] {
	return Field[T]{kind: KindScalar, scalar: value}
}

// Localized wraps a locale-keyed mapping. A nil map yields an absent field.
func Localized[T any](values map[string]T) Field[T] {
	if values == nil {
		return Field[T]{}
	}
	return Field[T]{kind: KindLocalized, values: values}
}

// Absent returns a field with no value.
func Absent[T any]() Field[T] {
	return Field[T]{}
}

// Kind reports which variant the field holds.
func (f Field[T]) Kind() Kind { return f.kind }

// IsAbsent reports whether the field carries no value.
func (f Field[T]) IsAbsent() bool { return f.kind == KindAbsent }

// Resolve returns the value for locale. Scalars resolve to themselves for
// every locale, localized fields resolve to the entry keyed by locale, and
// absent fields (or localized fields missing the key) report false.
func (f Field[T]) Resolve(locale string) (T, bool) {
	var zero T
	switch f.kind {
	case KindScalar:
		return f.scalar, true
	case KindLocalized:
		value, ok := f.values[locale]
		if !ok {
			return zero, false
		}
		return value, true
	default:
		return zero, false
	}
}

// ResolveWithFallback tries each locale in order and returns the first hit.
func (f Field[T]) ResolveWithFallback(locales ...string) (T, bool) {
	for _, code := range locales {
		if strings.TrimSpace(code) == "" {
			continue
		}
		if value, ok := f.Resolve(code); ok {
			return value, true
		}
	}
	var zero T
	return zero, false
}

// Value resolves the field and returns the zero value when nothing matches.
func (f Field[T]) Value(locale string) T {
	value, _ := f.Resolve(locale)
	return value
}

// Locales lists the locale keys of a localized field.
func (f Field[T]) Locales() []string {
	if f.kind != KindLocalized {
		return nil
	}
	out := make([]string, 0, len(f.values))
	for code := range f.values {
		out = append(out, code)
	}
	return out
}

// MarshalJSON writes the field in its stored shape.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case KindScalar:
		return json.Marshal(f.scalar)
	case KindLocalized:
		return json.Marshal(f.values)
	default:
		return []byte("null"), nil
	}
}

// DecodeScalar decodes raw JSON as a Scalar field. Empty or null input is absent.
func DecodeScalar[T any](raw json.RawMessage) (Field[T], error) {
	if isNull(raw) {
		return Absent[T](), nil
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return Absent[T](), fmt.Errorf("locale: decode scalar: %w", err)
	}
	return Scalar(value), nil
}

// DecodeLocalized decodes raw JSON as a Localized field. Empty or null input is absent.
func DecodeLocalized[T any](raw json.RawMessage) (Field[T], error) {
	if isNull(raw) {
		return Absent[T](), nil
	}
	values := map[string]T{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return Absent[T](), fmt.Errorf("locale: decode localized: %w", err)
	}
	return Localized(values), nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

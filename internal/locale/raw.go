package locale

// ResolveRaw applies the lookup rule to an untyped JSON value: strings are
// returned unchanged, a map holding the locale key yields that entry, and any
// other value (including nil) is returned as is.
func ResolveRaw(value any, locale string) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		return typed
	case map[string]any:
		if localized, ok := typed[locale]; ok && localized != nil {
			return localized
		}
		return typed
	default:
		return value
	}
}

// Pick returns the first non-empty locale, used to prefer an entry's own
// locale over the configured default.
func Pick(candidates ...string) string {
	for _, candidate := range candidates {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// Package cache provides the response cache backends used by remote clients.
package cache

import (
	"time"

	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// Config holds settings shared by every backend.
type Config struct {
	Prefix     string
	DefaultTTL time.Duration
}

// DefaultConfig returns a one minute TTL under the "jumpgate:" prefix.
func DefaultConfig() Config {
	return Config{
		Prefix:     "jumpgate:",
		DefaultTTL: time.Minute,
	}
}

var (
	_ interfaces.ResponseCache = (*Memory)(nil)
	_ interfaces.ResponseCache = (*Redis)(nil)
)

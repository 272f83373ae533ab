package remote

import (
	"errors"
	"slices"
)

// ErrNoLocalClient is returned when the local space is not configured.
var ErrNoLocalClient = errors.New("remote: local space client is not configured")

// Factory hands out the local client and builds short-lived external clients
// sharing the same options.
type Factory struct {
	local        *Client
	externalOpts []Option
}

// NewFactory returns a factory. local may be nil when the process has no
// management access to the current space.
func NewFactory(local *Client, externalOpts ...Option) *Factory {
	return &Factory{local: local, externalOpts: externalOpts}
}

// Local returns the management client of the current space.
func (f *Factory) Local() (*Client, error) {
	if f == nil || f.local == nil {
		return nil, ErrNoLocalClient
	}
	return f.local, nil
}

// External builds a delivery client for another space.
func (f *Factory) External(spaceID, deliveryToken string) (*Client, error) {
	var opts []Option
	if f != nil {
		opts = f.externalOpts
	}
	return NewExternal(spaceID, deliveryToken, opts...)
}

// LiveExternal is External with the response cache turned off, for checks
// that must observe the platform's current answer.
func (f *Factory) LiveExternal(spaceID, deliveryToken string) (*Client, error) {
	var opts []Option
	if f != nil {
		opts = slices.Clone(f.externalOpts)
	}
	return NewExternal(spaceID, deliveryToken, append(opts, WithoutCache())...)
}

// Package connection verifies that a source space is reachable with the
// supplied delivery credentials and that it carries the documentation
// content type.
package connection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/internal/notify"
	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// Reason classifies a failed validation.
type Reason string

const (
	ReasonNone                     Reason = ""
	ReasonMissingCredentials       Reason = "missing_credentials"
	ReasonCouldNotConnect          Reason = "could_not_connect"
	ReasonDocumentationTypeMissing Reason = "documentation_type_missing"
)

// User-facing notification messages.
const (
	MessageMissingCredentials = "You need to provide the source Space ID and a Delivery API Token."
	MessageCouldNotConnect    = "Could not validate the source space connection. Double check that you have provided the correct Space ID and Delivery API Token."
	MessageValidated          = "Source space connection validated."
	messageTypeMissingFormat  = `Successfully connected to the source space, but could not find the "%s" content type. Make sure you install the app in that space first and configure it as a "Design system source".`
)

// Result is the outcome of a validation.
type Result struct {
	OK     bool   `json:"ok"`
	Reason Reason `json:"reason,omitempty"`
}

// ClientBuilder constructs an API for a foreign space.
type ClientBuilder func(spaceID, token string) (remote.API, error)

// FromFactory adapts the uncached external constructor of a remote factory.
func FromFactory(f *remote.Factory) ClientBuilder {
	return func(spaceID, token string) (remote.API, error) {
		client, err := f.LiveExternal(spaceID, token)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Config names the documentation content type that must exist in the source.
type Config struct {
	ContentTypeID   string
	ContentTypeName string
	Timeout         time.Duration
}

// Option customises a Validator.
type Option func(*Validator)

// WithLogger sets the validator logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithNotifier sets the default notifier used when Validate is called
// without one.
func WithNotifier(n interfaces.Notifier) Option {
	return func(v *Validator) {
		if n != nil {
			v.notifier = n
		}
	}
}

// Validator runs the three-step connection check.
type Validator struct {
	build    ClientBuilder
	cfg      Config
	logger   interfaces.Logger
	notifier interfaces.Notifier
}

// NewValidator builds a validator.
func NewValidator(build ClientBuilder, cfg Config, opts ...Option) *Validator {
	if cfg.ContentTypeName == "" {
		cfg.ContentTypeName = cfg.ContentTypeID
	}
	v := &Validator{
		build:    build,
		cfg:      cfg,
		logger:   logging.NoOp(),
		notifier: notify.Discard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MessageFor returns the notification text of a failure reason.
func (v *Validator) MessageFor(reason Reason) string {
	switch reason {
	case ReasonMissingCredentials:
		return MessageMissingCredentials
	case ReasonCouldNotConnect:
		return MessageCouldNotConnect
	case ReasonDocumentationTypeMissing:
		return fmt.Sprintf(messageTypeMissingFormat, v.cfg.ContentTypeName)
	default:
		return ""
	}
}

// Validate checks the credentials using the default notifier.
func (v *Validator) Validate(ctx context.Context, spaceID, token string) Result {
	return v.ValidateWith(ctx, spaceID, token, v.notifier)
}

// ValidateWith checks the credentials and reports the outcome to n.
// Failures are never returned as errors; the reason code tells them apart.
func (v *Validator) ValidateWith(ctx context.Context, spaceID, token string, n interfaces.Notifier) Result {
	if n == nil {
		n = v.notifier
	}
	spaceID = strings.TrimSpace(spaceID)
	token = strings.TrimSpace(token)
	logger := logging.WithFields(v.logger, map[string]any{"source_space_id": spaceID})

	if ctx == nil {
		ctx = context.Background()
	}
	if v.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.cfg.Timeout)
		defer cancel()
	}

	result := v.check(ctx, spaceID, token, logger)
	if result.OK {
		logger.Info("connection.validated")
		n.Success(MessageValidated)
		return result
	}
	logger.Warn("connection.validation_failed", "reason", string(result.Reason))
	n.Error(v.MessageFor(result.Reason))
	return result
}

func (v *Validator) check(ctx context.Context, spaceID, token string, logger interfaces.Logger) Result {
	if spaceID == "" || token == "" {
		return Result{Reason: ReasonMissingCredentials}
	}
	if v.build == nil {
		return Result{Reason: ReasonCouldNotConnect}
	}

	client, err := v.build(spaceID, token)
	if err != nil {
		logger.Debug("connection.client_failed", "error", err)
		return Result{Reason: ReasonCouldNotConnect}
	}
	if _, err := client.GetSpace(ctx); err != nil {
		logger.Debug("connection.space_failed", "error", err, "code", remote.ErrorCode(err))
		return Result{Reason: ReasonCouldNotConnect}
	}
	if _, err := client.GetContentType(ctx, v.cfg.ContentTypeID); err != nil {
		logger.Debug("connection.content_type_failed", "content_type", v.cfg.ContentTypeID, "error", err)
		return Result{Reason: ReasonDocumentationTypeMissing}
	}
	return Result{OK: true}
}

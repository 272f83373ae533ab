// Package provision registers the app with an organization and installs it
// into a space.
package provision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// Defaults of the registered app definition.
const (
	DefaultAppName = "Jumpgate"
	DefaultAppURL  = "https://jumpgate.vercel.app"
)

// Failure messages, one per step.
const (
	MessageTokenInvalid     = "The token you have provided could not be found, or is invalid. Double check that you have provided a correct access token."
	MessageAPIFailure       = "There was an issue with calling the Contentful management API: %s"
	MessageSpaceLookup      = "Failed to get space info, check that you have provided the right spaceId argument"
	MessageListDefinitions  = "Failed to get organization app definitions. Are you sure you have the rights to manage apps in this organization?"
	MessageCreateDefinition = "Failed to get create new app definition. Are you sure you have the rights to manage apps in this organization?"
	MessageInstall          = "Failed to install the app into the space"
)

// App locations registered for a new definition.
var DefaultLocations = []remote.AppLocation{
	{Location: "app-config"},
	{Location: "entry-editor"},
}

// Step names an installer step.
type Step string

const (
	StepVerifyToken      Step = "verify-token"
	StepSpace            Step = "space"
	StepListDefinitions  Step = "list-app-definitions"
	StepCreateDefinition Step = "create-app-definition"
	StepInstall          Step = "install"
)

// Account is the organization level API the installer drives.
type Account interface {
	CurrentUser(ctx context.Context) (*remote.User, error)
	Space(ctx context.Context, spaceID string) (*remote.Space, error)
	ListAppDefinitions(ctx context.Context, orgID string) ([]*remote.AppDefinition, error)
	CreateAppDefinition(ctx context.Context, orgID string, def remote.AppDefinition) (*remote.AppDefinition, error)
	InstallApp(ctx context.Context, spaceID, environment, appDefinitionID string, parameters json.RawMessage) (*remote.AppInstallation, error)
}

// Error is a failed step. Error returns the user-facing message.
type Error struct {
	Step    Step
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Config describes the app to register.
type Config struct {
	AppName     string
	AppURL      string
	Environment string
}

// StepTiming records how long a step took.
type StepTiming struct {
	Step     Step          `json:"step"`
	Duration time.Duration `json:"duration"`
}

// Result describes a successful installation.
type Result struct {
	UserEmail         string       `json:"userEmail,omitempty"`
	SpaceID           string       `json:"spaceId"`
	OrganizationID    string       `json:"organizationId"`
	AppDefinitionID   string       `json:"appDefinitionId"`
	CreatedDefinition bool         `json:"createdDefinition"`
	Steps             []StepTiming `json:"steps"`
}

// Option customises an Installer.
type Option func(*Installer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *Installer) {
		if now != nil {
			i.now = now
		}
	}
}

// Installer runs the installation steps in order and stops at the first
// failure.
type Installer struct {
	account Account
	cfg     Config
	logger  interfaces.Logger
	now     func() time.Time
}

// NewInstaller returns an installer driving account.
func NewInstaller(account Account, cfg Config, logger interfaces.Logger, opts ...Option) *Installer {
	if strings.TrimSpace(cfg.AppName) == "" {
		cfg.AppName = DefaultAppName
	}
	if strings.TrimSpace(cfg.AppURL) == "" {
		cfg.AppURL = DefaultAppURL
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	i := &Installer{account: account, cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// NewAccountInstaller builds the account client from a management token. A
// malformed token fails like a rejected one.
func NewAccountInstaller(token string, cfg Config, logger interfaces.Logger, opts ...remote.Option) (*Installer, error) {
	account, err := remote.NewAccount(token, opts...)
	if err != nil {
		return nil, &Error{Step: StepVerifyToken, Message: MessageTokenInvalid, Err: err}
	}
	return NewInstaller(account, cfg, logger), nil
}

// Install registers the app when needed and installs it into spaceID.
func (i *Installer) Install(ctx context.Context, spaceID string) (*Result, error) {
	result := &Result{SpaceID: strings.TrimSpace(spaceID)}

	var user *remote.User
	err := i.step(ctx, result, StepVerifyToken, func(ctx context.Context) error {
		var err error
		user, err = i.account.CurrentUser(ctx)
		return err
	})
	if err != nil {
		return nil, i.fail(StepVerifyToken, tokenMessage(err), err)
	}
	result.UserEmail = user.Email

	var space *remote.Space
	err = i.step(ctx, result, StepSpace, func(ctx context.Context) error {
		var err error
		space, err = i.account.Space(ctx, result.SpaceID)
		return err
	})
	if err == nil && space.OrganizationID() == "" {
		err = errors.New("provision: space has no organization")
	}
	if err != nil {
		return nil, i.fail(StepSpace, MessageSpaceLookup, err)
	}
	result.OrganizationID = space.OrganizationID()

	var definitions []*remote.AppDefinition
	err = i.step(ctx, result, StepListDefinitions, func(ctx context.Context) error {
		var err error
		definitions, err = i.account.ListAppDefinitions(ctx, result.OrganizationID)
		return err
	})
	if err != nil {
		return nil, i.fail(StepListDefinitions, MessageListDefinitions, err)
	}

	if existing := FindDefinition(definitions, i.cfg.AppURL); existing != nil {
		result.AppDefinitionID = existing.Sys.ID
		i.logger.Info("provision.definition.reused", "app_definition_id", existing.Sys.ID)
	} else {
		var created *remote.AppDefinition
		err = i.step(ctx, result, StepCreateDefinition, func(ctx context.Context) error {
			var err error
			created, err = i.account.CreateAppDefinition(ctx, result.OrganizationID, remote.AppDefinition{
				Name:      i.cfg.AppName,
				Src:       i.cfg.AppURL,
				Locations: DefaultLocations,
			})
			return err
		})
		if err != nil {
			return nil, i.fail(StepCreateDefinition, MessageCreateDefinition, err)
		}
		result.AppDefinitionID = created.Sys.ID
		result.CreatedDefinition = true
	}

	err = i.step(ctx, result, StepInstall, func(ctx context.Context) error {
		_, err := i.account.InstallApp(ctx, result.SpaceID, i.cfg.Environment, result.AppDefinitionID, json.RawMessage("{}"))
		return err
	})
	if err != nil {
		return nil, i.fail(StepInstall, MessageInstall, err)
	}
	i.logger.Info("provision.installed",
		"space_id", result.SpaceID,
		"organization_id", result.OrganizationID,
		"app_definition_id", result.AppDefinitionID,
	)
	return result, nil
}

// FindDefinition returns the first definition served from appURL.
func FindDefinition(definitions []*remote.AppDefinition, appURL string) *remote.AppDefinition {
	for _, def := range definitions {
		if def != nil && strings.HasPrefix(def.Src, appURL) {
			return def
		}
	}
	return nil
}

func (i *Installer) step(ctx context.Context, result *Result, step Step, fn func(context.Context) error) error {
	i.logger.Info("provision.step.started", "step", string(step))
	start := i.now()
	err := fn(ctx)
	elapsed := i.now().Sub(start)
	if err != nil {
		return err
	}
	result.Steps = append(result.Steps, StepTiming{Step: step, Duration: elapsed})
	i.logger.Info("provision.step.done", "step", string(step), "duration", elapsed.Round(time.Millisecond).String())
	return nil
}

func (i *Installer) fail(step Step, message string, err error) error {
	i.logger.Error("provision.step.failed", "step", string(step), "error", err)
	return &Error{Step: step, Message: message, Err: err}
}

func tokenMessage(err error) string {
	code := remote.ErrorCode(err)
	if code == "AccessTokenInvalid" || errors.Is(err, remote.ErrInvalidToken) {
		return MessageTokenInvalid
	}
	if code == "" {
		code = err.Error()
	}
	return fmt.Sprintf(MessageAPIFailure, code)
}

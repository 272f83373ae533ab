package appcmd

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-jumpgate/internal/connection"
	"github.com/goliatone/go-jumpgate/internal/installation"
	"github.com/goliatone/go-jumpgate/internal/provision"
	"github.com/goliatone/go-jumpgate/internal/seed"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

const (
	verifyConnectionMessageType      = "jumpgate.connection.verify"
	configureInstallationMessageType = "jumpgate.installation.configure"
	installAppMessageType            = "jumpgate.app.install"
	seedDocumentationMessageType     = "jumpgate.documentation.seed"
)

var spaceIDPattern = regexp.MustCompile(`^[a-z0-9]{1,64}$`)

// VerifyConnectionCommand checks that a source space is reachable with a
// delivery token and carries the documentation content type.
type VerifyConnectionCommand struct {
	SpaceID       string `json:"space_id"`
	DeliveryToken string `json:"delivery_token"`
	// Notifier receives the user-facing outcome message.
	Notifier interfaces.Notifier `json:"-"`
	// Output is filled with the validation result when non-nil.
	Output *connection.Result `json:"-"`
}

// Type implements command.Message.
func (VerifyConnectionCommand) Type() string { return verifyConnectionMessageType }

// Validate ensures both credentials are present.
func (cmd VerifyConnectionCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.SpaceID, validation.By(requiredTrimmed("jumpgate.connection.verify.space_id_required", "space id is required"))),
		validation.Field(&cmd.DeliveryToken, validation.By(requiredTrimmed("jumpgate.connection.verify.token_required", "delivery token is required"))),
	)
}

// ConfigureInstallationCommand applies optional edits to the configuration
// screen and then runs its configure flow.
type ConfigureInstallationCommand struct {
	// Role, when set, is selected before configuring.
	Role string `json:"role,omitempty"`
	// SourceSpaceID and DeliveryToken replace the stored credentials when
	// either is set.
	SourceSpaceID string `json:"source_space_id,omitempty"`
	DeliveryToken string `json:"delivery_token,omitempty"`
	// Matches maps content type ids to documentation entry ids. An empty
	// entry id clears the match.
	Matches  map[string]string    `json:"matches,omitempty"`
	Notifier interfaces.Notifier  `json:"-"`
	Output   *installation.Record `json:"-"`
}

// Type implements command.Message.
func (ConfigureInstallationCommand) Type() string { return configureInstallationMessageType }

// Validate rejects unknown roles and blank content type ids.
func (cmd ConfigureInstallationCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Role, validation.By(func(value any) error {
			role, _ := value.(string)
			if role == "" {
				return nil
			}
			if _, err := installation.ParseRole(role); err != nil {
				return validation.NewError("jumpgate.installation.configure.role_invalid", "role must be source, consumer or sourceandconsumer")
			}
			return nil
		})),
		validation.Field(&cmd.Matches, validation.By(func(value any) error {
			matches, _ := value.(map[string]string)
			for contentTypeID := range matches {
				if strings.TrimSpace(contentTypeID) == "" {
					return validation.NewError("jumpgate.installation.configure.content_type_required", "match content type id is required")
				}
			}
			return nil
		})),
	)
}

// InstallAppCommand provisions the app definition and installs it into a
// space using a management token.
type InstallAppCommand struct {
	SpaceID         string            `json:"space_id"`
	ManagementToken string            `json:"management_token"`
	AppName         string            `json:"app_name,omitempty"`
	AppURL          string            `json:"app_url,omitempty"`
	Environment     string            `json:"environment,omitempty"`
	Output          *provision.Result `json:"-"`
}

// Type implements command.Message.
func (InstallAppCommand) Type() string { return installAppMessageType }

// Validate ensures the token is present and the space id is well formed.
func (cmd InstallAppCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.SpaceID,
			validation.By(requiredTrimmed("jumpgate.app.install.space_id_required", "space id is required")),
			validation.By(func(value any) error {
				id := strings.TrimSpace(value.(string))
				if id != "" && !spaceIDPattern.MatchString(id) {
					return validation.NewError("jumpgate.app.install.space_id_invalid", "space id must be 1-64 lowercase letters or digits")
				}
				return nil
			}),
		),
		validation.Field(&cmd.ManagementToken, validation.By(requiredTrimmed("jumpgate.app.install.token_required", "management token is required"))),
	)
}

// SeedDocumentationCommand upserts markdown documents found under Directory
// as documentation entries.
type SeedDocumentationCommand struct {
	Directory string       `json:"directory"`
	Output    *seed.Report `json:"-"`
}

// Type implements command.Message.
func (SeedDocumentationCommand) Type() string { return seedDocumentationMessageType }

// Validate ensures directory input is present before handlers execute.
func (cmd SeedDocumentationCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.By(requiredTrimmed("jumpgate.documentation.seed.directory_required", "directory is required"))),
	)
}

func requiredTrimmed(code, message string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return validation.NewError(code, message)
		}
		return nil
	}
}

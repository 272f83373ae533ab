package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goliatone/go-jumpgate/internal/logging"
)

// Account performs organization level management calls with a personal
// management token: token checks, space lookup and app registration.
type Account struct {
	transport
}

// NewAccount builds an account client.
func NewAccount(managementToken string, opts ...Option) (*Account, error) {
	token := strings.TrimSpace(managementToken)
	if !ValidToken(token) {
		return nil, ErrInvalidToken
	}
	cfg := resolveOptions(DefaultManagementBaseURL, opts)
	cfg.logger = logging.WithFields(cfg.logger, map[string]any{"variant": string(VariantAccount)})
	return &Account{transport: newTransport(VariantAccount, token, cfg)}, nil
}

// CurrentUser returns the owner of the token.
func (a *Account) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := a.roundTripJSON(ctx, request{method: http.MethodGet, path: "/users/me"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Space fetches a space by id.
func (a *Account) Space(ctx context.Context, spaceID string) (*Space, error) {
	spaceID = strings.TrimSpace(spaceID)
	if !ValidSpaceID(spaceID) {
		return nil, ErrInvalidSpaceID
	}
	var space Space
	if err := a.roundTripJSON(ctx, request{method: http.MethodGet, path: "/spaces/" + escape(spaceID)}, &space); err != nil {
		return nil, err
	}
	return &space, nil
}

// ListAppDefinitions lists the app definitions of an organization.
func (a *Account) ListAppDefinitions(ctx context.Context, orgID string) ([]*AppDefinition, error) {
	var page collection[*AppDefinition]
	if err := a.roundTripJSON(ctx, request{
		method: http.MethodGet,
		path:   "/organizations/" + escape(orgID) + "/app_definitions",
	}, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// CreateAppDefinition registers def with the organization.
func (a *Account) CreateAppDefinition(ctx context.Context, orgID string, def AppDefinition) (*AppDefinition, error) {
	var created AppDefinition
	if err := a.roundTripJSON(ctx, request{
		method: http.MethodPost,
		path:   "/organizations/" + escape(orgID) + "/app_definitions",
		body: map[string]any{
			"name":      def.Name,
			"src":       def.Src,
			"locations": def.Locations,
		},
	}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// InstallApp installs appDefinitionID into the space environment.
func (a *Account) InstallApp(ctx context.Context, spaceID, environment, appDefinitionID string, parameters json.RawMessage) (*AppInstallation, error) {
	if strings.TrimSpace(environment) == "" {
		environment = DefaultEnvironment
	}
	if len(parameters) == 0 {
		parameters = json.RawMessage("{}")
	}
	var inst AppInstallation
	if err := a.roundTripJSON(ctx, request{
		method:  http.MethodPut,
		path:    "/spaces/" + escape(spaceID) + "/environments/" + escape(environment) + "/app_installations/" + escape(appDefinitionID),
		body:    map[string]any{"parameters": parameters},
		headers: map[string]string{headerMarketplace: marketplaceAgreements},
	}, &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

// roundTripJSON bypasses the response cache; account calls are never cached.
func (a *Account) roundTripJSON(ctx context.Context, req request, out any) error {
	body, err := a.roundTrip(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

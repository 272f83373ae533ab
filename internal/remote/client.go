package remote

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-jumpgate/internal/logging"
)

// ErrReadOnly is returned when a management call is attempted through the
// delivery API.
var ErrReadOnly = errors.New("remote: client is read-only")

var spaceIDPattern = regexp.MustCompile(`^[a-z0-9]{1,64}$`)

// API is the capability set shared by the local and external variants.
type API interface {
	Variant() Variant
	SpaceID() string
	ListEntries(ctx context.Context, query Query) ([]*Entry, error)
	GetEntry(ctx context.Context, id string) (*Entry, error)
	GetAsset(ctx context.Context, id string) (*Asset, error)
	GetContentType(ctx context.Context, id string) (*ContentType, error)
	GetSpace(ctx context.Context) (*Space, error)
}

// Client talks to one space environment through either the management API
// (local) or the delivery API (external).
type Client struct {
	transport
	spaceID     string
	environment string
}

var _ API = (*Client)(nil)

// NewLocal builds a client for the current space using its management token.
// Field values returned by this client are keyed by locale.
func NewLocal(spaceID, managementToken string, opts ...Option) (*Client, error) {
	return newClient(VariantLocal, DefaultManagementBaseURL, spaceID, managementToken, opts)
}

// NewExternal builds a read-only client for another space using a delivery
// token. Field values returned by this client are plain values.
func NewExternal(spaceID, deliveryToken string, opts ...Option) (*Client, error) {
	return newClient(VariantExternal, DefaultDeliveryBaseURL, spaceID, deliveryToken, opts)
}

func newClient(variant Variant, base, spaceID, token string, opts []Option) (*Client, error) {
	spaceID = strings.TrimSpace(spaceID)
	token = strings.TrimSpace(token)
	if !ValidSpaceID(spaceID) {
		return nil, ErrInvalidSpaceID
	}
	if !ValidToken(token) {
		return nil, ErrInvalidToken
	}
	cfg := resolveOptions(base, opts)
	cfg.logger = logging.WithSpaceContext(cfg.logger, spaceID, cfg.environment, string(variant))
	return &Client{
		transport:   newTransport(variant, token, cfg),
		spaceID:     spaceID,
		environment: cfg.environment,
	}, nil
}

// ValidSpaceID reports whether id is an acceptable space identifier.
func ValidSpaceID(id string) bool {
	return spaceIDPattern.MatchString(id)
}

// ValidToken reports whether token is non-empty and free of whitespace.
func ValidToken(token string) bool {
	return token != "" && !strings.ContainsAny(token, " \t\r\n")
}

// Variant reports the access path of the client.
func (c *Client) Variant() Variant { return c.variant }

// SpaceID returns the space the client reads from.
func (c *Client) SpaceID() string { return c.spaceID }

// Environment returns the space environment.
func (c *Client) Environment() string { return c.environment }

func (c *Client) envPath(segments ...string) string {
	var b strings.Builder
	b.WriteString("/spaces/")
	b.WriteString(escape(c.spaceID))
	b.WriteString("/environments/")
	b.WriteString(escape(c.environment))
	for _, segment := range segments {
		b.WriteByte('/')
		b.WriteString(segment)
	}
	return b.String()
}

func (c *Client) localized() bool {
	return c.variant == VariantLocal
}

// ListEntries returns the entries matching query.
func (c *Client) ListEntries(ctx context.Context, query Query) ([]*Entry, error) {
	params := url.Values{}
	if query.ContentType != "" {
		params.Set("content_type", query.ContentType)
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Skip > 0 {
		params.Set("skip", strconv.Itoa(query.Skip))
	}
	if query.Order != "" {
		params.Set("order", query.Order)
	}
	if query.Locale != "" {
		params.Set("locale", query.Locale)
	}

	var page collection[*Entry]
	if err := c.get(ctx, c.envPath("entries"), params, &page); err != nil {
		return nil, err
	}
	for _, entry := range page.Items {
		if entry != nil {
			entry.localized = c.localized()
		}
	}
	return page.Items, nil
}

// GetEntry fetches one entry by id.
func (c *Client) GetEntry(ctx context.Context, id string) (*Entry, error) {
	var entry Entry
	if err := c.get(ctx, c.envPath("entries", escape(id)), nil, &entry); err != nil {
		return nil, err
	}
	entry.localized = c.localized()
	return &entry, nil
}

// GetAsset fetches one asset by id.
func (c *Client) GetAsset(ctx context.Context, id string) (*Asset, error) {
	var asset Asset
	if err := c.get(ctx, c.envPath("assets", escape(id)), nil, &asset); err != nil {
		return nil, err
	}
	asset.localized = c.localized()
	return &asset, nil
}

// GetContentType fetches a content type definition by id.
func (c *Client) GetContentType(ctx context.Context, id string) (*ContentType, error) {
	var ct ContentType
	if err := c.get(ctx, c.envPath("content_types", escape(id)), nil, &ct); err != nil {
		return nil, err
	}
	return &ct, nil
}

// GetSpace fetches the space metadata.
func (c *Client) GetSpace(ctx context.Context) (*Space, error) {
	var space Space
	if err := c.get(ctx, "/spaces/"+escape(c.spaceID), nil, &space); err != nil {
		return nil, err
	}
	return &space, nil
}

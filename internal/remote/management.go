package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// ListContentTypes returns every content type of the space environment.
func (c *Client) ListContentTypes(ctx context.Context) ([]*ContentType, error) {
	params := url.Values{"limit": []string{strconv.Itoa(DefaultListLimit)}}
	var page collection[*ContentType]
	if err := c.do(ctx, request{method: http.MethodGet, path: c.envPath("content_types"), query: params, noCache: true}, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// CreateContentType creates ct using ct.Sys.ID as its identifier.
func (c *Client) CreateContentType(ctx context.Context, ct *ContentType) (*ContentType, error) {
	if err := c.writable(); err != nil {
		return nil, err
	}
	body := map[string]any{
		"name":         ct.Name,
		"description":  ct.Description,
		"displayField": ct.DisplayField,
		"fields":       ct.Fields,
	}
	var created ContentType
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   c.envPath("content_types", escape(ct.Sys.ID)),
		body:   body,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// PublishContentType activates the given version of ct.
func (c *Client) PublishContentType(ctx context.Context, ct *ContentType) (*ContentType, error) {
	if err := c.writable(); err != nil {
		return nil, err
	}
	if ct.Sys.Version <= 0 {
		return nil, ErrVersionRequired
	}
	var published ContentType
	err := c.do(ctx, request{
		method:  http.MethodPut,
		path:    c.envPath("content_types", escape(ct.Sys.ID), "published"),
		headers: map[string]string{headerVersion: strconv.Itoa(ct.Sys.Version)},
	}, &published)
	if err != nil {
		return nil, err
	}
	return &published, nil
}

// GetEditorInterface fetches the editor assignments of a content type.
func (c *Client) GetEditorInterface(ctx context.Context, contentTypeID string) (*EditorInterface, error) {
	var ei EditorInterface
	if err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    c.envPath("content_types", escape(contentTypeID), "editor_interface"),
		noCache: true,
	}, &ei); err != nil {
		return nil, err
	}
	return &ei, nil
}

// UpdateEditorInterface replaces the editor assignments of a content type.
func (c *Client) UpdateEditorInterface(ctx context.Context, contentTypeID string, ei *EditorInterface) (*EditorInterface, error) {
	if err := c.writable(); err != nil {
		return nil, err
	}
	body := map[string]any{
		"controls": ei.Controls,
		"editors":  ei.Editors,
	}
	if ei.Editors == nil {
		body["editors"] = []WidgetRef{}
	}
	var updated EditorInterface
	err := c.do(ctx, request{
		method:  http.MethodPut,
		path:    c.envPath("content_types", escape(contentTypeID), "editor_interface"),
		body:    body,
		headers: map[string]string{headerVersion: strconv.Itoa(ei.Sys.Version)},
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetAppInstallation fetches the installation of appDefinitionID in this environment.
func (c *Client) GetAppInstallation(ctx context.Context, appDefinitionID string) (*AppInstallation, error) {
	var inst AppInstallation
	if err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    c.envPath("app_installations", escape(appDefinitionID)),
		noCache: true,
	}, &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

// PutAppInstallation stores the installation parameters of appDefinitionID.
func (c *Client) PutAppInstallation(ctx context.Context, appDefinitionID string, parameters json.RawMessage) (*AppInstallation, error) {
	if err := c.writable(); err != nil {
		return nil, err
	}
	if len(parameters) == 0 {
		parameters = json.RawMessage("{}")
	}
	var inst AppInstallation
	err := c.do(ctx, request{
		method:  http.MethodPut,
		path:    c.envPath("app_installations", escape(appDefinitionID)),
		body:    map[string]any{"parameters": parameters},
		headers: map[string]string{headerMarketplace: marketplaceAgreements},
	}, &inst)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// PutEntry creates or updates an entry with the given locale-keyed fields.
// version must be the current version when updating and zero when creating.
func (c *Client) PutEntry(ctx context.Context, contentTypeID, id string, fields map[string]any, version int) (*Entry, error) {
	if err := c.writable(); err != nil {
		return nil, err
	}
	headers := map[string]string{headerContentType: contentTypeID}
	if version > 0 {
		headers[headerVersion] = strconv.Itoa(version)
	}
	var entry Entry
	err := c.do(ctx, request{
		method:  http.MethodPut,
		path:    c.envPath("entries", escape(id)),
		body:    map[string]any{"fields": fields},
		headers: headers,
	}, &entry)
	if err != nil {
		return nil, err
	}
	entry.localized = true
	return &entry, nil
}

// PublishEntry publishes the given version of an entry.
func (c *Client) PublishEntry(ctx context.Context, entry *Entry) (*Entry, error) {
	if err := c.writable(); err != nil {
		return nil, err
	}
	if entry.Sys.Version <= 0 {
		return nil, ErrVersionRequired
	}
	var published Entry
	err := c.do(ctx, request{
		method:  http.MethodPut,
		path:    c.envPath("entries", escape(entry.Sys.ID), "published"),
		headers: map[string]string{headerVersion: strconv.Itoa(entry.Sys.Version)},
	}, &published)
	if err != nil {
		return nil, err
	}
	published.localized = true
	return &published, nil
}

func (c *Client) writable() error {
	if c.variant != VariantLocal {
		return ErrReadOnly
	}
	return nil
}

package remote

import (
	"encoding/json"
	"time"

	"github.com/goliatone/go-jumpgate/internal/locale"
)

// Sys is the metadata block attached to every platform resource.
type Sys struct {
	ID               string     `json:"id,omitempty"`
	Type             string     `json:"type,omitempty"`
	LinkType         string     `json:"linkType,omitempty"`
	Locale           string     `json:"locale,omitempty"`
	Version          int        `json:"version,omitempty"`
	PublishedVersion int        `json:"publishedVersion,omitempty"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
	ContentType      *Link      `json:"contentType,omitempty"`
	Space            *Link      `json:"space,omitempty"`
	Organization     *Link      `json:"organization,omitempty"`
}

// Link references another resource by id.
type Link struct {
	Sys Sys `json:"sys"`
}

// NewLink builds a link to a resource of linkType.
func NewLink(linkType, id string) Link {
	return Link{Sys: Sys{ID: id, Type: "Link", LinkType: linkType}}
}

// Entry is a content entry. Field values are raw JSON whose shape depends on
// the API that produced them: plain on the delivery API, keyed by locale on
// the management API.
type Entry struct {
	Sys    Sys                        `json:"sys"`
	Fields map[string]json.RawMessage `json:"fields"`

	localized bool
}

// Localized reports whether field values are keyed by locale.
func (e *Entry) Localized() bool { return e != nil && e.localized }

// ContentTypeID returns the id of the entry's content type.
func (e *Entry) ContentTypeID() string {
	if e == nil || e.Sys.ContentType == nil {
		return ""
	}
	return e.Sys.ContentType.Sys.ID
}

// Asset is a media asset.
type Asset struct {
	Sys    Sys                        `json:"sys"`
	Fields map[string]json.RawMessage `json:"fields"`

	localized bool
}

// Localized reports whether field values are keyed by locale.
func (a *Asset) Localized() bool { return a != nil && a.localized }

// AssetFile is the file descriptor stored in an asset's "file" field.
type AssetFile struct {
	URL         string      `json:"url"`
	FileName    string      `json:"fileName"`
	ContentType string      `json:"contentType"`
	Details     FileDetails `json:"details"`
}

// FileDetails carries size and image dimensions.
type FileDetails struct {
	Size  int64     `json:"size"`
	Image ImageSize `json:"image"`
}

// ImageSize holds pixel dimensions.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FieldOf decodes a field of an entry into the tagged union matching the API
// that produced it. Missing fields and decode failures are absent.
func FieldOf[T any](fields map[string]json.RawMessage, localized bool, id string) locale.Field[T] {
	raw, ok := fields[id]
	if !ok {
		return locale.Absent[T]()
	}
	var (
		field locale.Field[T]
		err   error
	)
	if localized {
		field, err = locale.DecodeLocalized[T](raw)
	} else {
		field, err = locale.DecodeScalar[T](raw)
	}
	if err != nil {
		return locale.Absent[T]()
	}
	return field
}

// EntryField decodes field id of e.
func EntryField[T any](e *Entry, id string) locale.Field[T] {
	if e == nil {
		return locale.Absent[T]()
	}
	return FieldOf[T](e.Fields, e.localized, id)
}

// AssetField decodes field id of a.
func AssetField[T any](a *Asset, id string) locale.Field[T] {
	if a == nil {
		return locale.Absent[T]()
	}
	return FieldOf[T](a.Fields, a.localized, id)
}

// ContentType is a content type definition.
type ContentType struct {
	Sys          Sys                `json:"sys"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	DisplayField string             `json:"displayField,omitempty"`
	Fields       []ContentTypeField `json:"fields"`
}

// ContentTypeField describes one field of a content type.
type ContentTypeField struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	LinkType    string           `json:"linkType,omitempty"`
	Required    bool             `json:"required"`
	Localized   bool             `json:"localized"`
	Validations []map[string]any `json:"validations,omitempty"`
	Items       *FieldItems      `json:"items,omitempty"`
}

// FieldItems describes array element types.
type FieldItems struct {
	Type        string           `json:"type"`
	LinkType    string           `json:"linkType,omitempty"`
	Validations []map[string]any `json:"validations,omitempty"`
}

// Space is the basic metadata of a space.
type Space struct {
	Sys  Sys    `json:"sys"`
	Name string `json:"name"`
}

// OrganizationID returns the id of the owning organization.
func (s *Space) OrganizationID() string {
	if s == nil || s.Sys.Organization == nil {
		return ""
	}
	return s.Sys.Organization.Sys.ID
}

// User is the owner of a management token.
type User struct {
	Sys       Sys    `json:"sys"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AppLocation names a place where an app renders.
type AppLocation struct {
	Location string `json:"location"`
}

// AppDefinition registers an app with an organization.
type AppDefinition struct {
	Sys       Sys           `json:"sys"`
	Name      string        `json:"name"`
	Src       string        `json:"src"`
	Locations []AppLocation `json:"locations"`
}

// AppInstallation binds an app definition to a space environment.
type AppInstallation struct {
	Sys        Sys             `json:"sys"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// WidgetRef identifies an editor widget.
type WidgetRef struct {
	WidgetNamespace string `json:"widgetNamespace"`
	WidgetID        string `json:"widgetId"`
	Disabled        bool   `json:"disabled,omitempty"`
}

// EditorInterface holds the editor assignments of a content type.
type EditorInterface struct {
	Sys      Sys              `json:"sys"`
	Controls []map[string]any `json:"controls,omitempty"`
	Editors  []WidgetRef      `json:"editors,omitempty"`
}

// Query narrows entry listings.
type Query struct {
	ContentType string
	Limit       int
	Skip        int
	Order       string
	Locale      string
}

type collection[T any] struct {
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Items []T `json:"items"`
}

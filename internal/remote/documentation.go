package remote

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/goliatone/go-jumpgate/internal/locale"
	"github.com/goliatone/go-jumpgate/internal/richtext"
)

// Field ids of the documentation content type.
const (
	FieldName                 = "name"
	FieldDescription          = "description"
	FieldContent              = "content"
	FieldExternalReferenceURL = "externalReferenceUrl"
	FieldPreviewImage         = "previewImage"
)

// Asset field ids.
const (
	AssetFieldTitle       = "title"
	AssetFieldDescription = "description"
	AssetFieldFile        = "file"
)

// DocumentationEntry is a pattern or guideline entry with its fields resolved
// for one locale.
type DocumentationEntry struct {
	ID               string         `json:"id"`
	Locale           string         `json:"locale"`
	DisplayName      string         `json:"displayName"`
	ShortDescription string         `json:"shortDescription,omitempty"`
	Body             *richtext.Node `json:"body,omitempty"`
	PreviewURL       string         `json:"previewUrl,omitempty"`
	PreviewAssetID   string         `json:"previewAssetId,omitempty"`
	UpdatedAt        *time.Time     `json:"updatedAt,omitempty"`
}

// DocumentationAsset is an asset with its fields resolved for one locale.
type DocumentationAsset struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// IsImage reports whether the asset file is an image.
func (a *DocumentationAsset) IsImage() bool {
	return a != nil && strings.HasPrefix(a.ContentType, "image/")
}

// DecodeDocumentationEntry resolves the documentation fields of e for the
// entry's own locale, falling back to defaultLocale.
func DecodeDocumentationEntry(e *Entry, defaultLocale string) *DocumentationEntry {
	if e == nil {
		return nil
	}
	code := locale.Pick(e.Sys.Locale, defaultLocale)

	doc := &DocumentationEntry{
		ID:               e.Sys.ID,
		Locale:           code,
		DisplayName:      EntryField[string](e, FieldName).Value(code),
		ShortDescription: EntryField[string](e, FieldDescription).Value(code),
		PreviewURL:       EntryField[string](e, FieldExternalReferenceURL).Value(code),
		UpdatedAt:        e.Sys.UpdatedAt,
	}

	if raw, ok := EntryField[json.RawMessage](e, FieldContent).Resolve(code); ok {
		if body, err := richtext.Parse(raw); err == nil {
			doc.Body = body
		}
	}
	if link, ok := EntryField[Link](e, FieldPreviewImage).Resolve(code); ok {
		doc.PreviewAssetID = link.Sys.ID
	}
	return doc
}

// DecodeAsset resolves the asset fields of a for the asset's own locale,
// falling back to defaultLocale.
func DecodeAsset(a *Asset, defaultLocale string) *DocumentationAsset {
	if a == nil {
		return nil
	}
	code := locale.Pick(a.Sys.Locale, defaultLocale)

	out := &DocumentationAsset{
		ID:          a.Sys.ID,
		Title:       AssetField[string](a, AssetFieldTitle).Value(code),
		Description: AssetField[string](a, AssetFieldDescription).Value(code),
	}
	if file, ok := AssetField[AssetFile](a, AssetFieldFile).Resolve(code); ok {
		out.URL = absoluteURL(file.URL)
		out.FileName = file.FileName
		out.ContentType = file.ContentType
		out.Width = file.Details.Image.Width
		out.Height = file.Details.Image.Height
	}
	return out
}

func absoluteURL(raw string) string {
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	return raw
}

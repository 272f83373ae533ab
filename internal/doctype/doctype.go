// Package doctype defines the documentation content type and provisions it
// in a space.
package doctype

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

const (
	DefaultID   = "designSystemPattern"
	DefaultName = "Design System Pattern"

	urlPattern = `^(ftp|http|https):\/\/(\w+:{0,1}\w*@)?(\S+)(:[0-9]+)?(\/|\/([\w#!:.?+=&%@!\-/]))?$`
)

// EnabledNodeTypes lists the block types allowed in the content field.
var EnabledNodeTypes = []string{
	"heading-1", "heading-2", "heading-3", "heading-4", "heading-5", "heading-6",
	"ordered-list", "unordered-list", "hr", "blockquote",
	"embedded-asset-block", "embedded-entry-block",
}

// Manager is the subset of the management client used to provision the type.
type Manager interface {
	GetContentType(ctx context.Context, id string) (*remote.ContentType, error)
	CreateContentType(ctx context.Context, ct *remote.ContentType) (*remote.ContentType, error)
	PublishContentType(ctx context.Context, ct *remote.ContentType) (*remote.ContentType, error)
}

// Definition builds the documentation content type.
func Definition(id, name string) *remote.ContentType {
	if id == "" {
		id = DefaultID
	}
	if name == "" {
		name = DefaultName
	}
	return &remote.ContentType{
		Sys:          remote.Sys{ID: id},
		Name:         name,
		DisplayField: remote.FieldName,
		Fields: []remote.ContentTypeField{
			{
				ID:          remote.FieldName,
				Name:        "Name",
				Type:        "Symbol",
				Required:    true,
				Validations: []map[string]any{{"size": map[string]any{"max": 80}}},
			},
			{
				ID:          remote.FieldDescription,
				Name:        "Short description",
				Type:        "Symbol",
				Validations: []map[string]any{{"size": map[string]any{"max": 160}}},
			},
			{
				ID:   remote.FieldContent,
				Name: "Content",
				Type: "RichText",
				Validations: []map[string]any{
					{"nodes": map[string]any{
						"embedded-entry-block": []map[string]any{{"linkContentType": []string{id}}},
					}},
					{
						"enabledNodeTypes": EnabledNodeTypes,
						"message":          "Only heading 1, heading 2, heading 3, heading 4, heading 5, heading 6, ordered list, unordered list, horizontal rule, quote, and asset nodes are allowed",
					},
				},
			},
			{
				ID:   remote.FieldExternalReferenceURL,
				Name: "External reference (URL)",
				Type: "Symbol",
				Validations: []map[string]any{
					{"regexp": map[string]any{"pattern": urlPattern, "flags": nil}},
				},
			},
			{
				ID:       remote.FieldPreviewImage,
				Name:     "Preview image",
				Type:     "Link",
				LinkType: "Asset",
				Validations: []map[string]any{
					{"linkMimetypeGroup": []string{"image"}},
				},
			},
		},
	}
}

// Exists reports whether a content type with id is among types.
func Exists(types []*remote.ContentType, id string) bool {
	for _, ct := range types {
		if ct != nil && ct.Sys.ID == id {
			return true
		}
	}
	return false
}

// Provisioner creates and publishes the documentation type on demand.
type Provisioner struct {
	manager Manager
	def     *remote.ContentType
	logger  interfaces.Logger
}

// NewProvisioner returns a provisioner for def.
func NewProvisioner(manager Manager, def *remote.ContentType, logger interfaces.Logger) *Provisioner {
	if logger == nil {
		logger = logging.NoOp()
	}
	if def == nil {
		def = Definition("", "")
	}
	return &Provisioner{manager: manager, def: def, logger: logger}
}

// Definition returns the content type the provisioner manages.
func (p *Provisioner) Definition() *remote.ContentType { return p.def }

// Ensure creates and publishes the content type when the space lacks it.
// created is false when the type was already present.
func (p *Provisioner) Ensure(ctx context.Context) (created bool, err error) {
	if p.manager == nil {
		return false, remote.ErrNoLocalClient
	}
	id := p.def.Sys.ID
	if _, err := p.manager.GetContentType(ctx, id); err == nil {
		p.logger.Debug("doctype.present", "content_type", id)
		return false, nil
	} else if !errors.Is(err, remote.ErrNotFound) {
		return false, fmt.Errorf("doctype: lookup %s: %w", id, err)
	}

	draft, err := p.manager.CreateContentType(ctx, p.def)
	if err != nil {
		return false, fmt.Errorf("doctype: create %s: %w", id, err)
	}
	if _, err := p.manager.PublishContentType(ctx, draft); err != nil {
		return false, fmt.Errorf("doctype: publish %s: %w", id, err)
	}
	p.logger.Info("doctype.created", "content_type", id, "version", draft.Sys.Version)
	return true, nil
}

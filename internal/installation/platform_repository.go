package installation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// PlatformClient is the management surface used to persist installations
// on the platform itself.
type PlatformClient interface {
	GetAppInstallation(ctx context.Context, appDefinitionID string) (*remote.AppInstallation, error)
	PutAppInstallation(ctx context.Context, appDefinitionID string, parameters json.RawMessage) (*remote.AppInstallation, error)
	GetEditorInterface(ctx context.Context, contentTypeID string) (*remote.EditorInterface, error)
	UpdateEditorInterface(ctx context.Context, contentTypeID string, ei *remote.EditorInterface) (*remote.EditorInterface, error)
}

// PlatformRepository stores parameters as app installation parameters and
// applies the target state to the editor interfaces of the space.
type PlatformRepository struct {
	client          PlatformClient
	appDefinitionID string
	widgetID        string
	logger          interfaces.Logger
	now             func() time.Time
}

// NewPlatformRepository returns a repository bound to one app definition.
func NewPlatformRepository(client PlatformClient, appDefinitionID, widgetID string, logger interfaces.Logger) *PlatformRepository {
	if logger == nil {
		logger = logging.NoOp()
	}
	if widgetID == "" {
		widgetID = DefaultWidgetID
	}
	return &PlatformRepository{
		client:          client,
		appDefinitionID: appDefinitionID,
		widgetID:        widgetID,
		logger:          logger,
		now:             time.Now,
	}
}

func (r *PlatformRepository) Load(ctx context.Context) (*Record, error) {
	inst, err := r.client.GetAppInstallation(ctx, r.appDefinitionID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return nil, ErrNotInstalled
		}
		return nil, fmt.Errorf("installation platform: %w", err)
	}
	params, err := Decode(inst.Parameters)
	if err != nil {
		return nil, err
	}
	record := Record{
		Parameters:  params,
		TargetState: BuildTargetState(nil, params.PatternMatches, r.widgetID),
	}
	if inst.Sys.UpdatedAt != nil {
		record.UpdatedAt = *inst.Sys.UpdatedAt
	}
	return &record, nil
}

// Save writes the parameters first, then each editor interface. A failed
// editor update is reported after the parameters are already stored.
func (r *PlatformRepository) Save(ctx context.Context, record Record) (*Record, error) {
	if err := record.Parameters.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(record.Parameters)
	if err != nil {
		return nil, err
	}
	if _, err := r.client.PutAppInstallation(ctx, r.appDefinitionID, raw); err != nil {
		return nil, fmt.Errorf("installation platform: save parameters: %w", err)
	}

	for _, contentTypeID := range record.TargetState.ContentTypeIDs() {
		assignment := record.TargetState.EditorInterface[contentTypeID]
		if err := r.apply(ctx, contentTypeID, assignment); err != nil {
			return nil, fmt.Errorf("installation platform: editor interface %s: %w", contentTypeID, err)
		}
	}

	stored := cloneRecord(record)
	stored.UpdatedAt = r.now().UTC()
	return &stored, nil
}

func (r *PlatformRepository) apply(ctx context.Context, contentTypeID string, assignment EditorAssignment) error {
	current, err := r.client.GetEditorInterface(ctx, contentTypeID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			r.logger.Warn("installation.editor_interface.missing", "content_type", contentTypeID)
			return nil
		}
		return err
	}

	editors := make([]remote.WidgetRef, 0, len(current.Editors)+1)
	for _, ref := range current.Editors {
		if ref.WidgetNamespace == "app" && ref.WidgetID == r.widgetID {
			continue
		}
		editors = append(editors, ref)
	}
	if assignment.Assigned() {
		editors = append(editors, assignment.Editors...)
	}
	if sameEditors(current.Editors, editors) {
		return nil
	}

	updated := *current
	updated.Editors = editors
	if _, err := r.client.UpdateEditorInterface(ctx, contentTypeID, &updated); err != nil {
		return err
	}
	r.logger.Debug("installation.editor_interface.updated", "content_type", contentTypeID, "assigned", assignment.Assigned())
	return nil
}

func sameEditors(a, b []remote.WidgetRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

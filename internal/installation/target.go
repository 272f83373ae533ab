package installation

import (
	"sort"

	"github.com/goliatone/go-jumpgate/internal/remote"
)

// DefaultWidgetID is the entry editor widget registered by the app.
const DefaultWidgetID = "pattern-reference"

// EditorAssignment is the desired editor configuration of a content type.
// An empty assignment removes the app from the editor.
type EditorAssignment struct {
	Editors []remote.WidgetRef `json:"editors,omitempty"`
}

// Assigned reports whether the app editor is enabled.
func (a EditorAssignment) Assigned() bool { return len(a.Editors) > 0 }

// TargetState is the desired editor configuration per content type.
type TargetState struct {
	EditorInterface map[string]EditorAssignment `json:"EditorInterface"`
}

// BuildTargetState merges one assignment per match into current. A match of
// "" yields an empty assignment.
func BuildTargetState(current *TargetState, matches map[string]string, widgetID string) TargetState {
	if widgetID == "" {
		widgetID = DefaultWidgetID
	}
	out := TargetState{EditorInterface: map[string]EditorAssignment{}}
	if current != nil {
		for id, assignment := range current.EditorInterface {
			out.EditorInterface[id] = assignment
		}
	}
	for contentTypeID, entryID := range matches {
		if entryID == "" {
			out.EditorInterface[contentTypeID] = EditorAssignment{}
			continue
		}
		out.EditorInterface[contentTypeID] = EditorAssignment{
			Editors: []remote.WidgetRef{{WidgetNamespace: "app", WidgetID: widgetID}},
		}
	}
	return out
}

// ContentTypeIDs returns the content types of the state in sorted order.
func (s TargetState) ContentTypeIDs() []string {
	ids := make([]string, 0, len(s.EditorInterface))
	for id := range s.EditorInterface {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

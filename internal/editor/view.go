package editor

// Status is the rendering state of a panel.
type Status string

const (
	StatusLoading     Status = "loading"
	StatusUnavailable Status = "unavailable"
	StatusReady       Status = "ready"
)

// Messages shown when documentation cannot be displayed.
const (
	MessageUnavailableHeading = "Design System not available"
	MessageUnavailableBody    = "Failed to load the design system documentation for this content type."
)

// Image is a resolved preview image.
type Image struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// View is one render of a panel.
type View struct {
	SessionID     string `json:"sessionId"`
	ContentTypeID string `json:"contentTypeId"`
	EntryID       string `json:"entryId,omitempty"`
	Status        Status `json:"status"`

	Heading string `json:"heading,omitempty"`
	Message string `json:"message,omitempty"`

	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	BodyHTML     string `json:"bodyHtml,omitempty"`
	PreviewURL   string `json:"previewUrl,omitempty"`
	PreviewImage *Image `json:"previewImage,omitempty"`

	// Pending counts references still being fetched. A later render may
	// include more content.
	Pending int `json:"pending"`
}

func unavailable(v View) View {
	v.Status = StatusUnavailable
	v.Heading = MessageUnavailableHeading
	v.Message = MessageUnavailableBody
	return v
}

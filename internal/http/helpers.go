package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-jumpgate/internal/commands/appcmd"
	"github.com/goliatone/go-jumpgate/internal/editor"
	"github.com/goliatone/go-jumpgate/internal/installation"
	"github.com/goliatone/go-jumpgate/internal/notify"
	"github.com/goliatone/go-jumpgate/internal/setup"
)

var errBodyRequired = errors.New("http: request body is required")

type errorResponse struct {
	Error         string                `json:"error"`
	Message       string                `json:"message,omitempty"`
	Notifications []notify.Notification `json:"notifications,omitempty"`
}

// joinPath mounts suffix under base, always returning a rooted path.
func joinPath(base, suffix string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{base, suffix} {
		if p = strings.Trim(strings.TrimSpace(p), "/"); p != "" {
			parts = append(parts, p)
		}
	}
	return "/" + strings.Join(parts, "/")
}

func decodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return errBodyRequired
	}
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(target)
	if errors.Is(err, io.EOF) {
		return errBodyRequired
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, err error, notifications []notify.Notification) {
	status, payload := mapError(err)
	payload.Notifications = notifications
	writeJSON(w, status, payload)
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	switch {
	case errors.Is(err, editor.ErrSessionNotFound):
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()}
	case errors.Is(err, setup.ErrConfigureRejected),
		errors.Is(err, appcmd.ErrConnectionRejected):
		return http.StatusUnprocessableEntity, errorResponse{Error: "rejected", Message: rootMessage(err)}
	case errors.Is(err, setup.ErrUnknownContentType):
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()}
	case errors.Is(err, editor.ErrContentTypeRequired),
		errors.Is(err, installation.ErrUnknownRole),
		errors.Is(err, errBodyRequired):
		return http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()}
	case goerrors.IsCategory(err, goerrors.CategoryValidation):
		return http.StatusBadRequest, errorResponse{Error: "validation_failed", Message: err.Error()}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

// rootMessage drops the command wrapper so clients see the domain reason.
func rootMessage(err error) string {
	var wrapped *goerrors.Error
	if errors.As(err, &wrapped) && wrapped.Source != nil {
		return wrapped.Source.Error()
	}
	return err.Error()
}

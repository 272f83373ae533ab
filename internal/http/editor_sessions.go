package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goliatone/go-jumpgate/internal/editor"
	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/internal/resolver"
	"github.com/gorilla/websocket"
)

const (
	eventBuffer  = 64
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

type openSessionRequest struct {
	ContentTypeID string `json:"contentTypeId"`
}

// eventMessage is pushed to websocket clients. Clients re-fetch the view on
// "resolved"; "view" carries the current status on connect; "closed" ends
// the stream.
type eventMessage struct {
	Type      string `json:"type"`
	Reference string `json:"reference,omitempty"`
	State     string `json:"state,omitempty"`
	Status    string `json:"status,omitempty"`
	Pending   int    `json:"pending,omitempty"`
}

func (api *API) registerEditorRoutes(r chi.Router) {
	r.Route("/editor/sessions", func(r chi.Router) {
		r.Post("/", api.handleOpenSession)
		r.Get("/{sessionID}", api.handleGetSession)
		r.Get("/{sessionID}/markdown", api.handleSessionMarkdown)
		r.Get("/{sessionID}/events", api.handleSessionEvents)
		r.Delete("/{sessionID}", api.handleCloseSession)
	})
}

func (api *API) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, nil)
		return
	}
	panel, err := api.editor.Open(r.Context(), req.ContentTypeID)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	w.Header().Set("Location", sessionPath(api.basePath, panel.ID()))
	writeJSON(w, http.StatusCreated, panel.Render())
}

func (api *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := api.editor.Render(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (api *API) handleSessionMarkdown(w http.ResponseWriter, r *http.Request) {
	md, err := api.editor.Markdown(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(md))
}

func (api *API) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := api.editor.Close(chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *API) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	panel, ok := api.editor.Panel(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, editor.ErrSessionNotFound, nil)
		return
	}

	events := make(chan resolver.Event, eventBuffer)
	unsubscribe := panel.Subscribe(func(ev resolver.Event) {
		select {
		case events <- ev:
		default:
			// Buffer full; the next event triggers the same re-fetch.
		}
	})
	defer unsubscribe()

	conn, err := api.upgrader.Upgrade(w, r, nil)
	if err != nil {
		api.logger.WithContext(r.Context()).Warn("http.editor.events.upgrade_failed", "error", err)
		return
	}
	defer conn.Close()

	logger := logging.WithFields(api.logger.WithContext(r.Context()), map[string]any{"session_id": panel.ID()})
	logger.Debug("http.editor.events.connected")

	gone := make(chan struct{})
	go readUntilClosed(conn, gone)

	view := panel.Render()
	if err := writeEvent(conn, eventMessage{Type: "view", Status: string(view.Status), Pending: view.Pending}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			msg := eventMessage{Type: "resolved", Reference: ev.Key, State: ev.State.String()}
			if err := writeEvent(conn, msg); err != nil {
				logger.Debug("http.editor.events.write_failed", "error", err)
				return
			}
		case <-panel.Done():
			_ = writeEvent(conn, eventMessage{Type: "closed"})
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
				time.Now().Add(writeTimeout))
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-gone:
			logger.Debug("http.editor.events.disconnected")
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, msg eventMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}

func readUntilClosed(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func sessionPath(base, id string) string {
	return joinPath(base, "editor/sessions/"+strings.TrimSpace(id))
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goliatone/go-jumpgate/internal/commands/appcmd"
	"github.com/goliatone/go-jumpgate/internal/connection"
	"github.com/goliatone/go-jumpgate/internal/installation"
	"github.com/goliatone/go-jumpgate/internal/notify"
	"github.com/goliatone/go-jumpgate/internal/setup"
)

type configResponse struct {
	State         setup.State           `json:"state"`
	Result        *connection.Result    `json:"result,omitempty"`
	Record        *installation.Record  `json:"record,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type credentialsRequest struct {
	SpaceID       string `json:"spaceId"`
	DeliveryToken string `json:"deliveryToken"`
}

type matchRequest struct {
	EntryID string `json:"entryId"`
}

func (api *API) registerConfigRoutes(r chi.Router) {
	r.Route("/config", func(r chi.Router) {
		r.Get("/", api.handleConfigState)
		r.Put("/role", api.handleConfigRole)
		r.Put("/credentials", api.handleConfigCredentials)
		r.Post("/verify", api.handleConfigVerify)
		r.Put("/matches/{contentTypeID}", api.handleConfigSetMatch)
		r.Delete("/matches/{contentTypeID}", api.handleConfigClearMatch)
		r.Post("/configure", api.handleConfigConfigure)
	})
}

// ensureLoaded loads the screen on first use.
func (api *API) ensureLoaded(r *http.Request) error {
	if api.screen.Loaded() {
		return nil
	}
	return api.screen.Load(r.Context())
}

func (api *API) writeConfig(w http.ResponseWriter, status int, resp configResponse, collector *notify.Collector) {
	state, err := api.screen.State()
	if err != nil {
		writeError(w, err, collector.Drain())
		return
	}
	resp.State = state
	resp.Notifications = collector.Drain()
	writeJSON(w, status, resp)
}

func (api *API) handleConfigState(w http.ResponseWriter, r *http.Request) {
	collector := notify.NewCollector()
	if r.URL.Query().Get("reload") == "true" {
		if err := api.screen.Load(r.Context()); err != nil {
			writeError(w, err, nil)
			return
		}
	} else if err := api.ensureLoaded(r); err != nil {
		writeError(w, err, nil)
		return
	}
	api.writeConfig(w, http.StatusOK, configResponse{}, collector)
}

func (api *API) handleConfigRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, nil)
		return
	}
	role, err := installation.ParseRole(req.Role)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	if err := api.ensureLoaded(r); err != nil {
		writeError(w, err, nil)
		return
	}
	if err := api.screen.SetRole(r.Context(), role); err != nil {
		writeError(w, err, nil)
		return
	}
	api.writeConfig(w, http.StatusOK, configResponse{}, notify.NewCollector())
}

func (api *API) handleConfigCredentials(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, nil)
		return
	}
	if err := api.ensureLoaded(r); err != nil {
		writeError(w, err, nil)
		return
	}
	if err := api.screen.SetCredentials(req.SpaceID, req.DeliveryToken); err != nil {
		writeError(w, err, nil)
		return
	}
	api.writeConfig(w, http.StatusOK, configResponse{}, notify.NewCollector())
}

func (api *API) handleConfigVerify(w http.ResponseWriter, r *http.Request) {
	if err := api.ensureLoaded(r); err != nil {
		writeError(w, err, nil)
		return
	}
	collector := notify.NewCollector()
	result, err := api.screen.Verify(r.Context(), collector)
	if err != nil {
		writeError(w, err, collector.Drain())
		return
	}
	api.writeConfig(w, http.StatusOK, configResponse{Result: &result}, collector)
}

func (api *API) handleConfigSetMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, nil)
		return
	}
	if err := api.ensureLoaded(r); err != nil {
		writeError(w, err, nil)
		return
	}
	if err := api.screen.SetMatch(chi.URLParam(r, "contentTypeID"), req.EntryID); err != nil {
		writeError(w, err, nil)
		return
	}
	api.writeConfig(w, http.StatusOK, configResponse{}, notify.NewCollector())
}

func (api *API) handleConfigClearMatch(w http.ResponseWriter, r *http.Request) {
	if err := api.ensureLoaded(r); err != nil {
		writeError(w, err, nil)
		return
	}
	if err := api.screen.ClearMatch(chi.URLParam(r, "contentTypeID")); err != nil {
		writeError(w, err, nil)
		return
	}
	api.writeConfig(w, http.StatusOK, configResponse{}, notify.NewCollector())
}

func (api *API) handleConfigConfigure(w http.ResponseWriter, r *http.Request) {
	if err := api.ensureLoaded(r); err != nil {
		writeError(w, err, nil)
		return
	}
	collector := notify.NewCollector()

	var record *installation.Record
	if api.configure != nil {
		out := &installation.Record{}
		if err := api.configure.Execute(r.Context(), appcmd.ConfigureInstallationCommand{Notifier: collector, Output: out}); err != nil {
			writeError(w, err, collector.Drain())
			return
		}
		record = out
	} else {
		saved, err := api.screen.Configure(r.Context(), collector)
		if err != nil {
			writeError(w, err, collector.Drain())
			return
		}
		record = saved
	}
	api.writeConfig(w, http.StatusOK, configResponse{Record: record}, collector)
}

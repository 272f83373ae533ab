package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goliatone/go-jumpgate/internal/commands/appcmd"
	"github.com/goliatone/go-jumpgate/internal/connection"
	"github.com/goliatone/go-jumpgate/internal/editor"
	"github.com/goliatone/go-jumpgate/internal/installation"
	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/internal/setup"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
	"github.com/gorilla/websocket"
)

// ConfigScreen is the configuration surface served under /config.
type ConfigScreen interface {
	Loaded() bool
	Load(ctx context.Context) error
	State() (setup.State, error)
	SetRole(ctx context.Context, role installation.SpaceRole) error
	SetCredentials(spaceID, token string) error
	Verify(ctx context.Context, n interfaces.Notifier) (connection.Result, error)
	SetMatch(contentTypeID, entryID string) error
	ClearMatch(contentTypeID string) error
	Configure(ctx context.Context, n interfaces.Notifier) (*installation.Record, error)
}

// EditorService owns the entry-editor panels served under /editor.
type EditorService interface {
	Open(ctx context.Context, contentTypeID string) (*editor.Panel, error)
	Panel(id string) (*editor.Panel, bool)
	Render(id string) (editor.View, error)
	Markdown(ctx context.Context, id string) (string, error)
	Close(id string) error
}

var (
	_ ConfigScreen  = (*setup.Screen)(nil)
	_ EditorService = (*editor.Service)(nil)
)

// API registers the app backend routes.
type API struct {
	basePath  string
	screen    ConfigScreen
	editor    EditorService
	configure *appcmd.ConfigureInstallationHandler
	logger    interfaces.Logger
	origins   []string
	upgrader  websocket.Upgrader
}

// Option mutates the API configuration.
type Option func(*API)

// NewAPI constructs an API instance.
func NewAPI(opts ...Option) *API {
	api := &API{
		basePath: "/api",
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	api.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     api.checkOrigin,
	}
	return api
}

// WithBasePath overrides the base API path (defaults to "/api").
func WithBasePath(path string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithConfigScreen wires the configuration screen.
func WithConfigScreen(screen ConfigScreen) Option {
	return func(api *API) {
		api.screen = screen
	}
}

// WithEditorService wires the editor panel service.
func WithEditorService(service EditorService) Option {
	return func(api *API) {
		api.editor = service
	}
}

// WithConfigureHandler routes POST /config/configure through the command
// handler instead of calling the screen directly.
func WithConfigureHandler(handler *appcmd.ConfigureInstallationHandler) Option {
	return func(api *API) {
		api.configure = handler
	}
}

// WithLogger sets the request logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// WithAllowedOrigins restricts websocket upgrades to the listed origins.
// Requests without an Origin header are always accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(api *API) {
		api.origins = append(api.origins, origins...)
	}
}

// Register attaches the routes to r.
func (api *API) Register(r chi.Router) error {
	if r == nil {
		return fmt.Errorf("http: router is required")
	}
	if api == nil {
		return fmt.Errorf("http: api is nil")
	}
	r.Route(joinPath(api.basePath, ""), func(r chi.Router) {
		if api.screen != nil {
			api.registerConfigRoutes(r)
		}
		if api.editor != nil {
			api.registerEditorRoutes(r)
		}
	})
	return nil
}

// Handler returns a standalone router with /healthz and the API routes.
func (api *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(api.logRequests)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	_ = api.Register(r)
	return r
}

func (api *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.ContextWithFields(r.Context(), map[string]any{
			"request_id": middleware.GetReqID(r.Context()),
		})
		r = r.WithContext(ctx)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		api.logger.WithContext(ctx).Debug("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
		)
	})
}

func (api *API) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(api.origins) == 0 {
		return true
	}
	for _, allowed := range api.origins {
		if strings.EqualFold(strings.TrimSpace(allowed), origin) {
			return true
		}
	}
	return false
}

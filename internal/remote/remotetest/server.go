// Package remotetest provides an in-memory stand-in for the content platform
// REST API, served over httptest.
package remotetest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-jumpgate/internal/remote"
)

// TokenKind distinguishes delivery tokens from management tokens.
type TokenKind string

const (
	TokenDelivery   TokenKind = "delivery"
	TokenManagement TokenKind = "management"
)

type grant struct {
	kind    TokenKind
	spaceID string
	user    remote.User
}

// EntryData is a stored entry with locale-keyed fields.
type EntryData struct {
	ID            string
	ContentTypeID string
	Fields        map[string]map[string]any
	Version       int
	UpdatedAt     time.Time
}

// AssetData is a stored asset with locale-keyed fields.
type AssetData struct {
	ID     string
	Fields map[string]map[string]any
}

// Space is a stored space.
type Space struct {
	ID               string
	Name             string
	OrganizationID   string
	DefaultLocale    string
	ContentTypes     map[string]*remote.ContentType
	Entries          map[string]*EntryData
	Assets           map[string]*AssetData
	EditorInterfaces map[string]*remote.EditorInterface
	Installations    map[string]json.RawMessage
}

// Request is a recorded request.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// Server is the fake platform.
type Server struct {
	*httptest.Server

	mu             sync.Mutex
	spaces         map[string]*Space
	tokens         map[string]grant
	appDefinitions map[string][]*remote.AppDefinition
	failures       map[string]int
	requests       []Request
	sequence       int
}

// NewServer starts a fake platform. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		spaces:         map[string]*Space{},
		tokens:         map[string]grant{},
		appDefinitions: map[string][]*remote.AppDefinition{},
		failures:       map[string]int{},
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// AddSpace registers a space and returns it for further seeding.
func (s *Server) AddSpace(id, name, orgID string) *Space {
	s.mu.Lock()
	defer s.mu.Unlock()
	space := &Space{
		ID:               id,
		Name:             name,
		OrganizationID:   orgID,
		DefaultLocale:    "en-US",
		ContentTypes:     map[string]*remote.ContentType{},
		Entries:          map[string]*EntryData{},
		Assets:           map[string]*AssetData{},
		EditorInterfaces: map[string]*remote.EditorInterface{},
		Installations:    map[string]json.RawMessage{},
	}
	s.spaces[id] = space
	return space
}

// AddDeliveryToken grants read access to spaceID.
func (s *Server) AddDeliveryToken(token, spaceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = grant{kind: TokenDelivery, spaceID: spaceID}
}

// AddManagementToken grants management access to every space.
func (s *Server) AddManagementToken(token string, user remote.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = grant{kind: TokenManagement, user: user}
}

// AddAppDefinition registers an existing app definition.
func (s *Server) AddAppDefinition(orgID string, def remote.AppDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := def
	s.appDefinitions[orgID] = append(s.appDefinitions[orgID], &copied)
}

// AppDefinitions returns the app definitions of an organization.
func (s *Server) AppDefinitions(orgID string) []remote.AppDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]remote.AppDefinition, 0, len(s.appDefinitions[orgID]))
	for _, def := range s.appDefinitions[orgID] {
		out = append(out, *def)
	}
	return out
}

// FailPath makes every request whose path starts with prefix answer status.
func (s *Server) FailPath(prefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[prefix] = status
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts recorded requests matching method and path.
func (s *Server) CountRequests(method, path string) int {
	count := 0
	for _, req := range s.Requests() {
		if req.Method == method && req.Path == path {
			count++
		}
	}
	return count
}

// Space returns a stored space.
func (s *Server) Space(id string) *Space {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spaces[id]
}

// AddContentType stores a published content type.
func (sp *Space) AddContentType(id, name string) *remote.ContentType {
	ct := &remote.ContentType{
		Sys:          remote.Sys{ID: id, Type: "ContentType", Version: 2, PublishedVersion: 1},
		Name:         name,
		DisplayField: "name",
	}
	sp.ContentTypes[id] = ct
	return ct
}

// AddEntry stores an entry whose fields are given for the default locale.
func (sp *Space) AddEntry(id, contentTypeID string, fields map[string]any) *EntryData {
	localized := make(map[string]map[string]any, len(fields))
	for key, value := range fields {
		localized[key] = map[string]any{sp.DefaultLocale: value}
	}
	entry := &EntryData{
		ID:            id,
		ContentTypeID: contentTypeID,
		Fields:        localized,
		Version:       1,
		UpdatedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	sp.Entries[id] = entry
	return entry
}

// AddImageAsset stores an image asset for the default locale.
func (sp *Space) AddImageAsset(id, title, url string, width, height int) *AssetData {
	asset := &AssetData{
		ID: id,
		Fields: map[string]map[string]any{
			"title":       {sp.DefaultLocale: title},
			"description": {sp.DefaultLocale: title + " description"},
			"file": {sp.DefaultLocale: map[string]any{
				"url":         url,
				"fileName":    id + ".png",
				"contentType": "image/png",
				"details": map[string]any{
					"size":  1024,
					"image": map[string]any{"width": width, "height": height},
				},
			}},
		},
	}
	sp.Assets[id] = asset
	return asset
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/me", s.handleCurrentUser)
	mux.HandleFunc("GET /spaces/{space}", s.handleSpace)
	mux.HandleFunc("GET /spaces/{space}/environments/{env}/entries", s.handleListEntries)
	mux.HandleFunc("GET /spaces/{space}/environments/{env}/entries/{id}", s.handleGetEntry)
	mux.HandleFunc("PUT /spaces/{space}/environments/{env}/entries/{id}", s.handlePutEntry)
	mux.HandleFunc("PUT /spaces/{space}/environments/{env}/entries/{id}/published", s.handlePublishEntry)
	mux.HandleFunc("GET /spaces/{space}/environments/{env}/assets/{id}", s.handleGetAsset)
	mux.HandleFunc("GET /spaces/{space}/environments/{env}/content_types", s.handleListContentTypes)
	mux.HandleFunc("GET /spaces/{space}/environments/{env}/content_types/{id}", s.handleGetContentType)
	mux.HandleFunc("PUT /spaces/{space}/environments/{env}/content_types/{id}", s.handlePutContentType)
	mux.HandleFunc("PUT /spaces/{space}/environments/{env}/content_types/{id}/published", s.handlePublishContentType)
	mux.HandleFunc("GET /spaces/{space}/environments/{env}/content_types/{id}/editor_interface", s.handleGetEditorInterface)
	mux.HandleFunc("PUT /spaces/{space}/environments/{env}/content_types/{id}/editor_interface", s.handlePutEditorInterface)
	mux.HandleFunc("GET /spaces/{space}/environments/{env}/app_installations/{id}", s.handleGetInstallation)
	mux.HandleFunc("PUT /spaces/{space}/environments/{env}/app_installations/{id}", s.handlePutInstallation)
	mux.HandleFunc("GET /organizations/{org}/app_definitions", s.handleListAppDefinitions)
	mux.HandleFunc("POST /organizations/{org}/app_definitions", s.handleCreateAppDefinition)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		for prefix, status := range s.failures {
			if strings.HasPrefix(r.URL.Path, prefix) {
				s.mu.Unlock()
				writeError(w, status, "InternalServerError", "injected failure")
				return
			}
		}
		s.mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"sys":     map[string]any{"type": "Error", "id": code},
		"message": message,
	})
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request, spaceID string, needManagement bool) (grant, *Space, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	g, ok := s.tokens[token]
	var space *Space
	if spaceID != "" {
		space = s.spaces[spaceID]
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusUnauthorized, "AccessTokenInvalid", "The access token you sent could not be found or is invalid.")
		return grant{}, nil, false
	}
	if needManagement && g.kind != TokenManagement {
		writeError(w, http.StatusForbidden, "AccessDenied", "management access required")
		return grant{}, nil, false
	}
	if spaceID == "" {
		return g, nil, true
	}
	if space == nil {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return grant{}, nil, false
	}
	if g.kind == TokenDelivery && g.spaceID != spaceID {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return grant{}, nil, false
	}
	return g, space, true
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	g, _, ok := s.authorize(w, r, "", true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, g.user)
}

func (s *Server) handleSpace(w http.ResponseWriter, r *http.Request) {
	_, space, ok := s.authorize(w, r, r.PathValue("space"), false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sys": map[string]any{
			"id":   space.ID,
			"type": "Space",
			"organization": map[string]any{"sys": map[string]any{
				"id": space.OrganizationID, "type": "Link", "linkType": "Organization",
			}},
		},
		"name": space.Name,
	})
}

func (s *Server) entryPayload(g grant, space *Space, entry *EntryData) map[string]any {
	sys := map[string]any{
		"id":        entry.ID,
		"type":      "Entry",
		"version":   entry.Version,
		"updatedAt": entry.UpdatedAt.Format(time.RFC3339),
		"contentType": map[string]any{"sys": map[string]any{
			"id": entry.ContentTypeID, "type": "Link", "linkType": "ContentType",
		}},
	}
	fields := map[string]any{}
	if g.kind == TokenDelivery {
		sys["locale"] = space.DefaultLocale
		for key, values := range entry.Fields {
			if value, ok := values[space.DefaultLocale]; ok {
				fields[key] = value
			}
		}
	} else {
		for key, values := range entry.Fields {
			fields[key] = values
		}
	}
	return map[string]any{"sys": sys, "fields": fields}
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	g, space, ok := s.authorize(w, r, r.PathValue("space"), false)
	if !ok {
		return
	}
	query := r.URL.Query()
	contentType := query.Get("content_type")

	s.mu.Lock()
	var matched []*EntryData
	for _, entry := range space.Entries {
		if contentType == "" || entry.ContentTypeID == contentType {
			matched = append(matched, entry)
		}
	}
	s.mu.Unlock()

	if order := query.Get("order"); strings.HasPrefix(order, "fields.") {
		field := strings.TrimPrefix(order, "fields.")
		sort.SliceStable(matched, func(i, j int) bool {
			return fmt.Sprint(matched[i].Fields[field][space.DefaultLocale]) < fmt.Sprint(matched[j].Fields[field][space.DefaultLocale])
		})
	} else {
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit >= 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	items := make([]any, 0, len(matched))
	for _, entry := range matched {
		items = append(items, s.entryPayload(g, space, entry))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sys":   map[string]any{"type": "Array"},
		"total": len(items),
		"skip":  0,
		"limit": len(items),
		"items": items,
	})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	g, space, ok := s.authorize(w, r, r.PathValue("space"), false)
	if !ok {
		return
	}
	s.mu.Lock()
	entry := space.Entries[r.PathValue("id")]
	s.mu.Unlock()
	if entry == nil {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	writeJSON(w, http.StatusOK, s.entryPayload(g, space, entry))
}

func (s *Server) handlePutEntry(w http.ResponseWriter, r *http.Request) {
	g, space, ok := s.authorize(w, r, r.PathValue("space"), true)
	if !ok {
		return
	}
	var body struct {
		Fields map[string]map[string]any `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	id := r.PathValue("id")

	s.mu.Lock()
	entry := space.Entries[id]
	if entry == nil {
		contentType := r.Header.Get("X-Contentful-Content-Type")
		if space.ContentTypes[contentType] == nil {
			s.mu.Unlock()
			writeError(w, http.StatusUnprocessableEntity, "UnknownContentType", "unknown content type")
			return
		}
		entry = &EntryData{ID: id, ContentTypeID: contentType}
		space.Entries[id] = entry
	} else if r.Header.Get("X-Contentful-Version") != strconv.Itoa(entry.Version) {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "VersionMismatch", "version mismatch")
		return
	}
	entry.Fields = body.Fields
	entry.Version++
	entry.UpdatedAt = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	payload := s.entryPayload(g, space, entry)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handlePublishEntry(w http.ResponseWriter, r *http.Request) {
	g, space, ok := s.authorize(w, r, r.PathValue("space"), true)
	if !ok {
		return
	}
	s.mu.Lock()
	entry := space.Entries[r.PathValue("id")]
	if entry == nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	entry.Version++
	payload := s.entryPayload(g, space, entry)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	g, space, ok := s.authorize(w, r, r.PathValue("space"), false)
	if !ok {
		return
	}
	s.mu.Lock()
	asset := space.Assets[r.PathValue("id")]
	s.mu.Unlock()
	if asset == nil {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	sys := map[string]any{"id": asset.ID, "type": "Asset"}
	fields := map[string]any{}
	if g.kind == TokenDelivery {
		sys["locale"] = space.DefaultLocale
		for key, values := range asset.Fields {
			fields[key] = values[space.DefaultLocale]
		}
	} else {
		for key, values := range asset.Fields {
			fields[key] = values
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sys": sys, "fields": fields})
}

func (s *Server) handleListContentTypes(w http.ResponseWriter, r *http.Request) {
	_, space, ok := s.authorize(w, r, r.PathValue("space"), false)
	if !ok {
		return
	}
	s.mu.Lock()
	items := make([]*remote.ContentType, 0, len(space.ContentTypes))
	for _, ct := range space.ContentTypes {
		items = append(items, ct)
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	writeJSON(w, http.StatusOK, map[string]any{"total": len(items), "items": items})
}

func (s *Server) handleGetContentType(w http.ResponseWriter, r *http.Request) {
	_, space, ok := s.authorize(w, r, r.PathValue("space"), false)
	if !ok {
		return
	}
	s.mu.Lock()
	ct := space.ContentTypes[r.PathValue("id")]
	s.mu.Unlock()
	if ct == nil {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	writeJSON(w, http.StatusOK, ct)
}

func (s *Server) handlePutContentType(w http.ResponseWriter, r *http.Request) {
	_, space, ok := s.authorize(w, r, r.PathValue("space"), true)
	if !ok {
		return
	}
	var ct remote.ContentType
	if err := json.NewDecoder(r.Body).Decode(&ct); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	id := r.PathValue("id")
	s.mu.Lock()
	existing := space.ContentTypes[id]
	version := 1
	if existing != nil {
		version = existing.Sys.Version + 1
	}
	ct.Sys = remote.Sys{ID: id, Type: "ContentType", Version: version}
	space.ContentTypes[id] = &ct
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, ct)
}

func (s *Server) handlePublishContentType(w http.ResponseWriter, r *http.Request) {
	_, space, ok := s.authorize(w, r, r.PathValue("space"), true)
	if !ok {
		return
	}
	s.mu.Lock()
	ct := space.ContentTypes[r.PathValue("id")]
	if ct == nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	if r.Header.Get("X-Contentful-Version") != strconv.Itoa(ct.Sys.Version) {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "VersionMismatch", "version mismatch")
		return
	}
	ct.Sys.PublishedVersion = ct.Sys.Version
	ct.Sys.Version++
	copied := *ct
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, copied)
}

func (s *Server) handleGetEditorInterface(w http.ResponseWriter, r *http.Request) {
	_, space, ok := s.authorize(w, r, r.PathValue("space"), true)
	if !ok {
		return
	}
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if space.ContentTypes[id] == nil {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	ei := space.EditorInterfaces[id]
	if ei == nil {
		ei = &remote.EditorInterface{Sys: remote.Sys{ID: "default", Type: "EditorInterface", Version: 1}}
		space.EditorInterfaces[id] = ei
	}
	writeJSON(w, http.StatusOK, ei)
}

func (s *Server) handlePutEditorInterface(w http.ResponseWriter, r *http.Request) {
	_, space, ok := s.authorize(w, r, r.PathValue("space"), true)
	if !ok {
		return
	}
	var body remote.EditorInterface
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	current := space.EditorInterfaces[id]
	if current == nil {
		current = &remote.EditorInterface{Sys: remote.Sys{ID: "default", Type: "EditorInterface", Version: 1}}
	}
	if r.Header.Get("X-Contentful-Version") != strconv.Itoa(current.Sys.Version) {
		writeError(w, http.StatusConflict, "VersionMismatch", "version mismatch")
		return
	}
	body.Sys = remote.Sys{ID: "default", Type: "EditorInterface", Version: current.Sys.Version + 1}
	space.EditorInterfaces[id] = &body
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleGetInstallation(w http.ResponseWriter, r *http.Request) {
	_, space, ok := s.authorize(w, r, r.PathValue("space"), true)
	if !ok {
		return
	}
	s.mu.Lock()
	params, found := space.Installations[r.PathValue("id")]
	s.mu.Unlock()
	if !found {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sys":        map[string]any{"type": "AppInstallation"},
		"parameters": params,
	})
}

func (s *Server) handlePutInstallation(w http.ResponseWriter, r *http.Request) {
	_, space, ok := s.authorize(w, r, r.PathValue("space"), true)
	if !ok {
		return
	}
	if r.Header.Get("X-Contentful-Marketplace") == "" {
		writeError(w, http.StatusForbidden, "MarketplaceTermsRequired", "terms not accepted")
		return
	}
	var body struct {
		Parameters json.RawMessage `json:"parameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	s.mu.Lock()
	space.Installations[r.PathValue("id")] = body.Parameters
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"sys":        map[string]any{"type": "AppInstallation"},
		"parameters": body.Parameters,
	})
}

func (s *Server) handleListAppDefinitions(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, "", true); !ok {
		return
	}
	s.mu.Lock()
	items := append([]*remote.AppDefinition(nil), s.appDefinitions[r.PathValue("org")]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleCreateAppDefinition(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r, "", true); !ok {
		return
	}
	var def remote.AppDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	org := r.PathValue("org")
	s.mu.Lock()
	s.sequence++
	def.Sys = remote.Sys{ID: fmt.Sprintf("appdef%d", s.sequence), Type: "AppDefinition"}
	s.appDefinitions[org] = append(s.appDefinitions[org], &def)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, def)
}

// Package http exposes the app backend consumed by the configuration screen
// and the entry-editor panel.
//
// Routes mount under /api by default:
//   - Configuration screen: /config, /config/role, /config/credentials,
//     /config/verify, /config/matches/{contentTypeID}, /config/configure
//   - Editor panels: /editor/sessions, /editor/sessions/{sessionID},
//     /editor/sessions/{sessionID}/markdown, /editor/sessions/{sessionID}/events
//
// Handler also serves GET /healthz. Host applications can mount the routes on
// their own chi router with Register.
package http

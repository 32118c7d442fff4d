// Package server provides HTTP routing, middleware, sessions and OAuth handling for the CLI and the web app.
//
// # Router Infrastructure
//
// The [Router] interface registers handlers behind a middleware stack. [BasicRouter] uses [http.ServeMux]
// method patterns, so "GET /playlists" answers POST with 405.
//
// [RequestLogger] logs method, path, status and duration. [Recoverer] turns panics into a JSON 500.
//
// # Web App
//
// [App] serves the browser flow:
//
//	/               welcome page with a login link
//	/login          stores a fresh OAuth state on the session, redirects to Spotify
//	/callback       checks state, exchanges the code, stores the credential
//	/playlists      runs the grouping pipeline and returns {"playlist #n": [names...]}
//	/refresh-token  refreshes an expired credential, then back to /playlists
//	/healthz        liveness
//
// A missing or expired credential is a redirect, never an error page. Sessions are rows in SQLite keyed by
// an HttpOnly cookie; see [SessionManager].
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves the single callback of `sortify auth`. It validates state, exchanges the code and
// delivers one [OAuthResult] on its channel. Later callbacks are rejected.
package server

package server

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/services"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/desertthunder/sortify/internal/tasks"
)

const welcomePage = `<!DOCTYPE html>
<html>
<head><title>sortify</title></head>
<body>
    <h1>sortify</h1>
    <p>Groups your saved Spotify tracks into playlists by how they sound.</p>
    <p><a href="/login">Log in with Spotify</a></p>
</body>
</html>
`

// App serves the browser flow: login, callback, grouping and token refresh.
type App struct {
	auth     services.OAuthService
	pipeline tasks.Runner
	sessions *SessionManager
	logger   *log.Logger
	now      func() time.Time
}

// NewApp creates an [App]. The pipeline should not refresh credentials itself,
// since expired sessions are sent through /refresh-token.
func NewApp(auth services.OAuthService, pipeline tasks.Runner, sessions *SessionManager, logger *log.Logger) *App {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &App{
		auth:     auth,
		pipeline: pipeline,
		sessions: sessions,
		logger:   shared.WithLogger(logger, "component", "web"),
		now:      time.Now,
	}
}

// Register adds the app's routes to r.
func (a *App) Register(r Router) {
	r.HandleFunc(http.MethodGet, "/{$}", a.Index)
	r.HandleFunc(http.MethodGet, "/healthz", a.Health)
	r.HandleFunc(http.MethodGet, "/login", a.Login)
	r.HandleFunc(http.MethodGet, "/callback", a.Callback)
	r.HandleFunc(http.MethodGet, "/playlists", a.Playlists)
	r.HandleFunc(http.MethodGet, "/refresh-token", a.RefreshToken)
}

// Index renders the welcome page.
func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, welcomePage)
}

// Health reports liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Login stores a fresh state on the session and redirects to Spotify's consent page.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	session, err := a.sessions.Start(w, r)
	if err != nil {
		a.fail(w, "failed to start session", err)
		return
	}

	state, err := shared.GenerateState()
	if err != nil {
		a.fail(w, "failed to generate state", err)
		return
	}

	session.SetState(state)
	if err := a.sessions.Save(session); err != nil {
		a.fail(w, "failed to save session", err)
		return
	}

	http.Redirect(w, r, a.auth.AuthURL(state), http.StatusFound)
}

// Callback completes the authorization-code flow.
func (a *App) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		a.respond(w, http.StatusBadRequest, errorBody(e))
		return
	}

	session, err := a.sessions.Load(r)
	if errors.Is(err, shared.ErrSessionNotFound) {
		a.respond(w, http.StatusBadRequest, errorBody(shared.ErrInvalidState.Error()))
		return
	} else if err != nil {
		a.fail(w, "failed to load session", err)
		return
	}

	state := session.State()
	if state == "" || subtle.ConstantTimeCompare([]byte(q.Get("state")), []byte(state)) != 1 {
		a.respond(w, http.StatusBadRequest, errorBody(shared.ErrInvalidState.Error()))
		return
	}

	code := q.Get("code")
	if code == "" {
		a.respond(w, http.StatusBadRequest, errorBody("missing authorization code"))
		return
	}

	cred, err := a.auth.Exchange(r.Context(), code)
	if err != nil {
		a.logger.Warn("code exchange failed", "session", session.ID(), "error", err)
		a.respond(w, http.StatusBadGateway, errorBody(shared.ErrAuthFailed.Error()))
		return
	}

	session.SetState("")
	session.SetCredential(cred)
	if err := a.sessions.Save(session); err != nil {
		a.fail(w, "failed to save session", err)
		return
	}

	a.logger.Info("session authorized", "session", session.ID())
	http.Redirect(w, r, "/playlists", http.StatusFound)
}

// Playlists groups the session user's library and returns the label to names map.
func (a *App) Playlists(w http.ResponseWriter, r *http.Request) {
	session, err := a.sessions.Load(r)
	if err != nil || !session.Authenticated() {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if session.Expired(a.now()) {
		http.Redirect(w, r, "/refresh-token", http.StatusFound)
		return
	}

	res, err := a.pipeline.Run(r.Context(), session.Credential(), nil)
	if err != nil {
		a.pipelineError(w, r, session, err)
		return
	}

	a.respond(w, http.StatusOK, res.Grouping)
}

func (a *App) pipelineError(w http.ResponseWriter, r *http.Request, session *models.Session, err error) {
	var fetchErr *shared.FetchError
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		a.logger.Info("spotify rejected session token", "session", session.ID())
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.Is(err, shared.ErrInsufficientData):
		a.respond(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.As(err, &fetchErr), errors.Is(err, shared.ErrMalformedFeatures):
		a.logger.Error("spotify request failed", "session", session.ID(), "error", err)
		a.respond(w, http.StatusBadGateway, errorBody(err.Error()))
	default:
		a.fail(w, "grouping failed", err)
	}
}

// RefreshToken refreshes an expired session credential, then returns to /playlists.
func (a *App) RefreshToken(w http.ResponseWriter, r *http.Request) {
	session, err := a.sessions.Load(r)
	if err != nil || !session.HasRefreshToken() {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	if session.Expired(a.now()) {
		cred, err := a.auth.Refresh(r.Context(), session.Credential())
		if err != nil {
			a.logger.Warn("token refresh failed", "session", session.ID(), "error", err)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		session.SetCredential(cred)
		if err := a.sessions.Save(session); err != nil {
			a.fail(w, "failed to save session", err)
			return
		}
		a.logger.Info("session token refreshed", "session", session.ID())
	}

	http.Redirect(w, r, "/playlists", http.StatusFound)
}

// respond writes v as JSON, logging encode and write failures.
func (a *App) respond(w http.ResponseWriter, status int, v any) {
	if err := writeJSON(w, status, v); err != nil {
		a.logger.Error("failed to write response", "status", status, "error", err)
	}
}

func (a *App) fail(w http.ResponseWriter, msg string, err error) {
	a.logger.Error(msg, "error", err)
	a.respond(w, http.StatusInternalServerError, errorBody(msg))
}

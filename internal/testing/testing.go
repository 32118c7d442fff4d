// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/sortify/internal/models"
)

const (
	// TestAccessToken is the bearer token [FakeSpotify] accepts by default.
	TestAccessToken = "test-access-token"
	// RefreshedAccessToken is issued by the fake token endpoint for refresh grants.
	RefreshedAccessToken = "refreshed-access-token"
	// ExchangedAccessToken is issued by the fake token endpoint for authorization codes.
	ExchangedAccessToken = "exchanged-access-token"
	// ExchangedRefreshToken accompanies [ExchangedAccessToken].
	ExchangedRefreshToken = "exchanged-refresh-token"
	// BadCode is rejected by the fake token endpoint.
	BadCode = "bad-code"
)

// FakeTrack is a saved track served by [FakeSpotify].
//
// A nil Features makes the audio-features endpoint return null for the track. Local tracks are served without an id.
type FakeTrack struct {
	ID       string
	Name     string
	Features []float64
	Local    bool
}

// FakeSpotify is an httptest server imitating the accounts and Web API endpoints sortify calls.
type FakeSpotify struct {
	Server      *httptest.Server
	Tracks      []FakeTrack
	PageSize    int
	AccessToken string

	// FeatureStatus, when non-zero, is returned by the audio-features endpoint instead of a body.
	FeatureStatus int
	// ShortFeatures drops the last entry of every audio-features response.
	ShortFeatures bool

	TokenHits   atomic.Int32
	PageHits    atomic.Int32
	FeatureHits atomic.Int32

	mu         sync.Mutex
	featureIDs [][]string
}

// NewFakeSpotify starts a fake server and closes it when t finishes.
func NewFakeSpotify(t *testing.T, tracks []FakeTrack) *FakeSpotify {
	t.Helper()

	f := &FakeSpotify{Tracks: tracks, PageSize: 50, AccessToken: TestAccessToken}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", f.handleToken)
	mux.HandleFunc("/authorize", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/me", f.authorized(f.handleMe))
	mux.HandleFunc("/v1/me/tracks", f.authorized(f.handleTracks))
	mux.HandleFunc("/v1/audio-features", f.authorized(f.handleFeatures))

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeSpotify) AuthURL() string  { return f.Server.URL + "/authorize" }
func (f *FakeSpotify) TokenURL() string { return f.Server.URL + "/api/token" }
func (f *FakeSpotify) APIURL() string   { return f.Server.URL + "/v1" }

// FeatureRequests returns the id lists received by the audio-features endpoint, in arrival order.
func (f *FakeSpotify) FeatureRequests() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.featureIDs))
	copy(out, f.featureIDs)
	return out
}

func (f *FakeSpotify) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.AccessToken {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"status": 401, "message": "The access token expired"},
			})
			return
		}
		next(w, r)
	}
}

func (f *FakeSpotify) handleToken(w http.ResponseWriter, r *http.Request) {
	f.TokenHits.Add(1)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		if r.PostForm.Get("code") == BadCode {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  ExchangedAccessToken,
			"refresh_token": ExchangedRefreshToken,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	case "refresh_token":
		if r.PostForm.Get("refresh_token") == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": RefreshedAccessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (f *FakeSpotify) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"id":           "test-user",
		"display_name": "Test User",
		"email":        "test@example.com",
	})
}

func (f *FakeSpotify) handleTracks(w http.ResponseWriter, r *http.Request) {
	f.PageHits.Add(1)

	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 || limit > f.PageSize {
		limit = f.PageSize
	}

	end := min(offset+limit, len(f.Tracks))
	items := make([]map[string]any, 0, max(end-offset, 0))
	for i := offset; i < end; i++ {
		tr := f.Tracks[i]
		track := map[string]any{"name": tr.Name, "id": tr.ID}
		if tr.Local {
			track["id"] = nil
		}
		items = append(items, map[string]any{"added_at": "2024-01-01T00:00:00Z", "track": track})
	}

	var next any
	if end < len(f.Tracks) {
		next = fmt.Sprintf("%s/v1/me/tracks?offset=%d&limit=%d", f.Server.URL, end, limit)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"total":  len(f.Tracks),
		"limit":  limit,
		"offset": offset,
		"next":   next,
	})
}

func (f *FakeSpotify) handleFeatures(w http.ResponseWriter, r *http.Request) {
	f.FeatureHits.Add(1)

	ids := strings.Split(r.URL.Query().Get("ids"), ",")
	f.mu.Lock()
	f.featureIDs = append(f.featureIDs, ids)
	f.mu.Unlock()

	if f.FeatureStatus != 0 {
		writeJSON(w, f.FeatureStatus, map[string]any{"error": map[string]any{"status": f.FeatureStatus}})
		return
	}

	byID := make(map[string]FakeTrack, len(f.Tracks))
	for _, tr := range f.Tracks {
		byID[tr.ID] = tr
	}

	entries := make([]any, 0, len(ids))
	for _, id := range ids {
		tr, ok := byID[id]
		if !ok || tr.Features == nil {
			entries = append(entries, nil)
			continue
		}
		entry := map[string]any{"id": id}
		for i, name := range models.FeatureNames {
			if i < len(tr.Features) {
				entry[name] = tr.Features[i]
			}
		}
		entries = append(entries, entry)
	}
	if f.ShortFeatures && len(entries) > 0 {
		entries = entries[:len(entries)-1]
	}

	writeJSON(w, http.StatusOK, map[string]any{"audio_features": entries})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// GenerateTracks builds n tracks with distinct, spread-out features. Names are "track-<i>".
func GenerateTracks(n int) []FakeTrack {
	tracks := make([]FakeTrack, n)
	for i := range n {
		x := float64(i)
		tracks[i] = FakeTrack{
			ID:   fmt.Sprintf("id%03d", i),
			Name: fmt.Sprintf("track-%d", i),
			Features: []float64{
				float64(i%5) / 4,
				float64(i%7) / 6,
				float64(i%3) / 2,
				-30 + x,
				float64(i%4) / 3,
				60 + 7*x,
				float64(i%6) / 5,
			},
		}
	}
	return tracks
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

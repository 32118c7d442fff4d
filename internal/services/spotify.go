// Spotify API implementation of the service interfaces
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// MaxPageSize is the largest page the saved-tracks endpoint accepts.
	MaxPageSize = 50
	// MaxFeatureBatch is the largest id list the audio-features endpoint accepts.
	MaxFeatureBatch = 100
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track. ID is empty for local files.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifySavedTrack represents a track saved in the user's library. Track is nil for unavailable items.
type SpotifySavedTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of saved tracks.
type SpotifyPaginatedTracks struct {
	Items    []SpotifySavedTrack `json:"items"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
}

// HasNext reports whether another page follows.
func (p *SpotifyPaginatedTracks) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

// SpotifyAudioFeatures is an audio-features object restricted to the clustering attributes.
//
// Attributes are pointers so an absent field can be told apart from a zero value.
type SpotifyAudioFeatures struct {
	ID               string   `json:"id"`
	Danceability     *float64 `json:"danceability"`
	Energy           *float64 `json:"energy"`
	Instrumentalness *float64 `json:"instrumentalness"`
	Loudness         *float64 `json:"loudness"`
	Speechiness      *float64 `json:"speechiness"`
	Tempo            *float64 `json:"tempo"`
	Valence          *float64 `json:"valence"`
}

type audioFeaturesResponse struct {
	AudioFeatures []*SpotifyAudioFeatures `json:"audio_features"`
}

// Endpoints overrides the Spotify URLs. Empty fields use the public endpoints.
type Endpoints struct {
	AuthURL  string
	TokenURL string
	APIURL   string
}

// SpotifyService implements [OAuthService], [LibrarySource] and [FeatureSource] for the Spotify Web API.
//
// It holds no user state: every API call takes the caller's [models.Credential].
type SpotifyService struct {
	config     *oauth2.Config
	apiURL     string
	pageSize   int
	httpClient *http.Client
	now        func() time.Time
}

var (
	_ OAuthService  = (*SpotifyService)(nil)
	_ LibrarySource = (*SpotifyService)(nil)
	_ FeatureSource = (*SpotifyService)(nil)
)

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
//
// A nil client uses [http.DefaultClient].
func NewSpotifyService(credentials map[string]string, endpoints Endpoints, client *http.Client) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	if endpoints.AuthURL == "" {
		endpoints.AuthURL = spotifyAuthURL
	}
	if endpoints.TokenURL == "" {
		endpoints.TokenURL = spotifyTokenURL
	}
	if endpoints.APIURL == "" {
		endpoints.APIURL = spotifyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"user-library-read",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:   endpoints.AuthURL,
			TokenURL:  endpoints.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &SpotifyService{
		config:     config,
		apiURL:     strings.TrimRight(endpoints.APIURL, "/"),
		pageSize:   MaxPageSize,
		httpClient: client,
		now:        time.Now,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SetPageSize sets the saved-tracks page size, clamped to [1, MaxPageSize].
func (s *SpotifyService) SetPageSize(n int) {
	switch {
	case n <= 0:
		n = MaxPageSize
	case n > MaxPageSize:
		n = MaxPageSize
	}
	s.pageSize = n
}

// AuthURL returns the OAuth2 authorization URL for user login.
//
// show_dialog forces the consent screen so a different account can be chosen.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// OAuthConfig returns the OAuth2 configuration.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// oauthContext makes the oauth2 package use the service's HTTP client.
func (s *SpotifyService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// Exchange trades an authorization code for a credential.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (models.Credential, error) {
	if code == "" {
		return models.Credential{}, fmt.Errorf("%w: empty authorization code", shared.ErrInvalidInput)
	}

	token, err := s.config.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return models.Credential{}, fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err)
	}

	return models.CredentialFromToken(token, ""), nil
}

// Refresh returns a new credential when cred has expired.
//
// An unexpired credential is returned as-is without a network call.
func (s *SpotifyService) Refresh(ctx context.Context, cred models.Credential) (models.Credential, error) {
	if !cred.Expired(s.now()) {
		return cred, nil
	}
	if cred.RefreshToken == "" {
		return cred, shared.ErrNoRefreshToken
	}

	// An empty access token makes the token source refresh unconditionally.
	src := s.config.TokenSource(s.oauthContext(ctx), &oauth2.Token{RefreshToken: cred.RefreshToken})
	token, err := src.Token()
	if err != nil {
		return cred, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	return models.CredentialFromToken(token, cred.RefreshToken), nil
}

// doRequest performs an authenticated GET against rawURL and decodes the JSON body into result.
//
// Failures are returned as [*shared.FetchError].
func (s *SpotifyService) doRequest(ctx context.Context, cred models.Credential, rawURL string, result any) error {
	if cred.AccessToken == "" {
		return shared.ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &shared.FetchError{Op: http.MethodGet, URL: rawURL, Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &shared.FetchError{Op: http.MethodGet, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &shared.FetchError{Op: http.MethodGet, URL: rawURL, StatusCode: resp.StatusCode}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &shared.FetchError{
				Op:         http.MethodGet,
				URL:        rawURL,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("failed to decode response: %w", err),
			}
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context, cred models.Credential) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, cred, s.apiURL+"/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SavedTracks retrieves one page of the user's saved tracks.
//
// pageURL is a "next" link from a previous page and is followed verbatim. When empty, the first page is requested.
func (s *SpotifyService) SavedTracks(ctx context.Context, cred models.Credential, pageURL string) (*SpotifyPaginatedTracks, error) {
	if pageURL == "" {
		pageURL = fmt.Sprintf("%s/me/tracks?limit=%d&offset=0", s.apiURL, s.pageSize)
	}

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, cred, pageURL, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// AudioFeatures retrieves audio features for up to [MaxFeatureBatch] tracks.
//
// The response must contain exactly one entry (possibly null) per requested id.
func (s *SpotifyService) AudioFeatures(ctx context.Context, cred models.Credential, ids []string) ([]*SpotifyAudioFeatures, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no track IDs provided", shared.ErrInvalidInput)
	}
	if len(ids) > MaxFeatureBatch {
		return nil, fmt.Errorf("%w: maximum %d track IDs allowed, got %d", shared.ErrInvalidInput, MaxFeatureBatch, len(ids))
	}

	endpoint := fmt.Sprintf("%s/audio-features?ids=%s", s.apiURL, url.QueryEscape(strings.Join(ids, ",")))

	var response audioFeaturesResponse
	if err := s.doRequest(ctx, cred, endpoint, &response); err != nil {
		return nil, err
	}

	if len(response.AudioFeatures) != len(ids) {
		return nil, fmt.Errorf("%w: requested %d ids, got %d entries", shared.ErrMalformedFeatures, len(ids), len(response.AudioFeatures))
	}

	return response.AudioFeatures, nil
}

// package services defines the interfaces sortify needs from a music streaming API
//
// Spotify is the only implementation.
package services

import (
	"context"

	"github.com/desertthunder/sortify/internal/models"
	"golang.org/x/oauth2"
)

// OAuthService covers the OAuth2 authorization-code flow.
type OAuthService interface {
	// AuthURL returns the provider's authorization URL carrying state.
	AuthURL(state string) string

	// Exchange trades an authorization code for a credential.
	Exchange(ctx context.Context, code string) (models.Credential, error)

	// Refresh returns a fresh credential when cred has expired and cred unchanged otherwise.
	// Implementations must not touch the network for an unexpired credential.
	Refresh(ctx context.Context, cred models.Credential) (models.Credential, error)

	// OAuthConfig exposes the underlying config for callback handlers.
	OAuthConfig() *oauth2.Config
}

// LibrarySource pages through a user's saved tracks.
type LibrarySource interface {
	// SavedTracks fetches one page. An empty pageURL requests the first page.
	SavedTracks(ctx context.Context, cred models.Credential, pageURL string) (*SpotifyPaginatedTracks, error)
}

// FeatureSource looks up audio features for a batch of track ids.
type FeatureSource interface {
	// AudioFeatures returns one entry per id, in id order. A nil entry means the API had no features for that id.
	AudioFeatures(ctx context.Context, cred models.Credential, ids []string) ([]*SpotifyAudioFeatures, error)
}

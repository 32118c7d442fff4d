// Package services talks to the Spotify accounts service and Web API.
//
// # Interfaces
//
// Callers depend on narrow interfaces rather than on [SpotifyService] directly:
//   - [OAuthService] : authorization URL, code exchange and token refresh
//   - [LibrarySource] : one page of the user's saved tracks
//   - [FeatureSource] : audio features for a batch of up to 100 track ids
//
// # Credentials
//
// [SpotifyService] is stateless with respect to users. Every call takes a [models.Credential],
// so a single service instance can serve many browser sessions.
//
// Refresh only contacts the token endpoint once the credential's expiry has passed.
//
// # Error Handling
//
// Failed API calls return [*shared.FetchError], which unwraps to:
//   - [shared.ErrAPIRequest] : always
//   - [shared.ErrNotAuthenticated] : when the API answered 401
//
// An audio-features response whose length differs from the request returns [shared.ErrMalformedFeatures].
package services

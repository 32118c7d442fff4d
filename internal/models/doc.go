// Package models defines the domain types for grouping a Spotify library into playlists.
//
// Request-scoped values never outlive a single pipeline run:
//   - [Track] : saved track identifier and display name
//   - [Batch] : up to 100 tracks submitted together for audio features
//   - [Library] : the ordered saved-track list plus its batches
//   - [FeatureVector] : the seven audio attributes used for clustering
//   - [Grouping] : cluster label to track names, plus the tracks left out
//
// [Credential] carries a user's OAuth tokens into the pipeline as a parameter.
//
// [Session] is the only persistent entity. It implements [Model] and is stored by the session repository.
package models

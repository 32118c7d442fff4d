// Package tasks orchestrates the grouping pipeline with real-time progress reporting.
//
// # Pipeline
//
// [Pipeline.Run] performs, in order:
//
//  1. Credential refresh, only when an [services.OAuthService] is configured and the credential has expired
//  2. Library fetch: every saved-tracks page, partitioned into batches of at most 100 tracks
//  3. Feature fetch: one audio-features request per batch, spread over a rate-limited worker pool
//  4. Clustering: min-max normalization followed by seeded k-means
//
// The [Result] carries the credential actually used, so callers can persist a refreshed token.
//
// # Progress Reporting
//
// Progress is sent on an optional channel using select with default, so a slow or absent reader never blocks a run.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// The final [Complete] update carries the [models.Grouping].
package tasks

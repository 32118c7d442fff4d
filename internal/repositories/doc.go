// Package repositories implements SQLite persistence for browser sessions.
//
// [SessionRepository] implements [models.Repository] for [models.Session]. A session row is created when a visitor
// starts the login flow, holds the pending OAuth state until the callback, and then holds the user's Spotify tokens.
//
// Sequence numbers provide stable, human-readable ordering (e.g., session #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories

// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through three views:
//  1. [LoadingView] : spinner and phase messages while the grouping pipeline runs
//  2. [PlaylistListView] : the generated playlists with their moods, plus the excluded tracks
//  3. [TrackListView] : the track names of one playlist
//
// Progress updates flow through a channel from [tasks.Runner]; each one is read by a [tea.Cmd] and turned
// into a [Msg], so the pipeline never blocks on rendering.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with help from charmbracelet/bubbles/help.
package ui

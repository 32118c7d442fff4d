package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/sortify/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
//
// The excluded tracks are shown as a playlistItem labelled [models.NotIncludedKey].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Label + " " + i.playlist.Mood }
func (i playlistItem) Title() string       { return i.playlist.Label }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", len(i.playlist.Tracks))
	if i.playlist.Mood != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Mood)
	}
	return desc
}

// trackItem is one track name within a playlist.
type trackItem struct {
	position int
	name     string
}

func (i trackItem) FilterValue() string { return i.name }
func (i trackItem) Title() string       { return i.name }
func (i trackItem) Description() string { return fmt.Sprintf("#%d", i.position) }

// playlistItems lists the playlists of g, then the excluded tracks if any.
func playlistItems(g *models.Grouping) []list.Item {
	items := make([]list.Item, 0, len(g.Playlists)+1)
	for _, p := range g.Playlists {
		items = append(items, playlistItem{playlist: p})
	}
	if len(g.NotIncluded) > 0 {
		items = append(items, playlistItem{playlist: models.Playlist{
			Label:  models.NotIncludedKey,
			Tracks: g.NotIncluded,
		}})
	}
	return items
}

func trackItems(p models.Playlist) []list.Item {
	items := make([]list.Item, len(p.Tracks))
	for i, name := range p.Tracks {
		items[i] = trackItem{position: i + 1, name: name}
	}
	return items
}

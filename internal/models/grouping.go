package models

import (
	"encoding/json"
	"fmt"
)

// NotIncludedKey labels the tracks that had no audio features.
const NotIncludedKey = "Not included:"

// PlaylistLabel returns the label for a 0-indexed cluster: "playlist #1" for cluster 0.
func PlaylistLabel(cluster int) string {
	return fmt.Sprintf("playlist #%d", cluster+1)
}

// Playlist is one cluster's tracks.
type Playlist struct {
	Label  string   `json:"label"`
	Tracks []string `json:"tracks"`
	Mood   string   `json:"mood,omitempty"` // derived from the cluster's mean features
}

// Grouping is the result of clustering a library.
//
// Playlists is indexed by cluster id and always has one entry per cluster, possibly with no tracks.
type Grouping struct {
	Playlists   []Playlist
	NotIncluded []string
}

// Map returns label to track names, with [NotIncludedKey] present only when tracks were excluded.
func (g *Grouping) Map() map[string][]string {
	out := make(map[string][]string, len(g.Playlists)+1)
	for _, p := range g.Playlists {
		tracks := p.Tracks
		if tracks == nil {
			tracks = []string{}
		}
		out[p.Label] = tracks
	}
	if len(g.NotIncluded) > 0 {
		out[NotIncludedKey] = g.NotIncluded
	}
	return out
}

// MarshalJSON encodes the grouping as the label to names object returned by the web API.
func (g *Grouping) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Map())
}

// TrackCount returns the number of tracks assigned to playlists.
func (g *Grouping) TrackCount() int {
	n := 0
	for _, p := range g.Playlists {
		n += len(p.Tracks)
	}
	return n
}

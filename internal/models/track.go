package models

// Track is a saved track. Display names are not guaranteed unique.
type Track struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Batch is a group of tracks whose audio features are requested together.
type Batch []Track

// IDs returns the track identifiers in batch order.
func (b Batch) IDs() []string {
	ids := make([]string, len(b))
	for i, t := range b {
		ids[i] = t.ID
	}
	return ids
}

// Library is a user's saved tracks in API order, partitioned into batches.
//
// Concatenating Batches yields Tracks. Unresolvable holds saved tracks without an id (local files),
// which have no audio features to request.
type Library struct {
	Tracks       []Track
	Batches      []Batch
	Unresolvable []Track
}

// Names returns the display names of all tracks in order.
func (l *Library) Names() []string {
	names := make([]string, len(l.Tracks))
	for i, t := range l.Tracks {
		names[i] = t.Name
	}
	return names
}

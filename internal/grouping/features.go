package grouping

import (
	"fmt"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/services"
	"github.com/desertthunder/sortify/internal/shared"
)

// pairBatch aligns an audio-features response with the batch it was requested for.
//
// Entries pair with tracks by position. A null entry leaves the track without features.
// A response of the wrong length, an entry for a different id, or an entry missing an attribute is malformed.
func pairBatch(batch models.Batch, entries []*services.SpotifyAudioFeatures) ([]models.TrackFeatures, error) {
	if len(entries) != len(batch) {
		return nil, fmt.Errorf("%w: batch of %d tracks, %d feature entries", shared.ErrMalformedFeatures, len(batch), len(entries))
	}

	out := make([]models.TrackFeatures, len(batch))
	for i, track := range batch {
		out[i].Track = track
		entry := entries[i]
		if entry == nil {
			continue
		}
		if entry.ID != "" && entry.ID != track.ID {
			return nil, fmt.Errorf("%w: entry %d is for %q, expected %q", shared.ErrMalformedFeatures, i, entry.ID, track.ID)
		}
		vec, err := toVector(entry)
		if err != nil {
			return nil, fmt.Errorf("track %q: %w", track.ID, err)
		}
		out[i].Features = vec
	}
	return out, nil
}

// toVector requires every clustering attribute to be present.
func toVector(f *services.SpotifyAudioFeatures) (*models.FeatureVector, error) {
	fields := [models.FeatureCount]*float64{
		f.Danceability,
		f.Energy,
		f.Instrumentalness,
		f.Loudness,
		f.Speechiness,
		f.Tempo,
		f.Valence,
	}

	row := make([]float64, models.FeatureCount)
	for i, v := range fields {
		if v == nil {
			return nil, fmt.Errorf("%w: missing %s", shared.ErrMalformedFeatures, models.FeatureNames[i])
		}
		row[i] = *v
	}

	vec := models.FeatureVectorFrom(row)
	return &vec, nil
}

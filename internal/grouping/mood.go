package grouping

import "github.com/desertthunder/sortify/internal/models"

// Mood is a descriptive name for a cluster, derived from its mean raw features.
type Mood struct {
	Name        string
	Description string
}

// MoodFor places a centroid in an energy/valence quadrant.
//
//   - High energy, high valence: "Upbeat Party"
//   - High energy, low valence: "Intense & Dark"
//   - Low energy, high valence: "Chill & Happy"
//   - Low energy, low valence: "Reflective & Melancholy"
//
// Clusters whose instrumentalness exceeds 0.6 get an "(Instrumental)" suffix.
func MoodFor(centroid models.FeatureVector) Mood {
	highEnergy := centroid.Energy > 0.6
	highValence := centroid.Valence > 0.5

	var m Mood
	switch {
	case highEnergy && highValence:
		m = Mood{"Upbeat Party", "High-energy, positive tracks for dancing and celebrations"}
	case highEnergy:
		m = Mood{"Intense & Dark", "Driving energy with darker emotional tones"}
	case highValence:
		m = Mood{"Chill & Happy", "Relaxed and uplifting"}
	default:
		m = Mood{"Reflective & Melancholy", "Contemplative and introspective"}
	}

	if centroid.Instrumentalness > 0.6 {
		m.Name += " (Instrumental)"
	}
	return m
}

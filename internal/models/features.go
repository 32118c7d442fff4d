package models

// FeatureNames lists the clustering columns in table order.
var FeatureNames = [...]string{
	"danceability",
	"energy",
	"instrumentalness",
	"loudness",
	"speechiness",
	"tempo",
	"valence",
}

// FeatureCount is the width of a feature row.
const FeatureCount = len(FeatureNames)

// FeatureVector holds the audio attributes used for clustering.
//
// Loudness (dB) and tempo (BPM) are wide-range; the rest are typically in [0, 1].
type FeatureVector struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Instrumentalness float64 `json:"instrumentalness"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
	Valence          float64 `json:"valence"`
}

// Values returns the vector as a row in [FeatureNames] order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.Danceability,
		f.Energy,
		f.Instrumentalness,
		f.Loudness,
		f.Speechiness,
		f.Tempo,
		f.Valence,
	}
}

// FeatureVectorFrom builds a vector from a row in [FeatureNames] order.
func FeatureVectorFrom(row []float64) FeatureVector {
	var f FeatureVector
	if len(row) < FeatureCount {
		return f
	}
	f.Danceability = row[0]
	f.Energy = row[1]
	f.Instrumentalness = row[2]
	f.Loudness = row[3]
	f.Speechiness = row[4]
	f.Tempo = row[5]
	f.Valence = row[6]
	return f
}

// TrackFeatures pairs a track with its features. Features is nil when the API had none for the track.
type TrackFeatures struct {
	Track    Track
	Features *FeatureVector
}

package grouping

import (
	"math"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Table is the feature matrix for the tracks that have audio features. Row i belongs to Tracks[i].
type Table struct {
	Tracks []models.Track
	Raw    *mat.Dense
}

// Split separates tracks with features from those without, preserving order in both.
//
// The returned table is nil when no track has features.
func Split(paired []models.TrackFeatures) (*Table, []models.Track) {
	var (
		included []models.Track
		excluded []models.Track
		data     []float64
	)

	for _, tf := range paired {
		if tf.Features == nil {
			excluded = append(excluded, tf.Track)
			continue
		}
		included = append(included, tf.Track)
		data = append(data, tf.Features.Values()...)
	}

	if len(included) == 0 {
		return nil, excluded
	}
	return &Table{Tracks: included, Raw: mat.NewDense(len(included), models.FeatureCount, data)}, excluded
}

// Rows returns the number of tracks in the table.
func (t *Table) Rows() int {
	if t == nil || t.Raw == nil {
		return 0
	}
	r, _ := t.Raw.Dims()
	return r
}

// Normalize min-max scales every column of m into [0, 1].
//
// A constant column scales to 0. A column containing NaN or Inf returns [*shared.NormalizationError].
func Normalize(m *mat.Dense) (*mat.Dense, error) {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	col := make([]float64, rows)

	for j := range cols {
		mat.Col(col, j, m)
		if err := checkFinite(j, col); err != nil {
			return nil, err
		}

		lo, hi := floats.Min(col), floats.Max(col)
		span := hi - lo
		if span == 0 {
			continue
		}

		floats.AddConst(-lo, col)
		floats.Scale(1/span, col)
		out.SetCol(j, col)
	}

	return out, nil
}

func checkFinite(j int, col []float64) error {
	name := columnName(j)
	if floats.HasNaN(col) {
		return &shared.NormalizationError{Column: name, Reason: "contains NaN"}
	}
	for _, v := range col {
		if math.IsInf(v, 0) {
			return &shared.NormalizationError{Column: name, Reason: "contains Inf"}
		}
	}
	return nil
}

func columnName(j int) string {
	if j >= 0 && j < models.FeatureCount {
		return models.FeatureNames[j]
	}
	return "unknown"
}

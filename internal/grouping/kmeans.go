package grouping

import (
	"math"
	"math/rand"

	"github.com/desertthunder/sortify/internal/shared"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KMeans partitions rows of a matrix into K clusters with Lloyd's algorithm and k-means++ seeding.
//
// The generator is seeded from Seed, so the same input always produces the same labels.
// Runs restarts are made and the one with the lowest inertia is kept.
type KMeans struct {
	K       int
	Seed    int64
	MaxIter int
	Runs    int
}

// Result is a fitted clustering. Labels[i] is the cluster of row i.
type Result struct {
	Labels     []int
	Centroids  *mat.Dense
	Inertia    float64
	Iterations int
}

// Sizes returns the number of rows in each cluster.
func (r *Result) Sizes(k int) []int {
	sizes := make([]int, k)
	for _, l := range r.Labels {
		sizes[l]++
	}
	return sizes
}

// Fit clusters the rows of data.
//
// Fewer than K rows returns [*shared.InsufficientDataError].
func (km KMeans) Fit(data *mat.Dense) (*Result, error) {
	n := 0
	if data != nil {
		n, _ = data.Dims()
	}
	if km.K <= 0 || n < km.K {
		return nil, &shared.InsufficientDataError{Have: n, Need: km.K}
	}

	maxIter := km.MaxIter
	if maxIter <= 0 {
		maxIter = 300
	}
	runs := km.Runs
	if runs <= 0 {
		runs = 1
	}

	rng := rand.New(rand.NewSource(km.Seed))

	var best *Result
	for range runs {
		res := km.run(data, rng, maxIter)
		if best == nil || res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

func (km KMeans) run(data *mat.Dense, rng *rand.Rand, maxIter int) *Result {
	n, _ := data.Dims()
	centroids := seedCentroids(data, km.K, rng)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	iter, converged := 0, false
	for iter < maxIter {
		iter++
		if !assign(data, centroids, labels) {
			converged = true
			break
		}
		updateCentroids(data, centroids, labels)
	}
	// Labels must refer to the final centroids when the iteration cap cut the loop short.
	if !converged {
		assign(data, centroids, labels)
	}

	return &Result{
		Labels:     labels,
		Centroids:  centroids,
		Inertia:    inertia(data, centroids, labels),
		Iterations: iter,
	}
}

// seedCentroids picks initial centroids with k-means++: each next centroid is a row drawn with
// probability proportional to its squared distance from the nearest centroid chosen so far.
func seedCentroids(data *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := data.Dims()
	centroids := mat.NewDense(k, d, nil)
	centroids.SetRow(0, data.RawRowView(rng.Intn(n)))

	dist := make([]float64, n)
	for i := range n {
		dist[i] = sqDist(data.RawRowView(i), centroids.RawRowView(0))
	}

	for c := 1; c < k; c++ {
		total := floats.Sum(dist)
		var pick int
		if total == 0 {
			// every row coincides with a chosen centroid
			pick = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			acc := 0.0
			pick = -1
			for i, w := range dist {
				if w == 0 {
					continue
				}
				acc += w
				pick = i
				if acc >= target {
					break
				}
			}
		}

		centroids.SetRow(c, data.RawRowView(pick))
		for i := range n {
			dist[i] = math.Min(dist[i], sqDist(data.RawRowView(i), centroids.RawRowView(c)))
		}
	}

	return centroids
}

// assign moves every row to its nearest centroid, lowest index winning ties. It reports whether any label changed.
func assign(data, centroids *mat.Dense, labels []int) bool {
	k, _ := centroids.Dims()
	changed := false
	for i := range labels {
		row := data.RawRowView(i)
		best, bestDist := 0, math.Inf(1)
		for c := range k {
			if dd := sqDist(row, centroids.RawRowView(c)); dd < bestDist {
				best, bestDist = c, dd
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// updateCentroids sets each centroid to the mean of its rows.
//
// An empty cluster takes the row farthest from its own centroid and that row is relabelled,
// so no cluster stays empty while there are at least K distinct rows.
func updateCentroids(data, centroids *mat.Dense, labels []int) {
	k, d := centroids.Dims()
	sums := mat.NewDense(k, d, nil)
	counts := make([]int, k)

	for i, l := range labels {
		floats.Add(sums.RawRowView(l), data.RawRowView(i))
		counts[l]++
	}

	for c := range k {
		if counts[c] == 0 {
			continue
		}
		row := sums.RawRowView(c)
		floats.Scale(1/float64(counts[c]), row)
		centroids.SetRow(c, row)
	}

	for c := range k {
		if counts[c] > 0 {
			continue
		}
		far, farDist := -1, 0.0
		for i, l := range labels {
			if counts[l] <= 1 {
				continue
			}
			if dd := sqDist(data.RawRowView(i), centroids.RawRowView(l)); dd > farDist {
				far, farDist = i, dd
			}
		}
		if far < 0 {
			continue
		}
		counts[labels[far]]--
		labels[far] = c
		counts[c] = 1
		centroids.SetRow(c, data.RawRowView(far))
	}
}

func inertia(data, centroids *mat.Dense, labels []int) float64 {
	total := 0.0
	for i, l := range labels {
		total += sqDist(data.RawRowView(i), centroids.RawRowView(l))
	}
	return total
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// package grouping turns a batched library into mood playlists.
//
// Audio features are fetched per batch, min-max normalized per column, and clustered with k-means.
// Tracks without features are reported separately instead of being clustered.
package grouping

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/services"
	"github.com/desertthunder/sortify/internal/shared"
	"golang.org/x/time/rate"
)

// BatchFunc is called as each feature batch completes.
type BatchFunc func(done, total int)

// Engine fetches audio features and clusters tracks.
type Engine struct {
	source  services.FeatureSource
	kmeans  KMeans
	workers int
	limiter *rate.Limiter
	logger  *log.Logger
	onBatch BatchFunc
}

// NewEngine creates an [Engine] from validated grouping settings.
//
// A zero RateLimit disables throttling of feature requests.
func NewEngine(source services.FeatureSource, cfg shared.GroupingConfig, logger *log.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Engine{
		source: source,
		kmeans: KMeans{
			K:       cfg.Clusters,
			Seed:    cfg.Seed,
			MaxIter: cfg.MaxIterations,
			Runs:    cfg.Runs,
		},
		workers: max(cfg.Workers, 1),
		limiter: limiter,
		logger:  shared.WithLogger(logger, "component", "grouping"),
	}, nil
}

// OnBatch registers a callback for feature batch progress.
func (e *Engine) OnBatch(fn BatchFunc) {
	e.onBatch = fn
}

// Clusters returns the number of playlists every grouping has.
func (e *Engine) Clusters() int {
	return e.kmeans.K
}

// Group fetches features for every batch and clusters the tracks that have them.
func (e *Engine) Group(ctx context.Context, cred models.Credential, batches []models.Batch) (*models.Grouping, error) {
	paired, err := e.FetchFeatures(ctx, cred, batches)
	if err != nil {
		return nil, err
	}
	return e.Cluster(paired)
}

type featureJob struct {
	index int
	batch models.Batch
}

// FetchFeatures requests audio features for each batch and pairs them with the batch's tracks.
//
// Batches are fetched by a pool of workers. Output keeps library order regardless of completion order.
// The first failure cancels outstanding requests and is returned.
func (e *Engine) FetchFeatures(ctx context.Context, cred models.Credential, batches []models.Batch) ([]models.TrackFeatures, error) {
	if len(batches) == 0 {
		return []models.TrackFeatures{}, nil
	}

	fctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]models.TrackFeatures, len(batches))
	jobs := make(chan featureJob, len(batches))
	for i, b := range batches {
		jobs <- featureJob{index: i, batch: b}
	}
	close(jobs)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
		done     atomic.Int32
	)

	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for range min(e.workers, len(batches)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if fctx.Err() != nil {
					return
				}
				if err := e.limiter.Wait(fctx); err != nil {
					fail(err)
					return
				}

				paired, err := e.fetchBatch(fctx, cred, job)
				if err != nil {
					fail(err)
					return
				}
				results[job.index] = paired

				n := int(done.Add(1))
				if e.onBatch != nil {
					e.onBatch(n, len(batches))
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []models.TrackFeatures
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (e *Engine) fetchBatch(ctx context.Context, cred models.Credential, job featureJob) ([]models.TrackFeatures, error) {
	entries, err := e.source.AudioFeatures(ctx, cred, job.batch.IDs())
	if err != nil {
		return nil, fmt.Errorf("fetching features for batch %d: %w", job.index+1, err)
	}

	paired, err := pairBatch(job.batch, entries)
	if err != nil {
		return nil, fmt.Errorf("batch %d: %w", job.index+1, err)
	}

	e.logger.Debug("fetched feature batch", "batch", job.index+1, "tracks", len(job.batch))
	return paired, nil
}

// Cluster groups tracks with features into K playlists.
//
// Every cluster appears in the result even if empty. Tracks without features are listed in NotIncluded in library order.
func (e *Engine) Cluster(paired []models.TrackFeatures) (*models.Grouping, error) {
	table, excluded := Split(paired)

	if rows := table.Rows(); rows < e.kmeans.K {
		return nil, &shared.InsufficientDataError{Have: rows, Need: e.kmeans.K}
	}

	norm, err := Normalize(table.Raw)
	if err != nil {
		return nil, err
	}

	res, err := e.kmeans.Fit(norm)
	if err != nil {
		return nil, err
	}

	grouping := buildGrouping(table, res, e.kmeans.K)
	for _, t := range excluded {
		grouping.NotIncluded = append(grouping.NotIncluded, t.Name)
	}

	e.logger.Info("clustered library",
		"tracks", table.Rows(),
		"excluded", len(excluded),
		"clusters", e.kmeans.K,
		"iterations", res.Iterations,
		"inertia", res.Inertia,
	)
	return grouping, nil
}

// buildGrouping lists track names per cluster and names each cluster from its mean raw features.
func buildGrouping(table *Table, res *Result, k int) *models.Grouping {
	playlists := make([]models.Playlist, k)
	sums := make([][]float64, k)
	for c := range playlists {
		playlists[c] = models.Playlist{Label: models.PlaylistLabel(c), Tracks: []string{}}
		sums[c] = make([]float64, models.FeatureCount)
	}

	for i, label := range res.Labels {
		playlists[label].Tracks = append(playlists[label].Tracks, table.Tracks[i].Name)
		row := table.Raw.RawRowView(i)
		for j, v := range row {
			sums[label][j] += v
		}
	}

	for c := range playlists {
		n := len(playlists[c].Tracks)
		if n == 0 {
			continue
		}
		mean := make([]float64, models.FeatureCount)
		for j, v := range sums[c] {
			mean[j] = v / float64(n)
		}
		playlists[c].Mood = MoodFor(models.FeatureVectorFrom(mean)).Name
	}

	return &models.Grouping{Playlists: playlists}
}

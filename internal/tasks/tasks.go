// package tasks runs the grouping pipeline: library fetch, feature fetch, clustering.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortify/internal/grouping"
	"github.com/desertthunder/sortify/internal/library"
	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/services"
	"github.com/desertthunder/sortify/internal/shared"
)

// Result contains everything produced by one pipeline run.
type Result struct {
	Credential models.Credential // credential used for the run, refreshed if it had expired
	Refreshed  bool              // whether Credential differs from the one passed in
	Library    *models.Library
	Grouping   *models.Grouping
}

// Runner is the pipeline as seen by the web and TUI layers.
type Runner interface {
	Run(ctx context.Context, cred models.Credential, progress chan<- ProgressUpdate) (*Result, error)
}

// Pipeline composes a [library.Fetcher] and a [grouping.Engine].
//
// A fresh fetcher and engine are built per run, so one Pipeline may serve concurrent requests.
type Pipeline struct {
	library  services.LibrarySource
	features services.FeatureSource
	auth     services.OAuthService
	cfg      shared.GroupingConfig
	logger   *log.Logger
}

var _ Runner = (*Pipeline)(nil)

// NewPipeline creates a [Pipeline]. auth may be nil, in which case credentials are used as given.
func NewPipeline(
	lib services.LibrarySource,
	features services.FeatureSource,
	auth services.OAuthService,
	cfg shared.GroupingConfig,
	logger *log.Logger,
) (*Pipeline, error) {
	if lib == nil || features == nil {
		return nil, fmt.Errorf("%w: spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Pipeline{library: lib, features: features, auth: auth, cfg: cfg, logger: logger}, nil
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run refreshes cred if needed, fetches the library, then groups it.
//
// progress may be nil. It is never closed by Run.
func (p *Pipeline) Run(ctx context.Context, cred models.Credential, progress chan<- ProgressUpdate) (*Result, error) {
	result := &Result{Credential: cred}

	if p.auth != nil {
		sendProgress(progress, authorizeUpdate())
		fresh, err := p.auth.Refresh(ctx, cred)
		if err != nil {
			return nil, fmt.Errorf("refreshing credential: %w", err)
		}
		result.Refreshed = fresh != cred
		result.Credential = fresh
	}

	fetcher := library.NewFetcher(p.library, p.cfg.BatchSize, p.logger)
	fetcher.OnPage(func(fetched, total int) {
		sendProgress(progress, fetchLibraryUpdate(fetched, total))
	})

	sendProgress(progress, fetchLibraryUpdate(0, 0))
	lib, err := fetcher.Fetch(ctx, result.Credential)
	if err != nil {
		return nil, err
	}
	result.Library = lib

	engine, err := grouping.NewEngine(p.features, p.cfg, p.logger)
	if err != nil {
		return nil, err
	}
	engine.OnBatch(func(done, total int) {
		sendProgress(progress, fetchFeaturesUpdate(done, total))
	})

	sendProgress(progress, fetchFeaturesUpdate(0, len(lib.Batches)))
	paired, err := engine.FetchFeatures(ctx, result.Credential, lib.Batches)
	if err != nil {
		return nil, err
	}

	sendProgress(progress, clusterUpdate(len(paired), engine.Clusters()))
	g, err := engine.Cluster(paired)
	if err != nil {
		return nil, err
	}
	for _, t := range lib.Unresolvable {
		g.NotIncluded = append(g.NotIncluded, t.Name)
	}
	result.Grouping = g

	sendProgress(progress, completeUpdate(g))
	return result, nil
}

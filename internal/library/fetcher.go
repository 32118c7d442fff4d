// package library pages through a user's saved tracks and partitions them into feature-request batches.
package library

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/services"
	"github.com/desertthunder/sortify/internal/shared"
)

// DefaultBatchSize is the largest id list the audio-features endpoint accepts.
const DefaultBatchSize = services.MaxFeatureBatch

// PageFunc is called after each page with the number of tracks collected so far and the library total.
type PageFunc func(fetched, total int)

// Fetcher retrieves the full saved-track library.
type Fetcher struct {
	source    services.LibrarySource
	batchSize int
	logger    *log.Logger
	onPage    PageFunc
}

// NewFetcher creates a [Fetcher]. A batchSize outside [1, DefaultBatchSize] uses [DefaultBatchSize].
func NewFetcher(source services.LibrarySource, batchSize int, logger *log.Logger) *Fetcher {
	if batchSize <= 0 || batchSize > DefaultBatchSize {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Fetcher{
		source:    source,
		batchSize: batchSize,
		logger:    shared.WithLogger(logger, "component", "library"),
	}
}

// OnPage registers a callback for page progress.
func (f *Fetcher) OnPage(fn PageFunc) {
	f.onPage = fn
}

// Fetch follows the saved-tracks pagination until no next link remains.
//
// Tracks keep API order. A named track without an id (a local file) goes to Unresolvable. An item with no track
// object carries no name and is skipped. Any page error aborts the fetch; no partial library is returned.
func (f *Fetcher) Fetch(ctx context.Context, cred models.Credential) (*models.Library, error) {
	lib := &models.Library{Tracks: []models.Track{}, Batches: []models.Batch{}, Unresolvable: []models.Track{}}
	next := ""
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := f.source.SavedTracks(ctx, cred, next)
		if err != nil {
			return nil, fmt.Errorf("fetching saved tracks page %d: %w", pages+1, err)
		}
		pages++

		for _, item := range page.Items {
			if item.Track == nil {
				f.logger.Debug("skipping saved item without track", "added_at", item.AddedAt)
				continue
			}
			if item.Track.ID == "" {
				lib.Unresolvable = append(lib.Unresolvable, models.Track{Name: item.Track.Name})
				continue
			}
			lib.Tracks = append(lib.Tracks, models.Track{ID: item.Track.ID, Name: item.Track.Name})
		}

		if f.onPage != nil {
			f.onPage(len(lib.Tracks)+len(lib.Unresolvable), page.Total)
		}

		if !page.HasNext() {
			break
		}
		next = *page.Next
	}

	lib.Batches = Partition(lib.Tracks, f.batchSize)
	f.logger.Info("fetched library", "tracks", len(lib.Tracks), "unresolvable", len(lib.Unresolvable), "pages", pages, "batches", len(lib.Batches))
	return lib, nil
}

// Partition splits tracks into consecutive batches of at most size tracks. No batch is empty.
func Partition(tracks []models.Track, size int) []models.Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([]models.Batch, 0, (len(tracks)+size-1)/size)
	for start := 0; start < len(tracks); start += size {
		end := min(start+size, len(tracks))
		batches = append(batches, models.Batch(tracks[start:end:end]))
	}
	return batches
}

package tasks

import (
	"fmt"

	"github.com/desertthunder/sortify/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Authorize Phase = iota
	FetchLibrary
	FetchFeatures
	Cluster
	Complete
)

func (p Phase) String() string {
	switch p {
	case Authorize:
		return "authorize"
	case FetchLibrary:
		return "fetch_library"
	case FetchFeatures:
		return "fetch_features"
	case Cluster:
		return "cluster"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func authorizeUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authorize,
		Step:    1,
		Total:   1,
		Message: "Checking Spotify credentials...",
	}
}

func fetchLibraryUpdate(fetched, total int) ProgressUpdate {
	if total == 0 && fetched == 0 {
		return ProgressUpdate{
			Phase:   FetchLibrary,
			Message: "Fetching saved tracks from Spotify...",
		}
	}
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    fetched,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] saved tracks fetched", fetched, total),
	}
}

func fetchFeaturesUpdate(done, total int) ProgressUpdate {
	if done == 0 {
		return ProgressUpdate{
			Phase:   FetchFeatures,
			Step:    0,
			Total:   total,
			Message: fmt.Sprintf("Fetching audio features in %d batches...", total),
		}
	}
	return ProgressUpdate{
		Phase:   FetchFeatures,
		Step:    done,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] feature batches fetched", done, total),
	}
}

func clusterUpdate(tracks, clusters int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Cluster,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Grouping %d tracks into %d playlists...", tracks, clusters),
	}
}

func completeUpdate(g *models.Grouping) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("✓ %d tracks grouped, %d not included", g.TrackCount(), len(g.NotIncluded)),
		Data:    g,
	}
}

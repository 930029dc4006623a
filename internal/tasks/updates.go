package tasks

import (
	"fmt"

	"github.com/desertthunder/mcb/internal/models"
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
	FetchPlaylist Phase = iota
	Reconcile
	StartPlayback
	FetchCatalog
	StoreCatalog
	SavePlaylist
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case Reconcile:
		return "reconcile"
	case StartPlayback:
		return "start_playback"
	case FetchCatalog:
		return "fetch_catalog"
	case StoreCatalog:
		return "store_catalog"
	case SavePlaylist:
		return "save_playlist"
	default:
		return ""
	}
}

func fetchPlaylistUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s...", id),
	}
}

func reconcileUpdate(step, total int, t models.Track, found bool) ProgressUpdate {
	mark := "✓"
	if !found {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, t),
		Data:    t,
	}
}

func startPlaybackUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StartPlayback,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Queued %d tracks", count),
	}
}

func fetchCatalogUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCatalog,
		Step:    1,
		Total:   2,
		Message: "Fetching catalog...",
	}
}

func storeCatalogUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StoreCatalog,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Storing %d tracks...", count),
	}
}

func savePlaylistUpdate(name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SavePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saved %s (%d tracks)", name, count),
	}
}

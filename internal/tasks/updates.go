package tasks

import (
	"fmt"

	"github.com/desertthunder/mixr/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or server layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchLetters Phase = iota
	MergeCatalog
	MergeLocal
)

func (p Phase) String() string {
	switch p {
	case FetchLetters:
		return "fetch_letters"
	case MergeCatalog:
		return "merge_catalog"
	case MergeLocal:
		return "merge_local"
	default:
		return ""
	}
}

func fetchStartedUpdate(total, concurrency int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLetters,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Searching %d symbols (%d at a time)...", total, concurrency),
	}
}

func letterFetchedUpdate(step, total int, letter string, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLetters,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %q: %d recipes", step, total, letter, found),
		Data:    letter,
	}
}

func catalogMergedUpdate(count int, catalog []models.CatalogEntry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MergeCatalog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Catalog ready: %d recipes", count),
		Data:    catalog,
	}
}

// LocalMergedUpdate reports that local recipes were merged into a fetched catalog.
func LocalMergedUpdate(external, local int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MergeLocal,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Merged %d external and %d local recipes", external, local),
	}
}

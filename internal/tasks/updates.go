package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	LoadCatalog Phase = iota
	SelectPieces
	InsertPieces
)

func (p Phase) String() string {
	switch p {
	case LoadCatalog:
		return "load_catalog"
	case SelectPieces:
		return "select_pieces"
	case InsertPieces:
		return "insert_pieces"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func selectedUpdate(composers, candidates int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SelectPieces,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Selected %d works from %d composers", candidates, composers),
	}
}

func insertUpdate(step, total int, title, composer string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InsertPieces,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s - %s", composer, title),
	}
}

package tasks

import (
	"fmt"
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
	FetchUser Phase = iota
	FetchRepertoires
	FetchSongs
	FetchSkills
	ExportRepertoire
)

func (p Phase) String() string {
	switch p {
	case FetchUser:
		return "fetch_user"
	case FetchRepertoires:
		return "fetch_repertoires"
	case FetchSongs:
		return "fetch_songs"
	case FetchSkills:
		return "fetch_skills"
	case ExportRepertoire:
		return "export_repertoire"
	default:
		return ""
	}
}

func operationUpdate(endpoint endpointOperation, step int, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   endpoint.phase,
		Step:    step,
		Total:   total,
		Message: endpoint.message,
	}
}

func fetchingRepertoiresUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRepertoires,
		Step:    0,
		Total:   total,
		Message: "Fetching repertoires...",
	}
}

func exportingRepertoireUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRepertoire,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, res RepertoireExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRepertoire,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d songs)", step, total, res.Name, res.Songs),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res RepertoireExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRepertoire,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Name, res.Error),
		Data:    res,
	}
}

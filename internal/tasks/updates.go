package tasks

import "fmt"

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
	ExportLibrary Phase = iota
	ResolveTracks
	AssembleLibrary
	UploadBackup
)

func (p Phase) String() string {
	switch p {
	case ExportLibrary:
		return "export_library"
	case ResolveTracks:
		return "resolve_tracks"
	case AssembleLibrary:
		return "assemble_library"
	case UploadBackup:
		return "upload_backup"
	default:
		return ""
	}
}

// sendUpdate delivers an update without blocking; a slow or absent
// consumer never stalls the operation.
func sendUpdate(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func cachedTrackUpdate(step, total int, query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Cached: %s", query),
	}
}

func resolvedTrackUpdate(step, total int, query, videoID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found: %s (%s)", query, videoID),
		Data:    videoID,
	}
}

func skippedTrackUpdate(step, total int, query, reason string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Skipping: %s (%s)", query, reason),
	}
}

func assemblingUpdate(resolved, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AssembleLibrary,
		Step:    resolved,
		Total:   total,
		Message: "Reassembling playlists from resolved tracks...",
	}
}

func likedTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportLibrary,
		Message: fmt.Sprintf("Exported %d liked songs", count),
	}
}

func exportedPlaylistUpdate(step, total int, name string, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportLibrary,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Exported playlist: %s (%d tracks)", name, trackCount),
	}
}

func uploadingUpdate(trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadBackup,
		Message: fmt.Sprintf("Uploading backup with %d tracks...", trackCount),
	}
}

func uploadedUpdate(code string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadBackup,
		Message: fmt.Sprintf("Backup uploaded: %s", code),
		Data:    code,
	}
}

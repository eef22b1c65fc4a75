// Package tools implements the closed set of output tools the action stage
// can invoke. Dispatch is a compile-time switch over known names rather than
// a dynamic registry, so an intent wired to a missing tool fails the build,
// not the user.
package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vidmind/internal/logging"
	"vidmind/internal/types"
)

// Closed set of tool names. These appear in the intent action table.
const (
	ToolExportSRT       = "export_transcript_srt"
	ToolWholeTranscript = "get_whole_transcript"
)

// TranscriptSource supplies cached transcript data for a media asset.
type TranscriptSource interface {
	// FullTranscript returns the transcript joined into one string.
	FullTranscript(ctx context.Context, mediaID string) (string, error)

	// Segments returns the timed transcript segments in playback order.
	Segments(ctx context.Context, mediaID string) ([]types.TranscriptSegment, error)
}

// Toolbox executes output tools against the knowledge cache.
type Toolbox struct {
	source    TranscriptSource
	exportDir string
}

// NewToolbox builds a toolbox. Exported files land in exportDir.
func NewToolbox(source TranscriptSource, exportDir string) *Toolbox {
	if exportDir == "" {
		exportDir = "."
	}
	return &Toolbox{source: source, exportDir: exportDir}
}

// Execute dispatches a tool by name for the given media asset. The returned
// string is the user-facing tool result.
func (t *Toolbox) Execute(ctx context.Context, name, mediaID string) (string, error) {
	timer := logging.StartTimer(logging.CategoryTools, "Execute")
	defer timer.Stop()

	logging.Tools("Executing tool %s for media %s", name, shortID(mediaID))

	switch name {
	case ToolExportSRT:
		return t.ExportSRT(ctx, mediaID)
	case ToolWholeTranscript:
		return t.WholeTranscript(ctx, mediaID)
	default:
		return "", types.E(types.KindToolExecution, name, fmt.Errorf("%w: %s", ErrUnknownTool, name))
	}
}

// ExportSRT writes the cached transcript as a SubRip file and returns a
// message naming the output path.
func (t *Toolbox) ExportSRT(ctx context.Context, mediaID string) (string, error) {
	if mediaID == "" {
		return "", types.E(types.KindToolExecution, ToolExportSRT, ErrNoMedia)
	}

	segments, err := t.source.Segments(ctx, mediaID)
	if err != nil {
		return "", types.E(types.KindToolExecution, ToolExportSRT, err)
	}
	if len(segments) == 0 {
		return "", types.E(types.KindToolExecution, ToolExportSRT, ErrNoTranscript)
	}

	if err := os.MkdirAll(t.exportDir, 0755); err != nil {
		return "", types.E(types.KindToolExecution, ToolExportSRT, err)
	}

	name := fmt.Sprintf("transcript_%s_%s.srt", shortID(mediaID), time.Now().Format("20060102_150405"))
	path := filepath.Join(t.exportDir, name)
	if err := os.WriteFile(path, []byte(RenderSRT(segments)), 0644); err != nil {
		return "", types.E(types.KindToolExecution, ToolExportSRT, err)
	}

	logging.Tools("Exported %d subtitle cues to %s", len(segments), path)
	return fmt.Sprintf("Subtitle file exported to %s (%d cues).", path, len(segments)), nil
}

// WholeTranscript returns the full cached transcript text.
func (t *Toolbox) WholeTranscript(ctx context.Context, mediaID string) (string, error) {
	if mediaID == "" {
		return "", types.E(types.KindToolExecution, ToolWholeTranscript, ErrNoMedia)
	}

	text, err := t.source.FullTranscript(ctx, mediaID)
	if err != nil {
		return "", types.E(types.KindToolExecution, ToolWholeTranscript, err)
	}
	if text == "" {
		return "", types.E(types.KindToolExecution, ToolWholeTranscript, ErrNoTranscript)
	}
	return text, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

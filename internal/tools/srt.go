package tools

import (
	"fmt"
	"strings"

	"vidmind/internal/types"
)

// RenderSRT renders transcript segments as a SubRip file: numbered cues with
// "HH:MM:SS,mmm --> HH:MM:SS,mmm" time lines separated by blank lines.
// Segments with empty text are skipped so players never show blank cues.
func RenderSRT(segments []types.TranscriptSegment) string {
	var sb strings.Builder
	cue := 1
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n", cue, srtTimestamp(seg.Start), srtTimestamp(seg.End), text)
		cue++
	}
	return sb.String()
}

// srtTimestamp renders seconds as HH:MM:SS,mmm.
func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int(seconds*1000 + 0.5)
	h := millis / 3600000
	millis %= 3600000
	m := millis / 60000
	millis %= 60000
	s := millis / 1000
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

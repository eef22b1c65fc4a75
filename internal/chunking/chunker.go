// Package chunking turns a transcript (or bare duration) into the processing
// chunks the vision and fusion stages consume. Two strategies exist:
//
//   - MergeSegments groups consecutive transcript segments into audio-aligned
//     chunks, so fused descriptions line up with what is being said.
//   - SlidingWindows covers the timeline with fixed overlapping windows when
//     the audio carries no usable speech.
package chunking

import (
	"strings"

	"vidmind/internal/logging"
	"vidmind/internal/types"
)

// Options control both chunking strategies.
type Options struct {
	// MaxGapSeconds is the largest silence between two segments that still
	// merges them into one chunk.
	MaxGapSeconds float64

	// MaxSpanSeconds caps the duration of a merged chunk.
	MaxSpanSeconds float64

	// WindowSeconds and OverlapSeconds shape the sliding windows.
	WindowSeconds  float64
	OverlapSeconds float64
}

// DefaultOptions are the tuned production values.
func DefaultOptions() Options {
	return Options{
		MaxGapSeconds:  0.5,
		MaxSpanSeconds: 10.0,
		WindowSeconds:  4.0,
		OverlapSeconds: 1.0,
	}
}

// MergeSegments merges consecutive transcript segments into chunks. A new
// chunk starts when the silence gap to the next segment exceeds MaxGapSeconds
// or when including it would push the chunk past MaxSpanSeconds.
func MergeSegments(segments []types.TranscriptSegment, opts Options) []types.ProcessingChunk {
	if len(segments) == 0 {
		return nil
	}

	var chunks []types.ProcessingChunk
	cur := types.ProcessingChunk{
		Start:   segments[0].Start,
		End:     segments[0].End,
		ASRText: strings.TrimSpace(segments[0].Text),
	}

	for _, seg := range segments[1:] {
		gap := seg.Start - cur.End
		span := seg.End - cur.Start

		if gap > opts.MaxGapSeconds || span > opts.MaxSpanSeconds {
			chunks = append(chunks, cur)
			cur = types.ProcessingChunk{
				Start:   seg.Start,
				End:     seg.End,
				ASRText: strings.TrimSpace(seg.Text),
			}
			continue
		}

		cur.End = seg.End
		text := strings.TrimSpace(seg.Text)
		if text != "" {
			if cur.ASRText != "" {
				cur.ASRText += " "
			}
			cur.ASRText += text
		}
	}
	chunks = append(chunks, cur)

	logging.Chunking("Merged %d segments into %d audio-aligned chunks", len(segments), len(chunks))
	return chunks
}

// SlidingWindows covers [0, duration] with overlapping windows of
// WindowSeconds stepping by WindowSeconds-OverlapSeconds. The last window is
// clipped to the duration, so a trailing partial window is still produced.
func SlidingWindows(duration float64, opts Options) []types.ProcessingChunk {
	if duration <= 0 {
		return nil
	}

	step := opts.WindowSeconds - opts.OverlapSeconds
	if step <= 0 {
		step = opts.WindowSeconds
	}

	var chunks []types.ProcessingChunk
	for start := 0.0; start < duration; start += step {
		end := start + opts.WindowSeconds
		if end > duration {
			end = duration
		}
		chunks = append(chunks, types.ProcessingChunk{Start: start, End: end})
	}

	logging.Chunking("Covered %.1fs with %d sliding windows", duration, len(chunks))
	return chunks
}

package types

import "context"

// Transcriber converts a media file into a timed transcript.
// Implementations wrap the external speech-to-text service.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (*Transcription, error)
}

// VisionDescriber produces a textual description for a set of sampled frames.
// asrContext, when non-empty, is the transcript text spoken over the frames.
type VisionDescriber interface {
	Describe(ctx context.Context, framePaths []string, asrContext string) (string, error)
}

// TextGenerator produces text from a conversation history.
// GenerateStream returns a token channel and an error channel; the token
// channel is closed when generation finishes, and the worker observes ctx
// cancellation between token productions.
type TextGenerator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
	GenerateStream(ctx context.Context, messages []Message) (<-chan string, <-chan error)
}

// MediaSampler extracts frames and duration from media files via the
// external media toolkit.
type MediaSampler interface {
	// Sample extracts frames within [start,end] at the given rate, capped
	// at maxFrames.
	Sample(ctx context.Context, mediaPath string, start, end, rate float64, maxFrames int) ([]Frame, error)

	// Duration returns the media duration in seconds.
	Duration(ctx context.Context, mediaPath string) (float64, error)
}

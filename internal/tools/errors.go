package tools

import "errors"

// Tool execution errors.
var (
	// ErrUnknownTool is returned for a name outside the closed tool set.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrNoTranscript is returned when the media has no cached transcript
	// segments to operate on.
	ErrNoTranscript = errors.New("no transcript available")

	// ErrNoMedia is returned when a tool requiring media runs without one.
	ErrNoMedia = errors.New("no media loaded")
)

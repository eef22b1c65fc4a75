// Package types holds the shared domain types for the vidmind pipeline:
// media assets, transcript segments, usability verdicts, processing chunks,
// conversation state, and the contracts for the external model services.
package types

import "strings"

// =============================================================================
// MEDIA
// =============================================================================

// MediaKind distinguishes audio-only assets from video assets.
type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
)

// MediaAsset identifies an ingested file. ID is the sha256 of the file bytes,
// so two uploads with identical content collapse to the same asset and every
// downstream cache lookup is idempotent.
type MediaAsset struct {
	ID   string
	Kind MediaKind
	Path string
}

// TranscriptSegment is one timed span of recognized speech.
// Produced once per media asset and persisted keyed by media id;
// never mutated, only superseded by a fresh transcription on cache miss.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcription is the full output of one Transcriber run.
type Transcription struct {
	FullText string
	Segments []TranscriptSegment
}

// Frame is one sampled video frame.
type Frame struct {
	Timestamp float64
	Path      string
}

// =============================================================================
// USABILITY
// =============================================================================

// AudioClass is the usability classification of a transcript.
type AudioClass string

const (
	ClassInformational AudioClass = "informational"
	ClassSilent        AudioClass = "silent"
	ClassMusicOrNoise  AudioClass = "music_or_noise"
	ClassNoise         AudioClass = "noise"
)

// UsabilityVerdict says whether a transcript carries exploitable information.
// Diagnostics records which rule fired and the numeric values that triggered
// it, for observability and testability.
type UsabilityVerdict struct {
	Usable         bool                   `json:"usable"`
	Classification AudioClass             `json:"classification"`
	Diagnostics    map[string]interface{} `json:"diagnostics,omitempty"`
}

// =============================================================================
// CHUNKS
// =============================================================================

// ProcessingChunk is a time-bounded slice of media awaiting visual
// description. ASRText is empty for vision-driven chunks. Ephemeral: lives
// only between chunking and fusion within one pipeline run.
type ProcessingChunk struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	ASRText string  `json:"asr_text,omitempty"`
}

// HasASR reports whether the chunk carries transcript context.
func (c ProcessingChunk) HasASR() bool {
	return strings.TrimSpace(c.ASRText) != ""
}

// DescribedChunk is a ProcessingChunk after the vision driver ran on it.
type DescribedChunk struct {
	Start             float64 `json:"start"`
	End               float64 `json:"end"`
	VisualDescription string  `json:"visual_description"`
	ASRText           string  `json:"asr_text,omitempty"`
	FrameCount        int     `json:"frame_count"`
}

// Modality labels the provenance of a fused chunk.
type Modality string

const (
	ModalityAudioVisual Modality = "audio_visual"
	ModalityVisual      Modality = "visual"
)

// =============================================================================
// INTENT
// =============================================================================

// Intent is the classified purpose of one user turn.
type Intent string

const (
	IntentSummarize Intent = "SUMMARIZE"
	IntentQuestion  Intent = "QUESTION"
	IntentExportSRT Intent = "EXPORT_SRT"
	IntentChat      Intent = "CHAT"
	IntentUnclear   Intent = "UNCLEAR"
)

// ValidIntents is the closed set the classifier may produce.
var ValidIntents = []Intent{IntentSummarize, IntentQuestion, IntentExportSRT, IntentChat, IntentUnclear}

// IsValid reports whether the intent is a member of the closed set.
func (i Intent) IsValid() bool {
	for _, v := range ValidIntents {
		if i == v {
			return true
		}
	}
	return false
}

// =============================================================================
// MESSAGES
// =============================================================================

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in the conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// LastUserContent returns the content of the most recent user message,
// or "" when none exists.
func LastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// TokenCallback receives tokens as they are produced by the streaming bridge.
type TokenCallback func(token string)

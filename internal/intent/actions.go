package intent

import (
	"vidmind/internal/tools"
	"vidmind/internal/types"
)

// ContextSource names where the action stage fetches context from.
type ContextSource string

const (
	// ContextNone fetches nothing.
	ContextNone ContextSource = ""

	// ContextFullTranscript fetches the entire cached transcript.
	ContextFullTranscript ContextSource = "full_transcript"

	// ContextSearch runs semantic retrieval for the user's question.
	ContextSearch ContextSource = "rag"
)

// Response-generation task names carried in conversation state.
const (
	TaskSummarize     = "summarize"
	TaskAnswer        = "answer"
	TaskChat          = "chat"
	TaskPresentResult = "present_result"
)

// ActionSpec describes what the action stage does for one intent.
type ActionSpec struct {
	ContextSource ContextSource
	LLMTask       string
	OutputTool    string
	RequiresMedia bool
	Clarification bool
}

// Actions is the closed intent-to-action table. Every valid intent has an
// entry; routing an unknown intent falls back to the UNCLEAR row.
var Actions = map[types.Intent]ActionSpec{
	types.IntentSummarize: {
		ContextSource: ContextFullTranscript,
		LLMTask:       TaskSummarize,
		RequiresMedia: true,
	},
	types.IntentQuestion: {
		ContextSource: ContextSearch,
		LLMTask:       TaskAnswer,
	},
	types.IntentExportSRT: {
		LLMTask:       TaskPresentResult,
		OutputTool:    tools.ToolExportSRT,
		RequiresMedia: true,
	},
	types.IntentChat: {
		LLMTask: TaskChat,
	},
	types.IntentUnclear: {
		Clarification: true,
	},
}

// ActionFor resolves the action spec for an intent, defaulting to UNCLEAR.
func ActionFor(intent types.Intent) ActionSpec {
	if spec, ok := Actions[intent]; ok {
		return spec
	}
	return Actions[types.IntentUnclear]
}

// ClarificationMessage is shown when the intent cannot be determined.
const ClarificationMessage = "I'm not sure what you'd like me to do. Did you mean:\n" +
	"1. **Summarize** the audio/video content?\n" +
	"2. **Ask a question** about specific content?\n" +
	"3. **Export** the transcript (SRT format)?\n\n" +
	"Please let me know which option you prefer."

// MissingMediaMessage is shown when an intent requires media and none is loaded.
const MissingMediaMessage = "Please upload a media file first."

// ToolFailureMessage is shown when an output tool fails.
const ToolFailureMessage = "Sorry, the operation failed. Please try again."

// MissingTranscriptMessage is shown when the transcript cache is empty for a
// media asset that should have one.
const MissingTranscriptMessage = "I don't have a transcript for this file. Was it processed correctly?"

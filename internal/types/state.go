package types

// ConversationState is the mutable context threaded through every graph node.
// It is owned exclusively by the graph executor for the duration of one
// invocation; a snapshot is checkpointed per conversation thread after every
// node so a later turn resumes from the last persisted state.
//
// Merge semantics (enforced by Apply): Messages are appended, never replaced;
// every other field is overwritten when the update carries it.
type ConversationState struct {
	// Messages is the append-only conversation history, ordering preserved.
	Messages []Message `json:"messages"`

	// MediaID is the content hash of the most recently ingested asset.
	MediaID string `json:"media_id,omitempty"`

	// AudioPath / VideoPath are transient ingestion inputs, cleared after
	// the transcription stage consumes them.
	AudioPath string `json:"audio_path,omitempty"`
	VideoPath string `json:"video_path,omitempty"`

	// Usability is the verdict for the current media's transcript.
	Usability *UsabilityVerdict `json:"usability,omitempty"`

	// Chunks and Described are intra-run pipeline products.
	Chunks    []ProcessingChunk `json:"chunks,omitempty"`
	Described []DescribedChunk  `json:"described,omitempty"`

	// Intent is recomputed per user turn.
	Intent Intent `json:"intent,omitempty"`

	// PreparedContext is the context block the action stage fetched for the
	// response stage. Task names the response-generation task (summarize,
	// answer, chat, present_result); empty Task means the action stage
	// already emitted a final assistant message and the turn short-circuits.
	PreparedContext string `json:"prepared_context,omitempty"`
	ToolResult      string `json:"tool_result,omitempty"`
	Task            string `json:"task,omitempty"`

	// VLMProcessed guards against re-running fusion for media whose fused
	// chunks are already cached.
	VLMProcessed bool `json:"vlm_processed"`
}

// StateUpdate is the partial update a node returns. Nil pointer fields leave
// the state untouched; Messages are appended in order.
type StateUpdate struct {
	Messages []Message

	MediaID   *string
	AudioPath *string
	VideoPath *string

	Usability *UsabilityVerdict
	Chunks    []ProcessingChunk
	Described []DescribedChunk

	Intent          *Intent
	PreparedContext *string
	ToolResult      *string
	Task            *string

	VLMProcessed *bool
}

// Apply merges an update into the state: messages append, scalars overwrite.
func (s *ConversationState) Apply(u *StateUpdate) {
	if u == nil {
		return
	}
	s.Messages = append(s.Messages, u.Messages...)
	if u.MediaID != nil {
		s.MediaID = *u.MediaID
	}
	if u.AudioPath != nil {
		s.AudioPath = *u.AudioPath
	}
	if u.VideoPath != nil {
		s.VideoPath = *u.VideoPath
	}
	if u.Usability != nil {
		s.Usability = u.Usability
	}
	if u.Chunks != nil {
		s.Chunks = u.Chunks
	}
	if u.Described != nil {
		s.Described = u.Described
	}
	if u.Intent != nil {
		s.Intent = *u.Intent
	}
	if u.PreparedContext != nil {
		s.PreparedContext = *u.PreparedContext
	}
	if u.ToolResult != nil {
		s.ToolResult = *u.ToolResult
	}
	if u.Task != nil {
		s.Task = *u.Task
	}
	if u.VLMProcessed != nil {
		s.VLMProcessed = *u.VLMProcessed
	}
}

// String returns a pointer to s, for building StateUpdates.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building StateUpdates.
func Bool(b bool) *bool { return &b }

// IntentPtr returns a pointer to i, for building StateUpdates.
func IntentPtr(i Intent) *Intent { return &i }

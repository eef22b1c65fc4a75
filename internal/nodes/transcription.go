// Package nodes implements the pipeline stages wired into the graph
// executor: transcription, chunking, vision, fusion, intent classification,
// action execution, and response generation. Each node takes its
// dependencies explicitly and returns a partial state update.
package nodes

import (
	"context"
	"fmt"
	"os"

	"vidmind/internal/graph"
	"vidmind/internal/logging"
	"vidmind/internal/media"
	"vidmind/internal/store"
	"vidmind/internal/types"
	"vidmind/internal/usability"
)

// Node names used in routing.
const (
	NameTranscription = "transcription"
	NameChunking      = "chunking"
	NameVision        = "vision"
	NameFusion        = "fusion"
	NameIntent        = "intent"
	NameAction        = "action"
	NameResponse      = "response"
)

// TranscriptionNode ingests a media file: resolves its content-hash id,
// transcribes on cache miss, judges transcript usability, and persists the
// segments. The audio path is cleared afterwards; the video path survives for
// the vision stages.
type TranscriptionNode struct {
	transcriber types.Transcriber
	store       *store.LocalStore
}

var _ graph.Node = (*TranscriptionNode)(nil)

// NewTranscriptionNode builds the node.
func NewTranscriptionNode(transcriber types.Transcriber, s *store.LocalStore) *TranscriptionNode {
	return &TranscriptionNode{transcriber: transcriber, store: s}
}

func (n *TranscriptionNode) Name() string { return NameTranscription }

func (n *TranscriptionNode) Run(ctx context.Context, state *types.ConversationState) (*types.StateUpdate, error) {
	mediaPath := state.AudioPath
	if mediaPath == "" {
		mediaPath = state.VideoPath
	}
	if mediaPath == "" {
		logging.ASR("No media path in state, skipping transcription")
		return &types.StateUpdate{}, nil
	}

	if _, err := os.Stat(mediaPath); err != nil {
		msg := fmt.Sprintf("Error: media file not found at %s.", mediaPath)
		logging.ASR("Media file missing: %s", mediaPath)
		return &types.StateUpdate{
			Messages:  []types.Message{types.AssistantMessage(msg)},
			AudioPath: types.String(""),
			VideoPath: types.String(""),
		}, nil
	}

	mediaID, err := media.HashFile(mediaPath)
	if err != nil {
		return nil, types.E(types.KindIngestion, "transcription", err)
	}

	cached, err := n.store.HasMedia(ctx, store.CollectionSegments, mediaID)
	if err != nil {
		return nil, types.E(types.KindPersistence, "transcription", err)
	}

	update := &types.StateUpdate{
		MediaID:   types.String(mediaID),
		AudioPath: types.String(""),
		Messages: []types.Message{
			types.AssistantMessage(fmt.Sprintf("I have processed the media file '%s'.", shortID(mediaID))),
		},
	}

	if cached {
		logging.ASR("Cache hit for media %s, skipping transcription", shortID(mediaID))
		verdict, err := n.cachedVerdict(ctx, mediaID)
		if err == nil && verdict != nil {
			update.Usability = verdict
		}
		return update, nil
	}

	transcription, err := n.transcriber.Transcribe(ctx, mediaPath)
	if err != nil {
		return nil, types.E(types.KindTranscription, "transcription", err)
	}

	duration := 0.0
	if len(transcription.Segments) > 0 {
		duration = transcription.Segments[len(transcription.Segments)-1].End
	}

	verdict := usability.Analyze(transcription.FullText, transcription.Segments, duration)
	logging.ASR("Usability: usable=%v classification=%s", verdict.Usable, verdict.Classification)

	if err := n.persistSegments(ctx, mediaID, transcription.Segments, verdict); err != nil {
		return nil, types.E(types.KindPersistence, "transcription", err)
	}

	update.Usability = &verdict
	return update, nil
}

// persistSegments caches transcript segments with the usability verdict
// stamped on each one.
func (n *TranscriptionNode) persistSegments(ctx context.Context, mediaID string, segments []types.TranscriptSegment, verdict types.UsabilityVerdict) error {
	if len(segments) == 0 {
		logging.ASR("No segments to cache for media %s", shortID(mediaID))
		return nil
	}

	docs := make([]store.Document, 0, len(segments))
	for _, seg := range segments {
		docs = append(docs, store.Document{
			MediaID: mediaID,
			Content: seg.Text,
			Metadata: map[string]interface{}{
				"media_id":             mediaID,
				"start_time":           seg.Start,
				"end_time":             seg.End,
				"audio_usable":         verdict.Usable,
				"audio_classification": string(verdict.Classification),
			},
		})
	}
	return n.store.PutBatch(ctx, store.CollectionSegments, docs)
}

// cachedVerdict reconstructs the usability verdict from cached segment
// metadata so a cache hit still routes chunking correctly.
func (n *TranscriptionNode) cachedVerdict(ctx context.Context, mediaID string) (*types.UsabilityVerdict, error) {
	docs, err := n.store.GetByFilter(ctx, store.CollectionSegments, map[string]interface{}{"media_id": mediaID})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	meta := docs[0].Metadata
	usable, _ := meta["audio_usable"].(bool)
	class, _ := meta["audio_classification"].(string)
	return &types.UsabilityVerdict{
		Usable:         usable,
		Classification: types.AudioClass(class),
		Diagnostics:    map[string]interface{}{"rule": "cached"},
	}, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

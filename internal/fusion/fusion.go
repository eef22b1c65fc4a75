// Package fusion turns described chunks into the documents the knowledge
// cache stores. Each document interleaves the spoken instruction with the
// visual description under a timestamp header, so retrieval returns passages
// a generation model can quote directly.
package fusion

import (
	"context"
	"fmt"
	"strings"

	"vidmind/internal/logging"
	"vidmind/internal/store"
	"vidmind/internal/types"
)

// Source model labels recorded in document metadata.
const (
	sourceAudioVisual = "Whisper,SmolVLM2"
	sourceVisualOnly  = "SmolVLM2"
)

// Format renders one described chunk as a retrieval passage:
//
//	[00:12–00:18]
//	Instruction: click the export button
//	Visual: a settings dialog with the export tab selected
//
// Chunks without transcript text carry just the description under the header.
func Format(chunk types.DescribedChunk) string {
	header := fmt.Sprintf("[%s–%s]", Timestamp(chunk.Start), Timestamp(chunk.End))
	if strings.TrimSpace(chunk.ASRText) != "" {
		return fmt.Sprintf("%s\nInstruction: %s\nVisual: %s",
			header, strings.TrimSpace(chunk.ASRText), strings.TrimSpace(chunk.VisualDescription))
	}
	return fmt.Sprintf("%s\n%s", header, strings.TrimSpace(chunk.VisualDescription))
}

// Timestamp renders seconds as mm:ss, truncating fractional seconds.
func Timestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Modality derives the modality label for a chunk.
func Modality(chunk types.DescribedChunk) types.Modality {
	if strings.TrimSpace(chunk.ASRText) != "" {
		return types.ModalityAudioVisual
	}
	return types.ModalityVisual
}

// Fuser persists fused chunks into the knowledge cache.
type Fuser struct {
	store *store.LocalStore
}

// NewFuser builds a fuser writing to the given store.
func NewFuser(s *store.LocalStore) *Fuser {
	return &Fuser{store: s}
}

// Persist writes all fused chunks for a media asset in one batch. Either the
// whole batch becomes durable or nothing does, keeping the cache-by-media-id
// idempotence sound. The usability verdict is stamped on every chunk; a nil
// verdict records unusable/unknown.
func (f *Fuser) Persist(ctx context.Context, mediaID string, chunks []types.DescribedChunk, verdict *types.UsabilityVerdict) error {
	if len(chunks) == 0 {
		logging.Fusion("No described chunks to persist for media %s", shortID(mediaID))
		return nil
	}

	timer := logging.StartTimer(logging.CategoryFusion, "Persist")
	defer timer.Stop()

	audioUsable := false
	audioClass := "unknown"
	if verdict != nil {
		audioUsable = verdict.Usable
		audioClass = string(verdict.Classification)
	}

	docs := make([]store.Document, 0, len(chunks))
	for _, chunk := range chunks {
		modality := Modality(chunk)
		source := sourceVisualOnly
		if modality == types.ModalityAudioVisual {
			source = sourceAudioVisual
		}

		docs = append(docs, store.Document{
			MediaID: mediaID,
			Content: Format(chunk),
			Metadata: map[string]interface{}{
				"media_id":             mediaID,
				"start_time":           chunk.Start,
				"end_time":             chunk.End,
				"modality":             string(modality),
				"audio_usable":         audioUsable,
				"audio_classification": audioClass,
				"source_models":        source,
				"frame_count":          chunk.FrameCount,
			},
		})
	}

	if err := f.store.PutBatch(ctx, store.CollectionFused, docs); err != nil {
		return types.E(types.KindPersistence, "fusion_persist", err)
	}

	logging.Fusion("Persisted %d fused chunks for media %s", len(docs), shortID(mediaID))
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

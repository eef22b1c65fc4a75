package nodes

import (
	"context"
	"sort"

	"vidmind/internal/chunking"
	"vidmind/internal/graph"
	"vidmind/internal/logging"
	"vidmind/internal/store"
	"vidmind/internal/types"
)

// ChunkingNode picks the chunk strategy for video processing. When fused
// chunks for the media already exist the whole vision pipeline is skipped via
// the VLMProcessed flag.
type ChunkingNode struct {
	store   *store.LocalStore
	sampler types.MediaSampler
	opts    chunking.Options
}

var _ graph.Node = (*ChunkingNode)(nil)

// NewChunkingNode builds the node.
func NewChunkingNode(s *store.LocalStore, sampler types.MediaSampler, opts chunking.Options) *ChunkingNode {
	return &ChunkingNode{store: s, sampler: sampler, opts: opts}
}

func (n *ChunkingNode) Name() string { return NameChunking }

func (n *ChunkingNode) Run(ctx context.Context, state *types.ConversationState) (*types.StateUpdate, error) {
	if state.VideoPath == "" {
		logging.Chunking("No video path in state, skipping chunking")
		return &types.StateUpdate{Chunks: []types.ProcessingChunk{}}, nil
	}

	if state.MediaID != "" {
		cached, err := n.store.HasMedia(ctx, store.CollectionFused, state.MediaID)
		if err != nil {
			return nil, types.E(types.KindPersistence, "chunking", err)
		}
		if cached {
			logging.Chunking("Fused chunks cached for media %s, skipping vision pipeline", shortID(state.MediaID))
			return &types.StateUpdate{
				Chunks:       []types.ProcessingChunk{},
				VLMProcessed: types.Bool(true),
				VideoPath:    types.String(""),
			}, nil
		}
	}

	var chunks []types.ProcessingChunk
	if state.Usability != nil && state.Usability.Usable {
		logging.Chunking("Audio usable, using audio-aligned chunking")
		segments, err := n.loadSegments(ctx, state.MediaID)
		if err != nil {
			return nil, types.E(types.KindPersistence, "chunking", err)
		}
		chunks = chunking.MergeSegments(segments, n.opts)
	} else {
		class := types.AudioClass("unknown")
		if state.Usability != nil {
			class = state.Usability.Classification
		}
		logging.Chunking("Audio not usable (classification: %s), using vision-driven chunking", class)

		duration, err := n.sampler.Duration(ctx, state.VideoPath)
		if err != nil {
			return nil, err
		}
		chunks = chunking.SlidingWindows(duration, n.opts)
	}

	logging.Chunking("Created %d chunks for vision processing", len(chunks))
	update := &types.StateUpdate{Chunks: chunks}
	if len(chunks) == 0 {
		// Nothing for the vision stages to do; close out video processing.
		update.Chunks = []types.ProcessingChunk{}
		update.VideoPath = types.String("")
	}
	return update, nil
}

// loadSegments fetches cached transcript segments in playback order.
func (n *ChunkingNode) loadSegments(ctx context.Context, mediaID string) ([]types.TranscriptSegment, error) {
	if mediaID == "" {
		return nil, nil
	}

	docs, err := n.store.GetByFilter(ctx, store.CollectionSegments, map[string]interface{}{"media_id": mediaID})
	if err != nil {
		return nil, err
	}

	segments := make([]types.TranscriptSegment, 0, len(docs))
	for _, d := range docs {
		segments = append(segments, types.TranscriptSegment{
			Start: metadataFloat(d.Metadata, "start_time"),
			End:   metadataFloat(d.Metadata, "end_time"),
			Text:  d.Content,
		})
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })
	return segments, nil
}

// metadataFloat reads a numeric metadata value regardless of whether it came
// back from JSON (float64) or was built in-process (int).
func metadataFloat(metadata map[string]interface{}, key string) float64 {
	switch v := metadata[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

package intent

import (
	"context"
	"sort"
	"strings"

	"vidmind/internal/logging"
	"vidmind/internal/store"
	"vidmind/internal/types"
)

// ContextProvider fetches cached knowledge for the action stage. Fused
// multimodal chunks are preferred; raw transcript segments are the fallback
// for audio-only assets that never went through fusion.
type ContextProvider struct {
	store *store.LocalStore

	// TopK bounds semantic search results.
	TopK int
}

// NewContextProvider builds a provider over the given store.
func NewContextProvider(s *store.LocalStore) *ContextProvider {
	return &ContextProvider{store: s, TopK: 5}
}

// FullTranscript returns the media's cached content joined in playback order.
// It satisfies tools.TranscriptSource.
func (p *ContextProvider) FullTranscript(ctx context.Context, mediaID string) (string, error) {
	docs, err := p.fetchOrdered(ctx, mediaID)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if text := strings.TrimSpace(d.Content); text != "" {
			parts = append(parts, text)
		}
	}

	logging.IntentDebug("FullTranscript for media %s: %d passages", shortID(mediaID), len(parts))
	return strings.Join(parts, " "), nil
}

// Segments returns the raw transcript segments for a media asset in playback
// order, reconstructed from the cache. It satisfies tools.TranscriptSource.
func (p *ContextProvider) Segments(ctx context.Context, mediaID string) ([]types.TranscriptSegment, error) {
	docs, err := p.store.GetByFilter(ctx, store.CollectionSegments, map[string]interface{}{"media_id": mediaID})
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

// Search runs semantic retrieval for a question and formats the hits as a
// bulleted context block, or returns "" when nothing relevant is cached.
func (p *ContextProvider) Search(ctx context.Context, mediaID, query string) (string, error) {
	filter := map[string]interface{}{}
	if mediaID != "" {
		filter["media_id"] = mediaID
	}

	docs, err := p.store.Query(ctx, store.CollectionFused, query, p.TopK, filter)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		docs, err = p.store.Query(ctx, store.CollectionSegments, query, p.TopK, filter)
		if err != nil {
			return "", err
		}
	}
	if len(docs) == 0 {
		return "", nil
	}

	lines := make([]string, 0, len(docs))
	for _, d := range docs {
		lines = append(lines, "- "+strings.TrimSpace(d.Content))
	}
	block := "Relevant context from indexed content:\n" + strings.Join(lines, "\n")

	logging.IntentDebug("Search for media %s returned %d passages", shortID(mediaID), len(docs))
	return block, nil
}

// fetchOrdered returns fused chunks when they exist, transcript segments
// otherwise, sorted by start time.
func (p *ContextProvider) fetchOrdered(ctx context.Context, mediaID string) ([]store.Document, error) {
	filter := map[string]interface{}{"media_id": mediaID}

	docs, err := p.store.GetByFilter(ctx, store.CollectionFused, filter)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		docs, err = p.store.GetByFilter(ctx, store.CollectionSegments, filter)
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(docs, func(i, j int) bool {
		return metadataFloat(docs[i].Metadata, "start_time") < metadataFloat(docs[j].Metadata, "start_time")
	})
	return docs, nil
}

// metadataFloat reads a numeric metadata value; JSON round-trips numbers as
// float64 but freshly built maps may still hold ints.
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

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

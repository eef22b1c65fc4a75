package intent

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"vidmind/internal/store"
)

func newTestStore(t *testing.T) *store.LocalStore {
	t.Helper()
	s, err := store.NewLocalStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedSegments(t *testing.T, s *store.LocalStore, mediaID string) {
	t.Helper()
	err := s.PutBatch(context.Background(), store.CollectionSegments, []store.Document{
		{MediaID: mediaID, Content: "second part", Metadata: map[string]interface{}{
			"media_id": mediaID, "start_time": 5.0, "end_time": 10.0,
		}},
		{MediaID: mediaID, Content: "first part", Metadata: map[string]interface{}{
			"media_id": mediaID, "start_time": 0.0, "end_time": 5.0,
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestFullTranscriptFallsBackToSegments(t *testing.T) {
	s := newTestStore(t)
	seedSegments(t, s, "m1")

	p := NewContextProvider(s)
	got, err := p.FullTranscript(context.Background(), "m1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "first part second part" {
		t.Errorf("expected playback order, got %q", got)
	}
}

func TestFullTranscriptPrefersFusedChunks(t *testing.T) {
	s := newTestStore(t)
	seedSegments(t, s, "m1")

	err := s.PutBatch(context.Background(), store.CollectionFused, []store.Document{
		{MediaID: "m1", Content: "[00:00–00:05]\nVisual: fused passage", Metadata: map[string]interface{}{
			"media_id": "m1", "start_time": 0.0, "end_time": 5.0,
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	p := NewContextProvider(s)
	got, err := p.FullTranscript(context.Background(), "m1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "fused passage") || strings.Contains(got, "first part") {
		t.Errorf("fused chunks should shadow raw segments, got %q", got)
	}
}

func TestFullTranscriptEmptyMedia(t *testing.T) {
	p := NewContextProvider(newTestStore(t))
	got, err := p.FullTranscript(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("expected empty transcript for unknown media, got %q", got)
	}
}

func TestSegmentsReconstruction(t *testing.T) {
	s := newTestStore(t)
	seedSegments(t, s, "m1")

	p := NewContextProvider(s)
	segments, err := p.Segments(context.Background(), "m1")
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Text != "first part" || segments[0].Start != 0 || segments[0].End != 5 {
		t.Errorf("wrong first segment: %+v", segments[0])
	}
	if segments[1].Text != "second part" {
		t.Errorf("wrong second segment: %+v", segments[1])
	}
}

func TestSearchFormatsBullets(t *testing.T) {
	s := newTestStore(t)
	err := s.PutBatch(context.Background(), store.CollectionFused, []store.Document{
		{MediaID: "m1", Content: "the presenter opens the export dialog", Metadata: map[string]interface{}{
			"media_id": "m1", "start_time": 0.0, "end_time": 4.0,
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	p := NewContextProvider(s)
	got, err := p.Search(context.Background(), "m1", "export dialog")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "Relevant context from indexed content:\n- ") {
		t.Errorf("unexpected context block: %q", got)
	}
	if !strings.Contains(got, "export dialog") {
		t.Errorf("hit missing from context block: %q", got)
	}
}

func TestSearchNoHits(t *testing.T) {
	p := NewContextProvider(newTestStore(t))
	got, err := p.Search(context.Background(), "m1", "zzzz")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("expected empty block when nothing matches, got %q", got)
	}
}

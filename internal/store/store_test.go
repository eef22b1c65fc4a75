package store

import (
	"context"
	"path/filepath"
	"testing"

	"vidmind/internal/types"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "kb.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutBatchAndHasMedia(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.HasMedia(ctx, CollectionSegments, "m1")
	if err != nil || ok {
		t.Fatalf("empty store should have no media, ok=%v err=%v", ok, err)
	}

	docs := []Document{
		{MediaID: "m1", Content: "hello there", Metadata: map[string]interface{}{"media_id": "m1", "start_time": 0.0}},
		{MediaID: "m1", Content: "general remarks", Metadata: map[string]interface{}{"media_id": "m1", "start_time": 2.5}},
	}
	if err := s.PutBatch(ctx, CollectionSegments, docs); err != nil {
		t.Fatal(err)
	}

	ok, err = s.HasMedia(ctx, CollectionSegments, "m1")
	if err != nil || !ok {
		t.Fatalf("expected media after PutBatch, ok=%v err=%v", ok, err)
	}

	// Other collections are unaffected.
	ok, _ = s.HasMedia(ctx, CollectionFused, "m1")
	if ok {
		t.Error("fused collection should be empty")
	}
}

func TestPutBatchEmptyIsNoop(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutBatch(context.Background(), CollectionSegments, nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
}

func TestGetByFilterMatchesMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs := []Document{
		{MediaID: "m1", Content: "usable speech", Metadata: map[string]interface{}{"media_id": "m1", "audio_usable": true}},
		{MediaID: "m2", Content: "other media", Metadata: map[string]interface{}{"media_id": "m2", "audio_usable": false}},
	}
	if err := s.PutBatch(ctx, CollectionSegments, docs); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetByFilter(ctx, CollectionSegments, map[string]interface{}{"media_id": "m1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Content != "usable speech" {
		t.Errorf("unexpected filter result: %+v", got)
	}

	// Non-media_id keys filter against the metadata map.
	got, err = s.GetByFilter(ctx, CollectionSegments, map[string]interface{}{"audio_usable": false})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].MediaID != "m2" {
		t.Errorf("unexpected metadata filter result: %+v", got)
	}
}

func TestQueryKeywordFallback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs := []Document{
		{MediaID: "m1", Content: "the export dialog opens from the file menu"},
		{MediaID: "m1", Content: "background music plays over the intro"},
		{MediaID: "m1", Content: "export settings include format and bitrate"},
	}
	if err := s.PutBatch(ctx, CollectionFused, docs); err != nil {
		t.Fatal(err)
	}

	got, err := s.Query(ctx, CollectionFused, "export format", 2, map[string]interface{}{"media_id": "m1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected top-2 keyword hits, got %d", len(got))
	}
	// Both keywords hit the settings line; it must rank first.
	if got[0].Content != "export settings include format and bitrate" {
		t.Errorf("ranking wrong, first hit: %q", got[0].Content)
	}

	got, err = s.Query(ctx, CollectionFused, "", 5, nil)
	if err != nil || got != nil {
		t.Errorf("empty query should return nothing, got=%v err=%v", got, err)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state, err := s.LoadCheckpoint(ctx, "t1")
	if err != nil || state != nil {
		t.Fatalf("fresh thread should have no checkpoint, state=%v err=%v", state, err)
	}

	saved := &types.ConversationState{
		Messages: []types.Message{types.UserMessage("hi"), types.AssistantMessage("hello")},
		MediaID:  "m1",
		Intent:   types.IntentChat,
	}
	if err := s.SaveCheckpoint(ctx, "t1", saved); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.LoadCheckpoint(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Messages) != 2 || loaded.MediaID != "m1" || loaded.Intent != types.IntentChat {
		t.Errorf("checkpoint corrupted on round trip: %+v", loaded)
	}

	// Saving again replaces the snapshot.
	saved.Messages = append(saved.Messages, types.UserMessage("more"))
	if err := s.SaveCheckpoint(ctx, "t1", saved); err != nil {
		t.Fatal(err)
	}
	loaded, _ = s.LoadCheckpoint(ctx, "t1")
	if len(loaded.Messages) != 3 {
		t.Errorf("expected replaced checkpoint with 3 messages, got %d", len(loaded.Messages))
	}

	if err := s.SaveCheckpoint(ctx, "", saved); err == nil {
		t.Error("empty thread id should be rejected")
	}
}

func TestStatsCountsCollections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.PutBatch(ctx, CollectionSegments, []Document{{MediaID: "m1", Content: "a"}})
	s.PutBatch(ctx, CollectionFused, []Document{{MediaID: "m1", Content: "b"}, {MediaID: "m1", Content: "c"}})
	s.SaveCheckpoint(ctx, "t1", &types.ConversationState{})

	stats, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats[CollectionSegments] != 1 || stats[CollectionFused] != 2 || stats["checkpoints"] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

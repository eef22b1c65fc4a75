package fusion

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"vidmind/internal/store"
	"vidmind/internal/types"
)

func TestTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00"},
		{7.9, "00:07"},
		{65, "01:05"},
		{600, "10:00"},
		{3725, "62:05"},
		{-1, "00:00"},
	}
	for _, tt := range tests {
		if got := Timestamp(tt.seconds); got != tt.want {
			t.Errorf("Timestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatAudioVisual(t *testing.T) {
	chunk := types.DescribedChunk{
		Start:             12,
		End:               18,
		ASRText:           "click the export button",
		VisualDescription: "a settings dialog with the export tab selected",
	}
	got := Format(chunk)
	want := "[00:12–00:18]\nInstruction: click the export button\nVisual: a settings dialog with the export tab selected"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatVisualOnly(t *testing.T) {
	chunk := types.DescribedChunk{
		Start:             0,
		End:               4,
		VisualDescription: "a terminal window scrolling",
	}
	got := Format(chunk)
	if strings.Contains(got, "Instruction:") {
		t.Errorf("visual-only chunk should have no Instruction line: %q", got)
	}
	if got != "[00:00–00:04]\na terminal window scrolling" {
		t.Errorf("unexpected format: %q", got)
	}
}

func TestModality(t *testing.T) {
	if Modality(types.DescribedChunk{ASRText: "speech"}) != types.ModalityAudioVisual {
		t.Error("chunk with transcript should be audio_visual")
	}
	if Modality(types.DescribedChunk{}) != types.ModalityVisual {
		t.Error("chunk without transcript should be visual")
	}
}

func TestPersist(t *testing.T) {
	s, err := store.NewLocalStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	f := NewFuser(s)
	chunks := []types.DescribedChunk{
		{Start: 0, End: 5, ASRText: "open the menu", VisualDescription: "menu appears", FrameCount: 5},
		{Start: 5, End: 9, VisualDescription: "cursor moves to toolbar", FrameCount: 4},
	}

	verdict := &types.UsabilityVerdict{Usable: true, Classification: types.ClassInformational}
	if err := f.Persist(context.Background(), "media123", chunks, verdict); err != nil {
		t.Fatal(err)
	}

	docs, err := s.GetByFilter(context.Background(), store.CollectionFused, map[string]interface{}{"media_id": "media123"})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	bySource := map[string]int{}
	for _, d := range docs {
		bySource[d.Metadata["source_models"].(string)]++
		if d.Metadata["media_id"] != "media123" {
			t.Errorf("wrong media_id in metadata: %v", d.Metadata)
		}
		if usable, ok := d.Metadata["audio_usable"].(bool); !ok || !usable {
			t.Errorf("audio_usable not stamped on chunk: %v", d.Metadata)
		}
		if d.Metadata["audio_classification"] != "informational" {
			t.Errorf("audio_classification not stamped on chunk: %v", d.Metadata)
		}
	}
	if bySource["Whisper,SmolVLM2"] != 1 || bySource["SmolVLM2"] != 1 {
		t.Errorf("unexpected source_models distribution: %v", bySource)
	}
}

func TestPersistWithoutVerdictDefaults(t *testing.T) {
	s, err := store.NewLocalStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	f := NewFuser(s)
	chunks := []types.DescribedChunk{{Start: 0, End: 4, VisualDescription: "slides"}}
	if err := f.Persist(context.Background(), "m1", chunks, nil); err != nil {
		t.Fatal(err)
	}

	docs, err := s.GetByFilter(context.Background(), store.CollectionFused, map[string]interface{}{"media_id": "m1"})
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d (err=%v)", len(docs), err)
	}
	if usable, _ := docs[0].Metadata["audio_usable"].(bool); usable {
		t.Error("missing verdict should record audio_usable=false")
	}
	if docs[0].Metadata["audio_classification"] != "unknown" {
		t.Errorf("missing verdict should record classification unknown, got %v", docs[0].Metadata["audio_classification"])
	}
}

func TestPersistEmpty(t *testing.T) {
	f := NewFuser(nil)
	if err := f.Persist(context.Background(), "media123", nil, nil); err != nil {
		t.Errorf("empty persist should be a no-op, got %v", err)
	}
}

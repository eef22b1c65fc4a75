package media

import (
	"os"
	"path/filepath"
	"testing"

	"vidmind/internal/types"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		path    string
		want    types.MediaKind
		wantErr bool
	}{
		{"clip.mp4", types.MediaKindVideo, false},
		{"lecture.MKV", types.MediaKindVideo, false},
		{"song.mp3", types.MediaKindAudio, false},
		{"voice.WAV", types.MediaKindAudio, false},
		{"/some/dir/talk.m4a", types.MediaKindAudio, false},
		{"notes.txt", "", true},
		{"archive.zip", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		got, err := DetectKind(tt.path)
		if tt.wantErr {
			if err == nil {
				t.Errorf("DetectKind(%q): expected error", tt.path)
			} else if !types.IsKind(err, types.KindIngestion) {
				t.Errorf("DetectKind(%q): expected ingestion error, got %v", tt.path, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("DetectKind(%q): unexpected error %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DetectKind(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestHashFileStable(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.mp4")
	p2 := filepath.Join(dir, "b.mp4")
	content := []byte("identical bytes, different names")
	if err := os.WriteFile(p1, content, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p2, content, 0644); err != nil {
		t.Fatal(err)
	}

	h1, err := HashFile(p1)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashFile(p2)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("identical content hashed differently: %s vs %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("expected 64-char hex digest, got %d chars", len(h1))
	}
}

func TestIdentify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tutorial.mp4")
	if err := os.WriteFile(path, []byte("fake video bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	asset, err := Identify(path)
	if err != nil {
		t.Fatal(err)
	}
	if asset.Kind != types.MediaKindVideo {
		t.Errorf("expected video, got %s", asset.Kind)
	}
	if asset.ID == "" || asset.Path != path {
		t.Errorf("incomplete asset: %+v", asset)
	}

	// Renamed copy yields the same id.
	copied := filepath.Join(dir, "renamed.mp4")
	if err := os.WriteFile(copied, []byte("fake video bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	asset2, err := Identify(copied)
	if err != nil {
		t.Fatal(err)
	}
	if asset2.ID != asset.ID {
		t.Error("renamed copy should map to the same media id")
	}
}

func TestIdentifyMissingFile(t *testing.T) {
	_, err := Identify("/nonexistent/clip.mp4")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !types.IsKind(err, types.KindIngestion) {
		t.Errorf("expected ingestion error, got %v", err)
	}
}

func TestIsSupported(t *testing.T) {
	if !IsSupported("a.webm") || !IsSupported("b.flac") {
		t.Error("known extensions should be supported")
	}
	if IsSupported("c.pdf") {
		t.Error("pdf should not be supported")
	}
}

func TestSampleRejectsInvalidWindow(t *testing.T) {
	s := NewFFmpegSampler(t.TempDir(), 0)
	if _, err := s.Sample(t.Context(), "clip.mp4", 5, 5, 1, 8); err == nil {
		t.Error("expected error for empty window")
	}
	if _, err := s.Sample(t.Context(), "clip.mp4", 7, 3, 1, 8); err == nil {
		t.Error("expected error for inverted window")
	}
}

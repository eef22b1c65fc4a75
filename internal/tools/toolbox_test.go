package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidmind/internal/types"
)

type fakeSource struct {
	transcript string
	segments   []types.TranscriptSegment
	err        error
}

func (f *fakeSource) FullTranscript(ctx context.Context, mediaID string) (string, error) {
	return f.transcript, f.err
}

func (f *fakeSource) Segments(ctx context.Context, mediaID string) ([]types.TranscriptSegment, error) {
	return f.segments, f.err
}

func TestSRTTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.042, "00:01:01,042"},
		{3661.007, "01:01:01,007"},
		{-2, "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := srtTimestamp(tt.seconds); got != tt.want {
			t.Errorf("srtTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestRenderSRT(t *testing.T) {
	segments := []types.TranscriptSegment{
		{Start: 0, End: 2.5, Text: "welcome to the tutorial"},
		{Start: 2.5, End: 4, Text: "  "},
		{Start: 4, End: 7.25, Text: "first open the settings"},
	}
	got := RenderSRT(segments)

	want := "1\n00:00:00,000 --> 00:00:02,500\nwelcome to the tutorial\n\n" +
		"2\n00:00:04,000 --> 00:00:07,250\nfirst open the settings\n\n"
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	tb := NewToolbox(&fakeSource{}, t.TempDir())
	_, err := tb.Execute(context.Background(), "make_coffee", "m1")
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
	if !types.IsKind(err, types.KindToolExecution) {
		t.Errorf("expected tool_execution kind, got %v", types.KindOf(err))
	}
}

func TestExportSRT(t *testing.T) {
	dir := t.TempDir()
	tb := NewToolbox(&fakeSource{
		segments: []types.TranscriptSegment{
			{Start: 0, End: 3, Text: "hello"},
			{Start: 3, End: 6, Text: "world"},
		},
	}, dir)

	result, err := tb.Execute(context.Background(), ToolExportSRT, "abcdef1234567890")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result, ".srt") || !strings.Contains(result, "2 cues") {
		t.Errorf("unexpected result message: %q", result)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 exported file, got %d", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "00:00:00,000 --> 00:00:03,000") {
		t.Errorf("exported file missing cue timing:\n%s", data)
	}
}

func TestExportSRTNoSegments(t *testing.T) {
	tb := NewToolbox(&fakeSource{}, t.TempDir())
	_, err := tb.Execute(context.Background(), ToolExportSRT, "m1")
	if !errors.Is(err, ErrNoTranscript) {
		t.Errorf("expected ErrNoTranscript, got %v", err)
	}
}

func TestExportSRTNoMedia(t *testing.T) {
	tb := NewToolbox(&fakeSource{}, t.TempDir())
	_, err := tb.Execute(context.Background(), ToolExportSRT, "")
	if !errors.Is(err, ErrNoMedia) {
		t.Errorf("expected ErrNoMedia, got %v", err)
	}
}

func TestWholeTranscript(t *testing.T) {
	tb := NewToolbox(&fakeSource{transcript: "the full transcript text"}, t.TempDir())
	got, err := tb.Execute(context.Background(), ToolWholeTranscript, "m1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "the full transcript text" {
		t.Errorf("got %q", got)
	}
}

func TestWholeTranscriptEmpty(t *testing.T) {
	tb := NewToolbox(&fakeSource{}, t.TempDir())
	_, err := tb.Execute(context.Background(), ToolWholeTranscript, "m1")
	if !errors.Is(err, ErrNoTranscript) {
		t.Errorf("expected ErrNoTranscript, got %v", err)
	}
}

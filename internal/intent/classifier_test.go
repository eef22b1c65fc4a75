package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"vidmind/internal/types"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, messages []types.Message) (string, error) {
	if len(messages) > 0 {
		f.prompts = append(f.prompts, messages[len(messages)-1].Content)
	}
	return f.response, f.err
}

func (f *fakeGenerator) GenerateStream(ctx context.Context, messages []types.Message) (<-chan string, <-chan error) {
	tokens := make(chan string)
	errs := make(chan error, 1)
	close(tokens)
	close(errs)
	return tokens, errs
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		response string
		want     types.Intent
	}{
		{"SUMMARIZE", types.IntentSummarize},
		{"question", types.IntentQuestion},
		{"EXPORT_SRT\nBecause the user asked for subtitles.", types.IntentExportSRT},
		{"  CHAT  ", types.IntentChat},
		{"UNCLEAR", types.IntentUnclear},
		// The raw token must match exactly; punctuation or markdown around
		// the category name is an invalid answer.
		{"Summarize.", types.IntentUnclear},
		{"**QUESTION**", types.IntentUnclear},
		{"SUMMARIZE!", types.IntentUnclear},
		{"I think the user wants a summary", types.IntentUnclear},
		{"BANANA", types.IntentUnclear},
		{"", types.IntentUnclear},
	}
	for _, tt := range tests {
		if got := parseIntent(tt.response); got != tt.want {
			t.Errorf("parseIntent(%q) = %s, want %s", tt.response, got, tt.want)
		}
	}
}

func TestClassifyHappyPath(t *testing.T) {
	gen := &fakeGenerator{response: "QUESTION"}
	c := NewClassifier(gen)

	intent := c.Classify(context.Background(), []types.Message{
		types.UserMessage("what tool does the presenter open at 2 minutes?"),
	}, true)
	if intent != types.IntentQuestion {
		t.Errorf("expected QUESTION, got %s", intent)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("expected 1 generation call, got %d", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "The user has uploaded a media file.") {
		t.Error("prompt should mention loaded media")
	}
	if !strings.Contains(gen.prompts[0], "what tool does the presenter open") {
		t.Error("prompt should carry the user query")
	}
}

func TestClassifyNoMediaContext(t *testing.T) {
	gen := &fakeGenerator{response: "CHAT"}
	c := NewClassifier(gen)

	c.Classify(context.Background(), []types.Message{types.UserMessage("hello there")}, false)
	if !strings.Contains(gen.prompts[0], "No media file is currently loaded.") {
		t.Error("prompt should mention missing media")
	}
}

func TestClassifyEmptyHistory(t *testing.T) {
	gen := &fakeGenerator{response: "SUMMARIZE"}
	c := NewClassifier(gen)

	if got := c.Classify(context.Background(), nil, true); got != types.IntentUnclear {
		t.Errorf("expected UNCLEAR for empty history, got %s", got)
	}
	if len(gen.prompts) != 0 {
		t.Error("no generation call should be made without a query")
	}
}

func TestClassifyGeneratorError(t *testing.T) {
	c := NewClassifier(&fakeGenerator{err: errors.New("backend down")})
	got := c.Classify(context.Background(), []types.Message{types.UserMessage("summarize it")}, true)
	if got != types.IntentUnclear {
		t.Errorf("expected UNCLEAR on error, got %s", got)
	}
}

func TestActionForKnownIntents(t *testing.T) {
	if spec := ActionFor(types.IntentSummarize); spec.ContextSource != ContextFullTranscript || !spec.RequiresMedia {
		t.Errorf("unexpected SUMMARIZE spec: %+v", spec)
	}
	if spec := ActionFor(types.IntentQuestion); spec.ContextSource != ContextSearch || spec.RequiresMedia {
		t.Errorf("unexpected QUESTION spec: %+v", spec)
	}
	if spec := ActionFor(types.IntentExportSRT); spec.OutputTool == "" || spec.LLMTask != TaskPresentResult {
		t.Errorf("unexpected EXPORT_SRT spec: %+v", spec)
	}
	if spec := ActionFor(types.IntentChat); spec.ContextSource != ContextNone || spec.LLMTask != TaskChat {
		t.Errorf("unexpected CHAT spec: %+v", spec)
	}
	if spec := ActionFor(types.IntentUnclear); !spec.Clarification {
		t.Errorf("unexpected UNCLEAR spec: %+v", spec)
	}
}

func TestActionForUnknownIntent(t *testing.T) {
	if spec := ActionFor(types.Intent("GIBBERISH")); !spec.Clarification {
		t.Error("unknown intent should resolve to the clarification row")
	}
}

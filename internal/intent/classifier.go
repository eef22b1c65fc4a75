// Package intent classifies each user turn into a closed set of intents and
// maps intents onto the actions that prepare context, run tools, and choose
// the response-generation task.
package intent

import (
	"context"
	"fmt"
	"strings"

	"vidmind/internal/logging"
	"vidmind/internal/types"
)

// Classifier routes a user turn to one of the valid intents using a
// constrained generation call: the model is told to emit only the category
// name and only the first token of its reply is trusted.
type Classifier struct {
	generator types.TextGenerator
}

// NewClassifier builds a classifier over the given generator.
func NewClassifier(generator types.TextGenerator) *Classifier {
	return &Classifier{generator: generator}
}

// Classify determines the intent of the latest user message. It never fails:
// an empty query, a generation error, or an answer outside the closed set all
// resolve to UNCLEAR.
func (c *Classifier) Classify(ctx context.Context, messages []types.Message, hasMedia bool) types.Intent {
	query := types.LastUserContent(messages)
	if query == "" {
		logging.Intent("No user query found, defaulting to UNCLEAR")
		return types.IntentUnclear
	}

	prompt := buildClassificationPrompt(query, hasMedia)
	response, err := c.generator.Generate(ctx, []types.Message{types.UserMessage(prompt)})
	if err != nil {
		logging.Intent("Classification failed, defaulting to UNCLEAR: %v", err)
		return types.IntentUnclear
	}

	intent := parseIntent(response)
	logging.Intent("Classified intent: %s (query=%q)", intent, truncate(query, 80))
	return intent
}

// parseIntent extracts the intent from a model reply: first whitespace token,
// uppercased. The raw token must match a valid intent exactly, so punctuation
// or markdown around the category name maps to UNCLEAR.
func parseIntent(response string) types.Intent {
	fields := strings.Fields(response)
	if len(fields) == 0 {
		return types.IntentUnclear
	}

	token := strings.ToUpper(fields[0])
	intent := types.Intent(token)
	if !intent.IsValid() {
		logging.IntentDebug("Invalid intent token %q, defaulting to UNCLEAR", token)
		return types.IntentUnclear
	}
	return intent
}

func buildClassificationPrompt(query string, hasMedia bool) string {
	mediaContext := "No media file is currently loaded."
	if hasMedia {
		mediaContext = "The user has uploaded a media file."
	}

	return fmt.Sprintf(`Classify this user query into ONE category. Output ONLY the category name.

Categories:
- SUMMARIZE: User wants a summary, overview, or general understanding of the content
- QUESTION: User asks a specific question about the content
- EXPORT_SRT: User wants to export or download the transcript (SRT, subtitles, captions)
- CHAT: General conversation unrelated to the media content
- UNCLEAR: The intent is ambiguous or doesn't fit other categories

Context: %s

Query: "%s"

Category:`, mediaContext, query)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

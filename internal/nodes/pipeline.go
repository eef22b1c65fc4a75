package nodes

import (
	"vidmind/internal/chunking"
	"vidmind/internal/fusion"
	"vidmind/internal/graph"
	"vidmind/internal/intent"
	"vidmind/internal/store"
	"vidmind/internal/tools"
	"vidmind/internal/types"
	"vidmind/internal/vision"
)

// PipelineDeps are the external dependencies the pipeline nodes need.
type PipelineDeps struct {
	Store       *store.LocalStore
	Transcriber types.Transcriber
	Sampler     types.MediaSampler
	Vision      *vision.Driver
	Generator   types.TextGenerator
	Chunking    chunking.Options
	ExportDir   string

	// MaxConcurrentRuns bounds runs across threads.
	MaxConcurrentRuns int
}

// BuildExecutor wires the full pipeline:
//
//	entry -> transcription -> [chunking -> vision -> fusion] -> intent -> action -> [response] -> end
//
// Bracketed stages are conditional: the vision pipeline runs only for video
// assets without cached fused chunks, and the response stage only when the
// action stage left a generation task behind.
func BuildExecutor(deps PipelineDeps) *graph.Executor {
	provider := intent.NewContextProvider(deps.Store)
	toolbox := tools.NewToolbox(provider, deps.ExportDir)
	classifier := intent.NewClassifier(deps.Generator)
	fuser := fusion.NewFuser(deps.Store)

	exec := graph.NewExecutor(deps.Store, entryEdge, deps.MaxConcurrentRuns)

	exec.AddNode(NewTranscriptionNode(deps.Transcriber, deps.Store), afterTranscription)
	exec.AddNode(NewChunkingNode(deps.Store, deps.Sampler, deps.Chunking), afterChunking)
	exec.AddNode(NewVisionNode(deps.Vision), func(*types.ConversationState) string { return NameFusion })
	exec.AddNode(NewFusionNode(fuser), func(*types.ConversationState) string { return NameIntent })
	exec.AddNode(NewIntentNode(classifier), func(*types.ConversationState) string { return NameAction })
	exec.AddNode(NewActionNode(provider, toolbox), afterAction)
	exec.AddNode(NewResponseNode(deps.Generator), func(*types.ConversationState) string { return graph.End })

	return exec
}

// entryEdge routes a fresh turn: media input goes through ingestion, a plain
// message goes straight to intent classification.
func entryEdge(state *types.ConversationState) string {
	if state.AudioPath != "" || state.VideoPath != "" {
		return NameTranscription
	}
	return NameIntent
}

// afterTranscription enters the vision pipeline only for video assets whose
// fused chunks are not already marked done.
func afterTranscription(state *types.ConversationState) string {
	if state.VideoPath != "" && !state.VLMProcessed {
		return NameChunking
	}
	return NameIntent
}

// afterChunking skips the vision stages when chunking produced nothing,
// which covers both the fused-cache hit and degenerate media.
func afterChunking(state *types.ConversationState) string {
	if len(state.Chunks) == 0 {
		return NameIntent
	}
	return NameVision
}

// afterAction ends the turn when the action stage already emitted the final
// message; otherwise the response stage generates it.
func afterAction(state *types.ConversationState) string {
	if state.Task == "" {
		return graph.End
	}
	return NameResponse
}

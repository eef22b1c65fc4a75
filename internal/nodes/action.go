package nodes

import (
	"context"

	"vidmind/internal/graph"
	"vidmind/internal/intent"
	"vidmind/internal/logging"
	"vidmind/internal/tools"
	"vidmind/internal/types"
)

// ActionNode executes the intent's action spec: validate the media
// requirement, fetch context, run the output tool, and hand the
// response-generation task downstream. Several outcomes short-circuit the
// turn by emitting a final assistant message and leaving Task empty.
type ActionNode struct {
	provider *intent.ContextProvider
	toolbox  *tools.Toolbox
}

var _ graph.Node = (*ActionNode)(nil)

// NewActionNode builds the node.
func NewActionNode(provider *intent.ContextProvider, toolbox *tools.Toolbox) *ActionNode {
	return &ActionNode{provider: provider, toolbox: toolbox}
}

func (n *ActionNode) Name() string { return NameAction }

func (n *ActionNode) Run(ctx context.Context, state *types.ConversationState) (*types.StateUpdate, error) {
	spec := intent.ActionFor(state.Intent)
	logging.Intent("Executing actions for intent %s", state.Intent)

	if spec.Clarification {
		logging.Intent("Intent unclear, returning clarification message")
		return n.finalMessage(ctx, intent.ClarificationMessage), nil
	}

	if spec.RequiresMedia && state.MediaID == "" {
		logging.Intent("Media required for %s but none loaded", state.Intent)
		return n.finalMessage(ctx, intent.MissingMediaMessage), nil
	}

	update := &types.StateUpdate{
		Task:            types.String(spec.LLMTask),
		PreparedContext: types.String(""),
		ToolResult:      types.String(""),
	}

	switch spec.ContextSource {
	case intent.ContextFullTranscript:
		transcript, err := n.provider.FullTranscript(ctx, state.MediaID)
		if err != nil {
			return nil, types.E(types.KindPersistence, "action", err)
		}
		if transcript == "" {
			logging.Intent("No transcript cached for media %s", shortID(state.MediaID))
			return n.finalMessage(ctx, intent.MissingTranscriptMessage), nil
		}
		update.PreparedContext = types.String(transcript)
		logging.IntentDebug("Fetched full transcript: %d chars", len(transcript))

	case intent.ContextSearch:
		query := types.LastUserContent(state.Messages)
		block, err := n.provider.Search(ctx, state.MediaID, query)
		if err != nil {
			return nil, types.E(types.KindPersistence, "action", err)
		}
		update.PreparedContext = types.String(block)
		logging.IntentDebug("Retrieved context block: %d chars", len(block))
	}

	if spec.OutputTool != "" {
		result, err := n.toolbox.Execute(ctx, spec.OutputTool, state.MediaID)
		if err != nil {
			logging.Intent("Tool %s failed: %v", spec.OutputTool, err)
			return n.finalMessage(ctx, intent.ToolFailureMessage), nil
		}
		update.ToolResult = types.String(result)
	}

	return update, nil
}

// finalMessage emits a final assistant message and clears the task so the
// response stage is skipped. The live callback sees the message too.
func (n *ActionNode) finalMessage(ctx context.Context, message string) *types.StateUpdate {
	if cb := graph.TokenCallbackFrom(ctx); cb != nil {
		cb(message)
	}
	return &types.StateUpdate{
		Messages:        []types.Message{types.AssistantMessage(message)},
		Task:            types.String(""),
		PreparedContext: types.String(""),
		ToolResult:      types.String(""),
	}
}

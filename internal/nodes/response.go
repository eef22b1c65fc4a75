package nodes

import (
	"context"

	"vidmind/internal/graph"
	"vidmind/internal/intent"
	"vidmind/internal/logging"
	"vidmind/internal/stream"
	"vidmind/internal/types"
)

// ResponseNode generates the assistant's reply for the turn's task. Tokens
// stream to the live callback while the accumulated text becomes the
// persisted assistant message. Task, context, and tool result are cleared
// afterwards so the next turn starts clean.
type ResponseNode struct {
	generator types.TextGenerator
}

var _ graph.Node = (*ResponseNode)(nil)

// NewResponseNode builds the node.
func NewResponseNode(generator types.TextGenerator) *ResponseNode {
	return &ResponseNode{generator: generator}
}

func (n *ResponseNode) Name() string { return NameResponse }

func (n *ResponseNode) Run(ctx context.Context, state *types.ConversationState) (*types.StateUpdate, error) {
	messages := buildGenerationMessages(state)

	tokens, errs := n.generator.GenerateStream(ctx, messages)
	text, err := stream.Bridge(ctx, tokens, errs, graph.TokenCallbackFrom(ctx))
	if err != nil {
		return nil, types.E(types.KindGeneration, "response", err)
	}

	logging.Graph("Response generated for task %q: %d chars", state.Task, len(text))
	return &types.StateUpdate{
		Messages:        []types.Message{types.AssistantMessage(text)},
		Task:            types.String(""),
		PreparedContext: types.String(""),
		ToolResult:      types.String(""),
	}, nil
}

// buildGenerationMessages assembles the system instruction for the task, the
// prepared context, and the conversation history.
func buildGenerationMessages(state *types.ConversationState) []types.Message {
	system := taskInstruction(state.Task)

	out := make([]types.Message, 0, len(state.Messages)+2)
	out = append(out, types.Message{Role: types.RoleSystem, Content: system})

	if state.PreparedContext != "" {
		out = append(out, types.Message{
			Role:    types.RoleTool,
			Content: state.PreparedContext,
		})
	}
	if state.ToolResult != "" {
		out = append(out, types.Message{
			Role:    types.RoleTool,
			Content: state.ToolResult,
		})
	}

	out = append(out, state.Messages...)
	return out
}

// taskInstruction maps a response task onto its system instruction.
func taskInstruction(task string) string {
	switch task {
	case intent.TaskSummarize:
		return "Summarize the provided media transcript. Cover the main topics in order, " +
			"keep timestamps when they help, and stay faithful to the content."
	case intent.TaskAnswer:
		return "Answer the user's question using the provided context from the media. " +
			"If the context does not contain the answer, say so instead of guessing."
	case intent.TaskPresentResult:
		return "A tool just ran on the user's behalf. Present its result to the user " +
			"clearly and briefly."
	case intent.TaskChat:
		return "Have a natural conversation with the user."
	default:
		return "Respond helpfully to the user."
	}
}

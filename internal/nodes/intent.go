package nodes

import (
	"context"

	"vidmind/internal/graph"
	"vidmind/internal/intent"
	"vidmind/internal/types"
)

// IntentNode classifies the latest user turn. It never fails the run; every
// failure mode inside the classifier resolves to UNCLEAR.
type IntentNode struct {
	classifier *intent.Classifier
}

var _ graph.Node = (*IntentNode)(nil)

// NewIntentNode builds the node.
func NewIntentNode(classifier *intent.Classifier) *IntentNode {
	return &IntentNode{classifier: classifier}
}

func (n *IntentNode) Name() string { return NameIntent }

func (n *IntentNode) Run(ctx context.Context, state *types.ConversationState) (*types.StateUpdate, error) {
	result := n.classifier.Classify(ctx, state.Messages, state.MediaID != "")
	return &types.StateUpdate{Intent: types.IntentPtr(result)}, nil
}

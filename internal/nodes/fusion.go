package nodes

import (
	"context"

	"vidmind/internal/fusion"
	"vidmind/internal/graph"
	"vidmind/internal/logging"
	"vidmind/internal/types"
)

// FusionNode persists the described chunks and closes out video processing.
// The video path is cleared here so later turns on the thread never re-enter
// the ingestion pipeline for the same state.
type FusionNode struct {
	fuser *fusion.Fuser
}

var _ graph.Node = (*FusionNode)(nil)

// NewFusionNode builds the node.
func NewFusionNode(fuser *fusion.Fuser) *FusionNode {
	return &FusionNode{fuser: fuser}
}

func (n *FusionNode) Name() string { return NameFusion }

func (n *FusionNode) Run(ctx context.Context, state *types.ConversationState) (*types.StateUpdate, error) {
	update := &types.StateUpdate{
		VideoPath: types.String(""),
		Chunks:    []types.ProcessingChunk{},
		Described: []types.DescribedChunk{},
	}

	if len(state.Described) == 0 {
		logging.Fusion("No described chunks to fuse")
		update.VLMProcessed = types.Bool(false)
		return update, nil
	}
	if state.MediaID == "" {
		logging.Fusion("No media id in state, cannot persist fused chunks")
		update.VLMProcessed = types.Bool(false)
		return update, nil
	}

	if err := n.fuser.Persist(ctx, state.MediaID, state.Described, state.Usability); err != nil {
		return nil, err
	}

	update.VLMProcessed = types.Bool(true)
	return update, nil
}

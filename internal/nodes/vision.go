package nodes

import (
	"context"

	"vidmind/internal/graph"
	"vidmind/internal/logging"
	"vidmind/internal/types"
	"vidmind/internal/vision"
)

// VisionNode runs the visual description pass over the pending chunks.
type VisionNode struct {
	driver *vision.Driver
}

var _ graph.Node = (*VisionNode)(nil)

// NewVisionNode builds the node.
func NewVisionNode(driver *vision.Driver) *VisionNode {
	return &VisionNode{driver: driver}
}

func (n *VisionNode) Name() string { return NameVision }

func (n *VisionNode) Run(ctx context.Context, state *types.ConversationState) (*types.StateUpdate, error) {
	if state.VideoPath == "" || len(state.Chunks) == 0 {
		logging.Vision("Nothing to describe, skipping vision stage")
		return &types.StateUpdate{Described: []types.DescribedChunk{}}, nil
	}

	described, err := n.driver.DescribeChunks(ctx, state.VideoPath, state.Chunks)
	if err != nil {
		return nil, err
	}

	return &types.StateUpdate{Described: described}, nil
}

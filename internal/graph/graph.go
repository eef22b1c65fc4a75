// Package graph runs the conversation pipeline: a directed graph of nodes
// over shared conversation state, checkpointed after every node so a thread
// can resume from its last durable snapshot.
package graph

import (
	"context"
	"errors"

	"vidmind/internal/types"
)

// End is the terminal routing target.
const End = "end"

// ErrThreadBusy is returned when a turn arrives for a thread that already has
// a run in flight. Turns on one thread are strictly sequential.
var ErrThreadBusy = errors.New("thread already has a run in progress")

// ErrUnknownNode is returned when routing names a node that was never added.
var ErrUnknownNode = errors.New("unknown node")

// Node is one pipeline stage. Run observes the state and returns a partial
// update; it never mutates the state directly.
type Node interface {
	Name() string
	Run(ctx context.Context, state *types.ConversationState) (*types.StateUpdate, error)
}

// EdgeFunc routes from a finished node to the next one, purely from state.
// Returning End finishes the run.
type EdgeFunc func(state *types.ConversationState) string

// Checkpointer persists per-thread state snapshots.
type Checkpointer interface {
	SaveCheckpoint(ctx context.Context, threadID string, state *types.ConversationState) error
	LoadCheckpoint(ctx context.Context, threadID string) (*types.ConversationState, error)
}

type callbackKey struct{}

// WithTokenCallback attaches a live token callback to the context so the
// response stage can stream tokens while the run is still in flight.
func WithTokenCallback(ctx context.Context, cb types.TokenCallback) context.Context {
	return context.WithValue(ctx, callbackKey{}, cb)
}

// TokenCallbackFrom extracts the token callback, or nil when none is set.
func TokenCallbackFrom(ctx context.Context) types.TokenCallback {
	cb, _ := ctx.Value(callbackKey{}).(types.TokenCallback)
	return cb
}

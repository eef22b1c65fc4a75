package graph

import (
	"context"
	"fmt"
	"sync"

	"vidmind/internal/logging"
	"vidmind/internal/types"

	"golang.org/x/sync/semaphore"
)

// Executor runs the node graph for conversation turns. A weighted semaphore
// bounds how many runs execute concurrently across threads; within one thread
// runs are rejected, not queued, while another is in flight.
type Executor struct {
	checkpointer Checkpointer
	nodes        map[string]Node
	edges        map[string]EdgeFunc
	entry        EdgeFunc

	sem *semaphore.Weighted

	mu     sync.Mutex
	active map[string]bool

	// MaxSteps guards against routing cycles.
	MaxSteps int
}

// NewExecutor builds an executor. maxConcurrent bounds simultaneous runs.
func NewExecutor(checkpointer Checkpointer, entry EdgeFunc, maxConcurrent int) *Executor {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Executor{
		checkpointer: checkpointer,
		nodes:        make(map[string]Node),
		edges:        make(map[string]EdgeFunc),
		entry:        entry,
		sem:          semaphore.NewWeighted(int64(maxConcurrent)),
		active:       make(map[string]bool),
		MaxSteps:     32,
	}
}

// AddNode registers a node and the edge function that routes after it.
func (e *Executor) AddNode(node Node, edge EdgeFunc) {
	e.nodes[node.Name()] = node
	e.edges[node.Name()] = edge
}

// TurnInput is what a user turn contributes to the state before the run.
type TurnInput struct {
	// UserMessage is appended to the history when non-empty.
	UserMessage string

	// AudioPath / VideoPath trigger ingestion of a new media file.
	AudioPath string
	VideoPath string
}

// Run executes one turn on a thread: load the checkpoint, apply the input,
// walk the graph checkpointing after every node, and return the final state.
// The token callback from the context, if any, receives response tokens live.
func (e *Executor) Run(ctx context.Context, threadID string, input TurnInput) (*types.ConversationState, error) {
	if threadID == "" {
		return nil, fmt.Errorf("thread id required")
	}

	if !e.tryAcquireThread(threadID) {
		logging.Graph("Thread %s rejected: %v", threadID, ErrThreadBusy)
		return nil, ErrThreadBusy
	}
	defer e.releaseThread(threadID)

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire run slot: %w", err)
	}
	defer e.sem.Release(1)

	timer := logging.StartTimer(logging.CategoryGraph, "Run")
	defer timer.Stop()

	state, err := e.checkpointer.LoadCheckpoint(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if state == nil {
		state = &types.ConversationState{}
	}

	applyInput(state, input)

	current := e.entry(state)
	logging.Graph("Thread %s: starting run at node %s", threadID, current)

	for step := 0; current != End; step++ {
		if step >= e.MaxSteps {
			return state, fmt.Errorf("run exceeded %d steps at node %s", e.MaxSteps, current)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		node, ok := e.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrUnknownNode, current)
		}

		logging.GraphDebug("Thread %s: running node %s", threadID, current)
		update, err := node.Run(ctx, state)
		if err != nil {
			// Persist what we have so the thread can resume, then surface.
			if saveErr := e.checkpointer.SaveCheckpoint(ctx, threadID, state); saveErr != nil {
				logging.Graph("Thread %s: checkpoint after failure also failed: %v", threadID, saveErr)
			}
			return state, fmt.Errorf("node %s: %w", current, err)
		}

		state.Apply(update)

		if err := e.checkpointer.SaveCheckpoint(ctx, threadID, state); err != nil {
			return state, fmt.Errorf("failed to checkpoint after node %s: %w", current, err)
		}

		next := e.edges[current](state)
		logging.GraphDebug("Thread %s: %s -> %s", threadID, current, next)
		current = next
	}

	logging.Graph("Thread %s: run complete (%d messages)", threadID, len(state.Messages))
	return state, nil
}

// History returns the persisted conversation for a thread.
func (e *Executor) History(ctx context.Context, threadID string) ([]types.Message, error) {
	state, err := e.checkpointer.LoadCheckpoint(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}
	return state.Messages, nil
}

func (e *Executor) tryAcquireThread(threadID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active[threadID] {
		return false
	}
	e.active[threadID] = true
	return true
}

func (e *Executor) releaseThread(threadID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, threadID)
}

// applyInput folds the turn input into the state before routing.
func applyInput(state *types.ConversationState, input TurnInput) {
	if input.UserMessage != "" {
		state.Messages = append(state.Messages, types.UserMessage(input.UserMessage))
	}
	if input.AudioPath != "" {
		state.AudioPath = input.AudioPath
	}
	if input.VideoPath != "" {
		state.VideoPath = input.VideoPath
	}
	// A fresh media file restarts the processing lifecycle for the thread.
	if input.AudioPath != "" || input.VideoPath != "" {
		state.VLMProcessed = false
		state.Usability = nil
	}
}

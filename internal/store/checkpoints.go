package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"vidmind/internal/logging"
	"vidmind/internal/types"
)

// SaveCheckpoint persists the conversation state for a thread, replacing any
// prior snapshot. Called by the graph executor after every node.
func (s *LocalStore) SaveCheckpoint(ctx context.Context, threadID string, state *types.ConversationState) error {
	if threadID == "" {
		return fmt.Errorf("thread id required")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO checkpoints (thread_id, state, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
		threadID, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	logging.StoreDebug("Checkpoint saved for thread %s (%d bytes)", threadID, len(data))
	return nil
}

// LoadCheckpoint returns the last persisted state for a thread, or nil when
// the thread has no checkpoint yet.
func (s *LocalStore) LoadCheckpoint(ctx context.Context, threadID string) (*types.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM checkpoints WHERE thread_id = ?", threadID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	var state types.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to deserialize checkpoint for thread %s: %w", threadID, err)
	}

	return &state, nil
}

// Package store implements the content-addressable knowledge cache and the
// per-thread conversation checkpoints on SQLite.
//
// Documents (transcript segments and fused multimodal chunks) are keyed by
// media id and are append-only: once a media id has entries in a collection
// they are never regenerated unless the id is absent. That is the sole
// deduplication mechanism - no TTL, no invalidation.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"vidmind/internal/embedding"
	"vidmind/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// Collection names. They match the two logical stores the pipeline writes.
const (
	// CollectionSegments holds raw transcript segments.
	CollectionSegments = "asr_segments"

	// CollectionFused holds fused multimodal chunks.
	CollectionFused = "multimodal_chunks"
)

// LocalStore is the SQLite-backed cache. Safe for concurrent use.
type LocalStore struct {
	db              *sql.DB
	mu              sync.RWMutex
	dbPath          string
	embeddingEngine embedding.EmbeddingEngine // optional; keyword search without it
	vectorExt       bool                      // sqlite-vec available
	vecReady        bool                      // vec_documents table created
}

// NewLocalStore initializes the SQLite database at the given path.
func NewLocalStore(path string) (*LocalStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewLocalStore")
	defer timer.Stop()

	logging.Store("Initializing LocalStore at path: %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	store := &LocalStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	store.detectVecExtension()
	if store.vectorExt {
		logging.Store("sqlite-vec extension detected and enabled")
	} else {
		logging.StoreDebug("sqlite-vec extension not available; using in-process similarity")
	}

	return store, nil
}

// initialize creates the schema.
func (s *LocalStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		collection TEXT NOT NULL,
		media_id TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT,
		embedding TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_documents_media ON documents(collection, media_id);

	CREATE TABLE IF NOT EXISTS checkpoints (
		thread_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// detectVecExtension probes for the sqlite-vec extension.
func (s *LocalStore) detectVecExtension() {
	var version string
	if err := s.db.QueryRow("SELECT vec_version()").Scan(&version); err == nil {
		s.vectorExt = true
		logging.StoreDebug("sqlite-vec version: %s", version)
	}
}

// SetEmbeddingEngine configures the embedding engine for semantic search.
// Without one, queries fall back to keyword matching.
func (s *LocalStore) SetEmbeddingEngine(engine embedding.EmbeddingEngine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddingEngine = engine
	if s.vectorExt && engine != nil && !s.vecReady {
		s.initVecTable(engine.Dimensions())
	}
}

// HasVectorExtension reports whether sqlite-vec was detected.
func (s *LocalStore) HasVectorExtension() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectorExt
}

// Stats returns document counts per collection.
func (s *LocalStore) Stats() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT collection, COUNT(*) FROM documents GROUP BY collection")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int64)
	for rows.Next() {
		var collection string
		var count int64
		if err := rows.Scan(&collection, &count); err != nil {
			continue
		}
		stats[collection] = count
	}

	var checkpoints int64
	s.db.QueryRow("SELECT COUNT(*) FROM checkpoints").Scan(&checkpoints)
	stats["checkpoints"] = checkpoints

	return stats, nil
}

// Close closes the underlying database.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"vidmind/internal/embedding"
	"vidmind/internal/logging"

	"github.com/google/uuid"
)

// Document is one cached text chunk with provenance metadata.
type Document struct {
	ID         string
	Collection string
	MediaID    string
	Content    string
	Metadata   map[string]interface{}
	Similarity float64 // populated by Query
}

// PutBatch stores documents in one transaction. Either all documents become
// durable or none do, so a failed ingestion can be retried wholesale.
func (s *LocalStore) PutBatch(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	timer := logging.StartTimer(logging.CategoryStore, "PutBatch")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Embed outside the transaction; a failed embedding fails the batch
	// before anything is written.
	var embeddings [][]float32
	if s.embeddingEngine != nil {
		texts := make([]string, len(docs))
		for i, d := range docs {
			texts[i] = d.Content
		}
		var err error
		embeddings, err = s.embeddingEngine.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT INTO documents (id, collection, media_id, content, metadata, embedding) VALUES (?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, len(docs))
	for i, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id

		metaJSON, _ := json.Marshal(doc.Metadata)

		var embJSON string
		if embeddings != nil {
			b, _ := json.Marshal(embeddings[i])
			embJSON = string(b)
		}

		if _, err := stmt.ExecContext(ctx, id, collection, doc.MediaID, doc.Content, string(metaJSON), nullable(embJSON)); err != nil {
			return fmt.Errorf("failed to insert document %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	if embeddings != nil {
		s.insertVecRows(ctx, ids, embeddings)
	}

	logging.Store("Stored %d documents in collection %s", len(docs), collection)
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// HasMedia reports whether any documents exist for the media id.
func (s *LocalStore) HasMedia(ctx context.Context, collection, mediaID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE collection = ? AND media_id = ?",
		collection, mediaID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByFilter returns exact metadata matches. The media_id key is resolved
// against the indexed column; remaining keys are matched against the
// document's metadata map.
func (s *LocalStore) GetByFilter(ctx context.Context, collection string, filter map[string]interface{}) ([]Document, error) {
	timer := logging.StartTimer(logging.CategoryStore, "GetByFilter")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, media_id, content, metadata FROM documents WHERE collection = ?"
	args := []interface{}{collection}

	rest := make(map[string]interface{})
	for k, v := range filter {
		if k == "media_id" {
			query += " AND media_id = ?"
			args = append(args, fmt.Sprintf("%v", v))
			continue
		}
		rest[k] = v
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Document
	for rows.Next() {
		doc, ok := s.scanDocument(rows, collection)
		if !ok {
			continue
		}
		if metadataMatches(doc.Metadata, rest) {
			results = append(results, doc)
		}
	}

	logging.StoreDebug("GetByFilter(%s) returned %d documents", collection, len(results))
	return results, rows.Err()
}

// Query performs semantic nearest-neighbor search when an embedding engine is
// configured, keyword matching otherwise. Filter semantics match GetByFilter.
func (s *LocalStore) Query(ctx context.Context, collection, text string, topK int, filter map[string]interface{}) ([]Document, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Query")
	defer timer.Stop()

	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	engine := s.embeddingEngine
	s.mu.RUnlock()

	if engine == nil {
		return s.queryKeyword(ctx, collection, text, topK, filter)
	}
	return s.querySemantic(ctx, collection, text, topK, filter, engine)
}

// querySemantic embeds the query and ranks by cosine similarity, through the
// vec0 ANN index when available and in-process otherwise.
func (s *LocalStore) querySemantic(ctx context.Context, collection, text string, topK int, filter map[string]interface{}, engine embedding.EmbeddingEngine) ([]Document, error) {
	queryVec, err := engine.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, vecErr := s.searchVec(ctx, collection, queryVec, topK, filter)
	if vecErr == nil {
		logging.StoreDebug("Vec search in %s returned %d results", collection, len(results))
		return results, nil
	}
	logging.StoreDebug("Vec search unavailable, using in-process similarity: %v", vecErr)

	candidates, err := s.fetchCandidates(ctx, collection, filter, true)
	if err != nil {
		return nil, err
	}

	type scored struct {
		doc Document
		sim float64
	}
	var ranked []scored
	for _, c := range candidates {
		if c.embedding == nil {
			continue
		}
		sim, err := embedding.CosineSimilarity(queryVec, c.embedding)
		if err != nil {
			continue
		}
		ranked = append(ranked, scored{doc: c.doc, sim: sim})
	}

	// Sort by similarity descending.
	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			if ranked[j].sim > ranked[i].sim {
				ranked[i], ranked[j] = ranked[j], ranked[i]
			}
		}
	}
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	results = make([]Document, len(ranked))
	for i, r := range ranked {
		results[i] = r.doc
		results[i].Similarity = r.sim
	}

	logging.StoreDebug("Semantic query in %s returned %d/%d candidates", collection, len(results), len(candidates))
	return results, nil
}

// queryKeyword is the fallback search when no embedding engine is configured.
func (s *LocalStore) queryKeyword(ctx context.Context, collection, text string, topK int, filter map[string]interface{}) ([]Document, error) {
	keywords := strings.Fields(strings.ToLower(text))
	if len(keywords) == 0 {
		return nil, nil
	}

	candidates, err := s.fetchCandidates(ctx, collection, filter, false)
	if err != nil {
		return nil, err
	}

	type scored struct {
		doc  Document
		hits int
	}
	var ranked []scored
	for _, c := range candidates {
		content := strings.ToLower(c.doc.Content)
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(content, kw) {
				hits++
			}
		}
		if hits > 0 {
			ranked = append(ranked, scored{doc: c.doc, hits: hits})
		}
	}

	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			if ranked[j].hits > ranked[i].hits {
				ranked[i], ranked[j] = ranked[j], ranked[i]
			}
		}
	}
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	results := make([]Document, len(ranked))
	for i, r := range ranked {
		results[i] = r.doc
	}

	logging.StoreDebug("Keyword query in %s returned %d results", collection, len(results))
	return results, nil
}

type candidate struct {
	doc       Document
	embedding []float32
}

// fetchCandidates loads filtered rows, optionally with embeddings.
func (s *LocalStore) fetchCandidates(ctx context.Context, collection string, filter map[string]interface{}, withEmbeddings bool) ([]candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, media_id, content, metadata, embedding FROM documents WHERE collection = ?"
	args := []interface{}{collection}

	rest := make(map[string]interface{})
	for k, v := range filter {
		if k == "media_id" {
			query += " AND media_id = ?"
			args = append(args, fmt.Sprintf("%v", v))
			continue
		}
		rest[k] = v
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []candidate
	for rows.Next() {
		var doc Document
		var metaJSON string
		var embJSON *string
		doc.Collection = collection

		if err := rows.Scan(&doc.ID, &doc.MediaID, &doc.Content, &metaJSON, &embJSON); err != nil {
			continue
		}
		if metaJSON != "" {
			json.Unmarshal([]byte(metaJSON), &doc.Metadata)
		}
		if !metadataMatches(doc.Metadata, rest) {
			continue
		}

		c := candidate{doc: doc}
		if withEmbeddings && embJSON != nil {
			var vec []float32
			if err := json.Unmarshal([]byte(*embJSON), &vec); err == nil {
				c.embedding = vec
			}
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

// scanDocument scans a (id, media_id, content, metadata) row.
func (s *LocalStore) scanDocument(rows interface {
	Scan(dest ...interface{}) error
}, collection string) (Document, bool) {
	var doc Document
	var metaJSON string
	doc.Collection = collection

	if err := rows.Scan(&doc.ID, &doc.MediaID, &doc.Content, &metaJSON); err != nil {
		return doc, false
	}
	if metaJSON != "" {
		json.Unmarshal([]byte(metaJSON), &doc.Metadata)
	}
	return doc, true
}

// metadataMatches checks every filter key against the metadata map.
// Values are compared by their string forms because JSON round-trips numeric
// types through float64.
func metadataMatches(metadata, filter map[string]interface{}) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

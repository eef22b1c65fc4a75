package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"vidmind/internal/logging"
)

// encodeFloat32SliceToBlob packs a vector into the little-endian blob layout
// sqlite-vec expects.
func encodeFloat32SliceToBlob(vec []float32) []byte {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil
	}
	return buf.Bytes()
}

// initVecTable creates the vec0 virtual table for ANN search. Caller holds
// the write lock. On failure the store stays on the in-process cosine path.
func (s *LocalStore) initVecTable(dims int) {
	if dims <= 0 {
		return
	}

	stmt := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_documents USING vec0(
		embedding float[%d],
		doc_id TEXT
	)`, dims)
	if _, err := s.db.Exec(stmt); err != nil {
		logging.Get(logging.CategoryStore).Warn("Failed to create vec_documents table (sqlite-vec may not be available): %v", err)
		return
	}

	s.vecReady = true
	logging.StoreDebug("sqlite-vec table ready with %d dimensions", dims)
}

// insertVecRows mirrors freshly stored documents into the vec table. Caller
// holds the write lock. Failures are non-fatal; search degrades to the
// in-process cosine path.
func (s *LocalStore) insertVecRows(ctx context.Context, ids []string, embeddings [][]float32) {
	if !s.vecReady || len(ids) == 0 || len(embeddings) != len(ids) {
		return
	}

	for i, id := range ids {
		blob := encodeFloat32SliceToBlob(embeddings[i])
		if blob == nil {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO vec_documents (embedding, doc_id) VALUES (?, ?)", blob, id,
		); err != nil {
			logging.Get(logging.CategoryStore).Warn("Failed to insert into vec_documents (ANN may be unavailable): %v", err)
			return
		}
	}
}

// searchVec performs ANN search through the vec0 table, joining back to the
// documents row for content and metadata. Metadata filters beyond media_id
// are applied after the ANN pass, so the query over-fetches for them.
func (s *LocalStore) searchVec(ctx context.Context, collection string, queryVec []float32, topK int, filter map[string]interface{}) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.vecReady {
		return nil, fmt.Errorf("vec table not initialized")
	}

	query := `
		SELECT d.id, d.media_id, d.content, d.metadata,
			vec_distance_cosine(v.embedding, ?) AS distance
		FROM vec_documents v
		JOIN documents d ON d.id = v.doc_id
		WHERE d.collection = ?`
	args := []interface{}{encodeFloat32SliceToBlob(queryVec), collection}

	rest := make(map[string]interface{})
	for k, v := range filter {
		if k == "media_id" {
			query += " AND d.media_id = ?"
			args = append(args, fmt.Sprintf("%v", v))
			continue
		}
		rest[k] = v
	}

	limit := topK
	if len(rest) > 0 {
		limit = topK * 10
	}
	query += " ORDER BY distance ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vec search failed: %w", err)
	}
	defer rows.Close()

	var results []Document
	for rows.Next() {
		var doc Document
		var metaJSON string
		var distance float64
		doc.Collection = collection

		if err := rows.Scan(&doc.ID, &doc.MediaID, &doc.Content, &metaJSON, &distance); err != nil {
			continue
		}
		if metaJSON != "" {
			json.Unmarshal([]byte(metaJSON), &doc.Metadata)
		}
		if !metadataMatches(doc.Metadata, rest) {
			continue
		}

		doc.Similarity = 1 - distance
		results = append(results, doc)
		if len(results) == topK {
			break
		}
	}
	return results, rows.Err()
}

package search

import (
	"container/heap"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// VectorStore provides brute-force vector search over Postgres-persisted
// embeddings. Vectors are normalized on insert and mirrored into memory, so
// dot product equals cosine similarity and search stays sub-millisecond at
// the corpus sizes this service indexes.
type VectorStore struct {
	db *sql.DB

	mu      sync.RWMutex
	vectors map[string][]float32 // document_id -> normalized embedding
}

// NewVectorStore creates a vector store over the given database and loads
// existing vectors into memory. The search_vectors table is created by the
// migration package.
func NewVectorStore(db *sql.DB) (*VectorStore, error) {
	vs := &VectorStore{
		db:      db,
		vectors: make(map[string][]float32),
	}
	if err := vs.loadAll(); err != nil {
		return nil, fmt.Errorf("vectorstore load: %w", err)
	}
	return vs, nil
}

func (vs *VectorStore) loadAll() error {
	rows, err := vs.db.Query("SELECT document_id, embedding, dimensions FROM search_vectors")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var blob []byte
		var dims int
		if err := rows.Scan(&id, &blob, &dims); err != nil {
			return err
		}
		vs.vectors[id] = blobToFloat32(blob, dims)
	}
	return rows.Err()
}

// Upsert stores a vector for the given document ID.
// The vector is normalized on insert so dot product equals cosine similarity.
func (vs *VectorStore) Upsert(ctx context.Context, docID string, vector []float32) error {
	normalized := normalize(vector)
	blob := float32ToBlob(normalized)

	vs.mu.Lock()
	defer vs.mu.Unlock()

	_, err := vs.db.ExecContext(ctx, `
		INSERT INTO search_vectors (document_id, embedding, dimensions)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id) DO UPDATE SET
			embedding = EXCLUDED.embedding, dimensions = EXCLUDED.dimensions
	`, docID, blob, len(normalized))
	if err != nil {
		return err
	}

	vs.vectors[docID] = normalized
	return nil
}

// Search returns the top-K documents by cosine similarity to the query vector.
// Uses a min-heap to track only the top-K results.
func (vs *VectorStore) Search(ctx context.Context, queryVec []float32, limit int) []Ranked {
	if limit <= 0 {
		limit = 10
	}
	normalizedQuery := normalize(queryVec)

	vs.mu.RLock()
	h := &minHeap{}
	heap.Init(h)
	for id, vec := range vs.vectors {
		if len(vec) != len(normalizedQuery) {
			continue
		}
		score := dotProduct(normalizedQuery, vec)
		if h.Len() < limit {
			heap.Push(h, Ranked{ID: id, Score: score})
		} else if score > (*h)[0].Score {
			(*h)[0] = Ranked{ID: id, Score: score}
			heap.Fix(h, 0)
		}
	}
	vs.mu.RUnlock()

	// Extract results in descending score order
	results := make([]Ranked, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(Ranked)
	}
	return results
}

// Delete removes a vector by document ID.
func (vs *VectorStore) Delete(ctx context.Context, docID string) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	_, err := vs.db.ExecContext(ctx, "DELETE FROM search_vectors WHERE document_id = $1", docID)
	if err != nil {
		return err
	}

	delete(vs.vectors, docID)
	return nil
}

// Count returns the number of stored vectors.
func (vs *VectorStore) Count() int {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return len(vs.vectors)
}

// minHeap implements heap.Interface for top-K selection (min at root).
type minHeap []Ranked

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(Ranked)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// --- math helpers ---

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return make([]float32, len(v))
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// --- serialization helpers ---

func float32ToBlob(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func blobToFloat32(b []byte, dims int) []float32 {
	v := make([]float32, dims)
	for i := 0; i < dims && i*4+4 <= len(b); i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

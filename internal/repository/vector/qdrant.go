package vector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/talentmatch/internal/db"
	"github.com/kailas-cloud/talentmatch/internal/db/qdrant"
	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/ranking"
)

// qdrantClient is the consumer interface for the Qdrant-backed index (ISP).
type qdrantClient interface {
	EnsureCollection(ctx context.Context, name string, dim int) error
	Upsert(ctx context.Context, collection string, p qdrant.Point) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]qdrant.ScoredPoint, error)
	Get(ctx context.Context, collection, id string) (qdrant.Point, error)
	Delete(ctx context.Context, collection, id string) error
	Scroll(ctx context.Context, collection string) ([]qdrant.Point, error)
}

// DefaultCollectionPrefix prefixes every Qdrant collection name.
const DefaultCollectionPrefix = "talentmatch_"

// QdrantIndex keeps one cosine collection per namespace. Point ids are
// UUIDv5 of the vector id so upserts overwrite in place.
type QdrantIndex struct {
	client  qdrantClient
	dim     int
	prefix  string
	now     func() time.Time
	mu      sync.Mutex
	ensured map[domain.Subspace]bool
}

// NewQdrantIndex creates a Qdrant vector index for vectors of dimension dim.
func NewQdrantIndex(c qdrantClient, dim int) *QdrantIndex {
	return &QdrantIndex{
		client:  c,
		dim:     dim,
		prefix:  DefaultCollectionPrefix,
		now:     time.Now,
		ensured: make(map[domain.Subspace]bool),
	}
}

// WithClock overrides the clock stamping written_at.
func (q *QdrantIndex) WithClock(now func() time.Time) *QdrantIndex {
	if now != nil {
		q.now = now
	}
	return q
}

// WithCollectionPrefix overrides the collection name prefix.
func (q *QdrantIndex) WithCollectionPrefix(p string) *QdrantIndex {
	if p != "" {
		q.prefix = p
	}
	return q
}

// EnsureNamespace creates the collection for ns if missing.
func (q *QdrantIndex) EnsureNamespace(ctx context.Context, ns domain.Subspace) error {
	q.mu.Lock()
	done := q.ensured[ns]
	q.mu.Unlock()
	if done {
		return nil
	}
	if err := q.client.EnsureCollection(ctx, q.collection(ns), q.dim); err != nil {
		return fmt.Errorf("ensure collection %s: %w", ns, err)
	}
	q.mu.Lock()
	q.ensured[ns] = true
	q.mu.Unlock()
	return nil
}

// Upsert writes or overwrites the vector stored under vectorID.
func (q *QdrantIndex) Upsert(
	ctx context.Context, ns domain.Subspace, vectorID, entityID string,
	vec []float32, metadata map[string]string,
) (string, error) {
	if err := checkWrite(ns, vectorID, vec, q.dim); err != nil {
		return "", err
	}
	if err := q.EnsureNamespace(ctx, ns); err != nil {
		return "", err
	}

	payload := make(map[string]string, len(metadata)+3)
	for k, v := range metadata {
		if !isReserved(k) {
			payload[k] = v
		}
	}
	payload[fieldVectorID] = vectorID
	payload[fieldEntityID] = entityID
	payload[fieldWrittenAt] = formatWrittenAt(q.now())

	err := q.client.Upsert(ctx, q.collection(ns), qdrant.Point{ID: PointID(vectorID), Vector: vec, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("upsert %s/%s: %w", ns, vectorID, err)
	}
	return vectorID, nil
}

// Query returns the topK nearest entities in ns by cosine similarity, best first.
func (q *QdrantIndex) Query(ctx context.Context, ns domain.Subspace, vec []float32, topK int) ([]ranking.Hit, error) {
	if topK <= 0 || len(vec) == 0 {
		return nil, nil
	}
	points, err := q.client.Search(ctx, q.collection(ns), vec, topK)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query %s: %w", ns, err)
	}

	hits := make([]ranking.Hit, 0, len(points))
	for _, p := range points {
		entityID := p.Payload[fieldEntityID]
		if entityID == "" {
			continue
		}
		hits = append(hits, ranking.Hit{EntityID: entityID, Score: p.Score})
	}
	return hits, nil
}

// Fetch returns a stored vector. Returns domain.ErrNotFound when absent.
func (q *QdrantIndex) Fetch(ctx context.Context, ns domain.Subspace, vectorID string) ([]float32, error) {
	p, err := q.client.Get(ctx, q.collection(ns), PointID(vectorID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) || errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("vector %s/%s: %w", ns, vectorID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("fetch %s/%s: %w", ns, vectorID, err)
	}
	if len(p.Vector) == 0 {
		return nil, fmt.Errorf("vector %s/%s: %w", ns, vectorID, domain.ErrNotFound)
	}
	return p.Vector, nil
}

// Delete removes a stored vector. Deleting a missing vector is not an error.
func (q *QdrantIndex) Delete(ctx context.Context, ns domain.Subspace, vectorID string) error {
	if err := q.client.Delete(ctx, q.collection(ns), PointID(vectorID)); err != nil {
		return fmt.Errorf("delete %s/%s: %w", ns, vectorID, err)
	}
	return nil
}

// WrittenAt returns when a vector was last upserted, the zero time when it
// carries no timestamp. Returns domain.ErrNotFound when absent.
func (q *QdrantIndex) WrittenAt(ctx context.Context, ns domain.Subspace, vectorID string) (time.Time, error) {
	p, err := q.client.Get(ctx, q.collection(ns), PointID(vectorID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) || errors.Is(err, db.ErrIndexNotFound) {
			return time.Time{}, fmt.Errorf("vector %s/%s: %w", ns, vectorID, domain.ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("written_at %s/%s: %w", ns, vectorID, err)
	}
	return parseWrittenAt(p.Payload[fieldWrittenAt]), nil
}

// ListVectorIDs enumerates every vector stored in ns.
func (q *QdrantIndex) ListVectorIDs(ctx context.Context, ns domain.Subspace) ([]domain.VectorRef, error) {
	points, err := q.client.Scroll(ctx, q.collection(ns))
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("scroll %s: %w", ns, err)
	}
	refs := make([]domain.VectorRef, 0, len(points))
	for _, p := range points {
		refs = append(refs, domain.VectorRef{VectorID: p.Payload[fieldVectorID], EntityID: p.Payload[fieldEntityID]})
	}
	return refs, nil
}

func (q *QdrantIndex) collection(ns domain.Subspace) string {
	return q.prefix + string(ns)
}

// PointID maps a vector id to its deterministic Qdrant point UUID (v5).
func PointID(vectorID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(vectorID)).String()
}

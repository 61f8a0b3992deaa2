// Package vector implements the per-namespace vector index on Redis/Valkey
// FT indexes or on Qdrant collections.
package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/db"
	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/ranking"
)

// redisStore is the consumer interface for the FT-backed index (ISP).
type redisStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// RedisIndex keeps one HNSW/COSINE FT index per namespace over hash keys
// <prefix>vec:<namespace>:<vector_id>.
type RedisIndex struct {
	store   redisStore
	dim     int
	prefix  string
	hnsw    HNSWConfig
	now     func() time.Time
	mu      sync.Mutex
	ensured map[domain.Subspace]bool
}

// NewRedisIndex creates a Redis/Valkey vector index for vectors of dimension dim.
func NewRedisIndex(s redisStore, dim int) *RedisIndex {
	return &RedisIndex{
		store:   s,
		dim:     dim,
		prefix:  domain.KeyPrefix,
		hnsw:    HNSWConfig{M: 16, EFConstruct: 200},
		now:     time.Now,
		ensured: make(map[domain.Subspace]bool),
	}
}

// WithClock overrides the clock stamping written_at.
func (r *RedisIndex) WithClock(now func() time.Time) *RedisIndex {
	if now != nil {
		r.now = now
	}
	return r
}

// WithHNSW configures HNSW index parameters.
func (r *RedisIndex) WithHNSW(cfg HNSWConfig) *RedisIndex {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// WithKeyPrefix overrides the key namespace shared with other services.
func (r *RedisIndex) WithKeyPrefix(p string) *RedisIndex {
	if p != "" {
		r.prefix = p
	}
	return r
}

// EnsureNamespace creates the FT index for ns if missing.
func (r *RedisIndex) EnsureNamespace(ctx context.Context, ns domain.Subspace) error {
	r.mu.Lock()
	done := r.ensured[ns]
	r.mu.Unlock()
	if done {
		return nil
	}

	exists, err := r.store.IndexExists(ctx, r.indexName(ns))
	if err != nil {
		return fmt.Errorf("check index %s: %w", ns, err)
	}
	if !exists {
		def, err := db.NewIndex(r.indexName(ns)).
			Prefix(r.keyPrefix(ns)).
			Tag(fieldEntityID).
			VectorHNSW(fieldVector, "vector", r.dim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).
			Build()
		if err != nil {
			return fmt.Errorf("build index %s: %w", ns, err)
		}
		if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", ns, err)
		}
	}

	r.mu.Lock()
	r.ensured[ns] = true
	r.mu.Unlock()
	return nil
}

// Upsert writes or overwrites the vector stored under vectorID.
func (r *RedisIndex) Upsert(
	ctx context.Context, ns domain.Subspace, vectorID, entityID string,
	vec []float32, metadata map[string]string,
) (string, error) {
	if err := checkWrite(ns, vectorID, vec, r.dim); err != nil {
		return "", err
	}
	if err := r.EnsureNamespace(ctx, ns); err != nil {
		return "", err
	}

	fields := make(map[string]string, len(metadata)+4)
	for k, v := range metadata {
		if !isReserved(k) {
			fields[k] = v
		}
	}
	fields[fieldVector] = vectorToBytes(vec)
	fields[fieldEntityID] = entityID
	fields[fieldVectorID] = vectorID
	fields[fieldWrittenAt] = formatWrittenAt(r.now())

	if err := r.store.HSet(ctx, r.key(ns, vectorID), fields); err != nil {
		return "", fmt.Errorf("upsert %s/%s: %w", ns, vectorID, err)
	}
	return vectorID, nil
}

// Query returns the topK nearest entities in ns by cosine similarity, best first.
// A namespace without an index yields no hits.
func (r *RedisIndex) Query(ctx context.Context, ns domain.Subspace, vec []float32, topK int) ([]ranking.Hit, error) {
	if topK <= 0 || len(vec) == 0 {
		return nil, nil
	}
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(ns),
		Vector:       vec,
		K:            topK,
		ReturnFields: []string{fieldEntityID, "__vector_score"},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query %s: %w", ns, err)
	}
	if sr == nil {
		return nil, nil
	}

	hits := make([]ranking.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		entityID := e.Fields[fieldEntityID]
		if entityID == "" {
			entityID, _ = ns.EntityID(strings.TrimPrefix(e.Key, r.keyPrefix(ns)))
		}
		if entityID == "" {
			continue
		}
		hits = append(hits, ranking.Hit{EntityID: entityID, Score: e.Score})
	}
	return hits, nil
}

// Fetch returns a stored vector. Returns domain.ErrNotFound when absent.
func (r *RedisIndex) Fetch(ctx context.Context, ns domain.Subspace, vectorID string) ([]float32, error) {
	m, err := r.store.HGetAll(ctx, r.key(ns, vectorID))
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s: %w", ns, vectorID, err)
	}
	raw, ok := m[fieldVector]
	if !ok {
		return nil, fmt.Errorf("vector %s/%s: %w", ns, vectorID, domain.ErrNotFound)
	}
	vec := bytesToVector(raw)
	if vec == nil {
		return nil, fmt.Errorf("vector %s/%s: corrupt blob of %d bytes", ns, vectorID, len(raw))
	}
	return vec, nil
}

// Delete removes a stored vector. Deleting a missing vector is not an error.
func (r *RedisIndex) Delete(ctx context.Context, ns domain.Subspace, vectorID string) error {
	if err := r.store.Del(ctx, r.key(ns, vectorID)); err != nil {
		return fmt.Errorf("delete %s/%s: %w", ns, vectorID, err)
	}
	return nil
}

// WrittenAt returns when a vector was last upserted, the zero time when it
// carries no timestamp. Returns domain.ErrNotFound when absent.
func (r *RedisIndex) WrittenAt(ctx context.Context, ns domain.Subspace, vectorID string) (time.Time, error) {
	m, err := r.store.HGetAll(ctx, r.key(ns, vectorID))
	if err != nil {
		return time.Time{}, fmt.Errorf("written_at %s/%s: %w", ns, vectorID, err)
	}
	if len(m) == 0 {
		return time.Time{}, fmt.Errorf("vector %s/%s: %w", ns, vectorID, domain.ErrNotFound)
	}
	return parseWrittenAt(m[fieldWrittenAt]), nil
}

// ListVectorIDs enumerates every vector stored in ns.
func (r *RedisIndex) ListVectorIDs(ctx context.Context, ns domain.Subspace) ([]domain.VectorRef, error) {
	prefix := r.keyPrefix(ns)
	keys, err := r.store.Scan(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", ns, err)
	}

	refs := make([]domain.VectorRef, 0, len(keys))
	for _, k := range keys {
		vectorID := strings.TrimPrefix(k, prefix)
		entityID, _ := ns.EntityID(vectorID)
		refs = append(refs, domain.VectorRef{VectorID: vectorID, EntityID: entityID})
	}
	return refs, nil
}

// Key patterns: {prefix}vec:{namespace}:{vector_id}, {prefix}idx:{namespace}

func (r *RedisIndex) key(ns domain.Subspace, vectorID string) string {
	return r.keyPrefix(ns) + vectorID
}

func (r *RedisIndex) keyPrefix(ns domain.Subspace) string {
	return fmt.Sprintf("%svec:%s:", r.prefix, ns)
}

func (r *RedisIndex) indexName(ns domain.Subspace) string {
	return fmt.Sprintf("%sidx:%s", r.prefix, ns)
}

func checkWrite(ns domain.Subspace, vectorID string, vec []float32, dim int) error {
	if ns.Kind() == "" {
		return fmt.Errorf("unknown namespace %q: %w", ns, domain.ErrValidation)
	}
	if vectorID == "" {
		return domain.NewValidationError("vector_id", "is required")
	}
	if len(vec) != dim {
		return fmt.Errorf("vector for %s has %d dimensions, index expects %d", ns, len(vec), dim)
	}
	return nil
}

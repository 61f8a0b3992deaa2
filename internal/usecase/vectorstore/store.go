// Package vectorstore writes an entity's subspace vectors as one unit.
//
// Concurrent mutations of the same entity must be serialized by the caller;
// different entities are independent.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/logger"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
)

// Rewritten is the outcome of a partial re-vectorization.
// IDs is the complete map to store on the record. Stale holds vectors whose
// subspace lost its text; delete them only after the record no longer references them.
type Rewritten struct {
	IDs   domain.VectorIDs
	Stale domain.VectorIDs
}

// Store coordinates embedding and index writes for one entity.
type Store struct {
	index  Index
	embed  Embedder
	logger *zap.Logger
}

// New creates a vector store.
func New(index Index, embed Embedder, logger *zap.Logger) *Store {
	return &Store{index: index, embed: embed, logger: logger}
}

// Write embeds and upserts every non-empty subspace text of a new entity.
// On failure the vectors written by this call are deleted best-effort and an
// error wrapping domain.ErrVectorization is returned.
func (s *Store) Write(
	ctx context.Context, kind domain.Kind, entityID string,
	texts map[domain.Subspace]string, metadata map[string]string,
) (domain.VectorIDs, error) {
	ids, err := s.write(ctx, kind, entityID, texts, metadata, nil)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Rewrite re-vectorizes the subspaces in changed under their deterministic ids so the
// index upserts in place. A subspace whose new text is empty moves to Stale.
// Untouched subspaces keep their ids.
func (s *Store) Rewrite(
	ctx context.Context, kind domain.Kind, entityID string,
	previous domain.VectorIDs, changed map[domain.Subspace]string, metadata map[string]string,
) (Rewritten, error) {
	out := Rewritten{IDs: previous.Clone(), Stale: domain.VectorIDs{}}
	if out.IDs == nil {
		out.IDs = domain.VectorIDs{}
	}

	texts := make(map[domain.Subspace]string, len(changed))
	for sub, text := range changed {
		if strings.TrimSpace(text) != "" {
			texts[sub] = text
			continue
		}
		if id, ok := out.IDs[sub]; ok {
			out.Stale[sub] = id
			delete(out.IDs, sub)
		}
	}
	if len(texts) == 0 {
		return out, nil
	}

	written, err := s.write(ctx, kind, entityID, texts, metadata, previous)
	if err != nil {
		return Rewritten{}, err
	}
	for sub, id := range written {
		out.IDs[sub] = id
	}
	return out, nil
}

// Delete removes every listed vector, attempting each namespace independently.
// Failures are logged and counted as orphans; they never abort the others.
func (s *Store) Delete(ctx context.Context, ids domain.VectorIDs) (domain.VectorIDs, map[domain.Subspace]error) {
	log := logger.OrDefault(ctx, s.logger)
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		deleted = make(domain.VectorIDs, len(ids))
		failed  = make(map[domain.Subspace]error)
	)

	for sub, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.index.Delete(ctx, sub, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[sub] = err
				return
			}
			deleted[sub] = id
		}()
	}
	wg.Wait()

	for sub, err := range failed {
		metrics.OrphanVectorsTotal.WithLabelValues(string(sub)).Inc()
		log.Warn("Failed to delete vector, left as orphan",
			zap.String("namespace", string(sub)),
			zap.String("vector_id", ids[sub]),
			zap.Error(err),
		)
	}
	if len(failed) == 0 {
		failed = nil
	}
	return deleted, failed
}

// write embeds all texts first, then upserts all vectors. Vectors whose id is
// not in keep are rolled back if any step fails.
func (s *Store) write(
	ctx context.Context, kind domain.Kind, entityID string,
	texts map[domain.Subspace]string, metadata map[string]string, keep domain.VectorIDs,
) (domain.VectorIDs, error) {
	if entityID == "" {
		return nil, domain.NewValidationError("id", "entity id is required")
	}
	nonEmpty := make(map[domain.Subspace]string, len(texts))
	for sub, text := range texts {
		if sub.Kind() != kind {
			return nil, fmt.Errorf("subspace %q does not belong to %s: %w", sub, kind, domain.ErrValidation)
		}
		if strings.TrimSpace(text) != "" {
			nonEmpty[sub] = text
		}
	}
	if len(nonEmpty) == 0 {
		return nil, domain.NewValidationError("", "no subspace text to vectorize")
	}

	started := time.Now()
	vectors, err := s.embedAll(ctx, nonEmpty)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrVectorization, kind, entityID, err)
	}

	ids, err := s.upsertAll(ctx, kind, entityID, vectors, metadata, keep, started)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrVectorization, kind, entityID, err)
	}
	return ids, nil
}

func (s *Store) embedAll(ctx context.Context, texts map[domain.Subspace]string) (map[domain.Subspace][]float32, error) {
	var mu sync.Mutex
	vectors := make(map[domain.Subspace][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	for sub, text := range texts {
		g.Go(func() error {
			res, err := s.embed.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed %s: %w", sub, err)
			}
			if len(res.Embedding) == 0 {
				return fmt.Errorf("embed %s: empty vector: %w", sub, domain.ErrEmbeddingProviderError)
			}
			mu.Lock()
			vectors[sub] = res.Embedding
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // wrapped per subspace above
	}
	return vectors, nil
}

func (s *Store) upsertAll(
	ctx context.Context, kind domain.Kind, entityID string,
	vectors map[domain.Subspace][]float32, metadata map[string]string,
	keep domain.VectorIDs, started time.Time,
) (domain.VectorIDs, error) {
	var mu sync.Mutex
	written := make(domain.VectorIDs, len(vectors))

	g, gctx := errgroup.WithContext(ctx)
	for sub, vec := range vectors {
		g.Go(func() error {
			meta := make(map[string]string, len(metadata)+2)
			for k, v := range metadata {
				meta[k] = v
			}
			meta["kind"] = string(kind)
			meta["subspace"] = string(sub)

			id, err := s.index.Upsert(gctx, sub, sub.VectorID(entityID), entityID, vec, meta)
			status := "success"
			if err != nil {
				status = "error"
			}
			metrics.VectorWriteDuration.WithLabelValues(string(sub), status).Observe(time.Since(started).Seconds())
			if err != nil {
				return fmt.Errorf("upsert %s: %w", sub, err)
			}
			mu.Lock()
			written[sub] = id
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.rollback(ctx, written, keep)
		return nil, err //nolint:wrapcheck // wrapped per subspace above
	}
	return written, nil
}

// rollback deletes freshly written vectors that no stored record references.
func (s *Store) rollback(ctx context.Context, written, keep domain.VectorIDs) {
	fresh := make(domain.VectorIDs, len(written))
	for sub, id := range written {
		if keep[sub] != id {
			fresh[sub] = id
		}
	}
	if len(fresh) == 0 {
		return
	}
	_, failed := s.Delete(context.WithoutCancel(ctx), fresh)
	if len(failed) > 0 {
		errs := make([]error, 0, len(failed))
		for _, err := range failed {
			errs = append(errs, err)
		}
		logger.OrDefault(ctx, s.logger).Error("Rollback of aborted vector write incomplete",
			zap.Int("orphans", len(failed)), zap.Error(errors.Join(errs...)))
	}
}

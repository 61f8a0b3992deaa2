package vectorstore

import (
	"context"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Index is the write side of the namespace vector index.
type Index interface {
	Upsert(
		ctx context.Context, ns domain.Subspace, vectorID, entityID string,
		vec []float32, metadata map[string]string,
	) (string, error)
	Delete(ctx context.Context, ns domain.Subspace, vectorID string) error
}

// Embedder vectorizes entity text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

package retrieval

import (
	"context"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
	domproj "github.com/kailas-cloud/talentmatch/internal/domain/project"
	"github.com/kailas-cloud/talentmatch/internal/domain/ranking"
)

// Index is the read side of the namespace vector index.
type Index interface {
	Query(ctx context.Context, ns domain.Subspace, vec []float32, topK int) ([]ranking.Hit, error)
	Fetch(ctx context.Context, ns domain.Subspace, vectorID string) ([]float32, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// CandidateReader resolves candidate records.
type CandidateReader interface {
	Get(ctx context.Context, id string) (domcand.Candidate, error)
	FindByOwner(ctx context.Context, owner string) (domcand.Candidate, error)
	GetMany(ctx context.Context, ids []string) (map[string]domcand.Candidate, error)
}

// ProjectReader resolves project records.
type ProjectReader interface {
	Get(ctx context.Context, id string) (domproj.Project, error)
	GetMany(ctx context.Context, ids []string) (map[string]domproj.Project, error)
}

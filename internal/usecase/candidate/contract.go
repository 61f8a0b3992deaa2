package candidate

import (
	"context"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
	"github.com/kailas-cloud/talentmatch/internal/usecase/vectorstore"
)

// Repository defines the storage contract for candidates.
type Repository interface {
	Get(ctx context.Context, id string) (domcand.Candidate, error)
	FindByOwner(ctx context.Context, owner string) (domcand.Candidate, error)
	Insert(ctx context.Context, c domcand.Candidate) error
	Replace(ctx context.Context, c domcand.Candidate) error
	Delete(ctx context.Context, id string) (int, error)
}

// VectorStore writes and removes an entity's subspace vectors.
type VectorStore interface {
	Write(
		ctx context.Context, kind domain.Kind, entityID string,
		texts map[domain.Subspace]string, metadata map[string]string,
	) (domain.VectorIDs, error)
	Rewrite(
		ctx context.Context, kind domain.Kind, entityID string,
		previous domain.VectorIDs, changed map[domain.Subspace]string, metadata map[string]string,
	) (vectorstore.Rewritten, error)
	Delete(ctx context.Context, ids domain.VectorIDs) (domain.VectorIDs, map[domain.Subspace]error)
}

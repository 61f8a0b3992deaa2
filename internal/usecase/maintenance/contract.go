package maintenance

import (
	"context"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
	domproj "github.com/kailas-cloud/talentmatch/internal/domain/project"
	"github.com/kailas-cloud/talentmatch/internal/usecase/vectorstore"
)

// Index is the administrative side of the namespace vector index.
type Index interface {
	EnsureNamespace(ctx context.Context, ns domain.Subspace) error
	ListVectorIDs(ctx context.Context, ns domain.Subspace) ([]domain.VectorRef, error)
	Delete(ctx context.Context, ns domain.Subspace, vectorID string) error
	// WrittenAt is zero for vectors stored without a timestamp.
	WrittenAt(ctx context.Context, ns domain.Subspace, vectorID string) (time.Time, error)
}

// CandidateStore enumerates and rewrites candidate records.
type CandidateStore interface {
	List(ctx context.Context) ([]domcand.Candidate, error)
	Replace(ctx context.Context, c domcand.Candidate) error
}

// ProjectStore enumerates and rewrites project records.
type ProjectStore interface {
	List(ctx context.Context) ([]domproj.Project, error)
	Replace(ctx context.Context, p domproj.Project) error
}

// VectorStore re-vectorizes entities.
type VectorStore interface {
	Rewrite(
		ctx context.Context, kind domain.Kind, entityID string,
		previous domain.VectorIDs, changed map[domain.Subspace]string, metadata map[string]string,
	) (vectorstore.Rewritten, error)
	Delete(ctx context.Context, ids domain.VectorIDs) (domain.VectorIDs, map[domain.Subspace]error)
}

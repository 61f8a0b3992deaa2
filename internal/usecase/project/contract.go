package project

import (
	"context"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domproj "github.com/kailas-cloud/talentmatch/internal/domain/project"
	"github.com/kailas-cloud/talentmatch/internal/usecase/vectorstore"
)

// Repository defines the storage contract for projects.
type Repository interface {
	Get(ctx context.Context, id string) (domproj.Project, error)
	Insert(ctx context.Context, p domproj.Project) error
	Replace(ctx context.Context, p domproj.Project) error
	Delete(ctx context.Context, id string) (int, error)
	ListByInterviewer(ctx context.Context, interviewer string) ([]domproj.Project, error)
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

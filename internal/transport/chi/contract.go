package chi

import (
	"context"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
	domproj "github.com/kailas-cloud/talentmatch/internal/domain/project"
	"github.com/kailas-cloud/talentmatch/internal/usecase/candidate"
	"github.com/kailas-cloud/talentmatch/internal/usecase/eligibility"
	"github.com/kailas-cloud/talentmatch/internal/usecase/health"
	"github.com/kailas-cloud/talentmatch/internal/usecase/retrieval"
)

// CandidateService manages candidate records.
type CandidateService interface {
	Register(ctx context.Context, owner string, p domcand.Profile) (candidate.Registration, error)
	Update(ctx context.Context, id, owner string, patch domcand.Patch) (domain.VectorIDs, error)
	Delete(ctx context.Context, id, owner string) (domain.VectorIDs, error)
	Get(ctx context.Context, id string) (domcand.Candidate, error)
	Vectors(ctx context.Context, id string) (domain.VectorIDs, error)
	Summary(ctx context.Context, id string) (domcand.Summary, error)
}

// ProjectService manages project postings.
type ProjectService interface {
	Register(ctx context.Context, interviewer string, post domproj.Posting) (domproj.Project, error)
	Update(ctx context.Context, id, interviewer string, patch domproj.Patch) (domproj.Project, error)
	Delete(ctx context.Context, id, interviewer string) (domain.VectorIDs, error)
	Get(ctx context.Context, id string) (domproj.Project, error)
	ListByInterviewer(ctx context.Context, interviewer string) ([]domproj.Project, error)
}

// Retriever runs ranking queries in both directions.
type Retriever interface {
	RankCandidates(ctx context.Context, q retrieval.CandidateQuery) (retrieval.CandidateRanking, error)
	RankCandidatesForProject(
		ctx context.Context, projectID string, filters eligibility.CandidateFilters, topK int,
	) (retrieval.CandidateRanking, error)
	RelevantProjectsForOwner(ctx context.Context, owner string, topK int) (retrieval.ProjectRanking, error)
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
	domproj "github.com/kailas-cloud/talentmatch/internal/domain/project"
	"github.com/kailas-cloud/talentmatch/internal/domain/ranking"
	"github.com/kailas-cloud/talentmatch/internal/logger"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
	"github.com/kailas-cloud/talentmatch/internal/usecase/eligibility"
)

// ProjectRanking is the ranked, still-open projects for a candidate.
type ProjectRanking struct {
	Projects []ranking.Project
	// TotalMatched counts fused projects before eligibility, TotalValid after it.
	TotalMatched int
	TotalValid   int
}

// candidateToProject maps a candidate's stored subspace vectors onto the project
// subspaces they are queried against.
var candidateToProject = []struct {
	source domain.Subspace
	target domain.Subspace
}{
	{domain.SubspaceProfessionalSummary, domain.SubspaceProjectDescription},
	{domain.SubspaceSkillsMatrix, domain.SubspaceProjectSkills},
	{domain.SubspaceProjectPortfolio, domain.SubspaceProjectDescription},
}

// RelevantProjects ranks open projects for a stored candidate, reusing the
// candidate's persisted vectors as query vectors.
func (p *Pipeline) RelevantProjects(ctx context.Context, candidateID string, topK int) (ProjectRanking, error) {
	c, err := p.candidates.Get(ctx, candidateID)
	if err != nil {
		return ProjectRanking{}, fmt.Errorf("get candidate: %w", err)
	}
	return p.relevantProjects(ctx, &c, topK)
}

// RelevantProjectsForOwner resolves the owner's candidate and ranks projects for it.
func (p *Pipeline) RelevantProjectsForOwner(ctx context.Context, owner string, topK int) (ProjectRanking, error) {
	c, err := p.candidates.FindByOwner(ctx, owner)
	if err != nil {
		return ProjectRanking{}, fmt.Errorf("find candidate by owner: %w", err)
	}
	return p.relevantProjects(ctx, &c, topK)
}

func (p *Pipeline) relevantProjects(ctx context.Context, c *domcand.Candidate, topK int) (ProjectRanking, error) {
	topK, err := p.resolveTopK(topK)
	if err != nil {
		return ProjectRanking{}, err
	}
	if !c.IsVectorized() {
		return ProjectRanking{}, fmt.Errorf("candidate %s: %w", c.ID(), domain.ErrNotVectorized)
	}

	vectors, err := p.fetchVectors(ctx, c.VectorIDs())
	if err != nil {
		return ProjectRanking{}, err
	}

	queries := make([]subspaceQuery, 0, len(candidateToProject))
	for _, m := range candidateToProject {
		if vec, ok := vectors[m.source]; ok {
			queries = append(queries, subspaceQuery{target: m.target, vec: vec})
		}
	}

	lists, err := p.queryAll(ctx, queries, p.overfetch(topK))
	if err != nil {
		return ProjectRanking{}, err
	}

	fused := p.engine.Fuse(lists, p.cfg.ProjectWeights)
	metrics.FusedResults.WithLabelValues(string(domain.KindProject)).Observe(float64(len(fused)))

	records, err := p.projects.GetMany(ctx, fusedIDs(fused))
	if err != nil {
		return ProjectRanking{}, fmt.Errorf("load ranked projects: %w", err)
	}
	chain := eligibility.NewChain(domain.KindProject, p.logger, eligibility.Deadline(p.now))
	res := chain.Apply(ctx, fused, records)

	out := ProjectRanking{TotalMatched: len(fused), TotalValid: len(res.Entries)}
	entries := res.Entries
	if len(entries) > topK {
		entries = entries[:topK]
	}
	out.Projects = make([]ranking.Project, 0, len(entries))
	for _, e := range entries {
		out.Projects = append(out.Projects, toRankedProject(e.Fused, &e.Record))
	}

	logger.OrDefault(ctx, p.logger).Debug("Ranked projects",
		zap.String("candidate_id", c.ID()),
		zap.Int("matched", out.TotalMatched),
		zap.Int("valid", out.TotalValid),
		zap.Any("excluded", res.Excluded),
	)
	return out, nil
}

// fetchVectors loads the candidate's stored vectors. A vector missing from the
// index is skipped; when none resolve the candidate counts as not vectorized.
func (p *Pipeline) fetchVectors(ctx context.Context, ids domain.VectorIDs) (map[domain.Subspace][]float32, error) {
	var mu sync.Mutex
	out := make(map[domain.Subspace][]float32, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for sub, id := range ids {
		g.Go(func() error {
			vec, err := p.index.Fetch(gctx, sub, id)
			if errors.Is(err, domain.ErrNotFound) {
				logger.OrDefault(ctx, p.logger).Warn("Stored vector missing from index",
					zap.String("namespace", string(sub)), zap.String("vector_id", id))
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetch %s vector: %w", sub, err)
			}
			mu.Lock()
			out[sub] = vec
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // wrapped above
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no stored vectors resolvable: %w", domain.ErrNotVectorized)
	}
	return out, nil
}

func toRankedProject(f ranking.Fused, pr *domproj.Project) ranking.Project {
	post := pr.Posting()
	return ranking.Project{
		ProjectID:        f.EntityID,
		OverallScore:     f.Overall,
		DescriptionScore: f.Score(domain.SubspaceProjectDescription),
		SkillsScore:      f.Score(domain.SubspaceProjectSkills),
		Details: ranking.ProjectDetails{
			JobTitle:        post.JobTitle,
			Description:     post.Description,
			Skills:          post.Skills,
			EmploymentType:  post.EmploymentType,
			JobLocation:     post.JobLocation,
			SalaryMin:       post.SalaryMin,
			SalaryMax:       post.SalaryMax,
			SalaryFrequency: post.SalaryFrequency,
			Deadline:        post.Deadline,
			CreatedAt:       pr.CreatedAt(),
			InterviewerID:   pr.Interviewer(),
		},
	}
}

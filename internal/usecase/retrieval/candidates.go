package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
	"github.com/kailas-cloud/talentmatch/internal/domain/ranking"
	"github.com/kailas-cloud/talentmatch/internal/logger"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
	"github.com/kailas-cloud/talentmatch/internal/usecase/eligibility"
)

// CandidateQuery ranks candidates against a project description and required skills.
type CandidateQuery struct {
	Description string
	Skills      []string
	Filters     eligibility.CandidateFilters
	TopK        int
}

// CandidateRanking is the ranked candidate list plus the per-subspace lists it was fused from.
type CandidateRanking struct {
	Candidates []ranking.Candidate
	Subspaces  map[domain.Subspace][]ranking.Hit
	// CombinedTotal counts fused entities before eligibility, Eligible after it.
	CombinedTotal    int
	Eligible         int
	CombinedReturned int
}

// RankCandidates embeds the description (queried against professional_summary and
// project_portfolio) and the joined skills (queried against skills_matrix), fuses,
// filters and truncates to TopK.
func (p *Pipeline) RankCandidates(ctx context.Context, q CandidateQuery) (CandidateRanking, error) {
	topK, err := p.resolveTopK(q.TopK)
	if err != nil {
		return CandidateRanking{}, err
	}
	description := strings.TrimSpace(q.Description)
	skills := joinSkills(q.Skills)
	if description == "" {
		return CandidateRanking{}, domain.NewValidationError("project_description", "project_description is required")
	}
	if skills == "" {
		return CandidateRanking{}, domain.NewValidationError("skills", "skills are required")
	}

	vectors, err := p.embedTexts(ctx, []string{description, skills})
	if err != nil {
		return CandidateRanking{}, err
	}

	queries := []subspaceQuery{
		{target: domain.SubspaceProfessionalSummary, vec: vectors[description]},
		{target: domain.SubspaceProjectPortfolio, vec: vectors[description]},
		{target: domain.SubspaceSkillsMatrix, vec: vectors[skills]},
	}

	lists, err := p.queryAll(ctx, queries, p.overfetch(topK))
	if err != nil {
		return CandidateRanking{}, err
	}

	fused := p.engine.Fuse(lists, p.cfg.CandidateWeights)
	metrics.FusedResults.WithLabelValues(string(domain.KindCandidate)).Observe(float64(len(fused)))

	records, err := p.candidates.GetMany(ctx, fusedIDs(fused))
	if err != nil {
		return CandidateRanking{}, fmt.Errorf("load ranked candidates: %w", err)
	}
	chain := eligibility.NewChain(domain.KindCandidate, p.logger, eligibility.Categorical(q.Filters))
	res := chain.Apply(ctx, fused, records)

	out := CandidateRanking{
		Subspaces:     make(map[domain.Subspace][]ranking.Hit, len(lists)),
		CombinedTotal: len(fused),
		Eligible:      len(res.Entries),
	}
	for _, l := range lists {
		out.Subspaces[l.Subspace] = l.Hits
	}

	entries := res.Entries
	if len(entries) > topK {
		entries = entries[:topK]
	}
	out.Candidates = make([]ranking.Candidate, 0, len(entries))
	for _, e := range entries {
		out.Candidates = append(out.Candidates, toRankedCandidate(e.Fused, &e.Record))
	}
	out.CombinedReturned = len(out.Candidates)

	logger.OrDefault(ctx, p.logger).Debug("Ranked candidates",
		zap.Int("fused", out.CombinedTotal),
		zap.Int("eligible", out.Eligible),
		zap.Int("returned", out.CombinedReturned),
		zap.Any("excluded", res.Excluded),
	)
	return out, nil
}

// RankCandidatesForProject ranks candidates against a stored project's posting.
func (p *Pipeline) RankCandidatesForProject(
	ctx context.Context, projectID string, filters eligibility.CandidateFilters, topK int,
) (CandidateRanking, error) {
	proj, err := p.projects.Get(ctx, projectID)
	if err != nil {
		return CandidateRanking{}, fmt.Errorf("get project: %w", err)
	}
	texts := proj.Texts()
	return p.RankCandidates(ctx, CandidateQuery{
		Description: texts[domain.SubspaceProjectDescription],
		Skills:      proj.Posting().Skills,
		Filters:     filters,
		TopK:        topK,
	})
}

func toRankedCandidate(f ranking.Fused, c *domcand.Candidate) ranking.Candidate {
	attrs := c.Attributes()
	return ranking.Candidate{
		CandidateID:      f.EntityID,
		Name:             c.Name(),
		OverallScore:     f.Overall,
		SummaryScore:     f.Score(domain.SubspaceProfessionalSummary),
		PortfolioScore:   f.Score(domain.SubspaceProjectPortfolio),
		SkillsScore:      f.Score(domain.SubspaceSkillsMatrix),
		SeniorityLevel:   attrs.SeniorityLevel,
		HighestEducation: attrs.HighestEducation,
		HasLeadership:    attrs.HasLeadership,
	}
}

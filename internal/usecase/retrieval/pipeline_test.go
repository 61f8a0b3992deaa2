package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
	"github.com/kailas-cloud/talentmatch/internal/domain/ranking"
	"github.com/kailas-cloud/talentmatch/internal/usecase/eligibility"
)

func candidateIDs(r CandidateRanking) []string {
	out := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.CandidateID
	}
	return out
}

func projectIDs(r ProjectRanking) []string {
	out := make([]string, len(r.Projects))
	for i, p := range r.Projects {
		out[i] = p.ProjectID
	}
	return out
}

func TestRankCandidates_FusesAllSubspaces(t *testing.T) {
	f := newFixture()
	f.addCandidate(candidate("c1", domcand.SenioritySenior, domcand.EducationUndergraduate, true, nil))
	f.addCandidate(candidate("c2", domcand.SeniorityJunior, domcand.EducationDiploma, false, nil))
	f.index.hits[domain.SubspaceProfessionalSummary] = []ranking.Hit{hit("c1", 0.9), hit("c2", 0.5)}
	f.index.hits[domain.SubspaceSkillsMatrix] = []ranking.Hit{hit("c2", 0.9)}
	f.index.hits[domain.SubspaceProjectPortfolio] = []ranking.Hit{hit("c1", 0.4)}

	res, err := f.pipeline.RankCandidates(context.Background(), CandidateQuery{
		Description: "Build a chat service",
		Skills:      []string{"go", " ", "redis"},
		TopK:        10,
	})
	require.NoError(t, err)

	// c1: 0.4*0.9 + 0.25*0.4 = 0.46; c2: 0.4*0.5 + 0.35*0.9 = 0.515
	assert.Equal(t, []string{"c2", "c1"}, candidateIDs(res))
	assert.InDelta(t, 0.515, res.Candidates[0].OverallScore, 1e-9)
	assert.InDelta(t, 0.9, res.Candidates[0].SkillsScore, 1e-9)
	assert.Zero(t, res.Candidates[0].PortfolioScore)
	assert.Equal(t, "Name c1", res.Candidates[1].Name)
	assert.Equal(t, domcand.SenioritySenior, res.Candidates[1].SeniorityLevel)
	assert.True(t, res.Candidates[1].HasLeadership)

	assert.Equal(t, 2, res.CombinedTotal)
	assert.Equal(t, 2, res.Eligible)
	assert.Equal(t, 2, res.CombinedReturned)
	assert.Len(t, res.Subspaces, 3)
	assert.Len(t, res.Subspaces[domain.SubspaceProfessionalSummary], 2)

	assert.ElementsMatch(t, []string{"Build a chat service", "go, redis"}, f.embed.texts)
}

func TestRankCandidates_OverfetchDepth(t *testing.T) {
	tests := []struct {
		name string
		topK int
		want int
	}{
		{"floor applies", 5, 50},
		{"factor applies", 100, 300},
		{"cap applies", 900, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.pipeline.RankCandidates(context.Background(), CandidateQuery{Description: "d", Skills: []string{"go"}, TopK: tt.topK})
			require.NoError(t, err)
			require.NotEmpty(t, f.index.queries)
			for _, q := range f.index.queries {
				assert.Equal(t, tt.want, q.k)
			}
		})
	}
}

func TestRankCandidates_QueriesEverySubspace(t *testing.T) {
	f := newFixture()
	_, err := f.pipeline.RankCandidates(context.Background(), CandidateQuery{
		Description: "chat service", Skills: []string{"go"},
	})
	require.NoError(t, err)

	got := f.index.queriedNamespaces()
	assert.Equal(t, 1, got[domain.SubspaceProfessionalSummary])
	assert.Equal(t, 1, got[domain.SubspaceProjectPortfolio])
	assert.Equal(t, 1, got[domain.SubspaceSkillsMatrix])
	assert.ElementsMatch(t, []string{"chat service", "go"}, f.embed.texts)
}

func TestRankCandidates_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		q    CandidateQuery
	}{
		{"blank description", CandidateQuery{Description: "  ", Skills: []string{"go"}}},
		{"missing skills", CandidateQuery{Description: "only text"}},
		{"blank skills", CandidateQuery{Description: "only text", Skills: []string{" ", ""}}},
		{"negative top_k", CandidateQuery{Description: "d", Skills: []string{"go"}, TopK: -1}},
		{"top_k above max", CandidateQuery{Description: "d", Skills: []string{"go"}, TopK: 1001}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.pipeline.RankCandidates(ctx, tt.q)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Empty(t, f.embed.texts)
}

func TestRankCandidates_FiltersThenTruncates(t *testing.T) {
	f := newFixture()
	f.addCandidate(candidate("a", domcand.SeniorityJunior, domcand.EducationUndergraduate, false, nil))
	f.addCandidate(candidate("b", domcand.SenioritySenior, domcand.EducationUndergraduate, false, nil))
	f.addCandidate(candidate("c", domcand.SenioritySenior, domcand.EducationPostGraduate, true, nil))
	f.index.hits[domain.SubspaceProfessionalSummary] = []ranking.Hit{hit("a", 0.9), hit("b", 0.8), hit("c", 0.7)}

	res, err := f.pipeline.RankCandidates(context.Background(), CandidateQuery{
		Description: "lead role",
		Skills:      []string{"go"},
		Filters:     eligibility.CandidateFilters{SeniorityLevel: "senior"},
		TopK:        1,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, candidateIDs(res))
	assert.Equal(t, 3, res.CombinedTotal)
	assert.Equal(t, 2, res.Eligible)
	assert.Equal(t, 1, res.CombinedReturned)
}

func TestRankCandidates_DropsHitsWithoutRecord(t *testing.T) {
	f := newFixture()
	f.addCandidate(candidate("kept", domcand.SeniorityMid, "", false, nil))
	f.index.hits[domain.SubspaceProfessionalSummary] = []ranking.Hit{hit("ghost", 0.99), hit("kept", 0.5)}

	res, err := f.pipeline.RankCandidates(context.Background(), CandidateQuery{Description: "d", Skills: []string{"go"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, candidateIDs(res))
	assert.Equal(t, 2, res.CombinedTotal)
}

func TestRankCandidates_Failures(t *testing.T) {
	providerErr := errors.New("provider down")

	t.Run("embedding", func(t *testing.T) {
		f := newFixture()
		f.embed.embedFn = func(string) error { return providerErr }
		_, err := f.pipeline.RankCandidates(context.Background(), CandidateQuery{Description: "d", Skills: []string{"go"}})
		assert.ErrorIs(t, err, providerErr)
		assert.Empty(t, f.index.queries)
	})

	t.Run("index", func(t *testing.T) {
		f := newFixture()
		f.index.queryFn = func(ns domain.Subspace) error {
			if ns == domain.SubspaceProjectPortfolio {
				return providerErr
			}
			return nil
		}
		_, err := f.pipeline.RankCandidates(context.Background(), CandidateQuery{Description: "d", Skills: []string{"go"}})
		assert.ErrorIs(t, err, providerErr)
		assert.Contains(t, err.Error(), string(domain.SubspaceProjectPortfolio))
	})
}

func TestRankCandidatesForProject(t *testing.T) {
	f := newFixture()
	f.addProject(project("p1", ""))

	_, err := f.pipeline.RankCandidatesForProject(context.Background(), "p1", eligibility.CandidateFilters{}, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Engineer p1\nBuild things p1", "go, redis"}, f.embed.texts)

	_, err = f.pipeline.RankCandidatesForProject(context.Background(), "missing", eligibility.CandidateFilters{}, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func vectorizedCandidate(f *fixture, id string) domcand.Candidate {
	ids := domain.VectorIDs{
		domain.SubspaceProfessionalSummary: id + "-sum",
		domain.SubspaceSkillsMatrix:        id + "-skl",
		domain.SubspaceProjectPortfolio:    id + "-prt",
	}
	for sub, vid := range ids {
		f.index.vectors[string(sub)+"/"+vid] = []float32{1}
	}
	c := candidate(id, domcand.SeniorityMid, "", false, ids)
	f.addCandidate(c)
	return c
}

func TestRelevantProjects_DirectionAndDeadline(t *testing.T) {
	f := newFixture()
	vectorizedCandidate(f, "c1")
	f.addProject(project("open", "2026-12-31T00:00:00Z"))
	f.addProject(project("closed", "2026-01-01T00:00:00Z"))
	f.addProject(project("open-ended", ""))
	f.addProject(project("broken", "next tuesday"))
	f.index.hits[domain.SubspaceProjectDescription] = []ranking.Hit{
		hit("closed", 0.95), hit("open", 0.8), hit("broken", 0.7), hit("open-ended", 0.3),
	}
	f.index.hits[domain.SubspaceProjectSkills] = []ranking.Hit{hit("open-ended", 0.9)}

	res, err := f.pipeline.RelevantProjects(context.Background(), "c1", 10)
	require.NoError(t, err)

	got := f.index.queriedNamespaces()
	assert.Equal(t, 2, got[domain.SubspaceProjectDescription])
	assert.Equal(t, 1, got[domain.SubspaceProjectSkills])

	// open: 0.6*0.8 = 0.48; open-ended: 0.6*0.3 + 0.4*0.9 = 0.54
	assert.Equal(t, []string{"open-ended", "open"}, projectIDs(res))
	assert.Equal(t, 4, res.TotalMatched)
	assert.Equal(t, 2, res.TotalValid)

	top := res.Projects[0]
	assert.InDelta(t, 0.54, top.OverallScore, 1e-9)
	assert.InDelta(t, 0.9, top.SkillsScore, 1e-9)
	assert.Equal(t, "Engineer open-ended", top.Details.JobTitle)
	assert.Equal(t, "interviewer-1", top.Details.InterviewerID)
	assert.Equal(t, fixedNow, top.Details.CreatedAt)
}

func TestRelevantProjects_Truncates(t *testing.T) {
	f := newFixture()
	vectorizedCandidate(f, "c1")
	f.addProject(project("p1", ""))
	f.addProject(project("p2", ""))
	f.index.hits[domain.SubspaceProjectDescription] = []ranking.Hit{hit("p1", 0.9), hit("p2", 0.8)}

	res, err := f.pipeline.RelevantProjects(context.Background(), "c1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, projectIDs(res))
	assert.Equal(t, 2, res.TotalValid)
}

func TestRelevantProjects_NotVectorized(t *testing.T) {
	f := newFixture()
	f.addCandidate(candidate("bare", domcand.SeniorityMid, "", false, nil))

	_, err := f.pipeline.RelevantProjects(context.Background(), "bare", 0)
	assert.ErrorIs(t, err, domain.ErrNotVectorized)
	assert.Empty(t, f.index.queries)
}

func TestRelevantProjects_SkipsMissingVectors(t *testing.T) {
	f := newFixture()
	c := vectorizedCandidate(f, "c1")
	ids := c.VectorIDs()
	delete(f.index.vectors, string(domain.SubspaceSkillsMatrix)+"/"+ids[domain.SubspaceSkillsMatrix])

	_, err := f.pipeline.RelevantProjects(context.Background(), "c1", 0)
	require.NoError(t, err)
	got := f.index.queriedNamespaces()
	assert.Equal(t, 2, got[domain.SubspaceProjectDescription])
	assert.Zero(t, got[domain.SubspaceProjectSkills])

	f.index.vectors = map[string][]float32{}
	_, err = f.pipeline.RelevantProjects(context.Background(), "c1", 0)
	assert.ErrorIs(t, err, domain.ErrNotVectorized)
}

func TestRelevantProjectsForOwner(t *testing.T) {
	f := newFixture()
	vectorizedCandidate(f, "c1")

	_, err := f.pipeline.RelevantProjectsForOwner(context.Background(), "owner-c1", 0)
	require.NoError(t, err)

	_, err = f.pipeline.RelevantProjectsForOwner(context.Background(), "nobody", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

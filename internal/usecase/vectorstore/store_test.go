package vectorstore

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

var candidateTexts = map[domain.Subspace]string{
	domain.SubspaceProfessionalSummary: "Backend engineer",
	domain.SubspaceSkillsMatrix:        "Go, Redis",
	domain.SubspaceProjectPortfolio:    "Chat app",
}

func newTestStore() (*Store, *mockIndex, *mockEmbedder) {
	idx := newMockIndex()
	emb := &mockEmbedder{}
	return New(idx, emb, zap.NewNop()), idx, emb
}

func TestWrite_AllSubspaces(t *testing.T) {
	s, idx, emb := newTestStore()

	ids, err := s.Write(context.Background(), domain.KindCandidate, "c1", candidateTexts, map[string]string{"owner": "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.VectorIDs{
		domain.SubspaceProfessionalSummary: "prof_sum_c1",
		domain.SubspaceSkillsMatrix:        "skills_c1",
		domain.SubspaceProjectPortfolio:    "proj_port_c1",
	}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %v", len(want), ids)
	}
	for sub, id := range want {
		if ids[sub] != id {
			t.Errorf("%s: expected %s, got %s", sub, id, ids[sub])
		}
		if !idx.has(sub, id) {
			t.Errorf("%s/%s not written", sub, id)
		}
	}
	if emb.calls() != 3 {
		t.Errorf("expected 3 embeddings, got %d", emb.calls())
	}
	for _, u := range idx.upserts {
		if u.entityID != "c1" || u.metadata["owner"] != "u1" || u.metadata["kind"] != "candidate" {
			t.Errorf("unexpected upsert: %+v", u)
		}
		if u.metadata["subspace"] != string(u.ns) {
			t.Errorf("subspace metadata mismatch: %+v", u)
		}
	}
}

func TestWrite_SkipsEmptyTexts(t *testing.T) {
	s, _, emb := newTestStore()
	texts := map[domain.Subspace]string{
		domain.SubspaceSkillsMatrix:     "Go",
		domain.SubspaceProjectPortfolio: "  ",
	}

	ids, err := s.Write(context.Background(), domain.KindCandidate, "c1", texts, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[domain.SubspaceSkillsMatrix] != "skills_c1" {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if emb.calls() != 1 {
		t.Fatalf("expected 1 embedding, got %d", emb.calls())
	}
	if len(texts) != 2 {
		t.Fatal("caller's map must not be modified")
	}
}

func TestWrite_Validation(t *testing.T) {
	s, _, _ := newTestStore()
	ctx := context.Background()

	_, err := s.Write(ctx, domain.KindCandidate, "c1", map[domain.Subspace]string{}, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for no texts, got %v", err)
	}

	_, err = s.Write(ctx, domain.KindCandidate, "c1",
		map[domain.Subspace]string{domain.SubspaceProjectSkills: "Go"}, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for foreign subspace, got %v", err)
	}

	_, err = s.Write(ctx, domain.KindCandidate, "", candidateTexts, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}
}

func TestWrite_EmbedFailureWritesNothing(t *testing.T) {
	s, idx, emb := newTestStore()
	emb.embedFn = func(text string) (domain.EmbeddingResult, error) {
		if text == "Go, Redis" {
			return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
		}
		return domain.EmbeddingResult{Embedding: []float32{1}}, nil
	}

	_, err := s.Write(context.Background(), domain.KindCandidate, "c1", candidateTexts, nil)
	if !errors.Is(err, domain.ErrVectorization) {
		t.Fatalf("expected vectorization error, got %v", err)
	}
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider cause to be kept, got %v", err)
	}
	if len(idx.upserts) != 0 {
		t.Fatalf("expected no upserts, got %d", len(idx.upserts))
	}
}

func TestWrite_UpsertFailureRollsBack(t *testing.T) {
	s, idx, _ := newTestStore()
	idx.upsertFn = func(ns domain.Subspace, _ string) error {
		if ns == domain.SubspaceProjectPortfolio {
			return errors.New("index unavailable")
		}
		return nil
	}

	_, err := s.Write(context.Background(), domain.KindCandidate, "c1", candidateTexts, nil)
	if !errors.Is(err, domain.ErrVectorization) {
		t.Fatalf("expected vectorization error, got %v", err)
	}
	for _, sub := range domain.KindCandidate.Subspaces() {
		if idx.has(sub, sub.VectorID("c1")) {
			t.Errorf("vector %s left behind after aborted write", sub)
		}
	}
}

func TestRewrite_ChangedOnly(t *testing.T) {
	s, idx, emb := newTestStore()
	previous := domain.VectorIDs{
		domain.SubspaceProfessionalSummary: "prof_sum_c1",
		domain.SubspaceSkillsMatrix:        "skills_c1",
		domain.SubspaceProjectPortfolio:    "proj_port_c1",
	}
	changed := map[domain.Subspace]string{
		domain.SubspaceSkillsMatrix:     "Go, Kafka",
		domain.SubspaceProjectPortfolio: "",
	}

	out, err := s.Rewrite(context.Background(), domain.KindCandidate, "c1", previous, changed, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.calls() != 1 {
		t.Fatalf("expected only the changed subspace to be embedded, got %d", emb.calls())
	}
	if len(out.IDs) != 2 || out.IDs[domain.SubspaceProfessionalSummary] != "prof_sum_c1" ||
		out.IDs[domain.SubspaceSkillsMatrix] != "skills_c1" {
		t.Fatalf("unexpected ids: %v", out.IDs)
	}
	if out.Stale[domain.SubspaceProjectPortfolio] != "proj_port_c1" || len(out.Stale) != 1 {
		t.Fatalf("unexpected stale: %v", out.Stale)
	}
	if len(idx.deletes) != 0 {
		t.Fatal("stale vectors must not be deleted by Rewrite")
	}
	if len(previous) != 3 {
		t.Fatal("previous map must not be modified")
	}
}

func TestRewrite_NothingToEmbed(t *testing.T) {
	s, idx, _ := newTestStore()
	previous := domain.VectorIDs{domain.SubspaceProjectSkills: "proj_skills_p1"}

	out, err := s.Rewrite(context.Background(), domain.KindProject, "p1", previous, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.IDs[domain.SubspaceProjectSkills] != "proj_skills_p1" || len(out.Stale) != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(idx.upserts) != 0 {
		t.Fatal("expected no writes")
	}
}

func TestRewrite_FailureKeepsReferencedVectors(t *testing.T) {
	s, idx, _ := newTestStore()
	previous := domain.VectorIDs{domain.SubspaceProjectDescription: "proj_desc_p1"}
	idx.vectors["project_description/proj_desc_p1"] = []float32{1}
	idx.upsertFn = func(ns domain.Subspace, _ string) error {
		if ns == domain.SubspaceProjectSkills {
			return errors.New("boom")
		}
		return nil
	}

	_, err := s.Rewrite(context.Background(), domain.KindProject, "p1", previous, map[domain.Subspace]string{
		domain.SubspaceProjectDescription: "new description",
		domain.SubspaceProjectSkills:      "Go",
	}, nil)
	if !errors.Is(err, domain.ErrVectorization) {
		t.Fatalf("expected vectorization error, got %v", err)
	}
	if !idx.has(domain.SubspaceProjectDescription, "proj_desc_p1") {
		t.Fatal("vector still referenced by the stored record was deleted")
	}
}

func TestDelete_PartialFailure(t *testing.T) {
	s, idx, _ := newTestStore()
	idx.deleteFn = func(ns domain.Subspace, _ string) error {
		if ns == domain.SubspaceSkillsMatrix {
			return errors.New("timeout")
		}
		return nil
	}
	ids := domain.VectorIDs{
		domain.SubspaceProfessionalSummary: "prof_sum_c1",
		domain.SubspaceSkillsMatrix:        "skills_c1",
	}

	deleted, failed := s.Delete(context.Background(), ids)
	if len(deleted) != 1 || deleted[domain.SubspaceProfessionalSummary] != "prof_sum_c1" {
		t.Fatalf("unexpected deleted: %v", deleted)
	}
	if len(failed) != 1 || failed[domain.SubspaceSkillsMatrix] == nil {
		t.Fatalf("unexpected failed: %v", failed)
	}
}

func TestDelete_AllOK(t *testing.T) {
	s, _, _ := newTestStore()
	deleted, failed := s.Delete(context.Background(), domain.VectorIDs{domain.SubspaceProjectSkills: "proj_skills_p1"})
	if len(deleted) != 1 || failed != nil {
		t.Fatalf("unexpected result: %v %v", deleted, failed)
	}
}

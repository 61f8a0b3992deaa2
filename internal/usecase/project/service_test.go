package project

import (
	"context"
	"errors"
	"slices"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domproj "github.com/kailas-cloud/talentmatch/internal/domain/project"
	"github.com/kailas-cloud/talentmatch/internal/usecase/vectorstore"
)

var (
	t0      = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	errBoom = errors.New("boom")
)

// --- Mocks ---

type mockRepo struct {
	byID      map[string]domproj.Project
	insertErr error
	replaceFn func(p domproj.Project) error
	ops       []string
}

func (m *mockRepo) Get(_ context.Context, id string) (domproj.Project, error) {
	p, ok := m.byID[id]
	if !ok {
		return domproj.Project{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) Insert(_ context.Context, p domproj.Project) error {
	m.ops = append(m.ops, "insert")
	if m.insertErr != nil {
		return m.insertErr
	}
	m.byID[p.ID()] = p
	return nil
}

func (m *mockRepo) Replace(_ context.Context, p domproj.Project) error {
	m.ops = append(m.ops, "replace")
	if m.replaceFn != nil {
		if err := m.replaceFn(p); err != nil {
			return err
		}
	}
	m.byID[p.ID()] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) (int, error) {
	m.ops = append(m.ops, "delete")
	if _, ok := m.byID[id]; !ok {
		return 0, nil
	}
	delete(m.byID, id)
	return 1, nil
}

func (m *mockRepo) ListByInterviewer(_ context.Context, interviewer string) ([]domproj.Project, error) {
	var out []domproj.Project
	for _, p := range m.byID {
		if p.Interviewer() == interviewer {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

type mockVectors struct {
	repo     *mockRepo
	writeErr error
	changed  []map[domain.Subspace]string
	deleted  []domain.VectorIDs
}

func (m *mockVectors) Write(
	_ context.Context, _ domain.Kind, entityID string,
	texts map[domain.Subspace]string, _ map[string]string,
) (domain.VectorIDs, error) {
	m.repo.ops = append(m.repo.ops, "write")
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	ids := domain.VectorIDs{}
	for sub := range texts {
		ids[sub] = sub.VectorID(entityID)
	}
	return ids, nil
}

func (m *mockVectors) Rewrite(
	_ context.Context, _ domain.Kind, entityID string,
	previous domain.VectorIDs, changed map[domain.Subspace]string, _ map[string]string,
) (vectorstore.Rewritten, error) {
	m.repo.ops = append(m.repo.ops, "rewrite")
	if m.writeErr != nil {
		return vectorstore.Rewritten{}, m.writeErr
	}
	m.changed = append(m.changed, changed)
	out := vectorstore.Rewritten{IDs: previous.Clone(), Stale: domain.VectorIDs{}}
	for sub := range changed {
		out.IDs[sub] = sub.VectorID(entityID)
	}
	return out, nil
}

func (m *mockVectors) Delete(_ context.Context, ids domain.VectorIDs) (domain.VectorIDs, map[domain.Subspace]error) {
	m.repo.ops = append(m.repo.ops, "vectors.delete")
	m.deleted = append(m.deleted, ids)
	return ids, nil
}

func newService() (*Service, *mockRepo, *mockVectors) {
	repo := &mockRepo{byID: make(map[string]domproj.Project)}
	vecs := &mockVectors{repo: repo}
	n := 0
	svc := New(repo, vecs, zap.NewNop()).
		WithClock(func() time.Time { return t0 }).
		WithIDGenerator(func() string {
			n++
			return "proj-" + string(rune('0'+n))
		})
	return svc, repo, vecs
}

func posting() domproj.Posting {
	return domproj.Posting{
		Heading:     "Chat platform",
		Description: "Build a realtime chat backend",
		Skills:      []string{"Go", "Redis"},
		Deadline:    "2026-12-31",
	}
}

func strPtr(s string) *string { return &s }

// --- Tests ---

func TestRegister(t *testing.T) {
	svc, repo, _ := newService()

	p, err := svc.Register(context.Background(), "int-1", posting())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.ID() != "proj-1" || p.Interviewer() != "int-1" {
		t.Errorf("project = %s / %s", p.ID(), p.Interviewer())
	}
	if len(p.VectorIDs()) != 2 {
		t.Errorf("vector ids = %v", p.VectorIDs())
	}
	if got := p.Posting().Deadline; got != "2026-12-31T00:00:00Z" {
		t.Errorf("deadline = %q", got)
	}
	if got := p.Posting().JobTitle; got != "Chat platform" {
		t.Errorf("job title = %q", got)
	}
	if want := []string{"write", "insert"}; !slices.Equal(repo.ops, want) {
		t.Errorf("ops = %v, want %v", repo.ops, want)
	}
}

func TestRegister_Errors(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		svc, _, _ := newService()
		if _, err := svc.Register(context.Background(), "", posting()); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("bad deadline", func(t *testing.T) {
		svc, repo, _ := newService()
		post := posting()
		post.Deadline = "whenever"
		if _, err := svc.Register(context.Background(), "int-1", post); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("err = %v", err)
		}
		if len(repo.ops) != 0 {
			t.Errorf("ops = %v", repo.ops)
		}
	})

	t.Run("vectorization", func(t *testing.T) {
		svc, repo, vecs := newService()
		vecs.writeErr = domain.ErrVectorization
		if _, err := svc.Register(context.Background(), "int-1", posting()); !errors.Is(err, domain.ErrVectorization) {
			t.Errorf("err = %v", err)
		}
		if len(repo.byID) != 0 {
			t.Error("record must not be written")
		}
	})

	t.Run("insert discards vectors", func(t *testing.T) {
		svc, repo, vecs := newService()
		repo.insertErr = errBoom
		if _, err := svc.Register(context.Background(), "int-1", posting()); !errors.Is(err, errBoom) {
			t.Errorf("err = %v", err)
		}
		if len(vecs.deleted) != 1 || len(vecs.deleted[0]) != 2 {
			t.Errorf("deleted = %v", vecs.deleted)
		}
	})
}

func TestUpdate(t *testing.T) {
	svc, repo, vecs := newService()
	p, err := svc.Register(context.Background(), "int-1", posting())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	next, err := svc.Update(context.Background(), p.ID(), "int-1", domproj.Patch{JobLocation: strPtr("Remote")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if next.Posting().JobLocation != "Remote" {
		t.Errorf("location = %q", next.Posting().JobLocation)
	}
	if len(vecs.changed[0]) != 0 {
		t.Errorf("non-text change re-embedded %v", vecs.changed[0])
	}

	_, err = svc.Update(context.Background(), p.ID(), "int-1", domproj.Patch{Skills: &[]string{"Rust"}})
	if err != nil {
		t.Fatalf("Update skills: %v", err)
	}
	if got := vecs.changed[1]; len(got) != 1 || got[domain.SubspaceProjectSkills] != "Rust" {
		t.Errorf("changed = %v", got)
	}
	stored := repo.byID[p.ID()]
	if got := stored.Posting().Skills; !slices.Equal(got, []string{"Rust"}) {
		t.Errorf("stored skills = %v", got)
	}
}

func TestUpdate_Errors(t *testing.T) {
	svc, repo, _ := newService()
	p, err := svc.Register(context.Background(), "int-1", posting())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Update(context.Background(), p.ID(), "int-2", domproj.Patch{JobLocation: strPtr("x")}); !errors.Is(err, domain.ErrOwnership) {
		t.Errorf("ownership err = %v", err)
	}
	if _, err := svc.Update(context.Background(), "nope", "int-1", domproj.Patch{JobLocation: strPtr("x")}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
	if _, err := svc.Update(context.Background(), p.ID(), "int-1", domproj.Patch{Deadline: strPtr("soon")}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("deadline err = %v", err)
	}

	repo.replaceFn = func(domproj.Project) error { return errBoom }
	if _, err := svc.Update(context.Background(), p.ID(), "int-1", domproj.Patch{JobLocation: strPtr("x")}); !errors.Is(err, errBoom) {
		t.Errorf("replace err = %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, repo, _ := newService()
	p, err := svc.Register(context.Background(), "int-1", posting())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Delete(context.Background(), p.ID(), "int-2"); !errors.Is(err, domain.ErrOwnership) {
		t.Errorf("ownership err = %v", err)
	}

	deleted, err := svc.Delete(context.Background(), p.ID(), "int-1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted = %v", deleted)
	}
	if want := []string{"write", "insert", "delete", "vectors.delete"}; !slices.Equal(repo.ops, want) {
		t.Errorf("ops = %v, want %v", repo.ops, want)
	}
	if _, err := svc.Get(context.Background(), p.ID()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
}

func TestListByInterviewer(t *testing.T) {
	svc, _, _ := newService()
	for _, owner := range []string{"int-1", "int-2", "int-1"} {
		if _, err := svc.Register(context.Background(), owner, posting()); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	ps, err := svc.ListByInterviewer(context.Background(), "int-1")
	if err != nil {
		t.Fatalf("ListByInterviewer: %v", err)
	}
	if len(ps) != 2 {
		t.Errorf("projects = %d", len(ps))
	}
	if _, err := svc.ListByInterviewer(context.Background(), ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("err = %v", err)
	}
}

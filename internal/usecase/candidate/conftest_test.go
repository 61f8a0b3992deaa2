package candidate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
	"github.com/kailas-cloud/talentmatch/internal/usecase/vectorstore"
)

var (
	t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)

	errBoom = errors.New("boom")
)

// --- Mocks ---

type mockRepo struct {
	mu        sync.Mutex
	byID      map[string]domcand.Candidate
	insertErr error
	replaceFn func(c domcand.Candidate) error
	deleteErr error
	indexErr  error
	findErr   error
	ops       []string
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: make(map[string]domcand.Candidate)}
}

func (m *mockRepo) record(op string) {
	m.mu.Lock()
	m.ops = append(m.ops, op)
	m.mu.Unlock()
}

func (m *mockRepo) Get(_ context.Context, id string) (domcand.Candidate, error) {
	c, ok := m.byID[id]
	if !ok {
		return domcand.Candidate{}, domain.ErrNotFound
	}
	return c, nil
}

func (m *mockRepo) FindByOwner(_ context.Context, owner string) (domcand.Candidate, error) {
	if m.findErr != nil {
		return domcand.Candidate{}, m.findErr
	}
	for _, c := range m.byID {
		if c.Owner() == owner {
			return c, nil
		}
	}
	return domcand.Candidate{}, domain.ErrNotFound
}

func (m *mockRepo) Insert(_ context.Context, c domcand.Candidate) error {
	m.record("insert")
	if m.insertErr != nil {
		return m.insertErr
	}
	m.byID[c.ID()] = c
	return nil
}

func (m *mockRepo) Replace(_ context.Context, c domcand.Candidate) error {
	m.record("replace")
	if m.replaceFn != nil {
		if err := m.replaceFn(c); err != nil {
			return err
		}
	}
	if _, ok := m.byID[c.ID()]; !ok {
		return domain.ErrNotFound
	}
	m.byID[c.ID()] = c
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) (int, error) {
	m.record("delete")
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	if _, ok := m.byID[id]; !ok {
		return 0, nil
	}
	delete(m.byID, id)
	if m.indexErr != nil {
		return 1, m.indexErr
	}
	return 1, nil
}

// mockVectors mirrors the vector store contract with deterministic ids.
type mockVectors struct {
	repo      *mockRepo
	written   []map[domain.Subspace]string
	deleted   []domain.VectorIDs
	writeErr  error
	deleteErr map[domain.Subspace]error
}

func (m *mockVectors) Write(
	_ context.Context, _ domain.Kind, entityID string,
	texts map[domain.Subspace]string, _ map[string]string,
) (domain.VectorIDs, error) {
	m.repo.record("write")
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	m.written = append(m.written, texts)
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
	m.repo.record("rewrite")
	if m.writeErr != nil {
		return vectorstore.Rewritten{}, m.writeErr
	}
	out := vectorstore.Rewritten{IDs: previous.Clone(), Stale: domain.VectorIDs{}}
	if out.IDs == nil {
		out.IDs = domain.VectorIDs{}
	}
	texts := map[domain.Subspace]string{}
	for sub, text := range changed {
		if strings.TrimSpace(text) == "" {
			if id, ok := out.IDs[sub]; ok {
				out.Stale[sub] = id
				delete(out.IDs, sub)
			}
			continue
		}
		texts[sub] = text
		out.IDs[sub] = sub.VectorID(entityID)
	}
	m.written = append(m.written, texts)
	return out, nil
}

func (m *mockVectors) Delete(_ context.Context, ids domain.VectorIDs) (domain.VectorIDs, map[domain.Subspace]error) {
	m.repo.record("vectors.delete")
	m.deleted = append(m.deleted, ids)
	deleted := domain.VectorIDs{}
	var failed map[domain.Subspace]error
	for sub, id := range ids {
		if err := m.deleteErr[sub]; err != nil {
			if failed == nil {
				failed = map[domain.Subspace]error{}
			}
			failed[sub] = err
			continue
		}
		deleted[sub] = id
	}
	return deleted, failed
}

func newService() (*Service, *mockRepo, *mockVectors) {
	repo := newMockRepo()
	vecs := &mockVectors{repo: repo}
	n := 0
	svc := New(repo, vecs, zap.NewNop()).
		WithClock(func() time.Time { return t0 }).
		WithIDGenerator(func() string {
			n++
			return "cand-" + string(rune('0'+n))
		})
	return svc, repo, vecs
}

func fullProfile() domcand.Profile {
	return domcand.Profile{
		Name:                "Ada",
		ProfessionalSummary: "Backend engineer",
		Skills:              []string{"Go", "Redis"},
		Projects: []domcand.PortfolioProject{
			{Title: "Chat", Description: "Realtime chat service", Skills: []string{"WebSockets"}},
		},
	}
}

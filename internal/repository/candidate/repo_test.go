package candidate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/talentmatch/internal/db"
	"github.com/kailas-cloud/talentmatch/internal/db/badger"
	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	s, err := badger.Open(badger.Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return New(s)
}

func testCandidate(t *testing.T, id, owner string) domcand.Candidate {
	t.Helper()
	years := 4.0
	c, err := domcand.New(id, owner, domcand.Profile{
		Name:                 "Asha",
		Mail:                 "asha@example.com",
		Social:               domcand.Social{GitHub: "asha"},
		Education:            []domcand.Education{{Name: "IIT", Qualification: "B.Tech"}},
		Skills:               []string{"Go", "Redis"},
		Projects:             []domcand.PortfolioProject{{Title: "Chat", Description: "Realtime chat", Skills: []string{"Go"}}},
		Experience:           []domcand.Experience{{Company: "Acme", Designation: "Team Lead", Description: "Led a team"}},
		ProfessionalSummary:  "Backend engineer",
		TotalExperienceYears: &years,
	}, now)
	require.NoError(t, err)
	return c.WithVectorIDs(domain.VectorIDs{
		domain.SubspaceProfessionalSummary: domain.SubspaceProfessionalSummary.VectorID(id),
		domain.SubspaceSkillsMatrix:        domain.SubspaceSkillsMatrix.VectorID(id),
	})
}

func TestInsertGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	c := testCandidate(t, "c1", "u1")

	require.NoError(t, repo.Insert(ctx, c))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.Owner())
	assert.Equal(t, c.Profile(), got.Profile())
	assert.Equal(t, c.Attributes(), got.Attributes())
	assert.Equal(t, c.VectorIDs(), got.VectorIDs())
	assert.True(t, got.CreatedAt().Equal(now))

	byOwner, err := repo.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "c1", byOwner.ID())
}

func TestGet_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.FindByOwner(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReplace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	c := testCandidate(t, "c1", "u1")

	assert.ErrorIs(t, repo.Replace(ctx, c), domain.ErrNotFound)

	require.NoError(t, repo.Insert(ctx, c))
	next := c.WithVectorIDs(domain.VectorIDs{domain.SubspaceSkillsMatrix: "skills_c1"})
	require.NoError(t, repo.Replace(ctx, next))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.VectorIDs{domain.SubspaceSkillsMatrix: "skills_c1"}, got.VectorIDs())
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, testCandidate(t, "c1", "u1")))

	n, err := repo.Delete(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.FindByOwner(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err = repo.Delete(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestGetManyAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, testCandidate(t, "c2", "u2")))
	require.NoError(t, repo.Insert(ctx, testCandidate(t, "c1", "u1")))

	many, err := repo.GetMany(ctx, []string{"c1", "gone", "c2"})
	require.NoError(t, err)
	assert.Len(t, many, 2)
	assert.Contains(t, many, "c1")
	assert.Contains(t, many, "c2")

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2, "owner index keys must not be listed as candidates")
	assert.Equal(t, "c1", all[0].ID())
	assert.Equal(t, "c2", all[1].ID())
}

type failingStore struct {
	store
	err error
}

func (f failingStore) JSONGet(context.Context, string, ...string) ([]byte, error) { return nil, f.err }
func (f failingStore) JSONMGet(context.Context, []string) ([][]byte, error)       { return nil, f.err }

func TestStoreErrorsPropagate(t *testing.T) {
	boom := &db.Error{Op: db.OpJSONGet, Err: errors.New("connection lost")}
	repo := New(failingStore{err: boom})

	_, err := repo.Get(context.Background(), "c1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, err, boom)

	_, err = repo.GetMany(context.Background(), []string{"c1"})
	assert.ErrorIs(t, err, boom)
}

type flakyStore struct {
	store
	setErr     error
	jsonSetErr error
}

func (f flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.store.Set(ctx, key, value)
}

func (f flakyStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if f.jsonSetErr != nil {
		return f.jsonSetErr
	}
	return f.store.JSONSet(ctx, key, path, data)
}

func TestInsert_OwnerIndexFailureLeavesNoRecord(t *testing.T) {
	s, err := badger.Open(badger.Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	ctx := context.Background()

	down := errors.New("owner index down")
	repo := New(flakyStore{store: s, setErr: down})
	err = repo.Insert(ctx, testCandidate(t, "c1", "u1"))
	require.ErrorIs(t, err, down)

	_, err = New(s).Get(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "record must not outlive a failed insert")
}

func TestInsert_RecordFailureLeavesOwnerUnresolved(t *testing.T) {
	s, err := badger.Open(badger.Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	ctx := context.Background()

	down := errors.New("json down")
	err = New(flakyStore{store: s, jsonSetErr: down}).Insert(ctx, testCandidate(t, "c1", "u1"))
	require.ErrorIs(t, err, down)

	repo := New(s)
	_, err = repo.FindByOwner(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Insert(ctx, testCandidate(t, "c2", "u1")))
	got, err := repo.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "c2", got.ID())
}

package project

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/talentmatch/internal/db/badger"
	"github.com/kailas-cloud/talentmatch/internal/domain"
	domproj "github.com/kailas-cloud/talentmatch/internal/domain/project"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	s, err := badger.Open(badger.Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return New(s).WithKeyPrefix("tm:")
}

func testProject(t *testing.T, id, interviewer string, created time.Time) domproj.Project {
	t.Helper()
	salary := 50000.0
	p, err := domproj.New(id, interviewer, domproj.Posting{
		Heading:     "Chat app",
		Description: "Build a realtime chat app",
		Skills:      []string{"Go", "WebSocket"},
		Deadline:    "2025-12-31T23:59:59Z",
		JobLocation: "Remote",
		SalaryMin:   &salary,
	}, created)
	require.NoError(t, err)
	return p.WithVectorIDs(domain.VectorIDs{
		domain.SubspaceProjectDescription: domain.SubspaceProjectDescription.VectorID(id),
		domain.SubspaceProjectSkills:      domain.SubspaceProjectSkills.VectorID(id),
	})
}

func TestInsertGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := testProject(t, "p1", "iv1", now)

	require.NoError(t, repo.Insert(ctx, p))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, p.Posting(), got.Posting())
	assert.Equal(t, "iv1", got.Interviewer())
	assert.Equal(t, p.VectorIDs(), got.VectorIDs())
	assert.True(t, got.HasDeadline())
}

func TestReplaceAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := testProject(t, "p1", "iv1", now)

	assert.ErrorIs(t, repo.Replace(ctx, p), domain.ErrNotFound)
	require.NoError(t, repo.Insert(ctx, p))
	require.NoError(t, repo.Replace(ctx, p.WithVectorIDs(nil)))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, got.VectorIDs())

	n, err := repo.Delete(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.Delete(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = repo.Get(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByInterviewer(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, testProject(t, "p1", "iv1", now)))
	require.NoError(t, repo.Insert(ctx, testProject(t, "p2", "iv2", now)))
	require.NoError(t, repo.Insert(ctx, testProject(t, "p3", "iv1", now.Add(time.Hour))))

	mine, err := repo.ListByInterviewer(ctx, "iv1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "p3", mine[0].ID(), "newest first")
	assert.Equal(t, "p1", mine[1].ID())

	none, err := repo.ListByInterviewer(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetMany(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, testProject(t, "p1", "iv1", now)))

	got, err := repo.GetMany(ctx, []string{"p1", "p404"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "p1")

	got, err = repo.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

package valkey

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/talentmatch/internal/db"
)

func TestSearchKNN_SortsClientSide(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "FT.SEARCH" {
				return false
			}
			for _, a := range cmd {
				if a == "SORTBY" || a == "RETURN" {
					return false
				}
			}
			return true
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("vec:a"),
			mock.RedisArray(
				mock.RedisString("__vector_score"), mock.RedisString("0.5"),
				mock.RedisString("entity_id"), mock.RedisString("a"),
				mock.RedisString("vector"), mock.RedisString("blob"),
			),
			mock.RedisString("vec:b"),
			mock.RedisArray(
				mock.RedisString("__vector_score"), mock.RedisString("0.1"),
				mock.RedisString("entity_id"), mock.RedisString("b"),
			),
		)))

	s := NewStoreForTest(c)
	res, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName:    "idx",
		Vector:       []float32{0.1, 0.2},
		K:            2,
		ReturnFields: []string{"entity_id"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(res.Entries))
	}
	if res.Entries[0].Key != "vec:b" {
		t.Errorf("best match first: got %s", res.Entries[0].Key)
	}
	if s := res.Entries[0].Score; s < 0.89 || s > 0.91 {
		t.Errorf("expected score ~0.9, got %f", s)
	}
	if _, ok := res.Entries[0].Fields["vector"]; ok {
		t.Error("fields outside ReturnFields must be dropped")
	}
	if _, ok := res.Entries[1].Fields["vector"]; ok {
		t.Error("fields outside ReturnFields must be dropped")
	}
}

func TestSearchKNN_RawScoresAscending(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("vec:a"),
			mock.RedisArray(mock.RedisString("__vector_score"), mock.RedisString("0.7")),
			mock.RedisString("vec:b"),
			mock.RedisArray(mock.RedisString("__vector_score"), mock.RedisString("0.2")),
		)))

	s := NewStoreForTest(c)
	res, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx", Vector: []float32{1}, K: 2, RawScores: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Entries[0].Key != "vec:b" || res.Entries[0].Score != 0.2 {
		t.Errorf("unexpected first entry: %+v", res.Entries[0])
	}
}

func TestSearchKNN_MissingIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisError("Index with name 'idx' not found")))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{1}, K: 1})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	s := NewStoreForTest(nil)
	tests := []*db.KNNQuery{
		{Vector: []float32{1}, K: 1},
		{IndexName: "idx", K: 1},
		{IndexName: "idx", Vector: []float32{1}},
	}
	for _, q := range tests {
		if _, err := s.SearchKNN(context.Background(), q); err == nil {
			t.Errorf("expected error for %+v", q)
		}
	}
}

func TestSearchKNN_TransportError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{1}, K: 1})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpSearch {
		t.Errorf("expected db.Error with op FT.SEARCH, got %v", err)
	}
}

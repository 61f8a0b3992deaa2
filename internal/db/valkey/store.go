// Package valkey adapts the Redis store to valkey-search, which accepts the
// same FT.CREATE/FT.SEARCH commands but neither SORTBY nor RETURN of the
// score alias, so KNN results are ordered client-side.
package valkey

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/talentmatch/internal/db"
	"github.com/kailas-cloud/talentmatch/internal/db/redis"
)

var _ db.Store = (*Store)(nil)

// Store is a Redis store whose KNN search speaks the valkey-search dialect.
type Store struct {
	*redis.Store
	client rueidis.Client
}

// NewStore connects to a Valkey deployment with the search module loaded.
func NewStore(cfg redis.Config) (*Store, error) {
	rs, err := redis.NewStore(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Store: rs, client: rs.Client()}, nil
}

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{Store: redis.NewStoreForTest(c), client: c}
}

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	args := []string{q.IndexName, fmt.Sprintf("*=>[KNN %d @vector $BLOB]", q.K)}
	args = append(args, "PARAMS", "2", "BLOB", vectorToBytes(q.Vector), "DIALECT", "2")

	cmd := s.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		if isIndexMissing(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	res, err := parseKNNResult(raw, q.RawScores)
	if err != nil {
		return nil, err
	}
	if len(q.ReturnFields) > 0 {
		keepFields(res.Entries, q.ReturnFields)
	}
	return res, nil
}

func isIndexMissing(err error) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	msg := strings.ToLower(re.Error())
	return strings.Contains(msg, "unknown index name") ||
		(strings.Contains(msg, "index") && strings.Contains(msg, "not found"))
}

func parseKNNResult(raw []rueidis.RedisMessage, rawScores bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		entry := db.SearchEntry{Key: key, Fields: parseFieldPairs(fields)}
		if scoreStr, ok := entry.Fields["__vector_score"]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				if rawScores {
					entry.Score = d
				} else {
					entry.Score = 1.0 - d
				}
			}
			delete(entry.Fields, "__vector_score")
		}
		entries = append(entries, entry)
	}

	// valkey-search returns neighbours in arbitrary order.
	sort.SliceStable(entries, func(i, j int) bool {
		if rawScores {
			return entries[i].Score < entries[j].Score
		}
		return entries[i].Score > entries[j].Score
	})
	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func keepFields(entries []db.SearchEntry, names []string) {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	for i := range entries {
		for k := range entries[i].Fields {
			if _, ok := want[k]; !ok {
				delete(entries[i].Fields, k)
			}
		}
	}
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

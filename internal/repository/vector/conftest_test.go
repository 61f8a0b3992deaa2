package vector

import (
	"context"
	"strings"

	"github.com/kailas-cloud/talentmatch/internal/db"
	"github.com/kailas-cloud/talentmatch/internal/db/qdrant"
)

// mockStore is an in-memory stand-in for the hash + FT store.
type mockStore struct {
	hashes        map[string]map[string]string
	indexes       map[string]*db.IndexDefinition
	searchFn      func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	hsetErr       error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
}

func newMockStore() *mockStore {
	return &mockStore{hashes: map[string]map[string]string{}, indexes: map[string]*db.IndexDefinition{}}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	h := m.hashes[key]
	if h == nil {
		h = map[string]string{}
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if h, ok := m.hashes[key]; ok {
		return h, nil
	}
	return map[string]string{}, nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.hashes, key)
	return nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	if _, ok := m.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	m.indexes[def.Name] = def
	return nil
}

func (m *mockStore) IndexExists(_ context.Context, name string) (bool, error) {
	_, ok := m.indexes[name]
	return ok, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	if _, ok := m.indexes[q.IndexName]; !ok {
		return nil, db.ErrIndexNotFound
	}
	return &db.SearchResult{}, nil
}

// fakeQdrant is an in-memory stand-in for the Qdrant client.
type fakeQdrant struct {
	collections map[string]int
	points      map[string]map[string]qdrant.Point
	search      []qdrant.ScoredPoint
	searchErr   error
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{collections: map[string]int{}, points: map[string]map[string]qdrant.Point{}}
}

func (f *fakeQdrant) EnsureCollection(_ context.Context, name string, dim int) error {
	f.collections[name] = dim
	if f.points[name] == nil {
		f.points[name] = map[string]qdrant.Point{}
	}
	return nil
}

func (f *fakeQdrant) Upsert(_ context.Context, collection string, p qdrant.Point) error {
	f.points[collection][p.ID] = p
	return nil
}

func (f *fakeQdrant) Search(_ context.Context, collection string, _ []float32, _ int) ([]qdrant.ScoredPoint, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if _, ok := f.collections[collection]; !ok {
		return nil, db.ErrIndexNotFound
	}
	return f.search, nil
}

func (f *fakeQdrant) Get(_ context.Context, collection, id string) (qdrant.Point, error) {
	col, ok := f.points[collection]
	if !ok {
		return qdrant.Point{}, db.ErrIndexNotFound
	}
	p, ok := col[id]
	if !ok {
		return qdrant.Point{}, db.ErrKeyNotFound
	}
	return p, nil
}

func (f *fakeQdrant) Delete(_ context.Context, collection, id string) error {
	delete(f.points[collection], id)
	return nil
}

func (f *fakeQdrant) Scroll(_ context.Context, collection string) ([]qdrant.Point, error) {
	col, ok := f.points[collection]
	if !ok {
		return nil, db.ErrIndexNotFound
	}
	out := make([]qdrant.Point, 0, len(col))
	for _, p := range col {
		out = append(out, p)
	}
	return out, nil
}

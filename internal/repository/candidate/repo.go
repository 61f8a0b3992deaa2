// Package candidate stores candidate records as JSON documents with an
// owner index for profile lookups.
package candidate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/talentmatch/internal/db"
	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
)

// store is the consumer interface for candidate documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONMGet(ctx context.Context, keys []string) ([][]byte, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the candidate repository contracts of the usecase layer.
type Repo struct {
	store  store
	prefix string
}

// New creates a candidate repository.
func New(s store) *Repo {
	return &Repo{store: s, prefix: domain.KeyPrefix}
}

// WithKeyPrefix overrides the key namespace shared with other services.
func (r *Repo) WithKeyPrefix(p string) *Repo {
	if p != "" {
		r.prefix = p
	}
	return r
}

// Get loads a candidate by id.
func (r *Repo) Get(ctx context.Context, id string) (domcand.Candidate, error) {
	data, err := r.store.JSONGet(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domcand.Candidate{}, fmt.Errorf("candidate %s: %w", id, domain.ErrNotFound)
		}
		return domcand.Candidate{}, fmt.Errorf("get candidate %s: %w", id, err)
	}
	return unmarshalCandidate(data)
}

// FindByOwner loads the candidate registered by an identity.
func (r *Repo) FindByOwner(ctx context.Context, owner string) (domcand.Candidate, error) {
	raw, err := r.store.Get(ctx, r.ownerKey(owner))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domcand.Candidate{}, fmt.Errorf("candidate for owner %s: %w", owner, domain.ErrNotFound)
		}
		return domcand.Candidate{}, fmt.Errorf("get owner index %s: %w", owner, err)
	}
	return r.Get(ctx, string(raw))
}

// Insert indexes a new candidate by owner, then stores the record.
// A failed index write leaves nothing behind. A failed record write leaves an
// index entry to a missing record, which FindByOwner reports as not found.
func (r *Repo) Insert(ctx context.Context, c domcand.Candidate) error {
	if err := r.store.Set(ctx, r.ownerKey(c.Owner()), []byte(c.ID())); err != nil {
		return fmt.Errorf("set owner index %s: %w", c.Owner(), err)
	}
	return r.write(ctx, &c)
}

// Replace overwrites the whole stored record of an existing candidate.
func (r *Repo) Replace(ctx context.Context, c domcand.Candidate) error {
	if _, err := r.store.JSONGet(ctx, r.key(c.ID())); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return fmt.Errorf("candidate %s: %w", c.ID(), domain.ErrNotFound)
		}
		return fmt.Errorf("get candidate %s: %w", c.ID(), err)
	}
	return r.write(ctx, &c)
}

// Delete removes a candidate and its owner index entry. Returns the number of records removed.
func (r *Repo) Delete(ctx context.Context, id string) (int, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return 0, fmt.Errorf("del candidate %s: %w", id, err)
	}

	ownerKey := r.ownerKey(c.Owner())
	if raw, err := r.store.Get(ctx, ownerKey); err == nil && string(raw) == id {
		if err := r.store.Del(ctx, ownerKey); err != nil {
			return 1, fmt.Errorf("del owner index %s: %w", c.Owner(), err)
		}
	}
	return 1, nil
}

// GetMany loads several candidates in one round-trip. Missing ids are omitted.
func (r *Repo) GetMany(ctx context.Context, ids []string) (map[string]domcand.Candidate, error) {
	out := make(map[string]domcand.Candidate, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	docs, err := r.store.JSONMGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget candidates: %w", err)
	}
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		c, err := unmarshalCandidate(doc)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", ids[i], err)
		}
		out[c.ID()] = c
	}
	return out, nil
}

// List returns every stored candidate ordered by id.
func (r *Repo) List(ctx context.Context) ([]domcand.Candidate, error) {
	prefix := r.key("")
	keys, err := r.store.Scan(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan candidates: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, prefix))
	}
	byID, err := r.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domcand.Candidate, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (r *Repo) write(ctx context.Context, c *domcand.Candidate) error {
	data, err := marshalCandidate(c)
	if err != nil {
		return err
	}
	if err := r.store.JSONSet(ctx, r.key(c.ID()), "$", data); err != nil {
		return fmt.Errorf("json set candidate %s: %w", c.ID(), err)
	}
	return nil
}

// Key patterns: {prefix}candidate:{id}, {prefix}candidate_owner:{owner}

func (r *Repo) key(id string) string {
	return fmt.Sprintf("%scandidate:%s", r.prefix, id)
}

func (r *Repo) ownerKey(owner string) string {
	return fmt.Sprintf("%scandidate_owner:%s", r.prefix, owner)
}

// Package project stores project postings as JSON documents.
package project

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/talentmatch/internal/db"
	"github.com/kailas-cloud/talentmatch/internal/domain"
	domproj "github.com/kailas-cloud/talentmatch/internal/domain/project"
)

// store is the consumer interface for project documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONMGet(ctx context.Context, keys []string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the project repository contracts of the usecase layer.
type Repo struct {
	store  store
	prefix string
}

// New creates a project repository.
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

// Get loads a project by id.
func (r *Repo) Get(ctx context.Context, id string) (domproj.Project, error) {
	data, err := r.store.JSONGet(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domproj.Project{}, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return domproj.Project{}, fmt.Errorf("get project %s: %w", id, err)
	}
	return unmarshalProject(data)
}

// Insert stores a new project.
func (r *Repo) Insert(ctx context.Context, p domproj.Project) error {
	return r.write(ctx, &p)
}

// Replace overwrites the whole stored record of an existing project.
func (r *Repo) Replace(ctx context.Context, p domproj.Project) error {
	if _, err := r.store.JSONGet(ctx, r.key(p.ID())); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return fmt.Errorf("project %s: %w", p.ID(), domain.ErrNotFound)
		}
		return fmt.Errorf("get project %s: %w", p.ID(), err)
	}
	return r.write(ctx, &p)
}

// Delete removes a project. Returns the number of records removed.
func (r *Repo) Delete(ctx context.Context, id string) (int, error) {
	if _, err := r.store.JSONGet(ctx, r.key(id)); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get project %s: %w", id, err)
	}
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return 0, fmt.Errorf("del project %s: %w", id, err)
	}
	return 1, nil
}

// GetMany loads several projects in one round-trip. Missing ids are omitted.
func (r *Repo) GetMany(ctx context.Context, ids []string) (map[string]domproj.Project, error) {
	out := make(map[string]domproj.Project, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	docs, err := r.store.JSONMGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget projects: %w", err)
	}
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		p, err := unmarshalProject(doc)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", ids[i], err)
		}
		out[p.ID()] = p
	}
	return out, nil
}

// List returns every stored project, newest first.
func (r *Repo) List(ctx context.Context) ([]domproj.Project, error) {
	prefix := r.key("")
	keys, err := r.store.Scan(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan projects: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, prefix))
	}
	byID, err := r.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domproj.Project, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CreatedAt().After(out[j].CreatedAt())
		}
		return out[i].ID() < out[j].ID()
	})
	return out, nil
}

// ListByInterviewer returns the projects owned by an interviewer, newest first.
func (r *Repo) ListByInterviewer(ctx context.Context, interviewer string) ([]domproj.Project, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.Interviewer() == interviewer {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Repo) write(ctx context.Context, p *domproj.Project) error {
	data, err := marshalProject(p)
	if err != nil {
		return err
	}
	if err := r.store.JSONSet(ctx, r.key(p.ID()), "$", data); err != nil {
		return fmt.Errorf("json set project %s: %w", p.ID(), err)
	}
	return nil
}

// Key pattern: {prefix}project:{id}

func (r *Repo) key(id string) string {
	return fmt.Sprintf("%sproject:%s", r.prefix, id)
}

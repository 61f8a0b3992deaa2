// Package project manages job postings and their subspace vectors.
//
// Concurrent mutations of the same project must be serialized by the caller.
package project

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domproj "github.com/kailas-cloud/talentmatch/internal/domain/project"
	"github.com/kailas-cloud/talentmatch/internal/logger"
)

// Service handles project lifecycle operations.
type Service struct {
	repo    Repository
	vectors VectorStore
	now     func() time.Time
	newID   func() string
	logger  *zap.Logger
}

// New creates a project service.
func New(repo Repository, vectors VectorStore, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		vectors: vectors,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  logger,
	}
}

// WithClock overrides the timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// WithIDGenerator overrides the project id source.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// Register validates and stores a new posting owned by interviewer.
// Vectors are written before the record.
func (s *Service) Register(ctx context.Context, interviewer string, post domproj.Posting) (domproj.Project, error) {
	if interviewer == "" {
		return domproj.Project{}, fmt.Errorf("register project: %w", domain.ErrUnauthenticated)
	}

	p, err := domproj.New(s.newID(), interviewer, post, s.now())
	if err != nil {
		return domproj.Project{}, err //nolint:wrapcheck // validation error is returned as-is
	}

	ids, err := s.vectors.Write(ctx, domain.KindProject, p.ID(), p.Texts(), metadata(&p))
	if err != nil {
		return domproj.Project{}, err //nolint:wrapcheck // already carries ErrVectorization
	}
	p = p.WithVectorIDs(ids)

	if err := s.repo.Insert(ctx, p); err != nil {
		if _, failed := s.vectors.Delete(context.WithoutCancel(ctx), ids); len(failed) > 0 {
			logger.OrDefault(ctx, s.logger).Error("Failed to discard vectors of unsaved project",
				zap.String("project_id", p.ID()),
				zap.Int("orphaned", len(failed)),
			)
		}
		return domproj.Project{}, fmt.Errorf("insert project: %w", err)
	}

	logger.OrDefault(ctx, s.logger).Info("Project registered",
		zap.String("project_id", p.ID()),
		zap.String("interviewer_id", interviewer),
	)
	return p, nil
}

// Update applies a partial posting change, re-embedding only changed subspaces.
func (s *Service) Update(ctx context.Context, id, interviewer string, patch domproj.Patch) (domproj.Project, error) {
	current, err := s.owned(ctx, id, interviewer)
	if err != nil {
		return domproj.Project{}, err
	}

	next, changed, err := current.Apply(patch, s.now())
	if err != nil {
		return domproj.Project{}, err //nolint:wrapcheck // validation error is returned as-is
	}

	rw, err := s.vectors.Rewrite(ctx, domain.KindProject, id, current.VectorIDs(), changed, metadata(&next))
	if err != nil {
		return domproj.Project{}, err //nolint:wrapcheck // already carries ErrVectorization
	}
	next = next.WithVectorIDs(rw.IDs)

	if err := s.repo.Replace(ctx, next); err != nil {
		return domproj.Project{}, fmt.Errorf("replace project: %w", err)
	}
	if len(rw.Stale) > 0 {
		s.vectors.Delete(ctx, rw.Stale)
	}

	logger.OrDefault(ctx, s.logger).Info("Project updated",
		zap.String("project_id", id),
		zap.Int("changed_subspaces", len(changed)),
	)
	return next, nil
}

// Delete removes the record, then its vectors. Returns the vector ids actually deleted.
func (s *Service) Delete(ctx context.Context, id, interviewer string) (domain.VectorIDs, error) {
	p, err := s.owned(ctx, id, interviewer)
	if err != nil {
		return nil, err
	}

	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete project: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}

	deleted, failed := s.vectors.Delete(ctx, p.VectorIDs())
	logger.OrDefault(ctx, s.logger).Info("Project deleted",
		zap.String("project_id", id),
		zap.Int("vectors_deleted", len(deleted)),
		zap.Int("vectors_orphaned", len(failed)),
	)
	return deleted, nil
}

// Get returns a project by id.
func (s *Service) Get(ctx context.Context, id string) (domproj.Project, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domproj.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ListByInterviewer returns the interviewer's projects, newest first.
func (s *Service) ListByInterviewer(ctx context.Context, interviewer string) ([]domproj.Project, error) {
	if interviewer == "" {
		return nil, fmt.Errorf("list projects: %w", domain.ErrUnauthenticated)
	}
	ps, err := s.repo.ListByInterviewer(ctx, interviewer)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return ps, nil
}

func (s *Service) owned(ctx context.Context, id, interviewer string) (domproj.Project, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domproj.Project{}, fmt.Errorf("get project: %w", err)
	}
	if p.Interviewer() != interviewer {
		return domproj.Project{}, fmt.Errorf("project %s: %w", id, domain.ErrOwnership)
	}
	return p, nil
}

func metadata(p *domproj.Project) map[string]string {
	return map[string]string{"interviewer_id": p.Interviewer()}
}

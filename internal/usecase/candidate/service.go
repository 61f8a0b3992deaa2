// Package candidate registers, updates and removes candidate profiles together
// with their subspace vectors.
//
// Concurrent mutations of the same candidate must be serialized by the caller.
package candidate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
	"github.com/kailas-cloud/talentmatch/internal/logger"
)

// Registration is the outcome of Register.
type Registration struct {
	ID        string
	VectorIDs domain.VectorIDs
	Created   bool
}

// Service handles candidate lifecycle operations.
type Service struct {
	repo    Repository
	vectors VectorStore
	now     func() time.Time
	newID   func() string
	logger  *zap.Logger
}

// New creates a candidate service.
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

// WithIDGenerator overrides the candidate id source.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// Register creates the owner's candidate or fully replaces the existing one.
// Vectors are written before the record; a record that fails to persist leaves
// no vectors from a fresh registration behind.
func (s *Service) Register(ctx context.Context, owner string, p domcand.Profile) (Registration, error) {
	if owner == "" {
		return Registration{}, fmt.Errorf("register candidate: %w", domain.ErrUnauthenticated)
	}

	existing, err := s.repo.FindByOwner(ctx, owner)
	switch {
	case err == nil:
		return s.reregister(ctx, &existing, p)
	case errors.Is(err, domain.ErrNotFound):
	default:
		return Registration{}, fmt.Errorf("find candidate by owner: %w", err)
	}

	c, err := domcand.New(s.newID(), owner, p, s.now())
	if err != nil {
		return Registration{}, err //nolint:wrapcheck // validation error is returned as-is
	}

	ids, err := s.vectors.Write(ctx, domain.KindCandidate, c.ID(), c.Texts(), metadata(&c))
	if err != nil {
		return Registration{}, err //nolint:wrapcheck // already carries ErrVectorization
	}
	c = c.WithVectorIDs(ids)

	if err := s.repo.Insert(ctx, c); err != nil {
		s.discard(ctx, c.ID(), ids)
		return Registration{}, fmt.Errorf("insert candidate: %w", err)
	}

	logger.OrDefault(ctx, s.logger).Info("Candidate registered",
		zap.String("candidate_id", c.ID()),
		zap.Int("vectors", len(ids)),
	)
	return Registration{ID: c.ID(), VectorIDs: ids, Created: true}, nil
}

// reregister replaces an existing candidate record wholesale, keeping its id and creation time.
func (s *Service) reregister(ctx context.Context, existing *domcand.Candidate, p domcand.Profile) (Registration, error) {
	c, err := domcand.New(existing.ID(), existing.Owner(), p, s.now())
	if err != nil {
		return Registration{}, err //nolint:wrapcheck // validation error is returned as-is
	}
	c = c.WithCreatedAt(existing.CreatedAt())

	texts := c.Texts()
	changed := make(map[domain.Subspace]string, len(domain.KindCandidate.Subspaces()))
	for _, sub := range domain.KindCandidate.Subspaces() {
		changed[sub] = texts[sub]
	}

	ids, err := s.replace(ctx, existing.VectorIDs(), changed, c)
	if err != nil {
		return Registration{}, err
	}

	logger.OrDefault(ctx, s.logger).Info("Candidate re-registered",
		zap.String("candidate_id", c.ID()),
		zap.Int("vectors", len(ids)),
	)
	return Registration{ID: c.ID(), VectorIDs: ids, Created: false}, nil
}

// Update applies a partial profile change. Only subspaces whose source text
// changed are re-embedded.
func (s *Service) Update(ctx context.Context, id, owner string, patch domcand.Patch) (domain.VectorIDs, error) {
	current, err := s.owned(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	next, changed, err := current.Apply(patch, s.now())
	if err != nil {
		return nil, err //nolint:wrapcheck // validation error is returned as-is
	}

	ids, err := s.replace(ctx, current.VectorIDs(), changed, next)
	if err != nil {
		return nil, err
	}

	logger.OrDefault(ctx, s.logger).Info("Candidate updated",
		zap.String("candidate_id", id),
		zap.Int("changed_subspaces", len(changed)),
	)
	return ids, nil
}

// replace rewrites the changed vectors, stores next with the resulting ids and
// only then removes vectors the new record no longer references.
func (s *Service) replace(
	ctx context.Context, previous domain.VectorIDs, changed map[domain.Subspace]string, next domcand.Candidate,
) (domain.VectorIDs, error) {
	rw, err := s.vectors.Rewrite(ctx, domain.KindCandidate, next.ID(), previous, changed, metadata(&next))
	if err != nil {
		return nil, err //nolint:wrapcheck // already carries ErrVectorization
	}

	next = next.WithVectorIDs(rw.IDs)
	if err := s.repo.Replace(ctx, next); err != nil {
		return nil, fmt.Errorf("replace candidate: %w", err)
	}

	if len(rw.Stale) > 0 {
		s.vectors.Delete(ctx, rw.Stale)
	}
	return rw.IDs, nil
}

// Delete removes the record first, then its vectors. Vector failures are
// tolerated and reported through the returned map of deleted ids.
func (s *Service) Delete(ctx context.Context, id, owner string) (domain.VectorIDs, error) {
	c, err := s.owned(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	n, err := s.repo.Delete(ctx, id)
	switch {
	case err != nil && n == 0:
		return nil, fmt.Errorf("delete candidate: %w", err)
	case err != nil:
		// The record is gone; a stale owner index entry resolves to not found.
		logger.OrDefault(ctx, s.logger).Warn("Candidate deleted with owner index error",
			zap.String("candidate_id", id),
			zap.Error(err),
		)
	}
	if n == 0 {
		return nil, fmt.Errorf("candidate %s: %w", id, domain.ErrNotFound)
	}

	deleted, failed := s.vectors.Delete(ctx, c.VectorIDs())
	logger.OrDefault(ctx, s.logger).Info("Candidate deleted",
		zap.String("candidate_id", id),
		zap.Int("vectors_deleted", len(deleted)),
		zap.Int("vectors_orphaned", len(failed)),
	)
	return deleted, nil
}

// Get returns a candidate by id.
func (s *Service) Get(ctx context.Context, id string) (domcand.Candidate, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return domcand.Candidate{}, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

// GetByOwner returns the candidate registered by owner.
func (s *Service) GetByOwner(ctx context.Context, owner string) (domcand.Candidate, error) {
	c, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		return domcand.Candidate{}, fmt.Errorf("find candidate by owner: %w", err)
	}
	return c, nil
}

// Vectors returns the vector ids stored on a candidate record.
func (s *Service) Vectors(ctx context.Context, id string) (domain.VectorIDs, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.VectorIDs(), nil
}

// Summary returns the condensed interviewer view of a candidate.
func (s *Service) Summary(ctx context.Context, id string) (domcand.Summary, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return domcand.Summary{}, err
	}
	return c.Summary(), nil
}

func (s *Service) owned(ctx context.Context, id, owner string) (domcand.Candidate, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return domcand.Candidate{}, fmt.Errorf("get candidate: %w", err)
	}
	if c.Owner() != owner {
		return domcand.Candidate{}, fmt.Errorf("candidate %s: %w", id, domain.ErrOwnership)
	}
	return c, nil
}

// discard removes vectors of a registration whose record never persisted.
func (s *Service) discard(ctx context.Context, id string, ids domain.VectorIDs) {
	_, failed := s.vectors.Delete(context.WithoutCancel(ctx), ids)
	if len(failed) > 0 {
		logger.OrDefault(ctx, s.logger).Error("Failed to discard vectors of unsaved candidate",
			zap.String("candidate_id", id),
			zap.Int("orphaned", len(failed)),
		)
	}
}

func metadata(c *domcand.Candidate) map[string]string {
	return map[string]string{"owner": c.Owner()}
}

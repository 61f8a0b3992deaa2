// Package maintenance holds offline operations over the vector index:
// namespace creation, orphan sweeping and full re-vectorization.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
	domproj "github.com/kailas-cloud/talentmatch/internal/domain/project"
)

// SweepReport summarizes an orphan sweep. Recent counts unreferenced vectors
// spared because they are younger than the grace period.
type SweepReport struct {
	Scanned int
	Orphans map[domain.Subspace]int
	Recent  int
	Deleted int
	Failed  int
	DryRun  bool
}

// ReindexReport summarizes a re-vectorization run.
type ReindexReport struct {
	Kind      domain.Kind
	Total     int
	Reindexed int
	Failed    int
}

// Service runs maintenance jobs on a bounded worker pool.
type Service struct {
	index      Index
	candidates CandidateStore
	projects   ProjectStore
	vectors    VectorStore
	pool       *ants.Pool
	grace      time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// New creates a maintenance service with a pool of workers goroutines.
// Call Release when done.
func New(
	index Index, candidates CandidateStore, projects ProjectStore, vectors VectorStore,
	workers int, logger *zap.Logger,
) (*Service, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Service{
		index:      index,
		candidates: candidates,
		projects:   projects,
		vectors:    vectors,
		pool:       pool,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// WithGracePeriod spares unreferenced vectors written less than d ago. A
// registration writes its vectors before its record, so a young vector may
// belong to a record that is about to be stored.
func (s *Service) WithGracePeriod(d time.Duration) *Service {
	if d > 0 {
		s.grace = d
	}
	return s
}

// WithClock overrides the clock used to age vectors.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Release stops the worker pool.
func (s *Service) Release() { s.pool.Release() }

// EnsureIndexes creates every namespace that does not exist yet.
func (s *Service) EnsureIndexes(ctx context.Context) error {
	for _, ns := range domain.AllSubspaces() {
		if err := s.index.EnsureNamespace(ctx, ns); err != nil {
			return fmt.Errorf("ensure namespace %s: %w", ns, err)
		}
		s.logger.Info("Namespace ready", zap.String("namespace", string(ns)))
	}
	return nil
}

// SweepOrphans deletes vectors that no stored record references: their entity
// is gone or its vector_ids moved on. Vectors younger than the grace period are
// left alone, whatever the records say.
func (s *Service) SweepOrphans(ctx context.Context, dryRun bool) (SweepReport, error) {
	report := SweepReport{Orphans: make(map[domain.Subspace]int), DryRun: dryRun}

	listed := make(map[domain.Subspace][]domain.VectorRef)
	for _, ns := range domain.AllSubspaces() {
		refs, err := s.index.ListVectorIDs(ctx, ns)
		if err != nil {
			return report, fmt.Errorf("list %s vectors: %w", ns, err)
		}
		listed[ns] = refs
		report.Scanned += len(refs)
	}

	referenced, err := s.referenced(ctx)
	if err != nil {
		return report, err
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		recent  atomic.Int64
		deleted atomic.Int64
		failed  atomic.Int64
	)
	for ns, refs := range listed {
		for _, ref := range refs {
			if referenced[ns][ref.VectorID] {
				continue
			}

			wg.Add(1)
			task := func() {
				defer wg.Done()
				if s.spared(ctx, ns, ref.VectorID) {
					recent.Add(1)
					return
				}
				mu.Lock()
				report.Orphans[ns]++
				mu.Unlock()

				if dryRun {
					s.logger.Info("Orphan vector",
						zap.String("namespace", string(ns)),
						zap.String("vector_id", ref.VectorID),
						zap.String("entity_id", ref.EntityID),
					)
					return
				}
				if err := s.index.Delete(ctx, ns, ref.VectorID); err != nil {
					failed.Add(1)
					s.logger.Warn("Failed to delete orphan vector",
						zap.String("namespace", string(ns)),
						zap.String("vector_id", ref.VectorID),
						zap.Error(err),
					)
					return
				}
				deleted.Add(1)
			}
			if err := s.pool.Submit(task); err != nil {
				wg.Done()
				failed.Add(1)
				s.logger.Warn("Failed to schedule orphan check", zap.Error(err))
			}
		}
	}
	wg.Wait()

	report.Recent = int(recent.Load())
	report.Deleted = int(deleted.Load())
	report.Failed = int(failed.Load())
	s.logger.Info("Orphan sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Any("orphans", report.Orphans),
		zap.Int("recent", report.Recent),
		zap.Int("deleted", report.Deleted),
		zap.Int("failed", report.Failed),
		zap.Bool("dry_run", dryRun),
	)
	return report, nil
}

// spared reports whether an unreferenced vector must be kept: it is inside the
// grace period, already gone, or its age cannot be read. Untimestamped vectors
// are old.
func (s *Service) spared(ctx context.Context, ns domain.Subspace, vectorID string) bool {
	if s.grace <= 0 {
		return false
	}
	at, err := s.index.WrittenAt(ctx, ns, vectorID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return true
	case err != nil:
		s.logger.Warn("Cannot age orphan vector, keeping it",
			zap.String("namespace", string(ns)),
			zap.String("vector_id", vectorID),
			zap.Error(err),
		)
		return true
	case at.IsZero():
		return false
	}
	return s.now().Sub(at) < s.grace
}

// referenced collects every vector id that a stored record points at, per namespace.
func (s *Service) referenced(ctx context.Context) (map[domain.Subspace]map[string]bool, error) {
	out := make(map[domain.Subspace]map[string]bool)
	add := func(ids domain.VectorIDs) {
		for ns, id := range ids {
			if out[ns] == nil {
				out[ns] = make(map[string]bool)
			}
			out[ns][id] = true
		}
	}

	cands, err := s.candidates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	for i := range cands {
		add(cands[i].VectorIDs())
	}

	projs, err := s.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	for i := range projs {
		add(projs[i].VectorIDs())
	}
	return out, nil
}

// Reindex re-embeds every stored entity of kind and replaces its record,
// vectors first. A failing entity is logged and counted; the run continues.
func (s *Service) Reindex(ctx context.Context, kind domain.Kind) (ReindexReport, error) {
	report := ReindexReport{Kind: kind}

	var jobs []func() error
	switch kind {
	case domain.KindCandidate:
		cands, err := s.candidates.List(ctx)
		if err != nil {
			return report, fmt.Errorf("list candidates: %w", err)
		}
		for _, c := range cands {
			jobs = append(jobs, func() error { return s.reindexCandidate(ctx, c) })
		}
	case domain.KindProject:
		projs, err := s.projects.List(ctx)
		if err != nil {
			return report, fmt.Errorf("list projects: %w", err)
		}
		for _, p := range projs {
			jobs = append(jobs, func() error { return s.reindexProject(ctx, p) })
		}
	default:
		return report, domain.NewValidationError("kind", fmt.Sprintf("unknown entity kind %q", kind))
	}
	report.Total = len(jobs)

	var (
		wg     sync.WaitGroup
		done   atomic.Int64
		failed atomic.Int64
	)
	for _, job := range jobs {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			if err := job(); err != nil {
				failed.Add(1)
				s.logger.Warn("Reindex failed", zap.String("kind", string(kind)), zap.Error(err))
				return
			}
			done.Add(1)
		})
		if err != nil {
			wg.Done()
			failed.Add(1)
		}
	}
	wg.Wait()

	report.Reindexed = int(done.Load())
	report.Failed = int(failed.Load())
	s.logger.Info("Reindex finished",
		zap.String("kind", string(kind)),
		zap.Int("total", report.Total),
		zap.Int("reindexed", report.Reindexed),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *Service) reindexCandidate(ctx context.Context, c domcand.Candidate) error {
	rw, err := s.vectors.Rewrite(ctx, domain.KindCandidate, c.ID(), c.VectorIDs(),
		fullTexts(domain.KindCandidate, c.Texts()), map[string]string{"owner": c.Owner()})
	if err != nil {
		return fmt.Errorf("candidate %s: %w", c.ID(), err)
	}
	if err := s.candidates.Replace(ctx, c.WithVectorIDs(rw.IDs)); err != nil {
		return fmt.Errorf("replace candidate %s: %w", c.ID(), err)
	}
	s.dropStale(ctx, rw.Stale)
	return nil
}

func (s *Service) reindexProject(ctx context.Context, p domproj.Project) error {
	rw, err := s.vectors.Rewrite(ctx, domain.KindProject, p.ID(), p.VectorIDs(),
		fullTexts(domain.KindProject, p.Texts()), map[string]string{"interviewer_id": p.Interviewer()})
	if err != nil {
		return fmt.Errorf("project %s: %w", p.ID(), err)
	}
	if err := s.projects.Replace(ctx, p.WithVectorIDs(rw.IDs)); err != nil {
		return fmt.Errorf("replace project %s: %w", p.ID(), err)
	}
	s.dropStale(ctx, rw.Stale)
	return nil
}

func (s *Service) dropStale(ctx context.Context, stale domain.VectorIDs) {
	if len(stale) > 0 {
		s.vectors.Delete(ctx, stale)
	}
}

// fullTexts lists every subspace of kind, mapping those without text to "".
func fullTexts(kind domain.Kind, texts map[domain.Subspace]string) map[domain.Subspace]string {
	out := make(map[domain.Subspace]string, len(kind.Subspaces()))
	for _, ns := range kind.Subspaces() {
		out[ns] = texts[ns]
	}
	return out
}

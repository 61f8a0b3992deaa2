// Package retrieval ranks candidates for a project and projects for a candidate.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/ranking"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
	"github.com/kailas-cloud/talentmatch/internal/usecase/fusion"
)

// Config holds fusion weights and result size bounds.
type Config struct {
	CandidateWeights fusion.Weights
	ProjectWeights   fusion.Weights
	DefaultTopK      int
	MaxTopK          int
	OverfetchFactor  int
	OverfetchMin     int
	OverfetchMax     int
}

// Pipeline runs subspace queries, fuses them and filters the result.
// It keeps no state between requests.
type Pipeline struct {
	index      Index
	embed      Embedder
	candidates CandidateReader
	projects   ProjectReader
	engine     *fusion.Engine
	cfg        Config
	now        func() time.Time
	logger     *zap.Logger
}

// New creates a retrieval pipeline.
func New(
	index Index, embed Embedder, candidates CandidateReader, projects ProjectReader,
	engine *fusion.Engine, cfg Config, logger *zap.Logger,
) *Pipeline {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 100
	}
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = 1000
	}
	if cfg.OverfetchFactor <= 0 {
		cfg.OverfetchFactor = 3
	}
	if cfg.OverfetchMin <= 0 {
		cfg.OverfetchMin = 50
	}
	if cfg.OverfetchMax <= 0 {
		cfg.OverfetchMax = 1000
	}
	return &Pipeline{
		index:      index,
		embed:      embed,
		candidates: candidates,
		projects:   projects,
		engine:     engine,
		cfg:        cfg,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock overrides the evaluation instant used by deadline eligibility.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	if now != nil {
		p.now = now
	}
	return p
}

// resolveTopK applies the default and rejects values outside [1, MaxTopK].
func (p *Pipeline) resolveTopK(topK int) (int, error) {
	switch {
	case topK == 0:
		return p.cfg.DefaultTopK, nil
	case topK < 0 || topK > p.cfg.MaxTopK:
		return 0, domain.NewValidationError("top_k", fmt.Sprintf("must be between 1 and %d", p.cfg.MaxTopK))
	default:
		return topK, nil
	}
}

// overfetch is the per-subspace KNN depth for a requested result size.
func (p *Pipeline) overfetch(topK int) int {
	k := max(topK*p.cfg.OverfetchFactor, p.cfg.OverfetchMin)
	return min(k, p.cfg.OverfetchMax)
}

// subspaceQuery is one KNN request: vec against target, reported under label.
type subspaceQuery struct {
	target domain.Subspace
	vec    []float32
}

// queryAll runs every query concurrently and returns one list per query, in input order.
func (p *Pipeline) queryAll(ctx context.Context, queries []subspaceQuery, k int) ([]ranking.List, error) {
	lists := make([]ranking.List, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			start := time.Now()
			hits, err := p.index.Query(gctx, q.target, q.vec, k)
			metrics.SubspaceQueryDuration.WithLabelValues(string(q.target)).Observe(time.Since(start).Seconds())
			if err != nil {
				return fmt.Errorf("query %s: %w", q.target, err)
			}
			lists[i] = ranking.List{Subspace: q.target, Hits: hits}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // wrapped per subspace above
	}
	return lists, nil
}

// embedTexts embeds distinct texts concurrently; identical texts are embedded once.
func (p *Pipeline) embedTexts(ctx context.Context, texts []string) (map[string][]float32, error) {
	var mu sync.Mutex
	out := make(map[string][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	seen := make(map[string]bool, len(texts))
	for _, text := range texts {
		if seen[text] {
			continue
		}
		seen[text] = true
		g.Go(func() error {
			res, err := p.embed.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("vectorize query: %w", err)
			}
			mu.Lock()
			out[text] = res.Embedding
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // wrapped above
	}
	return out, nil
}

func joinSkills(skills []string) string {
	cleaned := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return strings.Join(cleaned, ", ")
}

func fusedIDs(fused []ranking.Fused) []string {
	ids := make([]string, len(fused))
	for i, f := range fused {
		ids[i] = f.EntityID
	}
	return ids
}

// Package fusion combines per-subspace ranked lists into one deterministic ranking.
package fusion

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/ranking"
)

// Strategy selects how subspace scores are combined.
type Strategy string

const (
	// StrategyWeighted sums weight times normalized score.
	StrategyWeighted Strategy = "weighted"
	// StrategyRRF sums weight times 1/(k+rank) (Reciprocal Rank Fusion).
	StrategyRRF Strategy = "rrf"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// Engine fuses ranked lists. It holds no per-request state and is safe for concurrent use.
type Engine struct {
	strategy  Strategy
	normalize Normalizer
}

// New creates an engine. A nil normalizer means Cosine.
func New(strategy Strategy, normalize Normalizer) *Engine {
	if strategy == "" {
		strategy = StrategyWeighted
	}
	if normalize == nil {
		normalize = Cosine
	}
	return &Engine{strategy: strategy, normalize: normalize}
}

// FromConfig builds an engine from configured strategy and normalizer names.
func FromConfig(strategy, normalizer string) (*Engine, error) {
	norm, err := NormalizerByName(normalizer)
	if err != nil {
		return nil, err
	}
	switch Strategy(strategy) {
	case "", StrategyWeighted, StrategyRRF:
	default:
		return nil, fmt.Errorf("unknown fusion strategy %q", strategy)
	}
	return New(Strategy(strategy), norm), nil
}

// Fuse merges lists into one ranking ordered by overall score descending, then by the
// primary subspace's normalized score descending, then by entity id ascending.
// An entity missing from a list scores 0 there. Lists of unweighted subspaces only
// contribute to the score breakdown. Nothing is truncated.
func (e *Engine) Fuse(lists []ranking.List, weights Weights) []ranking.Fused {
	byID := make(map[string]*ranking.Fused)
	ranks := make(map[string]map[domain.Subspace]int)

	for _, l := range lists {
		for rank, h := range e.dedupe(l) {
			f, ok := byID[h.EntityID]
			if !ok {
				f = &ranking.Fused{
					EntityID:   h.EntityID,
					Raw:        make(map[domain.Subspace]float64, len(lists)),
					Normalized: make(map[domain.Subspace]float64, len(lists)),
				}
				byID[h.EntityID] = f
				ranks[h.EntityID] = make(map[domain.Subspace]int, len(lists))
			}
			// Two lists may target the same subspace; the better score wins.
			if prev, seen := f.Raw[l.Subspace]; seen && prev >= h.Score {
				continue
			}
			f.Raw[l.Subspace] = h.Score
			f.Normalized[l.Subspace] = e.normalize(h.Score)
			ranks[h.EntityID][l.Subspace] = rank
		}
	}

	order := weights.sorted()
	out := make([]ranking.Fused, 0, len(byID))
	for id, f := range byID {
		for _, s := range order {
			switch e.strategy {
			case StrategyRRF:
				if r, ok := ranks[id][s]; ok {
					f.Overall += weights[s] / float64(rrfK+r+1)
				}
			default:
				f.Overall += weights[s] * f.Normalized[s]
			}
		}
		out = append(out, *f)
	}

	primary := weights.Primary()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Overall != out[j].Overall {
			return out[i].Overall > out[j].Overall
		}
		pi, pj := out[i].Normalized[primary], out[j].Normalized[primary]
		if pi != pj {
			return pi > pj
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

// dedupe keeps the best score per entity and orders hits by score descending, id ascending,
// so that ranks are independent of the index's order for equal scores.
func (e *Engine) dedupe(l ranking.List) []ranking.Hit {
	best := make(map[string]float64, len(l.Hits))
	for _, h := range l.Hits {
		if h.EntityID == "" {
			continue
		}
		if prev, ok := best[h.EntityID]; !ok || h.Score > prev {
			best[h.EntityID] = h.Score
		}
	}
	hits := make([]ranking.Hit, 0, len(best))
	for id, s := range best {
		hits = append(hits, ranking.Hit{EntityID: id, Score: s})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].EntityID < hits[j].EntityID
	})
	return hits
}

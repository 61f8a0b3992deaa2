package fusion

import (
	"sort"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Weights is a static weight per subspace. Sums need not equal 1.
type Weights map[domain.Subspace]float64

// WeightsFromConfig converts a configured name to weight table.
func WeightsFromConfig(m map[string]float64) Weights {
	w := make(Weights, len(m))
	for name, v := range m {
		w[domain.Subspace(name)] = v
	}
	return w
}

// Primary returns the highest-weighted subspace; equal weights resolve by name ascending.
func (w Weights) Primary() domain.Subspace {
	var (
		best  domain.Subspace
		bestW float64
		found bool
	)
	for _, s := range w.sorted() {
		if !found || w[s] > bestW {
			best, bestW, found = s, w[s], true
		}
	}
	return best
}

func (w Weights) sorted() []domain.Subspace {
	out := make([]domain.Subspace, 0, len(w))
	for s := range w {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

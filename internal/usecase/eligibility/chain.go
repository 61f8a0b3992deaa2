// Package eligibility removes fused ranking entries that must not be returned.
package eligibility

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/ranking"
	"github.com/kailas-cloud/talentmatch/internal/logger"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
)

// Reason labels why an entry was excluded.
type Reason string

const (
	ReasonMissingRecord      Reason = "missing_record"
	ReasonDeadlinePassed     Reason = "deadline_passed"
	ReasonDeadlineUnparsable Reason = "deadline_unparsable"
	ReasonAttributeMismatch  Reason = "attribute_mismatch"
)

// Verdict is the outcome of one predicate for one record.
type Verdict struct {
	Keep   bool
	Reason Reason
	Err    error
}

// Kept is the verdict of a passing predicate.
var Kept = Verdict{Keep: true}

// Predicate decides on one resolved record.
type Predicate[T any] func(rec T) Verdict

// Entry is a fused ranking entry joined with its canonical record.
type Entry[T any] struct {
	Fused  ranking.Fused
	Record T
}

// Result holds the surviving entries in fused order plus exclusion counts.
type Result[T any] struct {
	Entries  []Entry[T]
	Excluded map[Reason]int
}

// Chain applies the existence check and then its predicates in order.
// It never touches the vector index.
type Chain[T any] struct {
	kind   domain.Kind
	preds  []Predicate[T]
	logger *zap.Logger
}

// NewChain creates a chain for entities of kind.
func NewChain[T any](kind domain.Kind, logger *zap.Logger, preds ...Predicate[T]) *Chain[T] {
	kept := make([]Predicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	return &Chain[T]{kind: kind, preds: kept, logger: logger}
}

// Apply filters fused against records. An id absent from records is dropped as
// not yet visible (or already deleted); it never fails the request.
func (c *Chain[T]) Apply(ctx context.Context, fused []ranking.Fused, records map[string]T) Result[T] {
	log := logger.OrDefault(ctx, c.logger)
	res := Result[T]{
		Entries:  make([]Entry[T], 0, len(fused)),
		Excluded: make(map[Reason]int),
	}

	for _, f := range fused {
		rec, ok := records[f.EntityID]
		if !ok {
			log.Debug("Dropping ranked entity without record",
				zap.String("kind", string(c.kind)),
				zap.String("entity_id", f.EntityID),
				zap.Error(domain.ErrInconsistentState),
			)
			c.exclude(&res, ReasonMissingRecord)
			continue
		}

		if v, pass := c.check(rec); !pass {
			if v.Err != nil {
				log.Warn("Excluding entity",
					zap.String("kind", string(c.kind)),
					zap.String("entity_id", f.EntityID),
					zap.String("reason", string(v.Reason)),
					zap.Error(v.Err),
				)
			}
			c.exclude(&res, v.Reason)
			continue
		}

		res.Entries = append(res.Entries, Entry[T]{Fused: f, Record: rec})
	}
	return res
}

func (c *Chain[T]) check(rec T) (Verdict, bool) {
	for _, p := range c.preds {
		if v := p(rec); !v.Keep {
			return v, false
		}
	}
	return Kept, true
}

func (c *Chain[T]) exclude(res *Result[T], reason Reason) {
	res.Excluded[reason]++
	metrics.EligibilityExclusionsTotal.WithLabelValues(string(c.kind), string(reason)).Inc()
}

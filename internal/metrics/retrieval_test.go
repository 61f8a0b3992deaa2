package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterRetrievalMetrics_Idempotent(t *testing.T) {
	RegisterRetrievalMetrics()
	RegisterRetrievalMetrics()

	OrphanVectorsTotal.WithLabelValues("skills_matrix").Inc()
	if got := testutil.ToFloat64(OrphanVectorsTotal.WithLabelValues("skills_matrix")); got < 1 {
		t.Fatalf("expected orphan counter >= 1, got %f", got)
	}

	EligibilityExclusionsTotal.WithLabelValues("project", "deadline_passed").Add(2)
	if got := testutil.ToFloat64(EligibilityExclusionsTotal.WithLabelValues("project", "deadline_passed")); got < 2 {
		t.Fatalf("expected exclusions >= 2, got %f", got)
	}
}

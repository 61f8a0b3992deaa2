// Package health aggregates dependency checks for the /health endpoint.
package health

import (
	"context"
	"sync"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	pingers   map[string]Pinger
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(embedding EmbeddingChecker) *Service {
	return &Service{pingers: make(map[string]Pinger), embedding: embedding}
}

// WithComponent adds a named storage backend ("document_store", "vector_index").
// Registering the same backend under two names checks it twice.
func (s *Service) WithComponent(name string, p Pinger) *Service {
	if p != nil {
		s.pingers[name] = p
	}
	return s
}

// Check runs every health check concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult, len(s.pingers)+1)
	)
	record := func(name string, err error) {
		res := CheckOK
		if err != nil {
			res = CheckError
		}
		mu.Lock()
		checks[name] = res
		mu.Unlock()
	}

	for name, p := range s.pingers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record(name, p.Ping(ctx))
		}()
	}
	if s.embedding != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record("embedding", s.embedding.HealthCheck(ctx))
		}()
	}
	wg.Wait()

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed == 0:
	case failed == len(checks):
		status = Unhealthy
	default:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

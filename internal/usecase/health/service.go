package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates chat still works, lexical-only.
	Degraded Status = "degraded"
	// Unhealthy indicates the catalog is unreachable.
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

// Component names in Report.Checks.
const (
	ComponentCatalog   = "catalog"
	ComponentEmbedding = "embedding"
)

// DefaultTimeout bounds each component check.
const DefaultTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	embedding EmbeddingChecker
	timeout   time.Duration
}

// New creates a Service. embedding can be nil; timeout <= 0 uses DefaultTimeout.
func New(store StorePinger, embedding EmbeddingChecker, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{store: store, embedding: embedding, timeout: timeout}
}

// Check runs the component checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult, 2)
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := CheckOK
			if err := fn(ctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			checks[name] = res
			mu.Unlock()
		}()
	}

	run(ComponentCatalog, s.store.Ping)
	if s.embedding != nil {
		run(ComponentEmbedding, s.embedding.HealthCheck)
	}
	wg.Wait()

	status := Healthy
	switch {
	case checks[ComponentCatalog] == CheckError:
		status = Unhealthy
	case checks[ComponentEmbedding] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Search still works without the
	// model; only the enhancement stages are lost.
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
	db    DBPinger
	model ModelChecker
}

// New creates a Service. model can be nil.
func New(db DBPinger, model ModelChecker) *Service {
	return &Service{db: db, model: model}
}

// Check runs health checks against all components. The database is the only
// hard dependency: a dead database is Unhealthy, a missing model merely
// Degraded.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	dbOK := s.db.Ping(ctx) == nil
	if dbOK {
		checks["database"] = CheckOK
	} else {
		checks["database"] = CheckError
	}

	modelOK := true
	if s.model != nil {
		modelOK = s.model.IsAvailable(ctx)
		if modelOK {
			checks["model"] = CheckOK
		} else {
			checks["model"] = CheckError
		}
	}

	status := Healthy
	switch {
	case !dbOK:
		status = Unhealthy
	case !modelOK:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

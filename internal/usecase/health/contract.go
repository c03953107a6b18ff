package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker reports language model availability.
type ModelChecker interface {
	IsAvailable(ctx context.Context) bool
}

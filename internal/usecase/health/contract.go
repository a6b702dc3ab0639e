package health

import "context"

// DBPinger checks profile store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CompilerChecker verifies the query compiler can produce a body.
type CompilerChecker interface {
	HealthCheck(ctx context.Context) error
}

package domain

import "time"

// HealthStatus grades a dependency probe or a whole readiness report.
type HealthStatus string

const (
	HealthStatusOK HealthStatus = "ok"
	// HealthStatusDegraded means a probe failed but the process can still serve traffic.
	HealthStatusDegraded HealthStatus = "degraded"
	// HealthStatusError means a probe timed out or was cancelled.
	HealthStatusError HealthStatus = "error"
)

func (s HealthStatus) rank() int {
	switch s {
	case HealthStatusOK:
		return 0
	case HealthStatusDegraded:
		return 1
	default:
		return 2
	}
}

// Worst returns whichever of s and other is more severe. Unknown values count as errors.
func (s HealthStatus) Worst(other HealthStatus) HealthStatus {
	if other.rank() > s.rank() {
		return other
	}
	return s
}

// SystemHealthCheck is the outcome of one dependency probe.
type SystemHealthCheck struct {
	Status    HealthStatus
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport is what /readyz renders.
type SystemHealthReport struct {
	Status      HealthStatus
	Checks      map[string]SystemHealthCheck
	Environment string
	Version     string
	CommitSHA   string
	GeneratedAt time.Time
}

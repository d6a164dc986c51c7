package health

// Status represents overall system health.
type Status string

const (
	StatusOK       Status = "OK"
	StatusDegraded Status = "DEGRADED"
	StatusCritical Status = "CRITICAL"
)

// Report is the health summary served on /health.
type Report struct {
	OverallStatus   Status   `json:"overall_status"`
	Summary         string   `json:"summary"`
	Signals         []string `json:"signals"`
	Recommendations []string `json:"recommendations"`
	LiveKeys        int      `json:"live_keys"`
	PendingExpired  int      `json:"pending_expired"`
}

// escalate returns the more severe of two statuses.
func escalate(current, next Status) Status {
	switch {
	case next == StatusCritical:
		return StatusCritical
	case next == StatusDegraded && current == StatusOK:
		return StatusDegraded
	default:
		return current
	}
}

package health

import "timed-cache/internal/metrics"

// Keys the analyzer adds to the metrics snapshot before running rules.
const (
	LiveKeysKey       = "cache_keys_live"
	PendingExpiredKey = "cache_keys_expired_pending"
)

// minReadsForMissRatio keeps the miss rule quiet on a cold cache.
const minReadsForMissRatio = 100

// RuleResult represents the outcome of a single rule.
type RuleResult struct {
	Triggered      bool
	Signal         string
	Recommendation string
	Severity       Status
}

// Rule evaluates a metrics snapshot.
type Rule func(snapshot map[string]int64) RuleResult

// ---------- RULES ----------

// More expired than live entries means sweeps are not keeping up.
func ExpiredBacklogRule(snapshot map[string]int64) RuleResult {
	pending := snapshot[PendingExpiredKey]
	live := snapshot[LiveKeysKey]

	if pending > 0 && pending >= live {
		return RuleResult{
			Triggered:      true,
			Signal:         "Expired entries outnumber live entries",
			Recommendation: "Lower sweep_tick_cap or cleanup_interval",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// Most reads missing suggests TTLs shorter than the access pattern.
func MissRatioRule(snapshot map[string]int64) RuleResult {
	gets := snapshot[string(metrics.CacheGetsTotal)]
	misses := snapshot[string(metrics.CacheMissesTotal)]

	if gets >= minReadsForMissRatio && misses*2 > gets {
		return RuleResult{
			Triggered:      true,
			Signal:         "More than half of reads miss",
			Recommendation: "Check that TTLs outlive the expected access window",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// Recovered handler panics are always critical.
func HTTPPanicRule(snapshot map[string]int64) RuleResult {
	panics := snapshot[string(metrics.HTTPPanicsTotal)]

	if panics > 0 {
		return RuleResult{
			Triggered:      true,
			Signal:         "HTTP handler panics recovered",
			Recommendation: "Inspect stack traces and stabilize error handling",
			Severity:       StatusCritical,
		}
	}
	return RuleResult{}
}

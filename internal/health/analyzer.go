package health

import (
	"strings"

	"timed-cache/internal/logs"
	"timed-cache/internal/metrics"
	"timed-cache/internal/timedmap"
)

// StatsSource provides the map counters the rules look at.
type StatsSource interface {
	Stats() timedmap.Stats
}

// Analyzer converts metrics, map stats and logs into a health report.
type Analyzer struct {
	metrics *metrics.Registry
	logger  *logs.Logger
	source  StatsSource
	rules   []Rule
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(
	reg *metrics.Registry,
	logger *logs.Logger,
	source StatsSource,
) *Analyzer {
	return &Analyzer{
		metrics: reg,
		logger:  logger,
		source:  source,
		rules: []Rule{
			ExpiredBacklogRule,
			MissRatioRule,
			HTTPPanicRule,
		},
	}
}

// Analyze evaluates metrics and logs and returns a health report.
func (a *Analyzer) Analyze() Report {
	stats := a.source.Stats()

	snapshot := a.metrics.Snapshot()
	snapshot[LiveKeysKey] = int64(stats.Live)
	snapshot[PendingExpiredKey] = int64(stats.Expired)

	var (
		signals         = []string{}
		recommendations = []string{}
		status          = StatusOK
	)

	/* ---------- METRICS-BASED RULES ---------- */

	for _, rule := range a.rules {
		result := rule(snapshot)
		if !result.Triggered {
			continue
		}

		signals = append(signals, result.Signal)
		recommendations = append(recommendations, result.Recommendation)
		status = escalate(status, result.Severity)
	}

	/* ---------- LOG-BASED SIGNALS ---------- */

	panicCount := 0
	for _, entry := range a.logger.GetLast(100) {
		if entry.Level == logs.ERROR && strings.Contains(entry.Message, "panic") {
			panicCount++
		}
	}

	if panicCount > 0 {
		signals = append(signals,
			"Application panics detected in logs",
		)
		recommendations = append(recommendations,
			"Inspect stack traces and stabilize error handling",
		)
		status = StatusCritical
	}

	/* ---------- SUMMARY ---------- */

	summary := "System is healthy"
	if status != StatusOK {
		summary = "System health issues detected"
	}

	return Report{
		OverallStatus:   status,
		Summary:         summary,
		Signals:         signals,
		Recommendations: recommendations,
		LiveKeys:        stats.Live,
		PendingExpired:  stats.Expired,
	}
}

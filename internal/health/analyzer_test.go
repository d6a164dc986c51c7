package health

import (
	"testing"

	"timed-cache/internal/logs"
	"timed-cache/internal/metrics"
	"timed-cache/internal/timedmap"

	"github.com/stretchr/testify/assert"
)

type fixedStats timedmap.Stats

func (f fixedStats) Stats() timedmap.Stats {
	return timedmap.Stats(f)
}

func TestAnalyzer_OK(t *testing.T) {
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	analyzer := NewAnalyzer(reg, logger, fixedStats{Live: 3})
	report := analyzer.Analyze()

	assert.Equal(t, StatusOK, report.OverallStatus)
	assert.Empty(t, report.Signals)
	assert.Equal(t, 3, report.LiveKeys)
}

func TestAnalyzer_DegradedExpiredBacklog(t *testing.T) {
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	analyzer := NewAnalyzer(reg, logger, fixedStats{Live: 2, Expired: 5})
	report := analyzer.Analyze()

	assert.Equal(t, StatusDegraded, report.OverallStatus)
	assert.Contains(t, report.Signals, "Expired entries outnumber live entries")
	assert.Equal(t, 5, report.PendingExpired)
}

func TestAnalyzer_MissRatio(t *testing.T) {
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	reg.Add(metrics.CacheGetsTotal, 50)
	reg.Add(metrics.CacheMissesTotal, 40)

	analyzer := NewAnalyzer(reg, logger, fixedStats{})
	assert.Equal(t, StatusOK, analyzer.Analyze().OverallStatus, "too few reads to judge")

	reg.Add(metrics.CacheGetsTotal, 100)
	reg.Add(metrics.CacheMissesTotal, 60)

	report := analyzer.Analyze()
	assert.Equal(t, StatusDegraded, report.OverallStatus)
	assert.Contains(t, report.Signals, "More than half of reads miss")
}

func TestAnalyzer_CriticalHTTPPanic(t *testing.T) {
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	reg.Inc(metrics.HTTPPanicsTotal)

	analyzer := NewAnalyzer(reg, logger, fixedStats{Live: 1, Expired: 4})
	report := analyzer.Analyze()

	assert.Equal(t, StatusCritical, report.OverallStatus)
	assert.Len(t, report.Signals, 2)
}

func TestAnalyzer_LogBasedPanicDetection(t *testing.T) {
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	logger.Error("panic: runtime error")

	analyzer := NewAnalyzer(reg, logger, fixedStats{})
	report := analyzer.Analyze()

	assert.Equal(t, StatusCritical, report.OverallStatus)
	assert.Contains(
		t,
		report.Signals,
		"Application panics detected in logs",
	)
}

func TestEscalate(t *testing.T) {
	assert.Equal(t, StatusDegraded, escalate(StatusOK, StatusDegraded))
	assert.Equal(t, StatusCritical, escalate(StatusDegraded, StatusCritical))
	assert.Equal(t, StatusCritical, escalate(StatusCritical, StatusDegraded))
	assert.Equal(t, StatusDegraded, escalate(StatusDegraded, StatusOK))
}

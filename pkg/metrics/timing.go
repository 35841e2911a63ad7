// Package metrics provides instrumentation for tt.
//
// Two layers live here:
//   - timing metrics for backend calls, loads, renders and exports. Each keeps
//     atomic in-process stats for debug output and feeds the
//     techtree_operation_seconds histogram.
//   - prometheus counters for fetch outcomes, fallbacks and stale responses.
//
// Everything is served on /metrics when tt runs with --metrics-addr.
// Timing collection is on by default; TT_METRICS=0 turns it off.
//
//	defer metrics.Timer(metrics.GraphLoad)()
package metrics

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("TT_METRICS") != "0")
}

// Enabled returns whether timing collection is on.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled turns timing collection on or off.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// operationSeconds is shared by every TimingMetric, labelled by name.
var operationSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "techtree_operation_seconds",
		Help:    "Duration of backend calls, loads, renders and exports",
		Buckets: []float64{.001, .005, .025, .1, .25, .5, 1, 2.5, 5, 10},
	},
	[]string{"op"},
)

// TimingMetric accumulates durations for one operation.
type TimingMetric struct {
	name    string
	count   atomic.Int64
	totalNs atomic.Int64
	maxNs   atomic.Int64
	minNs   atomic.Int64 // 0 until the first sample
	hist    prometheus.Observer
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name, hist: operationSeconds.WithLabelValues(name)}
}

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.totalNs.Add(ns)
	for {
		old := m.maxNs.Load()
		if ns <= old || m.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.minNs.Load()
		if (old != 0 && ns >= old) || m.minNs.CompareAndSwap(old, ns) {
			break
		}
	}
	if m.hist != nil {
		m.hist.Observe(d.Seconds())
	}
}

func (m *TimingMetric) Name() string { return m.name }
func (m *TimingMetric) Count() int64 { return m.count.Load() }
func (m *TimingMetric) MaxNs() int64 { return m.maxNs.Load() }
func (m *TimingMetric) MinNs() int64 { return m.minNs.Load() }

// AvgNs returns the mean sample, or 0 with no samples.
func (m *TimingMetric) AvgNs() int64 {
	n := m.count.Load()
	if n == 0 {
		return 0
	}
	return m.totalNs.Load() / n
}

// Stats returns a snapshot of the in-process stats.
func (m *TimingMetric) Stats() TimingStats {
	return TimingStats{
		Name:  m.name,
		Count: m.Count(),
		Avg:   time.Duration(m.AvgNs()),
		Max:   time.Duration(m.MaxNs()),
		Min:   time.Duration(m.MinNs()),
	}
}

// Reset clears the in-process stats. The histogram is cumulative and is not
// reset.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.totalNs.Store(0)
	m.maxNs.Store(0)
	m.minNs.Store(0)
}

// TimingStats is a snapshot of one TimingMetric.
type TimingStats struct {
	Name  string
	Count int64
	Avg   time.Duration
	Max   time.Duration
	Min   time.Duration
}

func (s TimingStats) String() string {
	return fmt.Sprintf("%s n=%d avg=%s min=%s max=%s", s.Name, s.Count,
		s.Avg.Round(time.Microsecond), s.Min.Round(time.Microsecond), s.Max.Round(time.Microsecond))
}

// Timer starts a measurement; call the result to record it.
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

// Backend calls, timed inside pkg/api.
var (
	APIGraph      = newTimingMetric("api_graph")
	APIDetail     = newTimingMetric("api_detail")
	APICategories = newTimingMetric("api_categories")
)

// Loads as the viewer sees them, fallback included.
var (
	GraphLoad    = newTimingMetric("graph_load")
	DetailLoad   = newTimingMetric("detail_load")
	CategoryLoad = newTimingMetric("category_load")
)

var (
	CanvasRender   = newTimingMetric("canvas_render")
	SnapshotExport = newTimingMetric("snapshot_export")
	SQLiteExport   = newTimingMetric("sqlite_export")
)

// AllTimingMetrics lists every timing metric.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{
		APIGraph, APIDetail, APICategories,
		GraphLoad, DetailLoad, CategoryLoad,
		CanvasRender, SnapshotExport, SQLiteExport,
	}
}

// ResetAll resets the in-process stats of every timing metric.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
}

// AllTimingStats returns stats for the metrics that have samples.
func AllTimingStats() []TimingStats {
	var stats []TimingStats
	for _, m := range AllTimingMetrics() {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

// Summary formats AllTimingStats one per line, for the debug log on exit.
func Summary() string {
	stats := AllTimingStats()
	lines := make([]string, len(stats))
	for i, s := range stats {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n")
}

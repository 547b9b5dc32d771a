package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder 收集每轮扫描的指标，按需写成 node_exporter textfile。
type Recorder struct {
	reg *prometheus.Registry

	symbols     prometheus.Gauge
	readings    *prometheus.CounterVec
	failures    *prometheus.CounterVec
	history     prometheus.Gauge
	exportRows  *prometheus.GaugeVec
	mirrorErrs  prometheus.Counter
	lastSuccess prometheus.Gauge
	duration    prometheus.Histogram
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		symbols: f.NewGauge(prometheus.GaugeOpts{
			Name: "rsiscan_symbols_discovered",
			Help: "Number of symbols returned by the last discovery",
		}),
		readings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rsiscan_readings_total",
			Help: "RSI readings outside the neutral band",
		}, []string{"signal"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rsiscan_sample_failures_total",
			Help: "Symbols skipped during sampling",
		}, []string{"reason"}),
		history: f.NewGauge(prometheus.GaugeOpts{
			Name: "rsiscan_history_records",
			Help: "Rows in the reconciled history table",
		}),
		exportRows: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rsiscan_export_rows",
			Help: "Rows written per export list",
		}, []string{"list"}),
		mirrorErrs: f.NewCounter(prometheus.CounterOpts{
			Name: "rsiscan_mirror_errors_total",
			Help: "Failed writes to the SQL history mirror",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "rsiscan_last_success_timestamp_seconds",
			Help: "Unix time of the last run that persisted history",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rsiscan_run_duration_seconds",
			Help:    "Duration of a full scan",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}),
	}
}

func (r *Recorder) RecordSymbols(n int) { r.symbols.Set(float64(n)) }

func (r *Recorder) RecordReading(signal string) { r.readings.WithLabelValues(signal).Inc() }

func (r *Recorder) RecordFailure(reason string) { r.failures.WithLabelValues(reason).Inc() }

func (r *Recorder) RecordHistory(n int) { r.history.Set(float64(n)) }

func (r *Recorder) RecordExport(list string, n int) { r.exportRows.WithLabelValues(list).Set(float64(n)) }

func (r *Recorder) RecordMirrorError() { r.mirrorErrs.Inc() }

func (r *Recorder) RecordSuccess(at time.Time, took time.Duration) {
	r.lastSuccess.Set(float64(at.Unix()))
	r.duration.Observe(took.Seconds())
}

func (r *Recorder) Gatherer() prometheus.Gatherer { return r.reg }

// WriteTextfile 写入 path；WriteToTextfile 自己会先写临时文件再 rename。
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

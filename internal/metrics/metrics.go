// Package metrics provides Prometheus metrics for sentiment runs.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "stocksentiment"

// Recorder groups the run metrics on a dedicated registry.
type Recorder struct {
	registry *prometheus.Registry

	ArticlesScored   *prometheus.CounterVec
	SentimentScores  *prometheus.HistogramVec
	SymbolsSkipped   prometheus.Counter
	SymbolsFailed    prometheus.Counter
	SinkWrites       *prometheus.CounterVec
	RunDuration      prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

// NewRecorder registers every metric on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		ArticlesScored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "articles_scored_total",
				Help:      "Total number of articles scored",
			},
			[]string{"symbol"},
		),
		SentimentScores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "article_sentiment",
				Help:      "Distribution of article sentiment scores",
				Buckets:   []float64{-1, -0.5, 0, 0.5, 1, 1.5, 2, 3, 4},
			},
			[]string{"symbol"},
		),
		SymbolsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbols_skipped_total",
			Help:      "Symbols skipped because no articles were found",
		}),
		SymbolsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbols_failed_total",
			Help:      "Symbols whose fetch or scoring failed",
		}),
		SinkWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_writes_total",
				Help:      "Sink write operations by sink and status",
			},
			[]string{"sink", "status"},
		),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Duration of the last run in seconds",
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordArticle counts one scored article.
func (r *Recorder) RecordArticle(symbol string, sentiment float64) {
	if r == nil {
		return
	}
	r.ArticlesScored.WithLabelValues(symbol).Inc()
	r.SentimentScores.WithLabelValues(symbol).Observe(sentiment)
}

// RecordSkipped counts a symbol without articles.
func (r *Recorder) RecordSkipped() {
	if r == nil {
		return
	}
	r.SymbolsSkipped.Inc()
}

// RecordFailed counts a symbol that failed to fetch or score.
func (r *Recorder) RecordFailed() {
	if r == nil {
		return
	}
	r.SymbolsFailed.Inc()
}

// RecordSinkWrite counts one sink operation.
func (r *Recorder) RecordSinkWrite(sink string, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.SinkWrites.WithLabelValues(sink, status).Inc()
}

// RecordRun stores the duration and finish time of a run.
func (r *Recorder) RecordRun(durationSeconds float64, finishedUnix int64) {
	if r == nil {
		return
	}
	r.RunDuration.Set(durationSeconds)
	r.LastRunTimestamp.Set(float64(finishedUnix))
}

// Push sends the registry to a Pushgateway under the given job name.
func (r *Recorder) Push(ctx context.Context, gatewayURL, job string) error {
	if r == nil || gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// Package metrics exports terrain editing counters in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/logger"
)

const namespace = "terrain"

// Editor collects edit statistics. The zero value is not usable; call New.
// A nil *Editor is valid and records nothing.
type Editor struct {
	registry *prometheus.Registry

	edits        *prometheus.CounterVec
	touched      *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	failures     *prometheus.CounterVec
	chunksLoaded prometheus.Gauge
	undoDepth    prometheus.Gauge
	undoBytes    prometheus.Gauge

	server *http.Server
}

// New creates an Editor with its own registry.
func New() *Editor {
	e := &Editor{
		registry: prometheus.NewRegistry(),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edits_total",
			Help:      "Brush operations applied, by operation.",
		}, []string{"op"}),
		touched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_touched_total",
			Help:      "Chunks changed by brush operations, by operation.",
		}, []string{"op"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "edit_duration_seconds",
			Help:      "Time spent applying one brush operation to a tile.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"op"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edit_failures_total",
			Help:      "Chunk edits rejected with an error, by reason.",
		}, []string{"reason"}),
		chunksLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunks_loaded",
			Help:      "Chunks currently holding GPU resources.",
		}),
		undoDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "undo_depth",
			Help:      "Snapshots held in the undo history.",
		}),
		undoBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "undo_bytes",
			Help:      "Compressed size of the undo history.",
		}),
	}
	e.registry.MustRegister(e.edits, e.touched, e.duration, e.failures,
		e.chunksLoaded, e.undoDepth, e.undoBytes)
	return e
}

// Registry returns the registry the metrics are registered with.
func (e *Editor) Registry() *prometheus.Registry {
	return e.registry
}

// ObserveEdit records one operation that changed touched chunks.
func (e *Editor) ObserveEdit(op string, touched int, elapsed time.Duration) {
	if e == nil {
		return
	}
	e.edits.WithLabelValues(op).Inc()
	e.touched.WithLabelValues(op).Add(float64(touched))
	e.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveFailure records a rejected chunk edit.
func (e *Editor) ObserveFailure(reason string) {
	if e == nil {
		return
	}
	e.failures.WithLabelValues(reason).Inc()
}

// SetChunksLoaded updates the loaded chunk gauge.
func (e *Editor) SetChunksLoaded(n int) {
	if e == nil {
		return
	}
	e.chunksLoaded.Set(float64(n))
}

// SetUndo updates the undo history gauges.
func (e *Editor) SetUndo(depth, bytes int) {
	if e == nil {
		return
	}
	e.undoDepth.Set(float64(depth))
	e.undoBytes.Set(float64(bytes))
}

// Handler serves the registry in the Prometheus text format.
func (e *Editor) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// StartHTTP serves /metrics on addr in the background.
func (e *Editor) StartHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	e.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr))
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}

// Shutdown stops the HTTP endpoint if it was started.
func (e *Editor) Shutdown(ctx context.Context) error {
	if e == nil || e.server == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}

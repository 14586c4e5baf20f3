package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"asciiflight/internal/render"
	"asciiflight/internal/travel"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "asciiflight"

// Recorder collects render and travel statistics on its own registry
type Recorder struct {
	registry *prometheus.Registry

	frames         prometheus.Counter
	shapesCulled   prometheus.Counter
	segmentsDrawn  prometheus.Counter
	segmentsCulled prometheus.Counter
	cellsPlotted   prometheus.Histogram

	legs          prometheus.Counter
	legDistanceKm prometheus.Counter

	poiErrors *prometheus.CounterVec
}

// NewRecorder creates a recorder with every metric registered
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "frames_total",
			Help:      "Total map frames drawn",
		}),
		shapesCulled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "shapes_culled_total",
			Help:      "Shapes skipped because their bounding box was off-screen",
		}),
		segmentsDrawn: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "segments_total",
			Help:      "Boundary segments considered for drawing",
		}),
		segmentsCulled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "segments_culled_total",
			Help:      "Boundary segments skipped because they were off-screen",
		}),
		cellsPlotted: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "cells_plotted",
			Help:      "Non-empty framebuffer cells per frame",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 6),
		}),
		legs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "travel",
			Name:      "legs_total",
			Help:      "Travel legs flown",
		}),
		legDistanceKm: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "travel",
			Name:      "distance_km_total",
			Help:      "Great-circle distance flown in km",
		}),
		poiErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poi",
			Name:      "query_errors_total",
			Help:      "Failed point of interest queries",
		}, []string{"category"}),
	}
}

// ObserveFrame implements render.StatsObserver
func (r *Recorder) ObserveFrame(s render.FrameStats) {
	r.frames.Inc()
	r.shapesCulled.Add(float64(s.ShapesCulled))
	r.segmentsDrawn.Add(float64(s.Segments))
	r.segmentsCulled.Add(float64(s.SegmentsCulled))
	r.cellsPlotted.Observe(float64(s.CellsPlotted))
}

// ObserveLeg counts a travel leg; it matches travel.Animator.OnLeg
func (r *Recorder) ObserveLeg(l travel.Leg) {
	r.legs.Inc()
	r.legDistanceKm.Add(l.DistanceKm)
}

// POIError counts a failed place query for a category
func (r *Recorder) POIError(category string) {
	r.poiErrors.WithLabelValues(category).Inc()
}

// Handler serves the registry in the prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return r.serve(ctx, ln)
}

func (r *Recorder) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving metrics", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

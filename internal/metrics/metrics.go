// Package metrics exposes watcher activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmylchreest/volwatch/internal/volume"
	"github.com/jmylchreest/volwatch/internal/watcher"
)

const namespace = "volwatch"

// Metrics holds all Prometheus metrics. It is both a watcher.Observer and
// a watcher.Sink: the counters follow correlation decisions and the gauges
// follow the last emitted update.
type Metrics struct {
	registry *prometheus.Registry

	EventsReceived   *prometheus.CounterVec
	QueriesTotal     *prometheus.CounterVec
	StaleResults     prometheus.Counter
	UpdatesEmitted   prometheus.Counter
	DefaultChanges   prometheus.Counter
	VolumePercent    prometheus.Gauge
	Muted            prometheus.Gauge
	LastUpdateSecond prometheus.Gauge
}

var (
	_ watcher.Observer = (*Metrics)(nil)
	_ watcher.Sink     = (*Metrics)(nil)
)

// New creates the metrics on a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		EventsReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_received_total",
				Help:      "Subscription events received from the server",
			},
			[]string{"facility", "kind"},
		),
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Requests dispatched to the server",
			},
			[]string{"query"},
		),
		StaleResults: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_results_discarded_total",
				Help:      "Device query results dropped because the default device changed",
			},
		),
		UpdatesEmitted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "updates_emitted_total",
				Help:      "Volume updates written to the output",
			},
		),
		DefaultChanges: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "default_device_changes_total",
				Help:      "Times the default output device was (re)discovered with a new name",
			},
		),
		VolumePercent: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "volume_percent",
				Help:      "Volume of the default output device in percent",
			},
		),
		Muted: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "muted",
				Help:      "1 if the default output device is muted",
			},
		),
		LastUpdateSecond: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_update_timestamp_seconds",
				Help:      "Unix time of the last emitted update",
			},
		),
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// EventReceived counts a subscription event.
func (m *Metrics) EventReceived(ev watcher.Event) {
	m.EventsReceived.WithLabelValues(ev.Facility.String(), ev.Kind.String()).Inc()
}

// QueryDispatched counts a server request.
func (m *Metrics) QueryDispatched(query string) {
	m.QueriesTotal.WithLabelValues(query).Inc()
}

// StaleDiscarded counts a dropped stale result.
func (m *Metrics) StaleDiscarded() {
	m.StaleResults.Inc()
}

// UpdateEmitted counts an emitted update.
func (m *Metrics) UpdateEmitted() {
	m.UpdatesEmitted.Inc()
}

// DefaultChanged counts a default device change.
func (m *Metrics) DefaultChanged() {
	m.DefaultChanges.Inc()
}

// Emit records the update in the gauges.
func (m *Metrics) Emit(u volume.Update) error {
	m.VolumePercent.Set(float64(u.Percent))
	m.Muted.Set(float64(u.MutedFlag()))
	at := u.At
	if at.IsZero() {
		at = time.Now()
	}
	m.LastUpdateSecond.Set(float64(at.UnixNano()) / 1e9)
	return nil
}

// Handler returns the /metrics handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Debug("metrics server listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

package metrics

import (
	"context"
	"time"

	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/address/middleware"
	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the navigation metrics.
type Config struct {
	// Namespace is the metrics namespace (default: "urlview").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for navigation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the metrics middleware.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace:   "urlview",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// MetricsMiddleware records every navigation that passes through the chain.
//
// Metrics collected:
//   - urlview_navigations_total: Counter of navigations by mode and status
//   - urlview_navigation_duration_seconds: Histogram of navigation duration by mode
//   - urlview_navigation_errors_total: Counter of failed navigations by error type
type MetricsMiddleware struct {
	navigationsTotal   *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	navigationErrors   *prometheus.CounterVec
	logger             logger.Logger
}

// New registers the navigation metrics and returns the middleware.
// It panics when the metrics are already registered with the registry.
func New(opts ...Option) *MetricsMiddleware {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &MetricsMiddleware{
		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations of the shared address",
			ConstLabels: config.ConstLabels,
		}, []string{"mode", "status"}),

		navigationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Navigation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"mode"}),

		navigationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_errors_total",
			Help:        "Total number of failed navigations by error type",
			ConstLabels: config.ConstLabels,
		}, []string{"error_type"}),

		logger: &logger.NoOpLogger{},
	}
}

// Process times the rest of the chain and records its outcome.
func (m *MetricsMiddleware) Process(ctx context.Context, provider address.Provider, nav *middleware.Navigation, next middleware.NextFunc) error {
	m.logger.Debug("Processing navigation with metrics middleware")

	mode := nav.Mode.String()
	start := time.Now()
	err := next(ctx, provider, nav)
	m.navigationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err != nil {
		m.navigationsTotal.WithLabelValues(mode, "error").Inc()
		m.navigationErrors.WithLabelValues(errorType(err)).Inc()
		return err
	}
	m.navigationsTotal.WithLabelValues(mode, "success").Inc()
	return nil
}

// errorType maps an error to a low-cardinality label.
func errorType(err error) string {
	switch {
	case errors.Is(err, errors.ErrTimeout):
		return "timeout"
	case errors.Is(err, errors.ErrRateLimitExceeded):
		return "rate_limited"
	case errors.Is(err, errors.ErrCircuitOpen), errors.Is(err, errors.ErrCircuitExhausted):
		return "circuit_open"
	case errors.Is(err, errors.ErrURLParse), errors.Is(err, errors.ErrQueryFormat), errors.Is(err, errors.ErrInvalidComponent):
		return "invalid"
	case errors.Is(err, errors.ErrTemporary):
		return "temporary"
	default:
		return "other"
	}
}

// SetLogger sets the logger for the middleware.
func (m *MetricsMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}

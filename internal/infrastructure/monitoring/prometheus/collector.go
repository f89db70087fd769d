package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// CounterVec is satisfied by *prometheus.CounterVec.
type CounterVec interface {
	WithLabelValues(lvs ...string) prometheus.Counter
}

// GaugeVec is satisfied by *prometheus.GaugeVec.
type GaugeVec interface {
	WithLabelValues(lvs ...string) prometheus.Gauge
}

// HistogramVec is satisfied by *prometheus.HistogramVec.
type HistogramVec interface {
	WithLabelValues(lvs ...string) prometheus.Observer
}

// RegistryConfig names the metric family prefix.
type RegistryConfig struct {
	Namespace      string
	Subsystem      string
	RuntimeMetrics bool
	ConstLabels    map[string]string
}

// Registry owns a private prometheus registry and serves it.
type Registry struct {
	reg    *prometheus.Registry
	cfg    RegistryConfig
	logger logging.Logger
}

// NewRegistry creates a registry. RuntimeMetrics adds the process and Go
// runtime collectors.
func NewRegistry(cfg RegistryConfig, logger logging.Logger) (*Registry, error) {
	if cfg.Namespace == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "metrics namespace is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	reg := prometheus.NewRegistry()
	if cfg.RuntimeMetrics {
		reg.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: cfg.Namespace}),
			collectors.NewGoCollector(),
		)
	}
	return &Registry{reg: reg, cfg: cfg, logger: logger}, nil
}

// Handler serves the registry in the text or OpenMetrics format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// register adds c, or returns the collector already registered under the
// same descriptor.
func (r *Registry) register(name string, c prometheus.Collector) prometheus.Collector {
	err := r.reg.Register(c)
	if err == nil {
		return c
	}
	var dup prometheus.AlreadyRegisteredError
	if errors.As(err, &dup) {
		return dup.ExistingCollector
	}
	r.logger.Error("metric registration failed", logging.String("name", name), logging.Err(err))
	return nil
}

func (r *Registry) opts(name, help string) prometheus.Opts {
	return prometheus.Opts{
		Namespace:   r.cfg.Namespace,
		Subsystem:   r.cfg.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: r.cfg.ConstLabels,
	}
}

// RegisterCounter returns the counter family name. A family that cannot be
// registered is returned detached, so its samples are never exported.
func (r *Registry) RegisterCounter(name, help string, labels ...string) CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts(r.opts(name, help)), labels)
	if got, ok := r.register(name, vec).(*prometheus.CounterVec); ok {
		return got
	}
	return vec
}

func (r *Registry) RegisterGauge(name, help string, labels ...string) GaugeVec {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts(r.opts(name, help)), labels)
	if got, ok := r.register(name, vec).(*prometheus.GaugeVec); ok {
		return got
	}
	return vec
}

// RegisterHistogram uses prometheus.DefBuckets when buckets is nil.
func (r *Registry) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	o := r.opts(name, help)
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   o.Namespace,
		Subsystem:   o.Subsystem,
		Name:        o.Name,
		Help:        o.Help,
		ConstLabels: o.ConstLabels,
		Buckets:     buckets,
	}, labels)
	if got, ok := r.register(name, vec).(*prometheus.HistogramVec); ok {
		return got
	}
	return vec
}

//Personal.AI order the ending

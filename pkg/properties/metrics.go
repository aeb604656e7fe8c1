package properties

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts engine activity:
//   - cascade_lookups_total{result="hit|miss"}
//   - cascade_overrides_total{outcome="applied|ignored"}
//   - cascade_files_loaded_total
//   - cascade_load_errors_total
//
// A nil *Metrics records nothing.
type Metrics struct {
	lookups     *prometheus.CounterVec
	overrides   *prometheus.CounterVec
	filesLoaded prometheus.Counter
	loadErrors  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with registry, if not nil.
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cascade",
				Name:      "lookups_total",
				Help:      "Total number of property lookups by result",
			},
			[]string{"result"},
		),
		overrides: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cascade",
				Name:      "overrides_total",
				Help:      "Total number of overrides by outcome",
			},
			[]string{"outcome"},
		),
		filesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cascade",
			Name:      "files_loaded_total",
			Help:      "Total number of property resources loaded",
		}),
		loadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cascade",
			Name:      "load_errors_total",
			Help:      "Total number of property resources that failed to read or parse",
		}),
	}

	if registry != nil {
		for _, c := range []prometheus.Collector{m.lookups, m.overrides, m.filesLoaded, m.loadErrors} {
			if err := registry.Register(c); err != nil {
				return nil, errors.Wrap(err, "failed to register property metrics")
			}
		}
	}
	return m, nil
}

func (m *Metrics) lookupHit() {
	if m != nil {
		m.lookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) lookupMissed() {
	if m != nil {
		m.lookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) overrideApplied() {
	if m != nil {
		m.overrides.WithLabelValues("applied").Inc()
	}
}

func (m *Metrics) overrideIgnored() {
	if m != nil {
		m.overrides.WithLabelValues("ignored").Inc()
	}
}

func (m *Metrics) fileLoaded() {
	if m != nil {
		m.filesLoaded.Inc()
	}
}

func (m *Metrics) loadFailed() {
	if m != nil {
		m.loadErrors.Inc()
	}
}

package fetch

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	subscriptions *prometheus.CounterVec
	fetches       prometheus.Counter
	staleResults  prometheus.Counter
	errors        prometheus.Counter
	inFlight      prometheus.Gauge
}

func newMetrics(namespace string) *metrics {
	return &metrics{
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch_cache",
			Name:      "subscriptions_total",
			Help:      "Subscriptions by outcome: miss starts a fetch, dedup joins one in flight, hit serves a settled entry.",
		}, []string{"outcome"}),
		fetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch_cache",
			Name:      "fetches_total",
			Help:      "Remote fetches issued by the cache.",
		}),
		staleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch_cache",
			Name:      "stale_results_total",
			Help:      "Fetch results discarded because a newer generation was issued or the entry was released.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch_cache",
			Name:      "fetch_errors_total",
			Help:      "Fetches that settled with an error.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fetch_cache",
			Name:      "in_flight",
			Help:      "Fetches currently in flight.",
		}),
	}
}

// register adds the collectors to reg. Collectors already registered by an
// earlier cache are shared.
func (m *metrics) register(reg prometheus.Registerer) error {
	var err error
	if m.subscriptions, err = registerCollector(reg, m.subscriptions); err != nil {
		return err
	}
	if m.fetches, err = registerCollector(reg, m.fetches); err != nil {
		return err
	}
	if m.staleResults, err = registerCollector(reg, m.staleResults); err != nil {
		return err
	}
	if m.errors, err = registerCollector(reg, m.errors); err != nil {
		return err
	}
	if m.inFlight, err = registerCollector(reg, m.inFlight); err != nil {
		return err
	}
	return nil
}

func registerCollector[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

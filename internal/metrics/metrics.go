package metrics

import "github.com/prometheus/client_golang/prometheus"

type Observer interface {
	Observe(val float64, labels ...string)

	prometheus.Collector
}

// Metrics groups the bot's collectors. Zero-value fields are not allowed;
// use Nop or New.
type Metrics struct {
	// Fetches counts Steam library fetches labelled by outcome
	// (ok, transport, rejected, malformed, private_profile).
	Fetches Observer
	// PartialBatches counts fan-outs where some resolved user could not be fetched.
	PartialBatches Observer
	// BatchSize is the number of libraries that reached the intersection.
	BatchSize Observer
	// FanoutLatency is the wall time of one fan-out, in seconds.
	FanoutLatency Observer
	// StoreErrors counts result store failures labelled by op (save, load).
	StoreErrors Observer
	// PageFlips counts button interactions labelled by outcome (ok, ignored).
	PageFlips Observer
}

func (m Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Fetches,
		m.PartialBatches,
		m.BatchSize,
		m.FanoutLatency,
		m.StoreErrors,
		m.PageFlips,
	}
}

// New builds prometheus-backed metrics under the given namespace.
func New(namespace string) Metrics {
	return Metrics{
		Fetches: NewPromCounterVec(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steam_fetches_total",
			Help:      "Steam owned-games fetches by outcome.",
		}, []string{"outcome"})),
		PartialBatches: NewPromCounter(prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fanout_partial_total",
			Help:      "Fan-outs that continued with fewer libraries than resolved users.",
		})),
		BatchSize: NewPromHistogram(prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fanout_libraries",
			Help:      "Libraries fetched per fan-out.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		})),
		FanoutLatency: NewPromHistogram(prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fanout_seconds",
			Help:      "Wall time of one fan-out.",
			Buckets:   prometheus.DefBuckets,
		})),
		StoreErrors: NewPromCounterVec(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Result store failures by operation.",
		}, []string{"op"})),
		PageFlips: NewPromCounterVec(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_flips_total",
			Help:      "Page button interactions by outcome.",
		}, []string{"outcome"})),
	}
}

// Nop returns metrics that are never registered. Observations still land in
// private collectors, which keeps tests free of registry state.
func Nop() Metrics { return New("nop") }

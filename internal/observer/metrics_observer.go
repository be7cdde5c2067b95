package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsOption configures a MetricsObserver.
type MetricsOption func(*MetricsObserver)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) MetricsOption {
	return func(o *MetricsObserver) {
		if namespace != "" {
			o.namespace = namespace
		}
	}
}

// WithDurationBuckets sets the histogram buckets for analysis latency.
func WithDurationBuckets(buckets []float64) MetricsOption {
	return func(o *MetricsObserver) {
		if len(buckets) > 0 {
			o.durationBuckets = buckets
		}
	}
}

// WithRegistry sets the registerer the collectors are added to.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(o *MetricsObserver) {
		if registry != nil {
			o.registry = registry
		}
	}
}

// MetricsObserver exports analysis events as Prometheus metrics.
type MetricsObserver struct {
	namespace       string
	durationBuckets []float64
	registry        prometheus.Registerer

	analyses  *prometheus.CounterVec
	duration  prometheus.Histogram
	scores    prometheus.Histogram
	penalties *prometheus.CounterVec
	batches   prometheus.Counter
	batchSize prometheus.Histogram
	fetches   *prometheus.CounterVec
}

// NewMetricsObserver registers the analysis collectors. Registering twice
// on the same registry returns an error.
func NewMetricsObserver(opts ...MetricsOption) (*MetricsObserver, error) {
	o := &MetricsObserver{
		namespace:       "iqa",
		durationBuckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		registry:        prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.analyses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: o.namespace,
		Name:      "analyses_total",
		Help:      "Analysed images by resulting category.",
	}, []string{"category"})
	o.duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: o.namespace,
		Name:      "analysis_duration_seconds",
		Help:      "Time spent preprocessing, extracting features and scoring one image.",
		Buckets:   o.durationBuckets,
	})
	o.scores = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: o.namespace,
		Name:      "quality_score",
		Help:      "Degradation scores of successful analyses.",
		Buckets:   prometheus.LinearBuckets(0, 10, 13),
	})
	o.penalties = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: o.namespace,
		Name:      "rule_penalties_total",
		Help:      "Rules that charged a penalty, by feature.",
	}, []string{"feature"})
	o.batches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: o.namespace,
		Name:      "batches_total",
		Help:      "Completed batch analyses.",
	})
	o.batchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: o.namespace,
		Name:      "batch_size",
		Help:      "Items per batch analysis.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
	})
	o.fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: o.namespace,
		Name:      "image_fetches_total",
		Help:      "Remote image fetches by outcome.",
	}, []string{"outcome"})

	for _, c := range []prometheus.Collector{o.analyses, o.duration, o.scores, o.penalties, o.batches, o.batchSize, o.fetches} {
		if err := o.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnEvent handles analysis events by updating the collectors
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	switch event.EventType {
	case AnalysisCompleted:
		o.analyses.WithLabelValues(string(event.Category)).Inc()
		o.duration.Observe(event.ProcessingTime.Seconds())
		o.scores.Observe(event.Score)
	case AnalysisFailed:
		o.analyses.WithLabelValues("Error").Inc()
	case RuleMatched:
		o.penalties.WithLabelValues(string(event.Feature)).Inc()
	case BatchCompleted:
		o.batches.Inc()
		o.batchSize.Observe(float64(event.BatchSize))
	case ImageFetched:
		o.fetches.WithLabelValues("success").Inc()
	case ImageFetchFailed:
		o.fetches.WithLabelValues("failure").Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

package metrics

import (
	"net/http"
	"time"

	"github.com/lintang-b-s/Segmentx/pkg/segment"
	"github.com/lintang-b-s/Segmentx/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector. pipeline counters on a private registry. Implements geocoder.Observer.
type Collector struct {
	reg *prometheus.Registry

	SamplesRead    prometheus.Counter
	SamplesDropped *prometheus.CounterVec // reason: malformed_row|invalid_coordinate|gated|outside_window|duplicate

	Lookups       *prometheus.CounterVec // outcome: resolved|unresolvable|transient|invalid_coordinate
	LookupLatency prometheus.Histogram
	Retries       prometheus.Counter

	TraversalsRetained  prometheus.Counter
	TraversalsDropped   *prometheus.CounterVec // reason: unresolved|malformed_timestamp
	NonPositiveDuration prometheus.Counter
	RoutesSealed        prometheus.Counter
	UniqueSegments      prometheus.Gauge
	UnitsProcessed      prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		SamplesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segmentx_samples_read_total",
			Help: "Telemetry rows read.",
		}),
		SamplesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segmentx_samples_dropped_total",
			Help: "Telemetry rows dropped before segmentation.",
		}, []string{"reason"}),
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segmentx_geocode_lookups_total",
			Help: "Distinct coordinate lookups by outcome.",
		}, []string{"outcome"}),
		LookupLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "segmentx_geocode_lookup_duration_seconds",
			Help:    "Latency of one coordinate lookup including retries.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segmentx_geocode_retries_total",
			Help: "Transient geocoding failures that were retried.",
		}),
		TraversalsRetained: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segmentx_traversals_retained_total",
			Help: "Traversals merged into a segment.",
		}),
		TraversalsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segmentx_traversals_dropped_total",
			Help: "Traversals dropped before touching any segment.",
		}, []string{"reason"}),
		NonPositiveDuration: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segmentx_non_positive_durations_total",
			Help: "Retained traversals whose duration was zero or negative.",
		}),
		RoutesSealed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segmentx_routes_sealed_total",
			Help: "Passenger routes sealed.",
		}),
		UniqueSegments: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "segmentx_unique_segments",
			Help: "Unique segments in the last processed unit.",
		}),
		UnitsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segmentx_units_processed_total",
			Help: "Processing units (days or files) reported.",
		}),
	}

	reg.MustRegister(
		c.SamplesRead, c.SamplesDropped,
		c.Lookups, c.LookupLatency, c.Retries,
		c.TraversalsRetained, c.TraversalsDropped, c.NonPositiveDuration,
		c.RoutesSealed, c.UniqueSegments, c.UnitsProcessed,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// WriteTextfile. node-exporter textfile format, for batch runs without a scrape endpoint.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.reg)
}

func (c *Collector) ObserveLookup(outcome string, latency time.Duration) {
	c.Lookups.WithLabelValues(outcome).Inc()
	c.LookupLatency.Observe(latency.Seconds())
}

func (c *Collector) ObserveRetry() {
	c.Retries.Inc()
}

func (c *Collector) ObserveRead(s telemetry.ReadStats) {
	c.SamplesRead.Add(float64(s.Rows))
	c.SamplesDropped.WithLabelValues("malformed_row").Add(float64(s.MalformedRows))
	c.SamplesDropped.WithLabelValues("invalid_coordinate").Add(float64(s.InvalidCoordinate))
}

func (c *Collector) ObserveFilter(s telemetry.FilterStats) {
	c.SamplesDropped.WithLabelValues("gated").Add(float64(s.Gated))
	c.SamplesDropped.WithLabelValues("outside_window").Add(float64(s.OutsideWindow))
	c.SamplesDropped.WithLabelValues("duplicate").Add(float64(s.Duplicates))
}

func (c *Collector) ObserveBuild(s segment.Stats, uniqueSegments, routes int) {
	c.TraversalsRetained.Add(float64(s.Retained))
	c.TraversalsDropped.WithLabelValues("unresolved").Add(float64(s.Unresolved))
	c.TraversalsDropped.WithLabelValues("malformed_timestamp").Add(float64(s.MalformedTimestamp))
	c.NonPositiveDuration.Add(float64(s.NonPositive))
	c.RoutesSealed.Add(float64(routes))
	c.UniqueSegments.Set(float64(uniqueSegments))
	c.UnitsProcessed.Inc()
}

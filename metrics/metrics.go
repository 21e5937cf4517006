// Package metrics exposes Prometheus instruments for index builds and graph queries.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gptindex"

// Collector groups the engine's instruments.
type Collector struct {
	queries       *prometheus.CounterVec
	queryErrors   *prometheus.CounterVec
	calls         *prometheus.CounterVec
	tokens        prometheus.Counter
	depth         prometheus.Histogram
	builtNodes    *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
}

// New registers the instruments with reg. Pass prometheus.DefaultRegisterer to expose
// them on the default handler.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		// Labels: index_type
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "index_queries_total",
			Help:      "Index queries executed, including recursive child queries",
		}, []string{"index_type"}),
		queryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "errors_total",
			Help:      "Index queries that failed",
		}, []string{"index_type"}),
		// Labels: op (synthesize, choose_children, summarize, extract_keywords, embed)
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Calls made to the synthesizer and embedder",
		}, []string{"op"}),
		tokens: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Tokens reported by the synthesizer",
		}),
		depth: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "recursion_depth",
			Help:      "Depth at which an index was reached during a graph query",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8},
		}),
		builtNodes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "nodes_total",
			Help:      "Nodes added to indices",
		}, []string{"index_type"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Graph query latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
}

// ObserveQuery records a query against an index of the given type at depth.
func (c *Collector) ObserveQuery(indexType string, depth int) {
	if c == nil {
		return
	}
	c.queries.WithLabelValues(indexType).Inc()
	c.depth.Observe(float64(depth))
}

// ObserveQueryError records a failed index query.
func (c *Collector) ObserveQueryError(indexType string) {
	if c == nil {
		return
	}
	c.queryErrors.WithLabelValues(indexType).Inc()
}

// ObserveCall records one collaborator call and the tokens it reported.
func (c *Collector) ObserveCall(op string, tokens int) {
	if c == nil {
		return
	}
	c.calls.WithLabelValues(op).Inc()
	if tokens > 0 {
		c.tokens.Add(float64(tokens))
	}
}

// ObserveBuild records n nodes added to an index of the given type.
func (c *Collector) ObserveBuild(indexType string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.builtNodes.WithLabelValues(indexType).Add(float64(n))
}

// ObserveDuration records the latency of a whole graph query.
func (c *Collector) ObserveDuration(status string, seconds float64) {
	if c == nil {
		return
	}
	c.queryDuration.WithLabelValues(status).Observe(seconds)
}

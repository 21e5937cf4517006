package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveQuery("list", 0)
	c.ObserveQuery("list", 1)
	c.ObserveQuery("tree", 2)
	c.ObserveQueryError("tree")
	c.ObserveCall("synthesize", 10)
	c.ObserveCall("synthesize", 0)
	c.ObserveBuild("list", 3)
	c.ObserveBuild("list", 0)
	c.ObserveDuration("ok", 0.1)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.queries.WithLabelValues("list")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.queryErrors.WithLabelValues("tree")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.calls.WithLabelValues("synthesize")))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.tokens))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.builtNodes.WithLabelValues("list")))

	n, err := testutil.GatherAndCount(reg, "gptindex_query_recursion_depth")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveQuery("list", 0)
		c.ObserveQueryError("list")
		c.ObserveCall("embed", 1)
		c.ObserveBuild("list", 1)
		c.ObserveDuration("ok", 1)
	})
}

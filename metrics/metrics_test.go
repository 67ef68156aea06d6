package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLookup(ResultMiss)
	c.RecordLookup(ResultCreated)
	c.RecordLookup(ResultHit)
	c.RecordLookup(ResultHit)
	c.RecordGeneration(nil)
	c.RecordGeneration(errors.New("boom"))
	c.RecordSelfTest(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.lookups.WithLabelValues(ResultHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookups.WithLabelValues(ResultMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookups.WithLabelValues(ResultCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.generations.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.generations.WithLabelValues(StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.selfTests.WithLabelValues(StatusSuccess)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordLookup(ResultHit)
		c.RecordGeneration(nil)
		c.RecordSelfTest(errors.New("x"))
	})
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}

// Package metrics provides Prometheus counters for the key pair lifecycle:
// keystore lookups, key generation and self-test outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all key pair metrics
	Namespace = "keypair"

	LabelResult = "result"
	LabelStatus = "status"

	// Lookup results
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultError   = "error"
	ResultCreated = "created"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
)

// Collector records lifecycle metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	lookups     *prometheus.CounterVec
	generations *prometheus.CounterVec
	selfTests   *prometheus.CounterVec
}

// NewCollector registers the key pair counters with reg.
// Pass prometheus.DefaultRegisterer to expose them process-wide.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "lookups_total",
				Help:      "Key lookups by result (hit, miss, created, error)",
			},
			[]string{LabelResult},
		),
		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "generations_total",
				Help:      "Key pair generation requests by status",
			},
			[]string{LabelStatus},
		),
		selfTests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "self_tests_total",
				Help:      "Encrypt/decrypt self-test runs by status",
			},
			[]string{LabelStatus},
		),
	}
}

// RecordLookup counts a lookup with one of the Result* values.
func (c *Collector) RecordLookup(result string) {
	if c == nil {
		return
	}
	c.lookups.WithLabelValues(result).Inc()
}

// RecordGeneration counts a generation request.
func (c *Collector) RecordGeneration(err error) {
	if c == nil {
		return
	}
	c.generations.WithLabelValues(status(err)).Inc()
}

// RecordSelfTest counts a self-test run.
func (c *Collector) RecordSelfTest(err error) {
	if c == nil {
		return
	}
	c.selfTests.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

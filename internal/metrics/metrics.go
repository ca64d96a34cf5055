//go:build !tinygo

// Package metrics exports firmware counters to Prometheus on the host
// simulator.
package metrics

import (
	"ember/app"
	"ember/hal"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Source provides firmware stats snapshots.
type Source interface {
	Stats() app.Stats
}

// Collector reads a Source on every scrape.
type Collector struct {
	src Source

	ticks      *prom.Desc
	polls      *prom.Desc
	idles      *prom.Desc
	interrupts *prom.Desc
	transfers  *prom.Desc
	failures   *prom.Desc
	dropped    *prom.Desc
	finished   *prom.Desc
	panicked   *prom.Desc
}

var _ prom.Collector = (*Collector)(nil)

// NewCollector creates a collector for src and registers it with reg.
func NewCollector(namespace string, reg prom.Registerer, src Source) (*Collector, error) {
	if namespace == "" {
		namespace = "ember"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	name := func(n string) string { return prom.BuildFQName(namespace, "", n) }
	c := &Collector{
		src:        src,
		ticks:      prom.NewDesc(name("executor_ticks_total"), "Executor loop iterations.", nil, nil),
		polls:      prom.NewDesc(name("executor_polls_total"), "Root task polls.", nil, nil),
		idles:      prom.NewDesc(name("executor_idles_total"), "Loop iterations that idled the CPU.", nil, nil),
		interrupts: prom.NewDesc(name("interrupts_total"), "Serviced interrupts per vector.", []string{"vector"}, nil),
		transfers:  prom.NewDesc(name("twi_transfers_total"), "Completed two-wire transfers.", nil, nil),
		failures:   prom.NewDesc(name("twi_failures_total"), "Two-wire transfers that ended in an error.", nil, nil),
		dropped:    prom.NewDesc(name("log_dropped_total"), "Log lines dropped on a full console channel.", nil, nil),
		finished:   prom.NewDesc(name("finished"), "Root task state (1=finished, 0=running).", nil, nil),
		panicked:   prom.NewDesc(name("panicked"), "Root task panic state (1=panicked, 0=ok).", nil, nil),
	}
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collector) Describe(ch chan<- *prom.Desc) {
	ch <- c.ticks
	ch <- c.polls
	ch <- c.idles
	ch <- c.interrupts
	ch <- c.transfers
	ch <- c.failures
	ch <- c.dropped
	ch <- c.finished
	ch <- c.panicked
}

func (c *Collector) Collect(ch chan<- prom.Metric) {
	st := c.src.Stats()
	counter := func(d *prom.Desc, v uint64, labels ...string) {
		ch <- prom.MustNewConstMetric(d, prom.CounterValue, float64(v), labels...)
	}
	gauge := func(d *prom.Desc, on bool) {
		v := 0.0
		if on {
			v = 1
		}
		ch <- prom.MustNewConstMetric(d, prom.GaugeValue, v)
	}

	counter(c.ticks, st.Exec.Ticks)
	counter(c.polls, st.Exec.Polls)
	counter(c.idles, st.Exec.Idles)
	for v := hal.Vector(0); v < hal.NumVectors; v++ {
		counter(c.interrupts, st.Interrupts[v], v.String())
	}
	counter(c.transfers, uint64(st.Transfers))
	counter(c.failures, uint64(st.Failures))
	counter(c.dropped, uint64(st.Dropped))
	gauge(c.finished, st.Finished)
	gauge(c.panicked, st.Panicked)
}

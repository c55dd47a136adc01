// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vechain/stakepool/log"
)

const namespace = "stakepool"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics switches the process to Prometheus meters. Calling it again is a no-op.
func InitializePrometheusMetrics() {
	if _, ok := metrics.(*prometheusMetrics); !ok {
		metrics = &prometheusMetrics{}
	}
}

type prometheusMetrics struct {
	meters sync.Map
}

// load returns the meter registered under name, creating it on first use.
func load[T any](o *prometheusMetrics, name string, create func() (prometheus.Collector, T)) T {
	if m, ok := o.meters.Load(name); ok {
		return m.(T)
	}
	collector, meter := create()
	if actual, loaded := o.meters.LoadOrStore(name, meter); loaded {
		return actual.(T)
	}
	if err := prometheus.Register(collector); err != nil {
		logger.Warn("unable to register metric", "name", name, "err", err)
	}
	return meter
}

func (o *prometheusMetrics) Handler() http.Handler {
	return promhttp.Handler()
}

func (o *prometheusMetrics) Counter(name string) CountMeter {
	return load(o, name, func() (prometheus.Collector, CountMeter) {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name})
		return c, &promCounter{c}
	})
}

func (o *prometheusMetrics) CounterVec(name string, labels []string) CountVecMeter {
	return load(o, name, func() (prometheus.Collector, CountVecMeter) {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		return c, &promCounterVec{c}
	})
}

func (o *prometheusMetrics) Gauge(name string) GaugeMeter {
	return load(o, name, func() (prometheus.Collector, GaugeMeter) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		return g, &promGauge{g}
	})
}

func (o *prometheusMetrics) GaugeVec(name string, labels []string) GaugeVecMeter {
	return load(o, name, func() (prometheus.Collector, GaugeVecMeter) {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name}, labels)
		return g, &promGaugeVec{g}
	})
}

func (o *prometheusMetrics) HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return load(o, name, func() (prometheus.Collector, HistogramVecMeter) {
		floats := make([]float64, 0, len(buckets))
		for _, b := range buckets {
			floats = append(floats, float64(b))
		}
		h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floats,
		}, labels)
		return h, &promHistogramVec{h}
	})
}

type promCounter struct{ prometheus.Counter }

func (c *promCounter) Add(i int64) { c.Counter.Add(float64(i)) }

type promCounterVec struct{ vec *prometheus.CounterVec }

func (c *promCounterVec) AddWithLabel(i int64, labels map[string]string) {
	c.vec.With(labels).Add(float64(i))
}

type promGauge struct{ prometheus.Gauge }

func (g *promGauge) Add(i int64) { g.Gauge.Add(float64(i)) }
func (g *promGauge) Set(i int64) { g.Gauge.Set(float64(i)) }

type promGaugeVec struct{ vec *prometheus.GaugeVec }

func (g *promGaugeVec) SetWithLabel(i int64, labels map[string]string) {
	g.vec.With(labels).Set(float64(i))
}

type promHistogramVec struct{ vec *prometheus.HistogramVec }

func (h *promHistogramVec) ObserveWithLabels(i int64, labels map[string]string) {
	h.vec.With(labels).Observe(float64(i))
}

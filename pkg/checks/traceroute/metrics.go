// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/telekom/netdiag/pkg/checks"
)

// metrics defines the metric collectors of the traceroute check
type metrics struct {
	hops        *prometheus.GaugeVec
	successHops *prometheus.GaugeVec
	failedHops  *prometheus.GaugeVec
	reached     *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// newMetrics initializes metric collectors of the traceroute check
func newMetrics() metrics {
	return metrics{
		hops: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "netdiag_traceroute_hops",
				Help: "Number of hops probed in the last trace to the target.",
			},
			[]string{"target"},
		),
		successHops: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "netdiag_traceroute_success_hops",
				Help: "Number of hops a node answered for in the last trace to the target.",
			},
			[]string{"target"},
		),
		failedHops: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "netdiag_traceroute_failed_hops",
				Help: "Number of hops that timed out, were unreachable or failed in the last trace to the target.",
			},
			[]string{"target"},
		),
		reached: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "netdiag_traceroute_reached",
				Help: "Specifies if the target answered in the last trace.",
			},
			[]string{"target"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "netdiag_traceroute_latency_seconds",
				Help: "Histogram of round trip times to the target in seconds.",
			},
			[]string{"target"},
		),
	}
}

// List returns all metric collectors
func (m *metrics) List() []prometheus.Collector {
	return []prometheus.Collector{
		m.hops,
		m.successHops,
		m.failedHops,
		m.reached,
		m.latency,
	}
}

// Set sets the metrics of one traced target
func (m *metrics) Set(target string, res TargetResult) {
	m.hops.WithLabelValues(target).Set(float64(len(res.Hops)))
	m.successHops.WithLabelValues(target).Set(float64(res.Summary.SuccessCount))
	m.failedHops.WithLabelValues(target).Set(float64(res.Summary.FailedCount))

	if !res.reached() {
		m.reached.WithLabelValues(target).Set(0)
		return
	}
	m.reached.WithLabelValues(target).Set(1)
	m.latency.WithLabelValues(target).Observe(res.Hops[len(res.Hops)-1].Latency.Seconds())
}

// Remove removes the metrics of one target.
// The latency histogram only exists for targets that were reached at least once.
func (m *metrics) Remove(target string) error {
	if !m.hops.DeleteLabelValues(target) {
		return checks.ErrMetricNotFound{Label: target}
	}

	m.successHops.DeleteLabelValues(target)
	m.failedHops.DeleteLabelValues(target)
	m.reached.DeleteLabelValues(target)
	m.latency.DeleteLabelValues(target)
	return nil
}

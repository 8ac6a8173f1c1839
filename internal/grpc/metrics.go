// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package grpc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const outcomeOK = "ok"

// Metrics records bus traffic. A nil *Metrics records nothing.
type Metrics struct {
	ServerRequests *prometheus.CounterVec
	ServerDuration *prometheus.HistogramVec
	ClientRequests *prometheus.CounterVec
}

// NewMetrics creates and registers bus metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ServerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salamnest_bus_server_requests_total",
				Help: "Total number of bus commands served by service, command and outcome",
			},
			[]string{"service", "command", "outcome"},
		),
		ServerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salamnest_bus_server_duration_seconds",
				Help:    "Time spent serving bus commands",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "command"},
		),
		ClientRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salamnest_bus_client_requests_total",
				Help: "Total number of bus commands sent by service, command and outcome",
			},
			[]string{"service", "command", "outcome"},
		),
	}

	reg.MustRegister(m.ServerRequests, m.ServerDuration, m.ClientRequests)
	return m
}

func (m *Metrics) observe(service, command, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ServerRequests.WithLabelValues(service, command, outcome).Inc()
	m.ServerDuration.WithLabelValues(service, command).Observe(elapsed.Seconds())
}

func (m *Metrics) observeClient(service, command, outcome string) {
	if m == nil {
		return
	}
	m.ClientRequests.WithLabelValues(service, command, outcome).Inc()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package auth

import "github.com/prometheus/client_golang/prometheus"

// Operation outcomes recorded in metrics.
const (
	outcomeSuccess   = "success"
	outcomeRejected  = "rejected"
	outcomeError     = "error"
	outcomeThrottled = "throttled"
	outcomeDegraded  = "degraded"
)

// Metrics counts orchestrator operations. A nil *Metrics records nothing.
type Metrics struct {
	Operations    *prometheus.CounterVec
	ResetCodeSent *prometheus.CounterVec
}

// NewMetrics creates and registers auth metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salamnest_auth_operations_total",
				Help: "Total number of auth operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		ResetCodeSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salamnest_auth_reset_codes_total",
				Help: "Total number of reset code requests by delivery outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.Operations, m.ResetCodeSent)
	return m
}

func (m *Metrics) record(operation, outcome string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) codeSent(outcome string) {
	if m == nil {
		return
	}
	m.ResetCodeSent.WithLabelValues(outcome).Inc()
}

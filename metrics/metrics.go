// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuthenticationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenguard_authentication_attempts_total",
		Help: "Total number of authentication attempts by token source",
	}, []string{"source", "result"})

	SessionOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenguard_session_operations_total",
		Help: "Total number of session store operations",
	}, []string{"store", "op", "status"})

	SessionOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tokenguard_session_operation_duration_seconds",
		Help:    "Time spent in session store operations",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2.0, 12), // 0.5ms to ~1s
	}, []string{"store", "op"})

	TrustDowngrades = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenguard_trust_downgrades_total",
		Help: "Tokens whose trust was dropped after being loaded from a session",
	}, []string{"reason"})
)

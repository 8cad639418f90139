package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PermissionChecks counts permission evaluations and their outcome (allowed|denied|error).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accessd_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"permission", "result"},
	)

	// PermissionCacheLookups counts read-through cache outcomes (hit|miss).
	PermissionCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accessd_permission_cache_lookups_total",
			Help: "Permission cache lookups by outcome",
		},
		[]string{"result"},
	)

	// RoleAssignments counts ledger mutations by action (assign|revoke) and result.
	RoleAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accessd_role_assignments_total",
			Help: "Role assignment mutations by action and result",
		},
		[]string{"action", "result"},
	)

	// BatchPairs counts per-pair outcomes of batch assignment runs.
	BatchPairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accessd_batch_pairs_total",
			Help: "Batch orchestrator per-pair outcomes",
		},
		[]string{"action", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "accessd_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

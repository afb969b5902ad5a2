// Package telemetry provides Prometheus metrics for the auth and metadata
// paths.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// SignIns counts sign-in attempts by outcome (ok, invalid, error).
	SignIns *prometheus.CounterVec

	// SignUps counts sign-up attempts by outcome (ok, pending, invalid, error).
	SignUps *prometheus.CounterVec

	// StoreOps counts metadata store operations by op and outcome.
	StoreOps *prometheus.CounterVec
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		SignIns = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "atom_signin_attempts_total",
			Help: "Sign-in attempts by outcome",
		}, []string{"outcome"})
		SignUps = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "atom_signup_attempts_total",
			Help: "Sign-up attempts by outcome",
		}, []string{"outcome"})
		StoreOps = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "atom_metadata_store_ops_total",
			Help: "Metadata store operations by op and outcome",
		}, []string{"op", "outcome"})
	})
}

// CountSignIn records one sign-in attempt.
func CountSignIn(outcome string) {
	if SignIns != nil {
		SignIns.WithLabelValues(outcome).Inc()
	}
}

// CountSignUp records one sign-up attempt.
func CountSignUp(outcome string) {
	if SignUps != nil {
		SignUps.WithLabelValues(outcome).Inc()
	}
}

// CountStoreOp records one metadata store operation.
func CountStoreOp(op, outcome string) {
	if StoreOps != nil {
		StoreOps.WithLabelValues(op, outcome).Inc()
	}
}

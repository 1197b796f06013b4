// Package metrics exposes the Prometheus collectors of the authorizer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Callbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartsheet_webhook_callbacks_total",
		Help: "Total number of webhook callbacks handled, by outcome.",
	}, []string{"outcome"})

	SecretResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartsheet_webhook_secret_resolutions_total",
		Help: "Total number of shared secret resolutions, by source (store or api).",
	}, []string{"source"})

	SecretStoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartsheet_webhook_secret_store_failures_total",
		Help: "Total number of swallowed secret store failures, by operation.",
	}, []string{"operation"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smartsheet_api_request_duration_seconds",
		Help:    "Duration of Smartsheet API requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})
)

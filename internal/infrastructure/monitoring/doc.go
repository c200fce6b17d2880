/*
Package monitoring provides metrics collection for API calls.

# Overview

This package implements Prometheus-based metrics for the client: calls by
outcome, end-to-end latency, HTTP attempts, retries by cause, queue wait and
live queue depth. Metrics register with a caller-supplied Registerer or with
a private registry, never with the global default.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	// Expose live queue depth
	metrics.ObserveQueue(gate.InFlight, gate.Queued)

	// Time a call
	timer := monitoring.NewTimer(metrics, "chat.postMessage")
	// ... perform call ...
	timer.Stop(monitoring.OutcomeOK)

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring

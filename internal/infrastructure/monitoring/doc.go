/*
Package monitoring provides metrics collection for the navigator service.

# Overview

Metrics are Prometheus collectors registered on a registry owned by each
Metrics value, so several instances can coexist in one process (tests,
embedded navigators).

# Features

- HTTP request metrics (latency, throughput, size)
- Page stack metrics (active, pending, pushes, pops, timeouts)
- Event and message delivery metrics
- Tool execution metrics
- Surface host and WebSocket metrics

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "navigator", "push")
	// ... perform operation ...
	timer.Stop("success")

A nil *Metrics is valid and records nothing.
*/
package monitoring

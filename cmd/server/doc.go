// Package main is the entry point for the navigator server.
//
// The server owns a single page stack. Pages connect over /stream to
// receive lifecycle events and messages, and drive navigation through
// navigator.* tools or the REST API.
//
// Configuration:
//   - Defaults for development
//   - Optional yaml or toml file (NAVIGATOR_CONFIG or -config)
//   - Environment variables (12-factor)
//   - CLI flags (override everything)
//
// Usage:
//
//	# Pages open their own sockets (default)
//	./server -port 8000
//
//	# Surfaces created by a native shell
//	SURFACE_HOST_URL=http://localhost:9100 ./server -surface host
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Core packages accept a plain *zap.Logger; the server hands each of them a
// named child via Logger.Component so log lines carry their origin.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	nav, _ := navigator.New(factory, cfg, logger.Component("navigator"))
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging

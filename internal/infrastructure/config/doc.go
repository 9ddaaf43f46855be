// Package config provides 12-factor configuration management for the
// navigator service.
//
// Values are layered: Default(), then an optional YAML or TOML file named
// by NAVIGATOR_CONFIG, then environment variables.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Navigator: Root page, pending timeout, locator allow-list, payload and outbox limits
//   - Surface: How page surfaces are created (client, host, none)
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - NAV_ROOT_LOCATOR, NAV_ROOT_TITLE, NAV_PENDING_TIMEOUT, NAV_ALLOWED_LOCATORS
//   - NAV_MAX_PAYLOAD_BYTES, NAV_OUTBOX_SIZE, NAV_DESTROY_ON_DISCONNECT
//   - SURFACE_MODE, SURFACE_HOST_URL, SURFACE_TIMEOUT, SURFACE_RETRIES
package config

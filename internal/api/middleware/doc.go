// Package middleware provides HTTP middleware for the navigator API.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing for page views and the shell
//   - RateLimit: Per-IP token bucket rate limiting with idle cleanup
//   - GlobalRateLimit: One bucket shared by every client
//   - RequestLogger: One zap line per request, leveled by status
//
// Example Usage:
//
//	router.Use(middleware.RequestLogger(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware

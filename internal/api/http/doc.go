// Package http provides the navigator's REST API.
//
// Endpoints:
//   - Health: / and /health
//   - Pages: GET /pages, GET /pages/current, PUT /pages/:id/title,
//     POST /pages/:id/ready, DELETE /pages/:id
//   - Services: GET /services, POST /services/discover, POST /services/execute
//
// Navigator errors map to status codes: invalid params 400, unknown ids
// 404, root and state conflicts 409, an unavailable factory or closed
// navigator 503. Bodies carry {"error", "code"} with the navigator's
// wire code.
//
// Example Usage:
//
//	handlers := http.NewHandlers(nav, registry, logger)
//	router.GET("/pages", handlers.ListPages)
//	router.POST("/services/execute", handlers.ExecuteService)
package http

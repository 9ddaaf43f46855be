// Package ws connects pages to the navigator over WebSocket.
//
// Every live page owns a Surface in the Hub: a bounded outbox of frames
// that the navigator fills through the page's dispatcher. A page attaches
// to its outbox with GET /stream?page_id=<id>; the root page may use
// page_id=root. Frames queued while no socket is attached are flushed on
// the next attach.
//
// Message Types (Client → Server):
//   - ready: The page has rendered; confirms a pending push
//   - command: Execute a registry tool on behalf of the page
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - welcome: Sent once on attach, carries the page id
//   - event: Navigator event (created, opened, result, message, ...)
//   - response: Result of a command, correlated by request_id
//   - dismiss: The page was removed; the socket closes after it
//   - pong, error
//
// In client mode the Hub is also the navigator's SurfaceFactory: the page
// that issued a push receives the new page id and opens the view, which
// then connects and sends ready.
//
// Example Usage:
//
//	hub := ws.NewHub(cfg.Surface.OutboxSize, logger)
//	handler := ws.NewHandler(hub, nav, registry, ws.Options{}, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws

// Package types provides shared data structures for the navigator service.
//
// This package defines the types exchanged between the navigator core,
// the tool registry and the transports, so that every layer agrees on
// the same wire shape.
//
// Core Types:
//   - Page: One navigation stack entry
//   - Event: Notification delivered to a page's dispatcher
//   - StackStats: Navigator statistics
//   - Service, Tool, Parameter: Capability definitions
//   - Context: Execution context (caller page)
//   - Result: Standard operation result
//
// Request Types:
//   - ExecuteRequest: Tool execution over HTTP
//   - DiscoverRequest: Service discovery over HTTP
//   - TitleRequest: Title update over HTTP
//   - Frame: WebSocket frame
//
// Example Usage:
//
//	page := types.Page{
//	    ID:      "page_01J...",
//	    Locator: "page://settings",
//	    Title:   "Settings",
//	    Index:   1,
//	}
package types

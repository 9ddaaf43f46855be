package types

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID string                 `json:"tool_id" binding:"required"`
	Params map[string]interface{} `json:"params"`
	PageID *string                `json:"page_id,omitempty"`
}

// DiscoverRequest finds services for a free-text intent
type DiscoverRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit,omitempty"`
}

// TitleRequest updates a page title
type TitleRequest struct {
	Title string `json:"title"`
}

// FrameType names a WebSocket frame
type FrameType string

const (
	FrameReady    FrameType = "ready"
	FrameCommand  FrameType = "command"
	FramePing     FrameType = "ping"
	FramePong     FrameType = "pong"
	FrameEvent    FrameType = "event"
	FrameResponse FrameType = "response"
	FrameError    FrameType = "error"
	FrameDismiss  FrameType = "dismiss"
	FrameWelcome  FrameType = "welcome"
)

// Frame represents a WebSocket message in either direction
type Frame struct {
	Type      FrameType              `json:"type"`
	RequestID string                 `json:"request_id,omitempty"`
	ToolID    string                 `json:"tool_id,omitempty"`
	Params    map[string]interface{} `json:"params,omitempty"`
	PageID    string                 `json:"page_id,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Event     *Event                 `json:"event,omitempty"`
	Result    *Result                `json:"result,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Timestamp int64                  `json:"timestamp,omitempty"`
}

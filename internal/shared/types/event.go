package types

// EventType names a notification delivered to a page
type EventType string

const (
	EventCreated    EventType = "created"
	EventOpened     EventType = "opened"
	EventDestroyed  EventType = "destroyed"
	EventResult     EventType = "result"
	EventMessage    EventType = "message"
	EventPushFailed EventType = "push_failed"
)

// Event is delivered at most once per logical occurrence to a page's dispatcher.
//
// Page carries the subject of the event: the created page for created,
// the newly opened page for opened, the removed page for destroyed and
// the abandoned page for push_failed.
type Event struct {
	Type      EventType              `json:"type"`
	Target    string                 `json:"target"`
	Page      *Page                  `json:"page,omitempty"`
	From      *Page                  `json:"from,omitempty"`
	FromID    string                 `json:"from_id,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Result    map[string]interface{} `json:"result,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

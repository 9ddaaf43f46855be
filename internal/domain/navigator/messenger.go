package navigator

import (
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/types"
)

// Messenger delivers notifications and application messages to confirmed
// pages. It keeps no state of its own: every call resolves targets against
// the stack as it is at that moment.
type Messenger struct {
	stack   *PageStack
	logger  *zap.Logger
	metrics *monitoring.Metrics
	now     func() time.Time
}

// NewMessenger creates a messenger over stack
func NewMessenger(stack *PageStack, logger *zap.Logger) *Messenger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Messenger{
		stack:  stack,
		logger: logger,
		now:    time.Now,
	}
}

// WithMetrics adds metrics tracking to the messenger
func (m *Messenger) WithMetrics(metrics *monitoring.Metrics) *Messenger {
	m.metrics = metrics
	return m
}

func (m *Messenger) deliver(e *entry, event types.Event) bool {
	d := e.dispatcher()
	if d == nil {
		return false
	}

	event.Target = e.page.ID
	event.Timestamp = m.now().UnixMilli()
	if err := d.Deliver(event); err != nil {
		m.logger.Warn("Event delivery failed",
			zap.String("page_id", e.page.ID),
			zap.String("event", string(event.Type)),
			zap.Error(err),
		)
		m.metrics.RecordEvent(string(event.Type), false)
		return false
	}
	m.metrics.RecordEvent(string(event.Type), true)
	return true
}

func pageRef(p types.Page) *types.Page {
	return &p
}

// NotifyCreated tells a freshly promoted page it is live
func (m *Messenger) NotifyCreated(e *entry, launchPayload map[string]interface{}) bool {
	return m.deliver(e, types.Event{
		Type:    types.EventCreated,
		Page:    pageRef(e.page),
		Payload: launchPayload,
	})
}

// NotifyOpened tells the push initiator what was opened
func (m *Messenger) NotifyOpened(sourceID string, opened types.Page) bool {
	source, ok := m.stack.lookup(sourceID)
	if !ok {
		return false
	}
	return m.deliver(source, types.Event{
		Type: types.EventOpened,
		Page: pageRef(opened),
	})
}

// NotifyDestroyed tells a removed page to clean up, before its teardown
func (m *Messenger) NotifyDestroyed(e *entry) {
	m.deliver(e, types.Event{
		Type: types.EventDestroyed,
		Page: pageRef(e.page),
	})
}

// NotifyResult hands a pop result to the page that became current.
// Nothing is delivered when result is nil.
func (m *Messenger) NotifyResult(targetID string, from types.Page, result map[string]interface{}) bool {
	if result == nil {
		return false
	}
	target, ok := m.stack.lookup(targetID)
	if !ok {
		return false
	}
	return m.deliver(target, types.Event{
		Type:   types.EventResult,
		From:   pageRef(from),
		FromID: from.ID,
		Result: result,
	})
}

// NotifyPushFailed tells the push initiator that a pending page was abandoned
func (m *Messenger) NotifyPushFailed(sourceID string, page types.Page, reason string) bool {
	source, ok := m.stack.lookup(sourceID)
	if !ok {
		return false
	}
	return m.deliver(source, types.Event{
		Type:   types.EventPushFailed,
		Page:   pageRef(page),
		Reason: reason,
	})
}

func (m *Messenger) message(fromID string, payload map[string]interface{}) types.Event {
	event := types.Event{
		Type:    types.EventMessage,
		FromID:  fromID,
		Payload: payload,
	}
	if from, ok := m.stack.Get(fromID); ok {
		event.From = pageRef(from)
	}
	return event
}

// Send delivers payload to one confirmed page. It returns false when the
// target is not confirmed, which is an expected race rather than an error.
func (m *Messenger) Send(targetID, fromID string, payload map[string]interface{}) bool {
	target, ok := m.stack.lookup(targetID)
	if !ok {
		m.logger.Debug("Message target not confirmed",
			zap.String("target_id", targetID),
			zap.String("from_id", fromID),
		)
		m.metrics.RecordMessage("direct", false)
		return false
	}

	delivered := m.deliver(target, m.message(fromID, payload))
	m.metrics.RecordMessage("direct", delivered)
	return delivered
}

// Broadcast delivers payload to every confirmed page except the sender.
// Targets come from a snapshot; a page removed before its turn is skipped.
func (m *Messenger) Broadcast(fromID string, payload map[string]interface{}) int {
	event := m.message(fromID, payload)

	delivered := 0
	for _, page := range m.stack.All() {
		if page.ID == fromID {
			continue
		}
		target, ok := m.stack.lookup(page.ID)
		if !ok {
			continue
		}
		if m.deliver(target, event) {
			delivered++
		}
	}

	m.metrics.RecordBroadcast(delivered)
	return delivered
}

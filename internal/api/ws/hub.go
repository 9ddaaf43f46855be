package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/domain/navigator"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/types"
)

var (
	ErrOutboxFull      = errors.New("outbox full")
	ErrOutboxClosed    = errors.New("outbox closed")
	ErrUnknownPage     = errors.New("no surface for page")
	ErrAlreadyAttached = errors.New("page already has a connection")
)

// Surface is a page's WebSocket-backed surface. Frames are queued in a
// bounded outbox and written by whichever connection is attached; until a
// connection attaches they stay buffered.
type Surface struct {
	hub    *Hub
	pageID string
	frames chan types.Frame
	closed chan struct{}

	mu        sync.Mutex
	attached  bool
	closeOnce sync.Once
}

// Dispatcher returns the surface itself; it never blocks
func (s *Surface) Dispatcher() navigator.Dispatcher {
	return s
}

// Deliver queues an event frame
func (s *Surface) Deliver(event types.Event) error {
	return s.enqueue(types.Frame{
		Type:      types.FrameEvent,
		PageID:    event.Target,
		Event:     &event,
		Timestamp: event.Timestamp,
	})
}

// Teardown dismisses the page's connection and releases the outbox
func (s *Surface) Teardown(ctx context.Context) error {
	s.hub.release(s)
	return nil
}

// Release unbinds the outbox after the page was destroyed out of band and
// closes any attached connection
func (s *Surface) Release() {
	s.hub.release(s)
}

// PageID returns the page the surface is bound to
func (s *Surface) PageID() string {
	return s.pageID
}

// Closed is closed once the surface has been dismissed
func (s *Surface) Closed() <-chan struct{} {
	return s.closed
}

// Pending returns the number of queued frames
func (s *Surface) Pending() int {
	return len(s.frames)
}

func (s *Surface) enqueue(frame types.Frame) error {
	select {
	case <-s.closed:
		return ErrOutboxClosed
	default:
	}

	select {
	case s.frames <- frame:
		return nil
	default:
		return ErrOutboxFull
	}
}

func (s *Surface) dismiss() {
	s.closeOnce.Do(func() {
		// best effort: a full outbox loses the dismiss frame but the
		// closed channel still ends the connection
		select {
		case s.frames <- types.Frame{Type: types.FrameDismiss, PageID: s.pageID, Timestamp: time.Now().UnixMilli()}:
		default:
		}
		close(s.closed)
	})
}

func (s *Surface) attach() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return false
	}
	s.attached = true
	return true
}

func (s *Surface) detach() {
	s.mu.Lock()
	s.attached = false
	s.mu.Unlock()
}

// Hub owns the outboxes of all live pages. It doubles as the client-mode
// SurfaceFactory: the page that issued a push opens the new view itself
// and connects with the returned page id.
type Hub struct {
	mu       sync.RWMutex
	surfaces map[string]*Surface
	size     int
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewHub creates a hub whose outboxes hold up to size frames
func NewHub(size int, logger *zap.Logger) *Hub {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		surfaces: make(map[string]*Surface),
		size:     size,
		logger:   logger,
	}
}

// WithMetrics adds metrics tracking to the hub
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// NewSurface creates an outbox not yet bound to a page, for the root page
// whose id is only known after registration
func (h *Hub) NewSurface() *Surface {
	return &Surface{
		hub:    h,
		frames: make(chan types.Frame, h.size),
		closed: make(chan struct{}),
	}
}

// Bind makes s reachable under pageID
func (h *Hub) Bind(pageID string, s *Surface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.surfaces[pageID]; ok && old != s {
		old.dismiss()
	}
	s.pageID = pageID
	h.surfaces[pageID] = s
}

// Open creates and binds a surface for pageID
func (h *Hub) Open(pageID string) navigator.Surface {
	s := h.NewSurface()
	h.Bind(pageID, s)
	return s
}

// Create implements navigator.SurfaceFactory
func (h *Hub) Create(ctx context.Context, req navigator.SurfaceRequest) (navigator.Surface, error) {
	h.logger.Debug("Opening client surface",
		zap.String("page_id", req.PageID),
		zap.String("locator", req.Locator),
	)
	return h.Open(req.PageID), nil
}

// Get returns the surface bound to pageID
func (h *Hub) Get(pageID string) (*Surface, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.surfaces[pageID]
	return s, ok
}

// Attach claims the surface of pageID for one connection
func (h *Hub) Attach(pageID string) (*Surface, error) {
	s, ok := h.Get(pageID)
	if !ok {
		return nil, ErrUnknownPage
	}
	if !s.attach() {
		return nil, ErrAlreadyAttached
	}
	return s, nil
}

// Len returns the number of bound surfaces
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.surfaces)
}

// Close dismisses every surface
func (h *Hub) Close() {
	h.mu.Lock()
	surfaces := h.surfaces
	h.surfaces = make(map[string]*Surface)
	h.mu.Unlock()

	for _, s := range surfaces {
		s.dismiss()
	}
}

func (h *Hub) release(s *Surface) {
	h.mu.Lock()
	if current, ok := h.surfaces[s.pageID]; ok && current == s {
		delete(h.surfaces, s.pageID)
	}
	h.mu.Unlock()

	s.dismiss()
	h.logger.Debug("Surface released", zap.String("page_id", s.pageID))
}

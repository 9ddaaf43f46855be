package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/domain/navigator"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/utils"
)

// RootAlias lets the root page connect before it knows its own id
const RootAlias = "root"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	disconnectWait = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is enforced by the CORS middleware
	},
}

// Navigator is the part of the navigator the socket handler drives
type Navigator interface {
	Root(ctx context.Context) (types.Page, error)
	CompletePush(ctx context.Context, pageID string) (types.Page, error)
	SurfaceDestroyed(ctx context.Context, pageID string) (bool, error)
}

// Executor runs tool commands on behalf of a page
type Executor interface {
	Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error)
}

// Options tunes the socket handler
type Options struct {
	// DestroyOnDisconnect treats a dropped socket as the surface going away
	DestroyOnDisconnect bool
	// MaxPayloadBytes bounds inbound frames and command params
	MaxPayloadBytes int
}

// Handler manages page WebSocket connections
type Handler struct {
	hub       *Hub
	nav       Navigator
	exec      Executor
	validator *utils.PayloadValidator
	opts      Options
	tracer    *tracing.Tracer
	logger    *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, nav Navigator, exec Executor, opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		hub:       hub,
		nav:       nav,
		exec:      exec,
		validator: utils.NewPayloadValidator(opts.MaxPayloadBytes),
		opts:      opts,
		logger:    logger,
	}
}

// WithTracer traces command frames
func (h *Handler) WithTracer(tracer *tracing.Tracer) *Handler {
	h.tracer = tracer
	return h
}

// HandleConnection attaches a socket to a page's surface.
// The page is selected with ?page_id=<id|root>.
func (h *Handler) HandleConnection(c *gin.Context) {
	ctx := c.Request.Context()

	pageID := c.Query("page_id")
	if pageID == "" || pageID == RootAlias {
		root, err := h.nav.Root(ctx)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": navigator.Code(err)})
			return
		}
		pageID = root.ID
	}

	surface, err := h.hub.Attach(pageID)
	switch {
	case errors.Is(err, ErrUnknownPage):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "unknown_page_id"})
		return
	case errors.Is(err, ErrAlreadyAttached):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "already_attached"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		surface.detach()
		h.logger.Warn("WebSocket upgrade failed", zap.String("page_id", pageID), zap.Error(err))
		return
	}

	s := &session{
		id:      uuid.NewString(),
		pageID:  pageID,
		conn:    conn,
		surface: surface,
		done:    make(chan struct{}),
		logger:  h.logger.With(zap.String("page_id", pageID)),
	}
	s.logger = s.logger.With(zap.String("conn_id", s.id))

	h.hub.metrics.IncWSConnections()
	s.logger.Info("Page connected", zap.Int("buffered", surface.Pending()))

	if err := h.write(s, types.Frame{
		Type:      types.FrameWelcome,
		PageID:    pageID,
		Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		h.close(s)
		return
	}

	go h.writeLoop(s)
	h.readLoop(ctx, s)
	h.close(s)
}

// session is one socket attached to one surface
type session struct {
	id      string
	pageID  string
	conn    *websocket.Conn
	surface *Surface
	done    chan struct{}
	logger  *zap.Logger
}

func (h *Handler) readLoop(ctx context.Context, s *session) {
	if h.opts.MaxPayloadBytes > 0 {
		s.conn.SetReadLimit(int64(h.opts.MaxPayloadBytes) + 1024)
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame types.Frame
		if err := sonic.Unmarshal(data, &frame); err != nil {
			h.reply(s, errorFrame("", "malformed frame"))
			continue
		}
		h.hub.metrics.RecordWSMessage("in", string(frame.Type))

		switch frame.Type {
		case types.FrameReady:
			h.handleReady(ctx, s)
		case types.FrameCommand:
			h.handleCommand(ctx, s, frame)
		case types.FramePing:
			h.reply(s, types.Frame{Type: types.FramePong, Timestamp: time.Now().UnixMilli()})
		default:
			h.reply(s, errorFrame(frame.RequestID, "unknown frame type"))
		}
	}
}

func (h *Handler) handleReady(ctx context.Context, s *session) {
	page, err := h.nav.CompletePush(ctx, s.pageID)
	switch {
	case err == nil:
		s.logger.Debug("Page ready", zap.String("locator", page.Locator))
	case errors.Is(err, navigator.ErrUnknownPendingID):
		// already confirmed (root, reconnect) or discarded
	default:
		h.reply(s, errorFrame("", err.Error()))
	}
}

func (h *Handler) handleCommand(ctx context.Context, s *session, frame types.Frame) {
	if err := utils.ValidateToolID(frame.ToolID, "tool_id", true); err != nil {
		h.reply(s, errorFrame(frame.RequestID, err.Error()))
		return
	}
	if err := h.validator.Validate(frame.Params); err != nil {
		h.reply(s, responseFrame(frame.RequestID, &types.Result{
			Success: false,
			Error:   stringPtr(err.Error()),
			Code:    navigator.Code(navigator.ErrInvalidParams),
		}))
		return
	}

	ctx = tracing.WithTrace(ctx, tracing.TraceID(frame.TraceID))
	if h.tracer != nil {
		var span *tracing.Span
		span, ctx = h.tracer.StartSpan(ctx, "ws "+frame.ToolID)
		span.SetTag("page_id", s.pageID)
		defer h.tracer.Finish(span)
	}

	pageID := s.pageID
	result, err := h.exec.Execute(ctx, frame.ToolID, frame.Params, &types.Context{
		PageID:  &pageID,
		TraceID: string(tracing.GetTraceID(ctx)),
	})
	if result == nil {
		msg := "no result"
		if err != nil {
			msg = err.Error()
		}
		result = &types.Result{Success: false, Error: &msg, Code: "internal"}
	}

	h.reply(s, responseFrame(frame.RequestID, result))
}

// reply queues a frame behind any pending events so ordering is preserved
func (h *Handler) reply(s *session, frame types.Frame) {
	if err := s.surface.enqueue(frame); err != nil {
		s.logger.Debug("Dropping reply", zap.String("type", string(frame.Type)), zap.Error(err))
	}
}

func (h *Handler) writeLoop(s *session) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-s.surface.frames:
			if err := h.write(s, frame); err != nil {
				s.conn.Close()
				return
			}
		case <-s.surface.closed:
			h.drain(s)
			deadline := time.Now().Add(writeWait)
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "dismissed"), deadline)
			s.conn.Close()
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.conn.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (h *Handler) drain(s *session) {
	for {
		select {
		case frame := <-s.surface.frames:
			if err := h.write(s, frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (h *Handler) write(s *session, frame types.Frame) error {
	data, err := sonic.Marshal(frame)
	if err != nil {
		s.logger.Error("Failed to encode frame", zap.String("type", string(frame.Type)), zap.Error(err))
		return nil
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("WebSocket write failed", zap.Error(err))
		return err
	}
	h.hub.metrics.RecordWSMessage("out", string(frame.Type))
	return nil
}

func (h *Handler) close(s *session) {
	close(s.done)
	s.conn.Close()
	s.surface.detach()
	h.hub.metrics.DecWSConnections()

	select {
	case <-s.surface.closed:
		s.logger.Info("Page disconnected after dismissal")
		return
	default:
	}

	if !h.opts.DestroyOnDisconnect {
		s.logger.Info("Page disconnected", zap.Int("buffered", s.surface.Pending()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), disconnectWait)
	defer cancel()
	changed, err := h.nav.SurfaceDestroyed(ctx, s.pageID)
	if err != nil {
		s.logger.Warn("Failed to report destroyed surface", zap.Error(err))
		return
	}
	s.logger.Info("Page disconnected", zap.Bool("destroyed", changed))
}

func errorFrame(requestID, message string) types.Frame {
	return types.Frame{
		Type:      types.FrameError,
		RequestID: requestID,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	}
}

func responseFrame(requestID string, result *types.Result) types.Frame {
	return types.Frame{
		Type:      types.FrameResponse,
		RequestID: requestID,
		Result:    result,
		Timestamp: time.Now().UnixMilli(),
	}
}

func stringPtr(s string) *string {
	return &s
}

package surface

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/domain/navigator"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/tracing"
)

// Config configures the shell client
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit caps shell requests per second; zero is unlimited
	RateLimit float64
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold uint32
}

// DefaultConfig returns shell client defaults for baseURL
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:          baseURL,
		Timeout:          10 * time.Second,
		Retries:          3,
		RetryWaitMin:     100 * time.Millisecond,
		RetryWaitMax:     2 * time.Second,
		FailureThreshold: 5,
	}
}

// Outboxes opens the event channel of a page; the WebSocket hub serves it
type Outboxes interface {
	Open(pageID string) navigator.Surface
}

// Notifier learns about surfaces that failed after Create returned
type Notifier interface {
	SurfaceDestroyed(ctx context.Context, pageID string) (bool, error)
}

type createRequest struct {
	PageID   string                 `json:"page_id"`
	SourceID string                 `json:"source_id,omitempty"`
	Locator  string                 `json:"locator"`
	Title    string                 `json:"title,omitempty"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// Host builds page surfaces by asking a native shell to open a view.
// Events still travel over the page's WebSocket outbox; the shell only
// owns the window.
type Host struct {
	client   *resty.Client
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	outboxes Outboxes
	timeout  time.Duration

	mu       sync.RWMutex
	notifier Notifier

	wg      sync.WaitGroup
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewHost creates a host-mode surface factory
func NewHost(cfg Config, outboxes Outboxes, logger *zap.Logger) (*Host, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("surface host: base URL is required")
	}
	if outboxes == nil {
		return nil, errors.New("surface host: outboxes are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "AgentOS-Navigator/1.0").
		SetHeader("Content-Type", "application/json")
	client.JSONMarshal = sonic.Marshal
	client.JSONUnmarshal = sonic.Unmarshal

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	threshold := cfg.FailureThreshold
	breaker := resilience.New("surface-host", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Host{
		client:   client,
		limiter:  limiter,
		breaker:  breaker,
		outboxes: outboxes,
		timeout:  cfg.Timeout,
		logger:   logger,
	}, nil
}

// WithMetrics adds metrics tracking to the host
func (h *Host) WithMetrics(metrics *monitoring.Metrics) *Host {
	h.metrics = metrics
	return h
}

// SetNotifier wires failure reports, usually to the navigator built on this host
func (h *Host) SetNotifier(n Notifier) {
	h.mu.Lock()
	h.notifier = n
	h.mu.Unlock()
}

// BreakerState returns the shell circuit state
func (h *Host) BreakerState() resilience.State {
	return h.breaker.State()
}

// Create implements navigator.SurfaceFactory. The shell request runs in the
// background; a failure is reported through the notifier.
func (h *Host) Create(ctx context.Context, req navigator.SurfaceRequest) (navigator.Surface, error) {
	if h.breaker.State() == resilience.StateOpen {
		h.metrics.RecordSurfaceRequest("create", false)
		return nil, fmt.Errorf("%w: shell circuit open", navigator.ErrSurfaceFactoryUnavailable)
	}

	s := &hostSurface{
		host:   h,
		pageID: req.PageID,
		outbox: h.outboxes.Open(req.PageID),
	}

	body := createRequest{
		PageID:   req.PageID,
		SourceID: req.SourceID,
		Locator:  req.Locator,
		Title:    req.Title,
		Payload:  req.Payload,
	}
	traceID := tracing.GetTraceID(ctx)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.open(tracing.WithTrace(context.Background(), traceID), body)
	}()
	return s, nil
}

func (h *Host) open(ctx context.Context, body createRequest) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err := h.call(ctx, func(ctx context.Context) error {
		resp, err := h.request(ctx).SetBody(body).Post("/surfaces")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("shell rejected surface: %s", resp.Status())
		}
		return nil
	})
	h.metrics.RecordSurfaceRequest("create", err == nil)
	if err == nil {
		h.logger.Debug("Shell opened surface", zap.String("page_id", body.PageID))
		return
	}

	h.logger.Warn("Shell failed to open surface",
		zap.String("page_id", body.PageID),
		zap.String("locator", body.Locator),
		zap.Error(err),
	)

	h.mu.RLock()
	notifier := h.notifier
	h.mu.RUnlock()
	if notifier == nil {
		return
	}
	if _, err := notifier.SurfaceDestroyed(context.Background(), body.PageID); err != nil {
		h.logger.Debug("Failed to report surface failure", zap.String("page_id", body.PageID), zap.Error(err))
	}
}

func (h *Host) dismiss(ctx context.Context, pageID string) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err := h.call(ctx, func(ctx context.Context) error {
		resp, err := h.request(ctx).SetPathParam("page_id", pageID).Delete("/surfaces/{page_id}")
		if err != nil {
			return err
		}
		if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
			return fmt.Errorf("shell rejected dismissal: %s", resp.Status())
		}
		return nil
	})
	h.metrics.RecordSurfaceRequest("dismiss", err == nil)
	if err != nil {
		h.logger.Warn("Shell failed to dismiss surface", zap.String("page_id", pageID), zap.Error(err))
	}
}

// call runs fn under the rate limiter and circuit breaker
func (h *Host) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}
	return h.breaker.Do(ctx, fn)
}

func (h *Host) request(ctx context.Context) *resty.Request {
	return h.client.R().SetContext(ctx).SetHeaders(tracing.Headers(ctx))
}

// Close waits for in-flight shell requests
func (h *Host) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// hostSurface pairs a shell window with the page's event outbox
type hostSurface struct {
	host   *Host
	pageID string
	outbox navigator.Surface
}

func (s *hostSurface) Dispatcher() navigator.Dispatcher {
	return s.outbox.Dispatcher()
}

// Release frees the outbox of a window that is already gone
func (s *hostSurface) Release() {
	if r, ok := s.outbox.(navigator.Releaser); ok {
		r.Release()
	}
}

// Teardown releases the outbox at once and dismisses the window in the background
func (s *hostSurface) Teardown(ctx context.Context) error {
	err := s.outbox.Teardown(ctx)

	traceID := tracing.GetTraceID(ctx)
	s.host.wg.Add(1)
	go func() {
		defer s.host.wg.Done()
		s.host.dismiss(tracing.WithTrace(context.Background(), traceID), s.pageID)
	}()
	return err
}

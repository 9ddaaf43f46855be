package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/domain/navigator"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/domain/service"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/utils"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// PageNavigator is the navigator surface used by the REST API
type PageNavigator interface {
	GetPages(ctx context.Context) ([]types.Page, error)
	GetCurrentPage(ctx context.Context) (types.Page, error)
	SetTitle(ctx context.Context, pageID, title string) (types.Page, error)
	CompletePush(ctx context.Context, pageID string) (types.Page, error)
	SurfaceDestroyed(ctx context.Context, pageID string) (bool, error)
	Stats(ctx context.Context) (types.StackStats, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	nav      PageNavigator
	registry *service.Registry
	metrics  *HandlerMetrics
	logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(nav PageNavigator, registry *service.Registry, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		nav:      nav,
		registry: registry,
		metrics:  NewHandlerMetrics(nil),
		logger:   logger,
	}
}

// WithMetrics adds metrics tracking to the handlers
func (h *Handlers) WithMetrics(metrics *monitoring.Metrics) *Handlers {
	h.metrics = NewHandlerMetrics(metrics)
	return h
}

// Register mounts the REST routes
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/pages", h.ListPages)
	r.GET("/pages/current", h.CurrentPage)
	r.PUT("/pages/:id/title", h.SetTitle)
	r.POST("/pages/:id/ready", h.ReadyPage)
	r.DELETE("/pages/:id", h.DestroyPage)

	r.GET("/services", h.ListServices)
	r.POST("/services/discover", h.DiscoverServices)
	r.POST("/services/execute", h.ExecuteService)
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "AgentOS Navigator",
		"version": Version,
	})
}

// Health reports navigator and registry state
func (h *Handlers) Health(c *gin.Context) {
	stats, err := h.nav.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
			"code":   navigator.Code(err),
		})
		return
	}

	status := "healthy"
	if stats.RootID == "" {
		status = "starting"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           status,
		"navigator":        stats,
		"service_registry": h.registry.Stats(),
	})
}

// ListPages returns the stack snapshot, root first
func (h *Handlers) ListPages(c *gin.Context) {
	done := h.metrics.TrackPageOperation("get_pages")
	pages, err := h.nav.GetPages(c.Request.Context())
	done(err)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pages": pages,
		"count": len(pages),
	})
}

// CurrentPage returns the top of the stack
func (h *Handlers) CurrentPage(c *gin.Context) {
	done := h.metrics.TrackPageOperation("get_current_page")
	page, err := h.nav.GetCurrentPage(c.Request.Context())
	done(err)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"page": page})
}

// SetTitle updates a page title
func (h *Handlers) SetTitle(c *gin.Context) {
	pageID := c.Param("id")
	if err := utils.ValidateID(pageID, "page_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_params"})
		return
	}

	var req types.TitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_params"})
		return
	}
	if err := utils.ValidateString(req.Title, "title", 0, utils.MaxTitleLength, false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_params"})
		return
	}

	done := h.metrics.TrackPageOperation("set_title")
	page, err := h.nav.SetTitle(c.Request.Context(), pageID, req.Title)
	done(err)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"page": page})
}

// ReadyPage confirms a pending push for pages that cannot hold a socket
func (h *Handlers) ReadyPage(c *gin.Context) {
	pageID := c.Param("id")
	if err := utils.ValidateID(pageID, "page_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_params"})
		return
	}

	done := h.metrics.TrackPageOperation("complete_push")
	page, err := h.nav.CompletePush(c.Request.Context(), pageID)
	done(err)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"page": page})
}

// DestroyPage reports that a page's surface went away out of band
func (h *Handlers) DestroyPage(c *gin.Context) {
	pageID := c.Param("id")
	if err := utils.ValidateID(pageID, "page_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_params"})
		return
	}

	done := h.metrics.TrackPageOperation("surface_destroyed")
	changed, err := h.nav.SurfaceDestroyed(c.Request.Context(), pageID)
	done(err)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page_id": pageID,
		"changed": changed,
	})
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	done := h.metrics.TrackServiceOperation("list")
	defer done()

	var category *types.Category
	if raw := c.Query("category"); raw != "" {
		cat := types.Category(raw)
		if cat != types.CategoryNavigation && cat != types.CategorySystem {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + raw, "code": "invalid_params"})
			return
		}
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// DiscoverServices finds services relevant to a query
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req types.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_params"})
		return
	}
	if err := utils.ValidateString(req.Query, "query", 1, 1000, true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_params"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	done := h.metrics.TrackServiceOperation("discover")
	services := h.registry.Discover(req.Query, req.Limit)
	done()

	c.JSON(http.StatusOK, gin.H{
		"query":    req.Query,
		"services": services,
	})
}

// ExecuteService executes a service tool on behalf of a page
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_params"})
		return
	}
	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_params"})
		return
	}

	var appCtx *types.Context
	if req.PageID != nil {
		if err := utils.ValidateID(*req.PageID, "page_id", false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_params"})
			return
		}
		appCtx = &types.Context{PageID: req.PageID}
	}

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	if err != nil {
		status := http.StatusInternalServerError
		if result != nil {
			switch result.Code {
			case "invalid_params":
				status = http.StatusBadRequest
			case "unknown_service":
				status = http.StatusNotFound
			}
		}
		h.logger.Warn("Service execution failed", zap.String("tool", req.ToolID), zap.Error(err))
		if result == nil {
			c.JSON(status, gin.H{"error": err.Error(), "code": "internal"})
			return
		}
		c.JSON(status, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// StatusFor maps a navigator error to an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, navigator.ErrInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, navigator.ErrUnknownPageID), errors.Is(err, navigator.ErrUnknownPendingID):
		return http.StatusNotFound
	case errors.Is(err, navigator.ErrAlreadyAtRoot),
		errors.Is(err, navigator.ErrAlreadyInitialized),
		errors.Is(err, navigator.ErrPushCancelled):
		return http.StatusConflict
	case errors.Is(err, navigator.ErrSurfaceFactoryUnavailable),
		errors.Is(err, navigator.ErrNotInitialized),
		errors.Is(err, navigator.ErrNavigatorClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, navigator.ErrSurfaceFailed):
		return http.StatusBadGateway
	case errors.Is(err, navigator.ErrPushTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(StatusFor(err), gin.H{
		"error": err.Error(),
		"code":  navigator.Code(err),
	})
}

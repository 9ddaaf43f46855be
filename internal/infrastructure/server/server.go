package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/navigator/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/domain/navigator"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/domain/service"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/domain/surface"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/tracing"
	navprovider "github.com/GriffinCanCode/AgentOS/navigator/internal/providers/navigator"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/utils"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	nav      *navigator.Navigator
	hub      *ws.Hub
	host     *surface.Host
	registry *service.Registry
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing navigator server",
		zap.String("port", cfg.Server.Port),
		zap.String("surface_mode", cfg.Surface.Mode),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("navigator", logger.Component("tracing"))

	hub := ws.NewHub(cfg.Navigator.OutboxSize, logger.Component("hub")).WithMetrics(metrics)

	var (
		factory navigator.SurfaceFactory
		host    *surface.Host
	)
	switch cfg.Surface.Mode {
	case config.SurfaceModeClient:
		factory = hub
	case config.SurfaceModeHost:
		hostCfg := surface.DefaultConfig(cfg.Surface.HostURL)
		hostCfg.Timeout = cfg.Surface.Timeout.Std()
		hostCfg.Retries = cfg.Surface.Retries
		host, err = surface.NewHost(hostCfg, hub, logger.Component("surface"))
		if err != nil {
			return nil, err
		}
		host.WithMetrics(metrics)
		factory = host
		logger.Info("Surfaces hosted by native shell", zap.String("url", cfg.Surface.HostURL))
	case config.SurfaceModeNone:
		logger.Warn("No surface factory configured; push will be unavailable")
	}

	nav, err := navigator.New(factory, navigator.Config{
		PendingTimeout:  cfg.Navigator.PendingTimeout.Std(),
		AllowedLocators: cfg.Navigator.AllowedLocators,
	}, logger.Component("navigator"))
	if err != nil {
		return nil, err
	}
	nav.WithMetrics(metrics)
	if host != nil {
		host.SetNotifier(nav)
	}

	rootSurface := hub.NewSurface()
	root, err := nav.RegisterRoot(context.Background(), rootSurface, cfg.Navigator.RootLocator, cfg.Navigator.RootTitle)
	if err != nil {
		nav.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to register root page: %w", err)
	}
	hub.Bind(root.ID, rootSurface)

	registry := service.NewRegistry(logger.Component("registry")).WithMetrics(metrics)
	validator := utils.NewPayloadValidator(cfg.Navigator.MaxPayloadBytes)
	if err := registry.Register(navprovider.NewProvider(nav, validator, logger.Component("provider"))); err != nil {
		nav.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to register navigator provider: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.RequestLogger(logger.Component("http")))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rateCfg := middleware.DefaultRateLimitConfig()
		rateCfg.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rateCfg.Burst = cfg.RateLimit.Burst
		rateCfg.SkipPaths = []string{"/stream", "/metrics"}
		router.Use(middleware.RateLimit(rateCfg))
	}

	handlers := apihttp.NewHandlers(nav, registry, logger.Component("http")).WithMetrics(metrics)
	handlers.Register(router)

	wsHandler := ws.NewHandler(hub, nav, registry, ws.Options{
		DestroyOnDisconnect: cfg.Navigator.DestroyOnDisconnect,
		MaxPayloadBytes:     cfg.Navigator.MaxPayloadBytes,
	}, logger.Component("ws")).WithTracer(tracer)
	router.GET("/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/metrics/json", func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.GetSnapshot())
	})

	logger.Info("Server initialized successfully",
		zap.String("root_id", root.ID),
		zap.String("root_locator", root.Locator),
	)

	return &Server{
		router:   router,
		nav:      nav,
		hub:      hub,
		host:     host,
		registry: registry,
		tracer:   tracer,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Navigator returns the server's navigator
func (s *Server) Navigator() *navigator.Navigator {
	return s.nav
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server. Pending pages are abandoned and
// every connected page is dismissed.
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}

	s.nav.Shutdown(ctx)
	s.hub.Close()

	if s.host != nil {
		if err := s.host.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("surface host: %w", err))
		}
	}
	s.tracer.Close()

	_ = s.logger.Sync()
	return errors.Join(errs...)
}

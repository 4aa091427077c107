package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/agentops/console/internal/infrastructure/eventbus"
	"github.com/agentops/console/internal/infrastructure/monitoring"
	"github.com/agentops/console/internal/interfaces/http/handlers"
	"github.com/agentops/console/internal/interfaces/websocket"
	"github.com/agentops/console/pkg/safego"
)

// Server is the browser console.
type Server struct {
	server *http.Server
	router *gin.Engine
	hub    *websocket.Hub
	bus    eventbus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
	detach func()
}

// Config is the listener configuration.
type Config struct {
	Host string
	Port int
	Mode string // local, production
}

// Deps are the services the console pages drive.
type Deps struct {
	Agents    handlers.AgentService
	Workflows handlers.WorkflowService
	Settings  handlers.SettingsService
	Dashboard handlers.DashboardService
	Health    handlers.HealthChecker // optional
	Bus       eventbus.Bus           // optional, feeds /ws/activity
	Monitor   *monitoring.Monitor    // optional, served at /metrics
	NoticeTTL func() time.Duration
}

// NewServer builds the router. Templates are parsed here, so a broken
// template fails startup rather than the first request.
func NewServer(cfg Config, deps Deps, logger *zap.Logger) (*Server, error) {
	if cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
	}

	pages, err := handlers.NewPages(deps.NoticeTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logger, deps.Monitor))
	router.Use(secureHeaders(cfg.Mode != "production"))

	hub := websocket.NewHub(logger)
	setupRoutes(router, routeHandlers{
		dashboard: handlers.NewDashboardHandler(deps.Dashboard, pages),
		agents:    handlers.NewAgentHandler(deps.Agents, pages, logger),
		workflows: handlers.NewWorkflowHandler(deps.Workflows, pages, logger),
		settings:  handlers.NewSettingsHandler(deps.Settings, pages, logger),
		health:    handlers.NewHealthHandler(deps.Health),
		ws:        websocket.NewHandler(hub, logger),
	})
	if deps.Monitor != nil {
		router.GET("/metrics", gin.WrapH(deps.Monitor.PrometheusHandler()))
	}

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: router,
		hub:    hub,
		bus:    deps.Bus,
		logger: logger,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the websocket hub and the listener.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	hubCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	safego.Go(s.logger, "ws-hub", func() { s.hub.Run(hubCtx) })
	if s.bus != nil {
		s.detach = s.hub.Attach(s.bus)
	}

	safego.Go(s.logger, "http-server", func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	})

	return nil
}

// Stop shuts the listener down and closes websocket clients.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	if s.detach != nil {
		s.detach()
	}
	if s.cancel != nil {
		s.cancel()
	}
	return s.server.Shutdown(ctx)
}

type routeHandlers struct {
	dashboard *handlers.DashboardHandler
	agents    *handlers.AgentHandler
	workflows *handlers.WorkflowHandler
	settings  *handlers.SettingsHandler
	health    *handlers.HealthHandler
	ws        *websocket.Handler
}

func setupRoutes(router *gin.Engine, h routeHandlers) {
	router.GET("/health", h.health.Health)
	router.GET("/", h.dashboard.Show)

	agents := router.Group("/agents")
	{
		agents.GET("", h.agents.List)
		agents.GET("/new", h.agents.New)
		agents.POST("", h.agents.Create)
		agents.GET("/:id/edit", h.agents.Edit)
		agents.POST("/:id", h.agents.Update)
		agents.GET("/:id/delete", h.agents.ConfirmDelete)
		agents.POST("/:id/delete", h.agents.Delete)
	}

	workflows := router.Group("/workflows")
	{
		workflows.GET("", h.workflows.List)
		workflows.GET("/new", h.workflows.New)
		workflows.POST("", h.workflows.Create)
		workflows.GET("/:id/delete", h.workflows.ConfirmDelete)
		workflows.POST("/:id/delete", h.workflows.Delete)
		workflows.POST("/:id/run", h.workflows.Run)
	}

	router.GET("/settings", h.settings.Show)
	router.POST("/settings", h.settings.Save)

	router.GET("/ws/activity", gin.WrapF(h.ws.ServeWS))
}

// secureHeaders sets the browser hardening headers. Inline styles and the
// page script are allowed; connections are limited to this origin.
func secureHeaders(dev bool) gin.HandlerFunc {
	mw := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "same-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:",
		IsDevelopment:         dev,
	})
	return func(c *gin.Context) {
		if err := mw.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	}
}

// ginLogger logs each request and records it on monitor when set.
func ginLogger(logger *zap.Logger, monitor *monitoring.Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		if monitor != nil {
			monitor.RecordRequest(statusCode, latency)
		}

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}

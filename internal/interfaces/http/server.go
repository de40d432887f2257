// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-approval/internal/application/service"
	"github.com/garyjia/travel-approval/internal/application/workflow"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// HealthReporter reports component health for the health endpoint
type HealthReporter interface {
	Healthy() (bool, interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server over the workflow and its services.
// health may be nil.
func NewServer(
	config ServerConfig,
	engine workflow.Workflow,
	notifications service.NotificationService,
	exports service.ExportService,
	health HealthReporter,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(engine, notifications, exports, health, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		fields := []interface{}{
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if actorID, ok := c.Get(actorKey); ok {
			fields = append(fields, "actor_id", actorID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}
		s.logger.Info("HTTP request", fields...)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api/v1", h.requireActor)
	{
		requests := api.Group("/requests")
		requests.POST("", h.CreateRequest)
		requests.GET("/:id", h.GetRequest)
		requests.PUT("/:id", h.EditRequest)
		requests.POST("/:id/submit", h.SubmitRequest)
		requests.POST("/:id/approve", h.ApproveRequest)
		requests.POST("/:id/reject", h.RejectRequest)
		requests.POST("/:id/return", h.ReturnForReview)
		requests.POST("/:id/close", h.CloseRequest)
		requests.POST("/:id/select-ticket", h.SelectTicketOption)
		requests.GET("/:id/ticket-options", h.GetTicketOptions)
		requests.POST("/:id/ticket-options", h.AddTicketOption)
		requests.GET("/:id/approvals", h.GetApprovals)
		requests.GET("/:id/audit-logs", h.GetRequestAuditLogs)
		requests.GET("/:id/audit-logs/export", h.ExportRequestAuditLog)
		requests.GET("/:id/next-approver", h.GetNextApprover)
		requests.GET("/:id/can-act", h.CanUserActOnRequest)

		me := api.Group("/me")
		me.GET("/requests", h.GetUserRequests)
		me.GET("/pending-approvals", h.GetPendingApprovals)
		me.GET("/notifications", h.GetUserNotifications)
		me.POST("/notifications/:id/read", h.MarkNotificationRead)

		api.GET("/audit-logs/export", h.ExportAllAuditLogs)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Package http provides the HTTP adapter over the approval engine. It is a
// thin layer: requests are translated to orchestrator and service calls, and
// typed domain errors are translated to status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keystonepm/approvalflow/internal/application/delegation"
	"github.com/keystonepm/approvalflow/internal/application/orchestrator"
	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	identity   port.IdentityProvider
	logger     Logger
}

// NewServer creates a new HTTP server over the given application components.
func NewServer(
	config ServerConfig,
	orch *orchestrator.Orchestrator,
	documents service.DocumentService,
	audit service.AuditService,
	admin service.WorkflowAdminService,
	authority *delegation.Authority,
	identity port.IdentityProvider,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(orch, documents, audit, admin, authority, logger),
		identity: identity,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()
	return server
}

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

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	api := s.router.Group("/api")
	api.Use(s.identityMiddleware())
	{
		api.POST("/purchase-orders", s.handlers.CreatePurchaseOrder)
		api.POST("/invoices", s.handlers.UploadInvoice)
		api.GET("/documents", s.handlers.ListDocuments)
		api.GET("/documents/:id", s.handlers.GetDocument)
		api.GET("/documents/:id/trail", s.handlers.GetTrail)

		api.POST("/documents/:id/submit", s.handlers.Submit)
		api.POST("/documents/:id/approve", s.handlers.Approve)
		api.POST("/documents/:id/reject", s.handlers.Reject)
		api.POST("/documents/:id/cancel", s.handlers.Cancel)
		api.POST("/documents/:id/resubmit", s.handlers.Resubmit)
		api.POST("/documents/:id/match", s.handlers.MatchInvoice)
		api.POST("/documents/:id/pay", s.handlers.MarkPaid)

		api.POST("/delegations", s.handlers.CreateDelegation)
		api.GET("/delegations", s.handlers.ListDelegations)
		api.DELETE("/delegations/:id", s.handlers.RevokeDelegation)

		api.POST("/workflows", s.handlers.CreateWorkflow)
		api.GET("/workflows", s.handlers.ListWorkflows)
		api.GET("/workflows/:id", s.handlers.GetWorkflow)
		api.PUT("/workflows/:id", s.handlers.UpdateWorkflow)
		api.DELETE("/workflows/:id", s.handlers.DeleteWorkflow)

		api.GET("/settings", s.handlers.GetSettings)
		api.PUT("/settings", s.handlers.UpdateSettings)
	}
}

// identityMiddleware resolves the acting principal from the X-User-ID header.
// Authentication happens upstream; an unknown or missing id is rejected.
func (s *Server) identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing X-User-ID header",
			})
			return
		}

		principal, err := s.identity.PrincipalByID(c.Request.Context(), userID)
		if err != nil {
			s.logger.Error("Unknown principal", "user_id", userID, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "unknown principal",
			})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
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

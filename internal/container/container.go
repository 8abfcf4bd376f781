// Package container assembles the application: ordered initialization,
// reverse-order teardown, and accessors for the composed components.
package container

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/keystonepm/approvalflow/internal/application/delegation"
	"github.com/keystonepm/approvalflow/internal/application/dispatcher"
	"github.com/keystonepm/approvalflow/internal/application/orchestrator"
	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/application/resolver"
	"github.com/keystonepm/approvalflow/internal/application/service"
	"github.com/keystonepm/approvalflow/internal/application/sideeffect"
	"github.com/keystonepm/approvalflow/internal/application/workflow"
	"github.com/keystonepm/approvalflow/pkg/database"
)

// Container manages all application dependencies and lifecycle.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	db           *database.DB
	repositories *RepositoryBundle
	identity     port.IdentityProvider
	notifier     port.NotificationDispatcher
	generator    port.DocumentGenerator

	// Application
	authority    *delegation.Authority
	resolver     *resolver.Resolver
	guard        *workflow.Guard
	dispatcher   dispatcher.Dispatcher
	orchestrator *orchestrator.Orchestrator
	services     *ServiceBundle

	// Lifecycle
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Documents     port.DocumentRepository
	Logs          port.LogRepository
	Settings      port.SettingsRepository
	Workflows     port.WorkflowRepository
	Delegations   port.DelegationRepository
	Principals    port.PrincipalRepository
	Notifications port.NotificationRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Documents service.DocumentService
	Audit     service.AuditService
	Admin     service.WorkflowAdminService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration. Call Start to
// initialize components.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Container{config: cfg, logger: logger}, nil
}

// Start initializes all components in dependency order:
// 1. Database, migrations, repositories
// 2. Infrastructure adapters (identity, notifications, document generation)
// 3. Engine core (delegation authority, resolver, guard)
// 4. Dispatcher, side-effect handlers, orchestrator
// 5. Application services
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	if err := c.initAdapters(); err != nil {
		return fmt.Errorf("failed to initialize adapters: %w", err)
	}
	c.logger.Info("Infrastructure adapters initialized")

	c.initEngine()
	c.logger.Info("Approval engine initialized")

	c.initDispatcherAndOrchestrator()
	c.logger.Info("Dispatcher and orchestrator initialized")

	c.initServices()
	c.logger.Info("Application services initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error
	if c.cancel != nil {
		c.cancel()
	}

	// Dispatcher first so in-flight side effects drain before the database
	// goes away.
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		return fmt.Errorf("container closed with %d errors", len(errs))
	}
	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.db != nil {
		if err := c.db.Ping(); err != nil {
			status.Components["database"] = ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.orchestrator != nil {
		status.Components["orchestrator"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["orchestrator"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	return status
}

func (c *Container) initDatabase() error {
	db, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.db = db

	migrator := database.NewMigrator(db, c.logger)
	if err := migrator.Run(); err != nil {
		db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	c.repositories = ProvideRepositories(db.DB, c.logger)
	return nil
}

func (c *Container) initAdapters() error {
	if err := os.MkdirAll(c.config.Docgen.OutputDir, 0755); err != nil {
		return fmt.Errorf("create docgen output directory: %w", err)
	}

	c.identity = ProvideIdentityProvider(c.repositories)
	c.notifier = ProvideNotificationDispatcher(&c.config.Notification, c.repositories, c.logger)
	c.generator = ProvideDocumentGenerator(&c.config.Docgen, c.repositories, c.logger)
	return nil
}

func (c *Container) initEngine() {
	c.authority = ProvideAuthority(c.repositories, c.logger)
	c.resolver = ProvideResolver(c.repositories)
	c.guard = ProvideGuard(c.resolver, c.authority, c.repositories)
}

func (c *Container) initDispatcherAndOrchestrator() {
	c.dispatcher = ProvideDispatcher(c.logger)

	handlers := sideeffect.NewHandlers(c.identity, c.authority, c.notifier, c.generator, newLoggerAdapter(c.logger))
	handlers.Register(c.dispatcher)

	c.orchestrator = ProvideOrchestrator(c.repositories, c.guard, c.dispatcher, c.logger)
}

func (c *Container) initServices() {
	c.services = ProvideServices(c.repositories, c.logger)
}

// Accessors

// DB returns the database handle.
func (c *Container) DB() *database.DB {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Identity returns the identity provider.
func (c *Container) Identity() port.IdentityProvider {
	return c.identity
}

// Authority returns the delegation authority.
func (c *Container) Authority() *delegation.Authority {
	return c.authority
}

// Orchestrator returns the approval orchestrator.
func (c *Container) Orchestrator() *orchestrator.Orchestrator {
	return c.orchestrator
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// loggerAdapter bridges zap.Logger to the keysAndValues Logger interfaces
// the application packages declare.
type loggerAdapter struct {
	logger *zap.Logger
}

func newLoggerAdapter(logger *zap.Logger) *loggerAdapter {
	return &loggerAdapter{logger: logger}
}

func (a *loggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *loggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

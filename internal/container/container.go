package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/application/service"
	"github.com/garyjia/travel-approval/internal/application/workflow"
	"github.com/garyjia/travel-approval/internal/infrastructure/authz"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/travel-approval/pkg/database"
	"go.uber.org/zap"
)

// Container owns the travel workflow's dependencies.
// Start brings components up in dependency order and Close tears them down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	database     *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - External
	notifications *NotificationBundle
	exports       *ExportBundle
	policy        *authz.Policy

	// Application
	dispatcher dispatcher.Dispatcher
	workflow   workflow.Workflow
	services   *ServiceBundle

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle holds the SQLite-backed repositories.
type RepositoryBundle struct {
	Request      port.RequestRepository
	Approval     port.ApprovalRepository
	TicketOption port.TicketOptionRepository
	AuditLog     port.AuditLogRepository
	Notification port.NotificationRepository
	User         *repository.UserRepository
}

// ServiceBundle groups the application services around the workflow.
type ServiceBundle struct {
	Notification service.NotificationService
	Export       service.ExportService
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

// NewContainer validates cfg. Components are built by Start.
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

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database and repositories
// 2. Notification channels, operation policy and export
// 3. Event dispatcher and workflow engine
// 4. Application services, subscribed to the dispatcher
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	if err := c.initExternal(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize external components: %w", err)
	}
	c.logger.Info("External components initialized",
		zap.Bool("lark", c.notifications.Notifier != nil),
		zap.Bool("openai", c.notifications.Composer != nil))

	if err := c.initDispatcherAndWorkflow(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize dispatcher and workflow: %w", err)
	}
	c.logger.Info("Dispatcher and workflow engine initialized")

	if err := c.initServices(); err != nil {
		_ = c.dispatcher.Close()
		c.closeDatabase()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close drains the dispatcher before closing the database.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Drain in-flight notification handlers before the database goes away
	if c.dispatcher != nil {
		if c.services != nil {
			c.services.Notification.Unsubscribe(c.dispatcher)
		}
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.database != nil {
		if err := c.database.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready reports whether Start completed.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health pings the database and reports each component.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.database != nil {
		if err := c.database.Ping(); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
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

	if c.workflow != nil {
		status.Components["workflow"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["workflow"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	// Optional integrations report their mode without affecting overall health
	if c.notifications != nil {
		status.Components["lark"] = optionalHealth(c.notifications.Notifier != nil)
		status.Components["openai"] = optionalHealth(c.notifications.Composer != nil)
	}

	return status
}

func optionalHealth(enabled bool) ComponentHealth {
	if enabled {
		return ComponentHealth{Healthy: true}
	}
	return ComponentHealth{Healthy: true, Message: "disabled"}
}

// initDatabase opens and migrates the database and creates repositories.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.database = dbBundle.DB
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.database.DB, c.logger)
	if err != nil {
		c.closeDatabase()
		return err
	}

	c.repositories = repos
	return nil
}

// initExternal creates the notification channels, operation policy and export components.
func (c *Container) initExternal() error {
	notifications, err := ProvideNotificationChannels(&c.config.Lark, &c.config.OpenAI, c.logger)
	if err != nil {
		return err
	}
	c.notifications = notifications

	policy, err := ProvidePolicy(&c.config.Workflow, c.logger)
	if err != nil {
		return err
	}
	c.policy = policy

	exports, err := ProvideExport(&c.config.Export, c.logger)
	if err != nil {
		return err
	}
	c.exports = exports
	return nil
}

// initDispatcherAndWorkflow initializes the event dispatcher and workflow engine.
func (c *Container) initDispatcherAndWorkflow() error {
	disp, err := ProvideDispatcher(&c.config.Workflow, c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	engine, err := ProvideWorkflow(&WorkflowDeps{
		Repos:      c.repositories,
		TxManager:  c.db,
		Dispatcher: c.dispatcher,
		Policy:     c.policy,
		Config:     &c.config.Workflow,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.workflow = engine
	return nil
}

// initServices creates services and subscribes notifications to the dispatcher.
func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:         c.repositories,
		Notifications: c.notifications,
		Export:        c.exports,
		Policy:        c.policy,
		Dispatcher:    c.dispatcher,
		Logger:        c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services
	return nil
}

func (c *Container) closeDatabase() {
	if c.database == nil {
		return
	}
	if err := c.database.Close(); err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
	}
	c.database = nil
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Workflow returns the approval workflow engine.
func (c *Container) Workflow() workflow.Workflow {
	return c.workflow
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Policy returns the operation policy.
func (c *Container) Policy() *authz.Policy {
	return c.policy
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// LoggerAdapter adapts zap to the key/value Logger interfaces of the application layer.
type LoggerAdapter struct {
	sugar *zap.SugaredLogger
}

// NewLoggerAdapter wraps logger for packages that take a key/value Logger.
func NewLoggerAdapter(logger *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (a *LoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.sugar.Infow(msg, keysAndValues...)
}

func (a *LoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.sugar.Errorw(msg, keysAndValues...)
}

var (
	_ service.Logger    = (*LoggerAdapter)(nil)
	_ workflow.Logger   = (*LoggerAdapter)(nil)
	_ dispatcher.Logger = (*LoggerAdapter)(nil)
)

// Healthy reports overall health and per-component detail for the health endpoint.
func (c *Container) Healthy() (bool, interface{}) {
	status := c.Health()
	return status.Overall, status.Components
}

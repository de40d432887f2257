package container

import (
	"database/sql"
	"fmt"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/application/service"
	"github.com/garyjia/travel-approval/internal/application/workflow"
	"github.com/garyjia/travel-approval/internal/infrastructure/authz"
	"github.com/garyjia/travel-approval/internal/infrastructure/export"
	infraLark "github.com/garyjia/travel-approval/internal/infrastructure/external/lark"
	"github.com/garyjia/travel-approval/internal/infrastructure/external/openai"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/travel-approval/internal/infrastructure/storage"
	"github.com/garyjia/travel-approval/internal/migrations"
	"github.com/garyjia/travel-approval/pkg/database"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// NotificationBundle holds the optional delivery channel and composer.
// Either field is nil when its integration is disabled.
type NotificationBundle struct {
	Notifier port.Notifier
	Composer port.MessageComposer
}

// ExportBundle holds audit export components.
type ExportBundle struct {
	Renderer port.AuditRenderer
	Storage  port.ExportStorage
}

// ProvideDatabase opens the database and applies pending migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(db, logger).Run(migrations.FS)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if applied > 0 {
		logger.Info("Applied migrations", zap.Int("count", applied))
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Request:      repository.NewRequestRepository(sqlDB, logger),
		Approval:     repository.NewApprovalRepository(sqlDB, logger),
		TicketOption: repository.NewTicketOptionRepository(sqlDB, logger),
		AuditLog:     repository.NewAuditLogRepository(sqlDB, logger),
		Notification: repository.NewNotificationRepository(sqlDB, logger),
		User:         repository.NewUserRepository(sqlDB, logger),
	}, nil
}

// ProvideNotificationChannels creates the Lark messenger and OpenAI composer when enabled.
func ProvideNotificationChannels(larkCfg *LarkConfig, openaiCfg *OpenAIConfig, logger *zap.Logger) (*NotificationBundle, error) {
	if larkCfg == nil || openaiCfg == nil {
		return nil, fmt.Errorf("lark and openai config are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	bundle := &NotificationBundle{}

	if larkCfg.Enabled {
		client := infraLark.NewClient(infraLark.Config{
			AppID:     larkCfg.AppID,
			AppSecret: larkCfg.AppSecret,
		}, logger)
		bundle.Notifier = infraLark.NewMessenger(client, logger)
	} else {
		logger.Info("Lark delivery disabled, notifications are stored only")
	}

	if openaiCfg.Enabled {
		prompts := openai.DefaultPrompts()
		if openaiCfg.PromptsPath != "" {
			loaded, err := openai.LoadPrompts(openaiCfg.PromptsPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load prompts: %w", err)
			}
			prompts = loaded
		}
		bundle.Composer = openai.NewComposer(openai.Config{
			APIKey:  openaiCfg.APIKey,
			BaseURL: openaiCfg.BaseURL,
			Model:   openaiCfg.Model,
			Timeout: openaiCfg.Timeout,
		}, prompts, logger)
	}

	return bundle, nil
}

// ProvidePolicy loads the operation policy for administrative operations.
func ProvidePolicy(cfg *WorkflowConfig, logger *zap.Logger) (*authz.Policy, error) {
	if cfg == nil {
		return nil, fmt.Errorf("workflow config is required")
	}
	return authz.NewPolicy(cfg.PolicyPath, logger)
}

// ProvideExport creates the workbook renderer and export storage.
func ProvideExport(cfg *ExportConfig, logger *zap.Logger) (*ExportBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("export config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &ExportBundle{
		Renderer: export.NewAuditWorkbook(cfg.FontName, logger),
		Storage:  storage.NewLocalFileStorage(cfg.OutputDir, logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(cfg *WorkflowConfig, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := []dispatcher.Option{dispatcher.WithLogger(NewLoggerAdapter(logger.Named("dispatcher")))}
	if cfg != nil && cfg.MaxConcurrentHandlers > 0 {
		opts = append(opts, dispatcher.WithMaxConcurrent(cfg.MaxConcurrentHandlers))
	}
	return dispatcher.NewDispatcher(opts...), nil
}

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Policy     port.OperationPolicy
	Config     *WorkflowConfig
	Logger     *zap.Logger
}

// ProvideWorkflow creates the approval workflow engine.
func ProvideWorkflow(deps *WorkflowDeps) (workflow.Workflow, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	store := workflow.Store{
		Requests:      deps.Repos.Request,
		Approvals:     deps.Repos.Approval,
		TicketOptions: deps.Repos.TicketOption,
		AuditLogs:     deps.Repos.AuditLog,
		Notifications: deps.Repos.Notification,
		Tx:            deps.TxManager,
	}

	opts := []workflow.Option{
		workflow.WithLogger(NewLoggerAdapter(deps.Logger.Named("workflow"))),
	}
	if deps.Dispatcher != nil {
		opts = append(opts, workflow.WithDispatcher(deps.Dispatcher))
	}
	if deps.Policy != nil {
		opts = append(opts, workflow.WithOperationPolicy(deps.Policy))
	}
	if deps.Config != nil {
		opts = append(opts, workflow.WithAuthorizationMode(deps.Config.AuthorizationMode))
		if deps.Config.LockShards > 0 {
			opts = append(opts, workflow.WithLockShards(deps.Config.LockShards))
		}
	}

	return workflow.NewService(store, deps.Repos.User, opts...), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos         *RepositoryBundle
	Notifications *NotificationBundle
	Export        *ExportBundle
	Policy        port.OperationPolicy
	Dispatcher    dispatcher.Dispatcher
	Logger        *zap.Logger
}

// ProvideServices creates the application services and subscribes
// the notification service to workflow events.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Notifications == nil || deps.Export == nil {
		return nil, fmt.Errorf("notification and export bundles are required")
	}
	if deps.Policy == nil {
		return nil, fmt.Errorf("operation policy is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	notifications := service.NewNotificationService(
		deps.Repos.User,
		deps.Repos.Notification,
		deps.Notifications.Notifier,
		deps.Notifications.Composer,
		NewLoggerAdapter(deps.Logger.Named("notification")),
	)
	if deps.Dispatcher != nil {
		notifications.Subscribe(deps.Dispatcher)
	}

	return &ServiceBundle{
		Notification: notifications,
		Export: service.NewExportService(
			deps.Repos.User,
			deps.Repos.Request,
			deps.Repos.AuditLog,
			deps.Export.Renderer,
			deps.Export.Storage,
			deps.Policy,
			NewLoggerAdapter(deps.Logger.Named("export")),
		),
	}, nil
}

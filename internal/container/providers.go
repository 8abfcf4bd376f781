package container

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/keystonepm/approvalflow/internal/application/delegation"
	"github.com/keystonepm/approvalflow/internal/application/dispatcher"
	"github.com/keystonepm/approvalflow/internal/application/orchestrator"
	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/application/resolver"
	"github.com/keystonepm/approvalflow/internal/application/service"
	"github.com/keystonepm/approvalflow/internal/application/workflow"
	"github.com/keystonepm/approvalflow/internal/infrastructure/docgen"
	"github.com/keystonepm/approvalflow/internal/infrastructure/identity"
	"github.com/keystonepm/approvalflow/internal/infrastructure/persistence/repository"
	"github.com/keystonepm/approvalflow/internal/notification"
	"github.com/keystonepm/approvalflow/pkg/database"
)

// ProvideDatabase opens the SQLite connection pool.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	return database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
}

// ProvideRepositories creates all SQLite repositories over one connection pool.
func ProvideRepositories(db *sql.DB, logger *zap.Logger) *RepositoryBundle {
	return &RepositoryBundle{
		Documents:     repository.NewDocumentRepository(db, logger),
		Logs:          repository.NewLogRepository(db, logger),
		Settings:      repository.NewSettingsRepository(db, logger),
		Workflows:     repository.NewWorkflowRepository(db, logger),
		Delegations:   repository.NewDelegationRepository(db, logger),
		Principals:    repository.NewPrincipalRepository(db, logger),
		Notifications: repository.NewNotificationRepository(db, logger),
	}
}

// ProvideIdentityProvider creates the repository-backed identity provider.
func ProvideIdentityProvider(repos *RepositoryBundle) port.IdentityProvider {
	return identity.NewProvider(repos.Principals)
}

// ProvideNotificationDispatcher creates the outbox-backed notification
// dispatcher. The log transport is the only built-in sender.
func ProvideNotificationDispatcher(cfg *NotificationConfig, repos *RepositoryBundle, logger *zap.Logger) port.NotificationDispatcher {
	// Transport "log" is the only implementation today; the switch keeps the
	// seam for real transports.
	var sender notification.Sender
	switch cfg.Transport {
	case "log":
		sender = &notification.LogSender{Logger: logger}
	default:
		logger.Warn("Unknown notification transport, falling back to log", zap.String("transport", cfg.Transport))
		sender = &notification.LogSender{Logger: logger}
	}
	return notification.NewDispatcher(repos.Notifications, sender, logger)
}

// ProvideDocumentGenerator creates the xlsx purchase order form generator.
func ProvideDocumentGenerator(cfg *DocgenConfig, repos *RepositoryBundle, logger *zap.Logger) port.DocumentGenerator {
	return docgen.NewGenerator(repos.Documents, repos.Logs, cfg.OutputDir, cfg.BaseURL, logger)
}

// ProvideAuthority creates the delegation authority.
func ProvideAuthority(repos *RepositoryBundle, logger *zap.Logger) *delegation.Authority {
	return delegation.NewAuthority(repos.Delegations, repos.Principals, newLoggerAdapter(logger))
}

// ProvideResolver creates the workflow resolver.
func ProvideResolver(repos *RepositoryBundle) *resolver.Resolver {
	return resolver.New(repos.Settings, repos.Workflows)
}

// ProvideGuard creates the transition guard.
func ProvideGuard(res *resolver.Resolver, authority *delegation.Authority, repos *RepositoryBundle) *workflow.Guard {
	return workflow.NewGuard(res, authority, repos.Settings)
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.New(newLoggerAdapter(logger))
}

// ProvideOrchestrator creates the approval orchestrator.
func ProvideOrchestrator(repos *RepositoryBundle, guard *workflow.Guard, d dispatcher.Dispatcher, logger *zap.Logger) *orchestrator.Orchestrator {
	return orchestrator.New(repos.Documents, repos.Logs, guard, d, newLoggerAdapter(logger))
}

// ProvideServices creates the application service bundle.
func ProvideServices(repos *RepositoryBundle, logger *zap.Logger) *ServiceBundle {
	adapted := newLoggerAdapter(logger)
	return &ServiceBundle{
		Documents: service.NewDocumentService(repos.Documents, adapted),
		Audit:     service.NewAuditService(repos.Logs, adapted),
		Admin:     service.NewWorkflowAdminService(repos.Workflows, repos.Settings, adapted),
	}
}

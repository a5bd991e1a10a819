// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"database/sql"
	"sync"

	"wastereport/internal/config"
	"wastereport/internal/database"
	"wastereport/internal/observability"
	"wastereport/internal/services"
	"wastereport/internal/services/mailer"
	contextutils "wastereport/internal/utils"
)

// Service names registered in the container
const (
	ServiceUser         = "user"
	ServiceComplaint    = "complaint"
	ServiceAssignment   = "assignment"
	ServiceAnalytics    = "analytics"
	ServiceNotification = "notification"
	ServiceAI           = "ai"
	ServiceEmail        = "email"
	ServicePublisher    = "publisher"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetUserService() (services.UserServiceInterface, error)
	GetComplaintService() (services.ComplaintServiceInterface, error)
	GetAssignmentService() (services.AssignmentServiceInterface, error)
	GetAnalyticsService() (services.AnalyticsServiceInterface, error)
	GetNotificationService() (services.NotificationServiceInterface, error)
	GetAIGateway() (services.AIGateway, error)
	GetDatabase() *sql.DB
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	EnsureAuthorityUser(ctx context.Context) error
}

var _ ServiceContainerInterface = (*ServiceContainer)(nil)

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	dbManager     *database.Manager
	db            *sql.DB
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize opens the database, applies migrations and builds every service
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.dbManager = database.NewManager(sc.logger)
	db, err := sc.dbManager.InitDBWithConfig(ctx, sc.cfg.Database)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to initialize database")
	}
	return sc.InitializeWithDB(ctx, db)
}

// InitializeWithDB builds every service on top of an already migrated database
func (sc *ServiceContainer) InitializeWithDB(ctx context.Context, db *sql.DB) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.db = db
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return db.Close()
	})

	if err := sc.initializeServices(ctx); err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapErrorf(err, "failed to initialize services")
	}
	return nil
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetUserService returns the user service
func (sc *ServiceContainer) GetUserService() (services.UserServiceInterface, error) {
	return GetServiceAs[services.UserServiceInterface](sc, ServiceUser)
}

// GetComplaintService returns the complaint lifecycle service
func (sc *ServiceContainer) GetComplaintService() (services.ComplaintServiceInterface, error) {
	return GetServiceAs[services.ComplaintServiceInterface](sc, ServiceComplaint)
}

// GetAssignmentService returns the assignment service
func (sc *ServiceContainer) GetAssignmentService() (services.AssignmentServiceInterface, error) {
	return GetServiceAs[services.AssignmentServiceInterface](sc, ServiceAssignment)
}

// GetAnalyticsService returns the analytics service
func (sc *ServiceContainer) GetAnalyticsService() (services.AnalyticsServiceInterface, error) {
	return GetServiceAs[services.AnalyticsServiceInterface](sc, ServiceAnalytics)
}

// GetNotificationService returns the notification read service
func (sc *ServiceContainer) GetNotificationService() (services.NotificationServiceInterface, error) {
	return GetServiceAs[services.NotificationServiceInterface](sc, ServiceNotification)
}

// GetAIGateway returns the AI gateway
func (sc *ServiceContainer) GetAIGateway() (services.AIGateway, error) {
	return GetServiceAs[services.AIGateway](sc, ServiceAI)
}

// GetDatabase returns the database instance
func (sc *ServiceContainer) GetDatabase() *sql.DB {
	return sc.db
}

// GetDatabaseManager returns the manager used to open the database, nil when a database was injected
func (sc *ServiceContainer) GetDatabaseManager() *database.Manager {
	return sc.dbManager
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup runs shutdown functions in reverse order of registration
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errors []error
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			sc.logger.Error(ctx, "Shutdown step failed", err)
			errors = append(errors, err)
		}
	}
	sc.shutdownFuncs = nil

	if len(errors) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errors)
	}
	return nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices(ctx context.Context) error {
	policy, err := services.NewTransitionPolicy(sc.cfg.Lifecycle.Transitions)
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()

	aiService, err := services.NewAIService(sc.cfg.AI, metrics, sc.logger)
	if err != nil {
		return err
	}
	if !aiService.IsEnabled() {
		sc.logger.Warn(ctx, "AI gateway not configured, analysis endpoints will report unavailable")
	}
	sc.services[ServiceAI] = aiService

	publisher, err := services.NewNotificationPublisher(ctx, sc.cfg.Redis, sc.logger)
	if err != nil {
		// Fan-out is best effort; notifications are still stored.
		sc.logger.Warn(ctx, "Falling back to no-op notification publisher", map[string]interface{}{"error": err.Error()})
		publisher = services.NoopNotificationPublisher{}
	}
	sc.services[ServicePublisher] = publisher
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return publisher.Close()
	})

	var emailService mailer.Mailer = services.CreateEmailService(sc.cfg, sc.logger)
	sc.services[ServiceEmail] = emailService

	sc.services[ServiceUser] = services.NewUserServiceWithLogger(sc.db, sc.logger)
	sc.services[ServiceComplaint] = services.NewComplaintService(sc.db, policy, aiService, metrics, sc.logger)
	sc.services[ServiceAssignment] = services.NewAssignmentService(sc.db, policy, publisher, emailService, metrics, sc.logger)
	sc.services[ServiceAnalytics] = services.NewAnalyticsService(sc.db, sc.logger)
	sc.services[ServiceNotification] = services.NewNotificationService(sc.db, sc.logger)

	sc.logger.Info(ctx, "Services initialized", map[string]interface{}{
		"count":            len(sc.services),
		"permissive_rules": policy.IsPermissive(),
	})
	return nil
}

// EnsureAuthorityUser inserts the seed authority account if it doesn't exist
func (sc *ServiceContainer) EnsureAuthorityUser(ctx context.Context) error {
	userService, err := sc.GetUserService()
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to get user service")
	}

	seed := sc.cfg.Seed
	return userService.EnsureAuthorityUserExists(ctx, seed.AuthorityEmail, seed.AuthorityPassword, seed.AuthorityName)
}

package routes

import (
	"coverhub/internal/adapters/http/handlers"
	"coverhub/internal/adapters/http/middleware"
	"coverhub/internal/adapters/persistence/repositories"
	"coverhub/internal/config"
	"coverhub/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application. The returned cron
// service is started and stopped by the caller.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.CronService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	brokerRepo := repositories.NewBrokerRepository(db)
	managerRepo := repositories.NewManagerRepository(db)
	holderRepo := repositories.NewPolicyHolderRepository(db)
	serviceTypeRepo := repositories.NewServiceTypeRepository(db)
	requirementRepo := repositories.NewRequirementRepository(db)
	documentRepo := repositories.NewDocumentRepository(db)
	policyRepo := repositories.NewPolicyRepository(db)
	approvalRepo := repositories.NewApprovalRepository(db)
	historyRepo := repositories.NewHistoryRepository(db)

	// Initialize services
	notifyService := services.NewNotificationService(cfg)
	requirementService := services.NewRequirementService(serviceTypeRepo, requirementRepo, documentRepo)
	assignmentService := services.NewAssignmentService(brokerRepo, managerRepo)
	authService := services.NewAuthService(db, userRepo, refreshTokenRepo, brokerRepo, managerRepo, holderRepo, cfg)
	userService := services.NewUserService(userRepo)
	policyService := services.NewPolicyService(policyRepo, holderRepo, serviceTypeRepo, assignmentService)
	documentService := services.NewDocumentService(documentRepo, requirementRepo, holderRepo, managerRepo, requirementService)
	approvalService := services.NewApprovalService(
		db,
		policyRepo,
		approvalRepo,
		historyRepo,
		managerRepo,
		requirementService,
		assignmentService,
		notifyService,
	)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	policyHandler := handlers.NewPolicyHandler(policyService, approvalService)
	approvalHandler := handlers.NewApprovalHandler(approvalService)
	documentHandler := handlers.NewDocumentHandler(documentService, requirementService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes (with stricter rate limiting)
	auth := apiV1.Group("/auth")
	auth.Post("/register", middleware.AuthRateLimiter(), authHandler.Register)
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/logout-all", middleware.AuthMiddleware(cfg), authHandler.LogoutAll)
	auth.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)

	// Policy routes
	policies := apiV1.Group("/policies", middleware.AuthMiddleware(cfg))
	policies.Post("/", middleware.BrokerOnly(), policyHandler.Create)
	policies.Get("/", policyHandler.List)
	policies.Get("/:id", policyHandler.Get)
	policies.Put("/:id", middleware.BrokerOnly(), policyHandler.Update)
	policies.Post("/:id/cancel", middleware.BrokerOnly(), policyHandler.Cancel)
	policies.Post("/:id/submit", middleware.BrokerOnly(), policyHandler.Submit)

	// Approval routes
	approvals := apiV1.Group("/approvals", middleware.AuthMiddleware(cfg))
	approvals.Get("/pending", middleware.ManagerOrAdmin(), approvalHandler.Pending)
	approvals.Get("/statistics", middleware.ManagerOrAdmin(), approvalHandler.Statistics)
	approvals.Get("/:id", middleware.BrokerOrManager(), approvalHandler.Get)
	approvals.Get("/:id/history", middleware.BrokerOrManager(), approvalHandler.History)
	approvals.Post("/:id/approve", middleware.ManagerOnly(), approvalHandler.Approve)
	approvals.Post("/:id/reject", middleware.ManagerOnly(), approvalHandler.Reject)
	approvals.Post("/:id/request-changes", middleware.ManagerOnly(), approvalHandler.RequestChanges)
	approvals.Post("/:id/assign", middleware.ManagerOrAdmin(), approvalHandler.Assign)

	// Document routes
	documents := apiV1.Group("/documents", middleware.AuthMiddleware(cfg))
	documents.Post("/", documentHandler.Upload)
	documents.Get("/requirements", documentHandler.Requirements)
	documents.Get("/my", documentHandler.My)
	documents.Post("/:id/verify", middleware.ManagerOnly(), documentHandler.Verify)

	// User management routes (admin)
	users := apiV1.Group("/users", middleware.AuthMiddleware(cfg))
	users.Post("/change-password", userHandler.ChangePassword)
	users.Get("/", middleware.AdminOnly(), userHandler.List)
	users.Get("/:id", middleware.AdminOnly(), userHandler.Get)
	users.Put("/:id", middleware.AdminOnly(), userHandler.Update)
	users.Delete("/:id", middleware.AdminOnly(), userHandler.Delete)

	return services.NewCronService(documentService, authService)
}

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"wastereport/internal/config"
	"wastereport/internal/middleware"
	"wastereport/internal/observability"
	"wastereport/internal/services"
	"wastereport/internal/version"
)

// NewRouter creates the gin engine with all middleware and API routes
func NewRouter(
	cfg *config.Config,
	userService services.UserServiceInterface,
	complaintService services.ComplaintServiceInterface,
	assignmentService services.AssignmentServiceInterface,
	analyticsService services.AnalyticsServiceInterface,
	notificationService services.NotificationServiceInterface,
	aiGateway services.AIGateway,
	logger *observability.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	if err := middleware.RegisterValidators(); err != nil {
		logger.Error(context.Background(), "Failed to register binding validators", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))

	// Health check endpoint (defined before tracing and sessions)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": config.DefaultServiceName,
			"version": version.Version,
		})
	})

	serviceName := cfg.OpenTelemetry.ServiceName
	if serviceName == "" {
		serviceName = config.DefaultServiceName
	}
	router.Use(observability.GinMiddleware(serviceName))
	router.Use(observability.SpanErrorMiddleware())

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", middleware.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.IsDevelopment = cfg.Server.Debug
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	router.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	authHandler := NewAuthHandler(userService, cfg, logger)
	complaintHandler := NewComplaintHandler(complaintService, assignmentService, logger)
	dashboardHandler := NewDashboardHandler(analyticsService, notificationService, userService, logger)
	aiHandler := NewAIHandler(aiGateway, logger)

	api := router.Group("/api")
	{
		api.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, version.Info())
		})

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/status", authHandler.Status)
		}

		complaints := api.Group("/complaints")
		{
			complaints.POST("", complaintHandler.CreateComplaint)
			complaints.GET("", complaintHandler.ListComplaints)
			complaints.GET("/:id", complaintHandler.GetComplaint)
			complaints.PATCH("/:id", complaintHandler.UpdateComplaint)
			complaints.POST("/:id/assign", complaintHandler.AssignComplaint)
			complaints.POST("/:id/resolve", middleware.RequireAuth(), complaintHandler.ResolveComplaint)
		}

		api.GET("/analytics", dashboardHandler.GetAnalytics)
		api.GET("/members", dashboardHandler.ListMembers)
		api.GET("/notifications/:user_id", dashboardHandler.ListNotifications)
		api.POST("/notifications/:user_id/:id/read", dashboardHandler.MarkNotificationRead)

		ai := api.Group("/ai")
		ai.Use(middleware.RequireAuth())
		{
			ai.POST("/classify", aiHandler.Classify)
			ai.POST("/verify-cleanup", aiHandler.VerifyCleanup)
			ai.POST("/chat", aiHandler.Chat)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAuthority())
		{
			admin.GET("/users", dashboardHandler.ListUsers)
		}
	}

	routeListing := NewRouteListingHandler(serviceName)
	routeListing.SetAccess(http.MethodPost, "/api/complaints/:id/resolve", AccessSession)
	routeListing.SetPrefixAccess("/api/ai/", AccessSession)
	routeListing.SetPrefixAccess("/api/admin/", AccessAuthority)
	router.GET("/", routeListing.GetRouteListing)
	routeListing.CollectRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": "RECORD_NOT_FOUND"})
	})

	return router
}

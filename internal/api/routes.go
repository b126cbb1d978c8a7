package api

import (
	"net/http"

	"github.com/Jakedismo/knowledge-network-sub004/internal/api/handlers"
	"github.com/Jakedismo/knowledge-network-sub004/internal/api/middleware"
	"github.com/Jakedismo/knowledge-network-sub004/internal/services"
	"github.com/Jakedismo/knowledge-network-sub004/internal/store"
	"github.com/Jakedismo/knowledge-network-sub004/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Router struct {
	engine            *gin.Engine
	logger            *zap.Logger
	metrics           *metrics.MetricsCollector
	authHandler       *handlers.AuthHandler
	workflowHandler   *handlers.WorkflowHandler
	reviewHandler     *handlers.ReviewHandler
	escalationHandler *handlers.EscalationHandler
	userHandler       *handlers.UserHandler
	authMiddleware    *middleware.AuthMiddleware
	reqMiddleware     *middleware.RequestMiddleware
}

func NewRouter(
	logger *zap.Logger,
	metricsCollector *metrics.MetricsCollector,
	accessService *services.AccessService,
	workflowService *services.WorkflowService,
	reviewService *services.ReviewService,
	escalationService *services.EscalationService,
	clock services.Clock,
	users store.UserRepository,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	reqMiddleware := middleware.NewRequestMiddleware(logger)
	authMiddleware := middleware.NewAuthMiddleware(accessService, users)

	engine.Use(reqMiddleware.ProcessRequest())
	engine.Use(reqMiddleware.RecoverPanic())
	engine.Use(reqMiddleware.LoginAttemptMiddleware())

	return &Router{
		engine:            engine,
		logger:            logger,
		metrics:           metricsCollector,
		authHandler:       handlers.NewAuthHandler(accessService, logger),
		workflowHandler:   handlers.NewWorkflowHandler(workflowService, accessService, logger),
		reviewHandler:     handlers.NewReviewHandler(reviewService, accessService, logger),
		escalationHandler: handlers.NewEscalationHandler(escalationService, accessService, clock, logger),
		userHandler:       handlers.NewUserHandler(users, logger),
		authMiddleware:    authMiddleware,
		reqMiddleware:     reqMiddleware,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up", "name": "review-engine"})
	})

	r.engine.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"counters":  r.metrics.GetCounters(),
			"latencies": r.metrics.GetLatencies(),
			"gauges":    r.metrics.GetGauges(),
		})
	})

	r.engine.POST("/api/login", r.authHandler.Login)
	r.engine.POST("/api/logout", r.authHandler.Logout)

	authorized := r.engine.Group("/api")
	authorized.Use(r.authMiddleware.RequireAuth())
	{
		authorized.GET("/users", r.userHandler.ListUsers)

		authorized.POST("/workflows", r.workflowHandler.CreateWorkflow)
		authorized.GET("/workflows", r.workflowHandler.ListWorkflows)
		authorized.GET("/workflows/:id", r.workflowHandler.GetWorkflow)

		authorized.POST("/reviews", r.reviewHandler.StartReview)
		authorized.GET("/reviews", r.reviewHandler.ListRequests)
		authorized.GET("/reviews/:id", r.reviewHandler.GetRequest)
		authorized.POST("/reviews/:id/decisions", r.reviewHandler.RecordDecision)
		authorized.POST("/reviews/:id/change-requests", r.reviewHandler.RequestChanges)
		authorized.GET("/reviews/:id/change-requests", r.reviewHandler.ListChangeRequests)
		authorized.POST("/reviews/:id/reopen", r.reviewHandler.Reopen)
		authorized.GET("/reviews/:id/assignments", r.reviewHandler.ListAssignments)

		authorized.POST("/escalations/run", r.escalationHandler.RunEscalations)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

func (r *Router) Run(addr string) error {
	r.logger.Info("Starting HTTP server", zap.String("address", addr))
	return r.engine.Run(addr)
}

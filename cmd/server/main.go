package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jakedismo/knowledge-network-sub004/internal/api"
	"github.com/Jakedismo/knowledge-network-sub004/internal/config"
	"github.com/Jakedismo/knowledge-network-sub004/internal/db"
	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
	"github.com/Jakedismo/knowledge-network-sub004/internal/services"
	"github.com/Jakedismo/knowledge-network-sub004/internal/store"
	"github.com/Jakedismo/knowledge-network-sub004/internal/utils"
	"github.com/Jakedismo/knowledge-network-sub004/pkg/logger"
	"github.com/Jakedismo/knowledge-network-sub004/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg := config.InitializeDefaultConfig()

	zapLogger, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	config.LogConfig(zapLogger)

	database, err := db.Initialize(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}

	metricsCollector := metrics.NewMetricsCollector()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seedDatabase(ctx, database, zapLogger); err != nil {
		zapLogger.Fatal("Failed to seed database", zap.Error(err))
	}

	gormStore := store.NewGormStore(database)
	clock := services.SystemClock()
	locker := services.NewRequestLocker()
	notifier := services.NewLogNotifier(zapLogger)
	resolver := services.NewStoreResolver(gormStore)

	accessService := services.NewAccessService(gormStore, clock, cfg.Security.SessionTimeout, zapLogger)
	workflowService := services.NewWorkflowService(gormStore, zapLogger, metricsCollector)
	reviewService := services.NewReviewService(gormStore, gormStore, resolver, clock, notifier, locker, zapLogger, metricsCollector)
	escalationService := services.NewEscalationService(gormStore, clock, notifier, locker, zapLogger, metricsCollector)

	if cfg.Escalation.SweepEnabled {
		go runEscalationSweeps(ctx, escalationService, clock, cfg.Escalation.SweepInterval, zapLogger)
	}

	router := api.NewRouter(zapLogger, metricsCollector, accessService, workflowService, reviewService, escalationService, clock, gormStore)
	router.SetupRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}
	go func() {
		if err := router.Run(":" + port); err != nil {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()
	zapLogger.Info("Server started", zap.String("port", port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")
	cancel()

	sqlDB, err := db.DB.DB()
	if err == nil {
		sqlDB.Close()
	}
	zapLogger.Info("Server gracefully stopped")
}

// runEscalationSweeps triggers the bounded SLA sweep on a fixed interval
// until the context is cancelled. The sweep itself stays on-demand; this is
// just a cron-style caller.
func runEscalationSweeps(ctx context.Context, escalationService *services.EscalationService, clock services.Clock, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := escalationService.RunEscalations(ctx, clock.Now()); err != nil {
				logger.Error("Escalation sweep failed", zap.Error(err))
			}
		}
	}
}

func seedDatabase(ctx context.Context, database *gorm.DB, logger *zap.Logger) error {
	var count int64
	database.Model(&models.User{}).Count(&count)
	if count > 0 {
		logger.Info("Database already seeded, skipping")
		return nil
	}
	logger.Info("Seeding database with initial data")

	passwordHash, err := utils.EncryptPassword("changeme123")
	if err != nil {
		return err
	}

	users := []models.User{
		{Username: "admin", Email: "admin@example.com", PasswordHash: passwordHash, WorkspaceID: "ws-default", Role: models.RoleAdmin, DisplayName: "Workspace Admin", ActiveStatus: true},
		{Username: "lead1", Email: "lead1@example.com", PasswordHash: passwordHash, WorkspaceID: "ws-default", Role: models.RoleLead, DisplayName: "Team Lead", ActiveStatus: true},
		{Username: "reviewer1", Email: "reviewer1@example.com", PasswordHash: passwordHash, WorkspaceID: "ws-default", Role: models.RoleMember, DisplayName: "Reviewer One", ActiveStatus: true},
		{Username: "reviewer2", Email: "reviewer2@example.com", PasswordHash: passwordHash, WorkspaceID: "ws-default", Role: models.RoleMember, DisplayName: "Reviewer Two", ActiveStatus: true},
	}

	if err := database.Create(&users).Error; err != nil {
		return err
	}
	logger.Info("Created initial users", zap.Int("count", len(users)))

	sla := 24.0
	workflow := models.Workflow{
		ID:          "wf-default-two-step",
		WorkspaceID: "ws-default",
		Name:        "Peer and lead review",
		Description: "Single peer approval followed by lead sign-off",
		Steps: []models.WorkflowStep{
			{
				Index: 0,
				Type:  models.StepSingleApproval,
				Name:  "peer",
				Assignees: []models.StepAssignee{
					{AssigneeType: models.AssigneeUser, AssigneeID: "reviewer1"},
					{AssigneeType: models.AssigneeUser, AssigneeID: "reviewer2"},
				},
				SLAHours: &sla,
			},
			{
				Index: 1,
				Type:  models.StepSingleApproval,
				Name:  "lead",
				Assignees: []models.StepAssignee{
					{AssigneeType: models.AssigneeRole, AssigneeID: string(models.RoleLead)},
				},
			},
		},
	}
	if err := database.Create(&workflow).Error; err != nil {
		return err
	}
	logger.Info("Created default workflow", zap.String("workflow_id", workflow.ID))

	logger.Info("Database seeding completed successfully")
	return nil
}

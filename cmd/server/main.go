// Package main runs the Workdeck HTTP API with WebSocket delivery and
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/workdeck/backend/config"
	"github.com/workdeck/backend/internal/auth"
	"github.com/workdeck/backend/internal/authz"
	"github.com/workdeck/backend/internal/categories"
	"github.com/workdeck/backend/internal/clients"
	"github.com/workdeck/backend/internal/companies"
	"github.com/workdeck/backend/internal/memberships"
	"github.com/workdeck/backend/internal/middleware"
	"github.com/workdeck/backend/internal/notify"
	"github.com/workdeck/backend/internal/permissions"
	"github.com/workdeck/backend/internal/projects"
	"github.com/workdeck/backend/internal/realtime"
	"github.com/workdeck/backend/internal/requests"
	"github.com/workdeck/backend/internal/seed"
	"github.com/workdeck/backend/internal/timeentries"
	"github.com/workdeck/backend/internal/users"
	"github.com/workdeck/backend/pkg/database"
	"github.com/workdeck/backend/pkg/queue"
	"github.com/workdeck/backend/pkg/redis"
	"github.com/workdeck/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	if err := seed.Run(ctx, pool, cfg.Seed, logger); err != nil {
		logger.Fatal("seed", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	resolver := authz.NewResolver(authz.NewPGStore(pool))
	notifier := notify.NewNotifier(hub, notify.NewPGRecipientStore(pool), logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, resolver, logger)

	// Users
	userRepo := users.NewRepository(pool)
	userHandler := users.NewHandler(userRepo)

	// Companies and memberships
	companyRepo := companies.NewRepository(pool)
	companyHandler := companies.NewHandler(companyRepo, resolver)
	membershipRepo := memberships.NewRepository(pool)
	membershipHandler := memberships.NewHandler(membershipRepo, resolver, hub, jobQueue, logger)

	// Permission catalog and requests
	permissionRepo := permissions.NewRepository(pool)
	permissionHandler := permissions.NewHandler(permissionRepo)
	companyRequestRepo := requests.NewCompanyRequestRepository(pool)
	companyRequestHandler := requests.NewCompanyRequestHandler(companyRequestRepo, jobQueue, logger)
	permissionRequestRepo := requests.NewPermissionRequestRepository(pool)
	permissionRequestHandler := requests.NewPermissionRequestHandler(permissionRequestRepo, jobQueue, logger)

	// Clients, projects, categories
	clientRepo := clients.NewRepository(pool)
	clientHandler := clients.NewHandler(clientRepo, resolver)
	projectRepo := projects.NewRepository(pool)
	projectHandler := projects.NewHandler(projectRepo, resolver)
	categoryRepo := categories.NewRepository(pool)
	categoryHandler := categories.NewHandler(categoryRepo, resolver)

	// Time tracking
	rateResolver := clients.NewRateResolver(clientRepo)
	entryRepo := timeentries.NewRepository(pool)
	entryService := timeentries.NewService(entryRepo, resolver, rateResolver, notifier)
	entryHandler := timeentries.NewHandler(entryService)

	wsValidate := func(token string) (uuid.UUID, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, err
		}
		return claims.UserID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required; platform-admin flag resolved once per request)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService), middleware.ResolvePlatformAdmin(resolver))
	{
		api.GET("/auth/me", authHandler.Me)

		// Self-service user endpoints
		api.PATCH("/users/me", userHandler.UpdateMe)
		api.POST("/users/me/change-password", userHandler.ChangePassword)
		api.POST("/users/me/disable", userHandler.DisableMe)

		// Companies
		api.POST("/companies",
			middleware.RequireGlobalPermission(resolver, permissions.KeyCompanyCreate),
			companyHandler.Create)
		api.GET("/companies/:id", companyHandler.Get)
		api.GET("/company-by-slug/:slug", companyHandler.GetBySlug)
		api.PATCH("/companies/:id", companyHandler.Update)
		api.DELETE("/companies/:id", companyHandler.Delete)

		// Members and roles
		api.GET("/companies/:id/members", membershipHandler.Members)
		api.GET("/companies/:id/members/search", membershipHandler.NonMembers)
		api.POST("/companies/:id/members/invite", membershipHandler.Invite)
		api.PUT("/companies/:id/members/:member_id/roles", membershipHandler.ReplaceRoles)
		api.DELETE("/companies/:id/members/:member_id", membershipHandler.RemoveMember)
		api.GET("/companies/:id/roles", membershipHandler.Roles)
		api.POST("/companies/:id/roles", membershipHandler.CreateRole)
		api.PATCH("/companies/:id/roles/:role_id", membershipHandler.UpdateRole)
		api.DELETE("/companies/:id/roles/:role_id", membershipHandler.DeleteRole)
		api.PUT("/companies/:id/roles/:role_id/permissions", membershipHandler.SetRolePermissions)

		// Invitations (self-scoped)
		api.GET("/invitations", membershipHandler.PendingInvitations)
		api.POST("/invitations/:membership_id/accept", membershipHandler.AcceptInvitation)
		api.POST("/invitations/:membership_id/decline", membershipHandler.DeclineInvitation)

		// Company requests
		api.POST("/company-requests", companyRequestHandler.Create)
		api.GET("/company-requests", companyRequestHandler.ListMine)
		api.GET("/company-requests/:id", companyRequestHandler.Get)
		api.PATCH("/company-requests/:id", companyRequestHandler.Update)
		api.POST("/company-requests/:id/cancel", companyRequestHandler.Cancel)

		// Permission requests
		api.GET("/permissions/available", permissionRequestHandler.Available)
		api.POST("/permission-requests", permissionRequestHandler.Create)
		api.GET("/permission-requests", permissionRequestHandler.ListMine)
		api.GET("/permission-requests/:id", permissionRequestHandler.Get)
		api.PATCH("/permission-requests/:id", permissionRequestHandler.Update)
		api.POST("/permission-requests/:id/cancel", permissionRequestHandler.Cancel)

		// Clients and billing configuration
		api.POST("/clients", clientHandler.Create)
		api.GET("/clients", clientHandler.List)
		api.GET("/clients/:id", clientHandler.Get)
		api.PATCH("/clients/:id", clientHandler.Update)
		api.DELETE("/clients/:id", clientHandler.Delete)
		api.POST("/clients/:id/sites", clientHandler.CreateSite)
		api.PATCH("/client-sites/:site_id", clientHandler.UpdateSite)
		api.DELETE("/client-sites/:site_id", clientHandler.DeleteSite)
		api.POST("/clients/:id/rate-rules", clientHandler.CreateRateRule)
		api.PUT("/rate-rules/:rule_id", clientHandler.UpdateRateRule)
		api.DELETE("/rate-rules/:rule_id", clientHandler.DeleteRateRule)
		api.POST("/rate-rules/:rule_id/resources", clientHandler.CreateResource)
		api.PATCH("/rate-resources/:resource_id", clientHandler.UpdateResource)
		api.DELETE("/rate-resources/:resource_id", clientHandler.DeleteResource)

		// Projects
		api.POST("/projects", projectHandler.Create)
		api.GET("/projects", projectHandler.List)
		api.GET("/projects/:id", projectHandler.Get)
		api.PATCH("/projects/:id", projectHandler.Update)
		api.DELETE("/projects/:id", projectHandler.Delete)

		// Time entry categories
		api.POST("/time-entry-categories", categoryHandler.Create)
		api.GET("/time-entry-categories", categoryHandler.List)
		api.PATCH("/time-entry-categories/:id", categoryHandler.Update)
		api.DELETE("/time-entry-categories/:id", categoryHandler.Delete)

		// Time entries
		api.POST("/time-entries", entryHandler.Create)
		api.GET("/time-entries", entryHandler.List)
		api.GET("/time-summary", entryHandler.Summary)
		api.GET("/time-entries/:id", entryHandler.Get)
		api.PATCH("/time-entries/:id", entryHandler.Update)
		api.DELETE("/time-entries/:id", entryHandler.Delete)

		// Platform administration
		admin := api.Group("/admin")
		admin.Use(middleware.RequirePlatformAdmin())
		{
			admin.GET("/users", userHandler.List)
			admin.GET("/users/:id", userHandler.Get)
			admin.POST("/users/:id/enable", userHandler.Enable)

			admin.GET("/companies", companyHandler.List)
			admin.POST("/companies/:id/restore", companyHandler.Restore)

			admin.POST("/permissions", permissionHandler.Create)
			admin.GET("/permissions", permissionHandler.List)
			admin.GET("/permission-catalog", permissionHandler.All)
			admin.GET("/permissions/:id", permissionHandler.Get)
			admin.PATCH("/permissions/:id", permissionHandler.Update)
			admin.DELETE("/permissions/:id", permissionHandler.Delete)
			admin.POST("/permissions/grant", permissionHandler.Grant)
			admin.DELETE("/users/:id/permissions/:permission_id", permissionHandler.Revoke)
			admin.GET("/users/:id/permissions", permissionHandler.UserGrants)

			admin.GET("/company-requests", companyRequestHandler.ListAll)
			admin.POST("/company-requests/:id/review", companyRequestHandler.Review)
			admin.GET("/permission-requests", permissionRequestHandler.ListAll)
			admin.POST("/permission-requests/:id/review", permissionRequestHandler.Review)
		}
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, wsValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

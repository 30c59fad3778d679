package router

import (
	"agora/internal/config"
	"agora/internal/db"
	"agora/internal/handlers"
	"agora/internal/metrics"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

// New builds the engine with the global middleware chain and every route.
func New(cfg *config.Config, store *db.Store, svc *services.Services, ms *metrics.MetricService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), ms.Middleware(), middleware.CORS(cfg.CORSOrigins))
	r.MaxMultipartMemory = cfg.MaxUploadSize
	RegisterRoutes(r, store, svc, ms)
	return r
}

func RegisterRoutes(r *gin.Engine, store *db.Store, svc *services.Services, ms *metrics.MetricService) {
	// Handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	ideaHandler := handlers.NewIdeaHandler(svc.Ideas, svc.Uploads)
	voteHandler := handlers.NewVoteHandler(svc.Votes)
	commentHandler := handlers.NewCommentHandler(svc.Comments)
	reportHandler := handlers.NewReportHandler(svc.Reports)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifier)
	pollHandler := handlers.NewPollHandler(svc.Polls)
	adminHandler := handlers.NewAdminHandler(svc.Admin, svc.Stats)
	uploadHandler := handlers.NewUploadHandler(svc.Uploads)
	statsHandler := handlers.NewStatsHandler(svc.Stats, store.Ping)

	r.GET("/metrics", gin.WrapH(ms.Handler()))
	r.GET("/healthz", statsHandler.Health)

	api := r.Group("/api")

	// 公共路由 (Public Routes)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/categories", categoryHandler.List)
	api.GET("/categories/:id", categoryHandler.Get)
	api.GET("/ideas", ideaHandler.List)
	api.GET("/ideas/:id", ideaHandler.Get)
	api.GET("/comments/:idea_id", commentHandler.List)
	api.GET("/polls", pollHandler.List)
	api.GET("/polls/:id", pollHandler.Get)
	api.GET("/files/:name", uploadHandler.Serve)
	api.GET("/stats", statsHandler.Stats)

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired(svc.Auth))
	{
		authorized.GET("/auth/me", authHandler.Me)

		authorized.POST("/ideas", ideaHandler.Create)
		authorized.PUT("/ideas/:id", ideaHandler.Update)
		authorized.DELETE("/ideas/:id", ideaHandler.Delete)
		authorized.POST("/ideas/:id/vote", voteHandler.VoteIdea)
		authorized.POST("/ideas/:id/attachments", ideaHandler.AddAttachment)

		authorized.POST("/comments", commentHandler.Create)
		authorized.DELETE("/comments/:id", commentHandler.Delete)

		authorized.POST("/polls", pollHandler.Create)
		authorized.POST("/polls/:id/vote", voteHandler.VotePoll)
		authorized.DELETE("/polls/:id", pollHandler.Delete)

		authorized.POST("/reports", reportHandler.Create)
		authorized.POST("/upload", uploadHandler.Upload)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		authorized.PUT("/notifications/read-all", notificationHandler.ReadAll)
		authorized.PUT("/notifications/:id/read", notificationHandler.Read)
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)
	}

	// 版主路由 (Moderator Routes)
	moderation := authorized.Group("")
	moderation.Use(middleware.RequireRole(models.RoleModerator))
	{
		moderation.PUT("/ideas/:id/status", ideaHandler.UpdateStatus)
		moderation.GET("/reports", reportHandler.List)
		moderation.PUT("/reports/:id", reportHandler.Review)
	}

	// 管理员路由 (Admin Routes)
	admin := authorized.Group("")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/categories", categoryHandler.Create)
		admin.PUT("/categories/:id", categoryHandler.Update)
		admin.DELETE("/categories/:id", categoryHandler.Delete)

		admin.GET("/admin/users", adminHandler.ListUsers)
		admin.PUT("/admin/users/:id/role", adminHandler.SetRole)
		admin.PUT("/admin/users/:id/ban", adminHandler.SetBanned)
		admin.GET("/admin/stats", adminHandler.Stats)
	}
}

package httpserver

import (
	"context"
	"net/http"
	"time"

	"seotrack/internal/handler"
	"seotrack/pkg/rbac"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Auth         *handler.AuthHandler
	Projects     *handler.ProjectHandler
	Achievements *handler.AchievementHandler
	Summaries    *handler.SummaryHandler
	Reports      *handler.ReportHandler
	Admin        *handler.AdminHandler
}

type Options struct {
	JWTSecret string
	Store     Pinger
	Deduper   Deduper
	Logger    *zap.Logger
}

func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), RequestLogger(opts.Logger), Metrics())

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := opts.Store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/register", h.Auth.Register)
	r.POST("/login", h.Auth.Login)

	public := r.Group("/public/reports/:code")
	{
		public.GET("", h.Reports.Public)
		public.GET("/months/:year/:month", h.Reports.PublicMonth)
		public.GET("/export", h.Reports.PublicExport)
	}

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(opts.JWTSecret))
	{
		read := RequirePermission(rbac.PermissionReadProject)
		write := RequirePermission(rbac.PermissionWriteProject)
		writeAchievement := RequirePermission(rbac.PermissionWriteAchieve)

		auth.GET("/projects", read, h.Projects.List)
		auth.POST("/projects", write, h.Projects.Create)
		auth.GET("/projects/:id", read, h.Projects.Get)
		auth.PATCH("/projects/:id", write, h.Projects.Update)
		auth.DELETE("/projects/:id", RequirePermission(rbac.PermissionDeleteProject), h.Projects.Delete)

		auth.GET("/projects/:id/achievements", read, h.Achievements.ListByProject)
		auth.POST("/projects/:id/achievements", writeAchievement,
			Idempotency(opts.Deduper, "achievement.create"), h.Achievements.Create)
		auth.GET("/achievements", read, h.Achievements.ListMine)
		auth.PATCH("/achievements/:id", writeAchievement, h.Achievements.Update)
		auth.DELETE("/achievements/:id", writeAchievement, h.Achievements.Delete)

		auth.GET("/projects/:id/report", read, h.Reports.Private)
		auth.GET("/projects/:id/report/monthly", read, h.Reports.PrivateMonth)
		auth.GET("/projects/:id/report/export", RequirePermission(rbac.PermissionExportReport), h.Reports.PrivateExport)

		auth.GET("/projects/:id/summaries/:year/:month", read, h.Summaries.Get)
		auth.PUT("/projects/:id/summaries/:year/:month", RequirePermission(rbac.PermissionWriteSummary), h.Summaries.Put)

		admin := auth.Group("/admin", RequirePermission(rbac.PermissionReplayOutbox))
		admin.POST("/outbox/replay", h.Admin.ReplayOutboxEvent)
		admin.POST("/outbox/replay-failed", h.Admin.ReplayFailedEvents)
	}

	return r
}

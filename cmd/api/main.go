package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seotrack/internal/cache"
	"seotrack/internal/config"
	"seotrack/internal/handler"
	"seotrack/internal/httpserver"
	"seotrack/internal/mqhandler"
	"seotrack/internal/repository"
	"seotrack/internal/repository/memory"
	"seotrack/internal/service"
	"seotrack/pkg/db"
	"seotrack/pkg/logger"
	"seotrack/pkg/mq"
	"seotrack/pkg/outbox"
	redisclient "seotrack/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// stores bundles whichever backend storage.driver selected.
type stores struct {
	users        service.UserStore
	projects     service.ProjectStore
	achievements service.AchievementStore
	summaries    service.SummaryStore
	pinger       httpserver.Pinger
	outbox       *outbox.Repository // nil for the memory driver
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Log)
	defer log.Sync()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	log.Info("Starting seotrack api...",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("cache", cfg.Cache.Driver),
		zap.Bool("event_relay", cfg.MQ.URL != ""),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Storage
	var dbConn *pgxpool.Pool
	var st stores
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		dbConn, err = db.NewConnection(cfg.DB, log)
		if err != nil {
			log.Fatal("Failed to init DB", zap.Error(err))
		}
		defer dbConn.Close()
		if err := db.EnsureSchema(ctx, dbConn, log); err != nil {
			log.Fatal("Failed to apply schema", zap.Error(err))
		}

		outboxRepo := outbox.NewRepository(dbConn)
		st = stores{
			users:        repository.NewUserRepository(dbConn, log),
			projects:     repository.NewProjectRepository(dbConn, outboxRepo, log),
			achievements: repository.NewAchievementRepository(dbConn, outboxRepo, log),
			summaries:    repository.NewSummaryRepository(dbConn, outboxRepo, log),
			pinger:       dbConn,
			outbox:       outboxRepo,
		}
	default:
		log.Warn("Using in-memory storage; data is lost on restart")
		mem := memory.New()
		st = stores{
			users:        mem.Users(),
			projects:     mem.Projects(),
			achievements: mem.Achievements(),
			summaries:    mem.Summaries(),
			pinger:       mem,
		}
	}

	// Report cache and idempotency
	var reportCache cache.ReportCache = cache.Nop{}
	var deduper httpserver.Deduper
	var rdb *redis.Client
	switch cfg.Cache.Driver {
	case config.CacheRedis:
		rdb, err = redisclient.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to init Redis", zap.Error(err))
		}
		defer rdb.Close()
		reportCache = cache.NewRedis(rdb, cfg.CacheTTL(), log)
		deduper = cache.NewRedisDeduper(rdb, cfg.IdempotencyTTL(), log)
	case config.CacheLocal:
		reportCache = cache.NewLocal(cfg.CacheTTL())
		deduper = cache.NewLocalDeduper(cfg.IdempotencyTTL())
	}

	// Event relay
	var replayer handler.Replayer
	if cfg.MQ.URL != "" {
		publisher, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init publisher", zap.Error(err))
		}
		defer publisher.Close()

		dispatcher := outbox.NewDispatcher(st.outbox, publisher, log).
			WithInterval(cfg.OutboxInterval()).
			WithBatchSize(cfg.Outbox.BatchSize).
			WithMaxRetries(cfg.Outbox.MaxRetries)
		go dispatcher.Start(ctx)

		replayer = outbox.NewReplayService(st.outbox, publisher, log)
		log.Info("Outbox dispatcher started")

		// 本地缓存需要通过事件同步其他副本的写入
		if cfg.Cache.Driver == config.CacheLocal {
			consumer, err := mq.NewBroadcastConsumer(cfg.MQ.URL, mqhandler.BindingKeys, log)
			if err != nil {
				log.Fatal("Failed to init cache sync consumer", zap.Error(err))
			}
			defer consumer.Close()

			consumer.SetHandler(mqhandler.NewCacheSyncHandler(st.projects, reportCache, log).Handle)
			go func() {
				if err := consumer.StartConsuming(ctx); err != nil {
					log.Error("Cache sync consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	authService := service.NewAuthService(st.users, cfg.JWT.Secret, cfg.TokenTTL(), cfg.Auth.AdminEmails, log)
	projectService := service.NewProjectService(st.projects, st.achievements, reportCache, log)
	achievementService := service.NewAchievementService(st.projects, st.achievements, reportCache, log)
	summaryService := service.NewSummaryService(st.projects, st.summaries, reportCache, log)
	reportService := service.NewReportService(st.projects, st.achievements, st.summaries, reportCache, log)

	router := httpserver.NewRouter(httpserver.Handlers{
		Auth:         handler.NewAuthHandler(authService, log),
		Projects:     handler.NewProjectHandler(projectService, log),
		Achievements: handler.NewAchievementHandler(achievementService, log),
		Summaries:    handler.NewSummaryHandler(summaryService, log),
		Reports:      handler.NewReportHandler(reportService, log),
		Admin:        handler.NewAdminHandler(replayer, log),
	}, httpserver.Options{
		JWTSecret: cfg.JWT.Secret,
		Store:     st.pinger,
		Deduper:   deduper,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully...")

	// 停止 dispatcher 和 consumer
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("shutdown complete")
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/craftlink/server/account"
	apirest "github.com/craftlink/server/api/rest"
	"github.com/craftlink/server/audit"
	"github.com/craftlink/server/cache"
	"github.com/craftlink/server/config"
	dbadapter "github.com/craftlink/server/db"
	"github.com/craftlink/server/hook"
	mw "github.com/craftlink/server/middleware"
	"github.com/craftlink/server/model"
	"github.com/craftlink/server/notify"
	"github.com/craftlink/server/scheduler"
	"github.com/craftlink/server/social/block"
	"github.com/craftlink/server/social/friendship"
	"github.com/craftlink/server/social/profile"
	"github.com/craftlink/server/social/relation"
	"github.com/craftlink/server/social/reputation"
	"github.com/craftlink/server/social/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Cache ----
	c, err := cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Services ----
	hooks := hook.NewCenter()
	st := store.New(db)
	accounts := account.NewService(db, logger)
	policy := friendship.NewRateLimitPolicy(cfg.Social.RequestRatePerMin, cfg.Social.RequestRateBurst)
	friendSvc := friendship.NewService(st, accounts, hooks, policy, logger, cfg.Social)
	blockSvc := block.NewService(st, accounts, hooks, logger)
	relationSvc := relation.NewService(st)
	profileSvc := profile.NewService(db, st, hooks, logger)
	repSvc := reputation.NewService(db, c, logger)
	notifySvc := notify.New(db, logger)
	defer notifySvc.Stop(context.Background())

	// Subscribers run in priority order: reputation before notifications.
	repSvc.RegisterHooks(hooks)
	notifySvc.RegisterHooks(hooks)

	// ---- Periodic Scheduler Tasks ----
	sched.AddTicker("reputation_sweep", cfg.Social.RecomputeInterval, func() {
		if err := repSvc.RecomputeAll(context.Background()); err != nil {
			logger.Error("reputation sweep failed", zap.Error(err))
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.RequestLog(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(accounts, c, cfg.Security)
	friendH := apirest.NewFriendHandler(friendSvc, blockSvc, relationSvc)
	profileH := apirest.NewProfileHandler(profileSvc)
	repH := apirest.NewReputationHandler(repSvc, accounts)
	notifH := apirest.NewNotificationHandler(notifySvc)
	adminH := apirest.NewAdminHandler(db, repSvc, sched, logger)

	authed := mw.Auth(cfg.Security, c)

	api := r.Group("/api")
	api.Use(mw.Audit(auditSvc))
	{
		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", authed, authH.Logout)
		authG.POST("/refresh", authed, authH.Refresh)

		friendsG := api.Group("/friends")
		friendsG.Use(authed)
		friendsG.GET("", friendH.List)
		friendsG.DELETE("/:user_id", friendH.Remove)
		friendsG.POST("/requests", friendH.Send)
		friendsG.GET("/requests", friendH.Incoming)
		friendsG.GET("/requests/unread", friendH.UnreadCount)
		friendsG.POST("/requests/read", friendH.MarkRead)
		friendsG.POST("/requests/:id/accept", friendH.Accept)
		friendsG.POST("/requests/:id/reject", friendH.Reject)
		friendsG.DELETE("/requests/:user_id", friendH.Cancel)

		blocksG := api.Group("/blocks")
		blocksG.Use(authed)
		blocksG.GET("", friendH.BlockedList)
		blocksG.POST("/:user_id", friendH.Block)
		blocksG.DELETE("/:user_id", friendH.Unblock)

		usersG := api.Group("/users")
		usersG.Use(authed)
		usersG.GET("/search", friendH.Search)
		usersG.GET("/discover", friendH.Discover)
		usersG.GET("/:user_id", profileH.View)
		usersG.GET("/:user_id/relation", friendH.Relation)
		usersG.POST("/:user_id/like", profileH.ToggleLike)
		usersG.GET("/:user_id/portfolio", profileH.Portfolio)

		portfolioG := api.Group("/portfolio")
		portfolioG.Use(authed)
		portfolioG.POST("", profileH.AddPortfolioItem)
		portfolioG.DELETE("/:id", profileH.DeletePortfolioItem)

		repG := api.Group("/reputation")
		repG.Use(authed)
		repG.GET("/leaderboard", repH.Leaderboard)
		repG.GET("/me", repH.Me)
		repG.GET("/:user_id", repH.Of)

		notifG := api.Group("/notifications")
		notifG.Use(authed)
		notifG.GET("", notifH.List)
		notifG.GET("/unread", notifH.UnreadCount)
		notifG.POST("/read", notifH.MarkAllRead)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Security.AdminIPs))
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.POST("/reputation/recompute", adminH.RecomputeReputation)
		adminG.POST("/accounts/:id/active", adminH.SetAccountActive)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

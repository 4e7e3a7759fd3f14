package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/kwaczek/hry-portal/internal/config"
	"github.com/kwaczek/hry-portal/internal/db"
	"github.com/kwaczek/hry-portal/internal/discovery"
	"github.com/kwaczek/hry-portal/internal/http/handlers"
	"github.com/kwaczek/hry-portal/internal/logger"
	"github.com/kwaczek/hry-portal/internal/matchmaking"
	"github.com/kwaczek/hry-portal/internal/rating"
	"github.com/kwaczek/hry-portal/internal/repository"
	"github.com/kwaczek/hry-portal/internal/room"
	"github.com/kwaczek/hry-portal/internal/service"
	"github.com/kwaczek/hry-portal/internal/ws"
)

// Version is set at build time
var Version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Get()

	auth := service.NewAuthService(cfg.JWTSecret)

	// persistence is optional: without a database the portal still runs,
	// matches just leave no trace
	var ratingRepo *repository.RatingRepository
	var ratingSvc *rating.Service
	if cfg.DatabaseURL != "" {
		pool := db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		ratingRepo = repository.NewRatingRepository(pool)
		ratingSvc = rating.NewService(ratingRepo, repository.NewMatchRepository(pool))
	} else {
		log.Warn("DATABASE_URL not set, ratings and match history disabled")
		ratingSvc = rating.NewService(nil, nil)
	}

	// Redis shares the matchmaking queue and room listing across instances
	var queueStore matchmaking.Store = matchmaking.NewMemoryStore()
	var directory discovery.Directory = discovery.NewMemoryDirectory()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to ping redis", "error", err)
		}
		cancel()
		queueStore = matchmaking.NewRedisStore(rdb)
		directory = discovery.NewRedisDirectory(rdb)
		log.Info("redis connected", "addr", cfg.RedisAddr)
	}

	registry := room.NewRegistry(ratingSvc, room.DefaultOptions())
	queue := matchmaking.NewQueue(queueStore, matchmaking.DefaultWaitTimeout)
	hub := ws.NewHub(registry, queue, directory)

	sweepCtx, stopSweepers := context.WithCancel(context.Background())
	defer stopSweepers()
	hub.StartSweepers(sweepCtx)

	r := gin.Default()

	// the portal frontend lives on another origin
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterRoutes(r, &handlers.Handler{
		Auth:          auth,
		Hub:           hub,
		Directory:     directory,
		Ratings:       ratingRepo,
		AllowedOrigin: cfg.PortalURL,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	stopSweepers()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
}

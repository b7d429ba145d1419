package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mathbattle/internal/cache"
	"mathbattle/internal/config"
	"mathbattle/internal/engine"
	"mathbattle/internal/repository"
	"mathbattle/internal/service"
	"mathbattle/internal/settle"
	"mathbattle/internal/store"
	"mathbattle/internal/transport/rest"
)

// @title Math Battle API
// @version 1.0
// @description Polling-based multiplayer arithmetic battle rooms
// @host localhost:8080
// @BasePath /api
func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(cw)

	cfg := config.Load()
	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal().Err(err).Msg("failed to ping MongoDB")
	}
	log.Info().Msg("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := strings.TrimPrefix(cfg.RedisAddr, "redis://")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping Redis")
	}
	log.Info().Msg("connected to Redis")

	// Stores, caches, repositories
	roomStore := store.NewRedisStore(rdb, cfg.RoomTTL)
	leaderboard := cache.NewLeaderboardCache(rdb)
	userRepo := repository.NewUserRepo(db)

	// Services
	authSvc := service.NewAuthService()
	profileSvc := service.NewProfileService(userRepo, leaderboard)

	eng := engine.New(roomStore)
	eng.SetSettler(settle.NewService(profileSvc))

	// Background sweep for rooms abandoned without a leave
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go engine.NewSweeper(roomStore, cfg.RoomMaxIdle).Run(sweepCtx, cfg.SweepInterval)

	router := rest.NewRouter(&rest.Container{
		Engine:         eng,
		AuthService:    authSvc,
		ProfileService: profileSvc,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen and serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

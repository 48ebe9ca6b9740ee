// @title                       Car School API
// @version                     1.0
// @description                 Administration backend of a driving school: users, roles, channels and posts.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hits/carschool/internal/api"
	"github.com/hits/carschool/internal/api/handler"
	"github.com/hits/carschool/internal/core/security"
	"github.com/hits/carschool/internal/core/service"
	"github.com/hits/carschool/internal/infrastructure/db/mongo"
	"github.com/hits/carschool/internal/infrastructure/db/redis"
	"github.com/hits/carschool/internal/pkg/config"
	"github.com/hits/carschool/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "carschool",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer rdb.Close()

	// --- Persistence ---
	identities := mongo.NewIdentityStore(db)
	channels := mongo.NewChannelRepository(db)
	posts := mongo.NewPostRepository(db)
	if err := mongo.EnsureIndexes(ctx, identities, channels, posts); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	// --- Security ---
	codec, err := security.NewTokenCodec(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid JWT secret")
	}
	hasher := security.NewPasswordHasher(cfg.Auth.BcryptCost)

	// --- Services ---
	seed := service.ManagerSeed{Email: cfg.Seed.Email, Password: cfg.Seed.Password, Phone: cfg.Seed.Phone}
	if err := service.NewBootstrapper(identities, hasher, logger.Component("bootstrap")).Run(ctx, seed); err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}

	idempotency := redis.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
	readiness := map[string]handler.DependencyCheck{
		"mongodb": handler.MongoCheck(db),
		"redis":   handler.RedisCheck(rdb),
	}

	e := api.NewRouter(api.Dependencies{
		AuthService:    service.NewAuthService(identities, codec, hasher, cfg.Auth.TokenTTL, logger.Component("auth")),
		UserService:    service.NewUserService(identities, hasher, logger.Component("users")),
		ChannelService: service.NewChannelService(channels, identities, logger.Component("channels")),
		PostService:    service.NewPostService(posts, channels, idempotency, logger.Component("posts")),
		Authenticator:  security.NewAuthenticator(codec, identities),
		Policy:         security.DefaultPolicy(),
		Readiness:      readiness,
		Log:            logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

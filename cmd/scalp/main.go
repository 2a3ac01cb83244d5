package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/scalpr/scalp/internal/application/auth"
	"github.com/scalpr/scalp/internal/application/directory"
	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/application/provisioning"
	"github.com/scalpr/scalp/internal/config"
	infraauth "github.com/scalpr/scalp/internal/infrastructure/auth"
	httprouter "github.com/scalpr/scalp/internal/infrastructure/http"
	"github.com/scalpr/scalp/internal/infrastructure/http/handlers"
	"github.com/scalpr/scalp/internal/infrastructure/http/middleware"
	"github.com/scalpr/scalp/internal/infrastructure/identity"
	"github.com/scalpr/scalp/internal/infrastructure/persistence/postgres"
	"github.com/scalpr/scalp/internal/infrastructure/persistence/sqlite"
	"github.com/scalpr/scalp/internal/infrastructure/queue"
	"github.com/scalpr/scalp/internal/infrastructure/wallet"
)

const (
	serviceName = "scalp"
	apiVersion  = "1.0.0"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if cfg.WeakSecret() {
		log.Warn().Msg("JWT_SECRET_KEY is shorter than 32 bytes")
	}

	ctx := context.Background()

	var (
		store       ports.UserStore
		healthCheck []handlers.HealthCheck
	)
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Database.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("open sqlite database")
		}
		defer s.Close()
		store = s
	default:
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to database")
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("ping database")
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
		store = postgres.NewUserStore(pool)
	}
	healthCheck = append(healthCheck, handlers.HealthCheck{Name: "database", Ping: store.Ping})

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}
	if redisClient != nil {
		healthCheck = append(healthCheck, handlers.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	users := directory.New(store)

	issuer, err := infraauth.NewCredentialIssuer(cfg.JWT.SecretKey, cfg.JWT.Algorithm)
	if err != nil {
		log.Fatal().Err(err).Msg("create credential issuer")
	}

	var wallets ports.WalletProvider
	if cfg.Wallet.Endpoint != "" {
		wallets = wallet.NewHTTPProvider(cfg.Wallet.Endpoint,
			wallet.WithSecretKey(cfg.Wallet.SecretKey),
			wallet.WithClientID(cfg.Wallet.ClientID),
		)
	} else {
		log.Warn().Msg("WALLET_ENDPOINT not set; using deterministic development wallets")
		wallets = wallet.NewDeterministicProvider()
	}
	provisioner := provisioning.NewProvisioner(users, wallets, log.With().Str("component", "provisioner").Logger())

	var (
		scheduler   ports.ProvisionScheduler
		asynqWorker *queue.Worker
		localPool   *queue.Pool
	)
	if redisClient != nil {
		redisOpt, _ := redis.ParseURL(cfg.Redis.URL)
		asynqOpt := asynq.RedisClientOpt{Addr: redisOpt.Addr, Username: redisOpt.Username, Password: redisOpt.Password, DB: redisOpt.DB, TLSConfig: redisOpt.TLSConfig}
		asynqScheduler := queue.NewAsynqScheduler(asynqOpt, log)
		defer asynqScheduler.Close()
		scheduler = asynqScheduler
		asynqWorker = queue.NewWorker(asynqOpt, cfg.Provision.Workers, provisioner, log)
		if err := asynqWorker.Start(); err != nil {
			log.Fatal().Err(err).Msg("start asynq worker")
		}
	} else {
		localPool = queue.NewPool(queue.PoolConfig{
			Workers:   cfg.Provision.Workers,
			QueueSize: cfg.Provision.QueueSize,
			Timeout:   cfg.Provision.Timeout,
		}, provisioner, log)
		scheduler = localPool
	}

	resolver := identity.NewGoogleResolver(identity.GoogleConfig{UserInfoURL: cfg.Google.UserInfoURL})
	googleUC := auth.NewGoogleSignIn(resolver, users, issuer, scheduler, cfg.JWT.Expiration, log)
	emailUC := auth.NewEmailSignIn(users, issuer, scheduler, cfg.JWT.Expiration, log)
	currentUserUC := auth.NewCurrentUser(issuer, users)

	limits := middleware.RateLimitConfig{
		RatePerIP:   cfg.RateLimit.RatePerIP,
		RatePerUser: cfg.RateLimit.RatePerUser,
		Redis:       redisClient,
	}
	ipLimit, err := middleware.NewIPRateLimiter(limits)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	userLimit, err := middleware.NewUserRateLimiter(limits)
	if err != nil {
		log.Fatal().Err(err).Msg("create user rate limiter")
	}
	secureMiddleware := middleware.NewSecure(middleware.SecureOptions(cfg.Secure.IsDevelopment, cfg.Secure.AllowedHosts))

	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:       handlers.NewAuthHandler(googleUC, emailUC, log),
		HealthHandler:     handlers.NewHealthHandler(healthCheck...),
		Info:              handlers.Info{Name: serviceName, Version: apiVersion},
		RequireCredential: middleware.RequireCredential(currentUserUC, log),
		Log:               log,
		Secure:            secureMiddleware,
		CORS:              middleware.CORS(cfg.CORS.AllowedOrigins, nil, nil),
		IPRateLimit:       ipLimit,
		UserRateLimit:     userLimit,
		APIVersion:        apiVersion,
		Metrics:           true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("driver", cfg.Database.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if localPool != nil {
		if err := localPool.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("provisioning pool did not drain")
		}
	}
	if asynqWorker != nil {
		asynqWorker.Shutdown()
	}
	log.Info().Msg("server stopped")
}

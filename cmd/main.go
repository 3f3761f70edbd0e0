package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ahmed0rashed/laya-store-backend/internal/cache"
	"github.com/Ahmed0rashed/laya-store-backend/internal/config"
	h "github.com/Ahmed0rashed/laya-store-backend/internal/http"
	"github.com/Ahmed0rashed/laya-store-backend/internal/logger"
	"github.com/Ahmed0rashed/laya-store-backend/internal/publisher"
	"github.com/Ahmed0rashed/laya-store-backend/internal/repository"
	"github.com/Ahmed0rashed/laya-store-backend/internal/service"
	"github.com/Ahmed0rashed/laya-store-backend/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, envLoaded := config.Load(".env")

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	if !envLoaded {
		zl.Info("no .env file found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up MongoDB connection
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		zl.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	zl.Info("connected to MongoDB", zap.String("database", cfg.MongoDBName))

	carts := repository.NewMongoCartRepository(mongoDB)
	products := repository.NewMongoProductRepository(mongoDB)
	categories := repository.NewMongoCategoryRepository(mongoDB)
	orders := repository.NewMongoOrderRepository(mongoDB)
	users := repository.NewMongoUserRepository(mongoDB)

	indexCtx, cancelIndex := context.WithTimeout(ctx, 30*time.Second)
	err = repository.EnsureIndexes(indexCtx, carts, products, categories, orders, users)
	cancelIndex()
	if err != nil {
		zl.Fatal("failed to create indexes", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zl.Fatal("redis connection failed", zap.Error(err))
	}
	zl.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	images, err := storage.NewMinIOImageStore(ctx, storage.Config{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
		PublicURL: cfg.MinIOPublicURL,
	}, zl.Named("storage"))
	if err != nil {
		zl.Fatal("failed to set up image storage", zap.Error(err))
	}

	cartCache := cache.NewRedisCache(redisClient, cache.Options{
		TTL:    cfg.CartCacheTTL,
		Jitter: cfg.CartCacheJitter,
	})

	cartService := service.NewCartService(carts, products, cartCache, zl.Named("cart"))
	orderService := service.NewOrderService(orders, zl.Named("order"))
	catalogService := service.NewCatalogService(products, categories, images, zl.Named("catalog"))
	authService := service.NewAuthService(users, cfg.JWTSecret, cfg.JWTExpiresIn, zl.Named("auth"))

	if len(cfg.KafkaBrokers) > 0 {
		writer := publisher.NewKafkaWriter(cfg.KafkaBrokers, cfg.OrderEventsTopic)
		defer writer.Close()

		poller := publisher.NewOrderPoller(orders, writer, publisher.Config{
			PollEvery: cfg.OutboxPollEvery,
			BatchSize: int64(cfg.OutboxBatchSize),
		}, zl.Named("outbox"))
		go poller.Run(ctx)
	} else {
		zl.Info("KAFKA_BROKERS not set, order events are not published")
	}

	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		AnonymousCartOwner: cfg.AnonymousCartOwner,
		AdminCatalogWrites: cfg.AdminCatalogWrites,
	}, h.Services{
		Carts:       cartService,
		Orders:      orderService,
		Catalog:     catalogService,
		Auth:        authService,
		RateLimiter: h.NewRateLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow),
	}, zl)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "laya-store"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("http server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	zl.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		zl.Error("mongo disconnect failed", zap.Error(err))
	}
	zl.Info("server exited")
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nkamath/calshare/internal/auth"
	"github.com/nkamath/calshare/internal/booking"
	"github.com/nkamath/calshare/internal/handlers"
	"github.com/nkamath/calshare/internal/janitor"
	"github.com/nkamath/calshare/internal/outbox"
	"github.com/nkamath/calshare/internal/sharetoken"
	"github.com/nkamath/calshare/internal/storage"
	"github.com/nkamath/calshare/internal/watch"
	"github.com/nkamath/calshare/libs/config"
	"github.com/nkamath/calshare/libs/db"
	"github.com/nkamath/calshare/libs/httpx"
	"github.com/nkamath/calshare/libs/kafkax"
	otelx "github.com/nkamath/calshare/libs/otel"
	"github.com/nkamath/calshare/libs/runtime"
)

func main() {
	config.LoadDotenv()

	service := config.String("SERVICE_NAME", "calshare")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, int32(config.Int("DB_MAX_CONNS", 10)))
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if config.String("MIGRATE_ON_START", "true") == "true" {
		if err := runMigrations(ctx, pool, logger); err != nil {
			logger.Error("migration failed", "err", err)
			panic(err)
		}
	}

	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}
	signer := auth.NewSigner(jwtSecret, config.Duration("JWT_TTL", time.Hour))

	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
		})
		defer rdb.Close()
	}

	defaults, err := config.LoadCalendarDefaults(config.String("CALENDAR_DEFAULTS_FILE", ""))
	if err != nil {
		logger.Warn("calendar defaults load failed, using builtins", "err", err)
	}

	users := storage.NewUserRepository(pool)
	calendars := storage.NewCalendarRepository(pool)
	events := storage.NewEventRepository(pool)
	requests := storage.NewRequestRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	resolver := sharetoken.NewResolver(calendars, rdb,
		config.Duration("SHARE_TOKEN_CACHE_TTL", 10*time.Minute), logger)
	bookingSvc := booking.NewService(storage.NewBookingStore(pool), logger)

	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go publisher.Run(ctx)

	hub := watch.NewHub(config.Duration("WATCH_POLL_INTERVAL", 3*time.Second), logger)
	go hub.Run(ctx)

	cleaner := janitor.New(outboxRepo, logger,
		config.String("JANITOR_SCHEDULE", "@hourly"),
		config.Duration("OUTBOX_RETENTION", 24*time.Hour))
	if err := cleaner.Start(ctx); err != nil {
		logger.Error("janitor start failed", "err", err)
	} else {
		defer cleaner.Stop()
	}

	authHandler := handlers.NewAuthHandler(users, calendars, signer, defaults, logger)
	publicHandler := handlers.NewPublicHandler(resolver, events, bookingSvc, hub, logger)
	ownerHandler := handlers.NewOwnerHandler(calendars, events, requests, bookingSvc, resolver, hub, logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	}
	if rdb != nil {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}
	mux := runtime.NewBaseMuxWithReady(readyChecks...)

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Public routes are the anonymous attack surface; they get their own
	// rate limit in front.
	publicMux := http.NewServeMux()
	publicHandler.Register(publicMux)
	mux.Handle("/api/v1/public/", httpx.Chain(publicMux, publicRateLimit(rdb, logger)))

	ownerMux := http.NewServeMux()
	ownerHandler.Register(ownerMux)
	mux.Handle("/api/v1/owner/", httpx.Chain(ownerMux, auth.RequireBearer(signer)))

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithCORS(splitOrigins(config.String("CORS_ALLOWED_ORIGINS", "*"))),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, service)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// publicRateLimit prefers the Redis fixed-window limiter so all replicas
// share one budget; without Redis each instance falls back to a local
// token bucket.
func publicRateLimit(rdb *redis.Client, logger *slog.Logger) httpx.Middleware {
	limit := config.Int("PUBLIC_RATE_LIMIT", 120)
	if rdb != nil {
		return httpx.NewRedisRateLimiter(rdb, limit, time.Minute, "public").Middleware(logger, true)
	}
	return httpx.NewRateLimiter(float64(limit)/60, limit/4+1).Middleware()
}

func runMigrations(ctx context.Context, pool *db.Pool, logger *slog.Logger) error {
	path := config.String("MIGRATIONS_FILE", "db/migrations/001_init.sql")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("migrations file not found, skipping", "path", path)
			return nil
		}
		return err
	}
	if _, err := pool.Exec(ctx, string(raw)); err != nil {
		return err
	}
	logger.Info("migrations applied", "path", path)
	return nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}

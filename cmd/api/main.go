package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/storefront-engine/internal/app"
	"github.com/noah-isme/storefront-engine/internal/auth"
	"github.com/noah-isme/storefront-engine/internal/cart"
	"github.com/noah-isme/storefront-engine/internal/catalog"
	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/config"
	"github.com/noah-isme/storefront-engine/internal/discount"
	"github.com/noah-isme/storefront-engine/internal/health"
	"github.com/noah-isme/storefront-engine/internal/inventory"
	"github.com/noah-isme/storefront-engine/internal/obs"
	"github.com/noah-isme/storefront-engine/internal/ratelimit"
	"github.com/noah-isme/storefront-engine/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(obs.LogConfig{
		Format:  cfg.Obs.LogFormat,
		Level:   cfg.Obs.LogLevel,
		Service: "storefront-api",
	}).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	httpMetrics := obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName:   "storefront-api",
		Endpoint:      cfg.Obs.TracingEndpoint,
		Exporter:      cfg.Obs.TracingExporter,
		SamplingRatio: cfg.Obs.TracingSampling,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise tracing")
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}()

	if err := app.MigrateIfEnabled(cfg, &logger); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := app.OpenPostgres(startCtx, cfg, "storefront-api", &logger)
	if err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()

	redisClient, err := app.OpenRedis(startCtx, cfg, &logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("open redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	svcs, err := app.BuildServices(cfg, pool, redisClient, &logger, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise services")
	}

	authService, err := auth.NewService(auth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authMiddleware := auth.Middleware{Service: authService}

	limiterStore, err := ratelimit.NewRedisStore(redisClient, "limiter:")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter store")
	}
	onLimiterError := func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") }
	verificationLimit := ratelimit.Handler{
		Limiter: ratelimit.FixedWindow{Store: limiterStore},
		Config:  ratelimit.Config{Name: "verification-code", Key: ratelimit.ByUser("verification-code"), Window: time.Minute, Max: cfg.VerificationRateLimit},
		OnError: onLimiterError,
	}
	cartLimit := ratelimit.Handler{
		Limiter: ratelimit.SlidingWindow{Client: redisClient, Prefix: "sliding:"},
		Config:  ratelimit.Config{Name: "cart", Key: ratelimit.ByIP("cart"), Window: time.Minute, Max: cfg.CartRateLimit},
		OnError: onLimiterError,
	}
	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: svcs.Catalog})
	cartHandler := &cart.Handler{Svc: svcs.Cart}
	inventoryHandler := &inventory.Handler{Svc: svcs.Inventory}
	discountHandler := &discount.Handler{Svc: svcs.Discounts}

	healthHandler := health.Handler{Probes: []health.Probe{
		{Name: "db", Check: pool.Ping, Timeout: 500 * time.Millisecond},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }, Timeout: 300 * time.Millisecond},
	}}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.EnableHSTS}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products/{id}", catalogHandler.ProductDetail)

		v.Route("/cart", func(c chi.Router) {
			c.Use(cartLimit.Middleware)
			c.Post("/summary", cartHandler.Summary)
			c.Post("/lines/{lineId}/quantity", cartHandler.Quantity)
		})

		v.Route("/seller", func(s chi.Router) {
			s.Use(authMiddleware.RequireAuth)
			s.Use(auth.RequireRole(auth.RoleSeller, auth.RoleAdmin))

			s.Route("/discounts", func(d chi.Router) {
				d.Get("/", discountHandler.List)
				d.Post("/", discountHandler.Create)
				d.Get("/discountable", discountHandler.Discountable)
				d.Post("/cleanup", discountHandler.Cleanup)
				d.Put("/{name}", discountHandler.Update)
				d.Delete("/{name}", discountHandler.Delete)
			})

			s.Route("/products/{id}", func(p chi.Router) {
				p.With(verificationLimit.Middleware).Get("/verification-code", inventoryHandler.VerificationCode)
				p.Post("/status", inventoryHandler.SetStatus)
			})
		})

		v.Route("/inventory", func(in chi.Router) {
			in.Use(authMiddleware.RequireAuth)
			in.Use(auth.RequireRole(auth.RoleSystem, auth.RoleAdmin))
			in.With(idem.Middleware).Post("/decrement", inventoryHandler.Decrement)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           obs.Traced(r, "storefront-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-engine/internal/app"
	"github.com/noah-isme/storefront-engine/internal/config"
	"github.com/noah-isme/storefront-engine/internal/discount"
	"github.com/noah-isme/storefront-engine/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(obs.LogConfig{
		Format:  cfg.Obs.LogFormat,
		Level:   cfg.Obs.LogLevel,
		Service: "storefront-worker",
	}).With().Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := app.OpenPostgres(startCtx, cfg, "storefront-worker", &logger)
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

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis uri for asynq")
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Logger:      asynqLogger{logger: &logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("task", task.Type()).Msg("task failed")
		}),
	})
	mux := asynq.NewServeMux()
	mux.Handle(discount.TypeCleanup, discount.TaskHandler{Svc: svcs.Discounts})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: asynqLogger{logger: &logger},
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("enqueue discount cleanup")
				return
			}
			logger.Debug().Str("task_id", info.ID).Msg("discount cleanup enqueued")
		},
	})
	task, err := discount.NewCleanupTask("")
	if err != nil {
		logger.Fatal().Err(err).Msg("build cleanup task")
	}
	cronspec := fmt.Sprintf("@every %s", cfg.DiscountCleanupInterval)
	if _, err := scheduler.Register(cronspec, task, asynq.Unique(cfg.DiscountCleanupInterval)); err != nil {
		logger.Fatal().Err(err).Msg("register cleanup schedule")
	}

	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}
	logger.Info().Dur("cleanup_interval", cfg.DiscountCleanupInterval).Msg("worker started")

	<-ctx.Done()
	logger.Info().Msg("worker shutting down")
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

// asynqLogger routes asynq's internal logs through zerolog.
type asynqLogger struct {
	logger *zerolog.Logger
}

func (l asynqLogger) Debug(args ...any) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...any) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...any) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }

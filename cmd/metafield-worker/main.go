// Command metafield-worker applies the metafield schema and runs the cascade
// worker that removes metafield values after their definition is deleted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/metafields/pkg/config"
	"github.com/dmitrymomot/metafields/pkg/httpserver"
	"github.com/dmitrymomot/metafields/pkg/logger"
	"github.com/dmitrymomot/metafields/pkg/pg"
	"github.com/dmitrymomot/metafields/pkg/queue"
	"github.com/dmitrymomot/metafields/pkg/redis"
	"github.com/dmitrymomot/metafields/svc/metafield"
	"github.com/dmitrymomot/metafields/svc/metafield/pgstore"
)

type appConfig struct {
	Logger    logger.Config
	PG        pg.Config
	Redis     redis.Config
	Queue     queue.Config
	HTTP      httpserver.Config
	Metafield metafield.Config

	QueueMigrationsTable string `env:"QUEUE_MIGRATIONS_TABLE" envDefault:"queue_schema_migrations"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("metafield worker stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithConfig(cfg.Logger),
		logger.WithContextExtractors(logger.StoreIDExtractor),
	)
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgstore.Migrations, cfg.PG, log); err != nil {
		return err
	}
	queueMigrations := cfg.PG
	queueMigrations.MigrationsTable = cfg.QueueMigrationsTable
	if err := pg.Migrate(ctx, pool, queue.Migrations, queueMigrations, log); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close redis client", logger.Error(err))
		}
	}()

	tasks := queue.NewPostgresStorage(pool, cfg.Queue.RetryBackoff)
	enqueuer, err := queue.NewEnqueuer(tasks, queue.WithDefaultQueue(cfg.Metafield.CascadeQueue))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := metafield.NewMetrics(reg)
	if err != nil {
		return err
	}

	fields := metafield.NewMetafieldService(pgstore.New(pool),
		metafield.WithConfig(cfg.Metafield),
		metafield.WithLogger(log.With(logger.Component("metafield"))),
		metafield.WithMetrics(metrics),
		metafield.WithOwnerChecker(pgstore.NewOwnerChecker(pool)),
		metafield.WithLocker(redis.NewLocker(rdb, cfg.Redis)),
		metafield.WithPublisher(metafield.NewQueuePublisher(enqueuer, cfg.Metafield)),
	)

	worker, err := queue.NewWorker(tasks,
		queue.WithWorkerConfig(cfg.Queue),
		queue.WithQueues(cfg.Metafield.CascadeQueue),
		queue.WithWorkerLogger(log.With(logger.Component("queue"))),
	)
	if err != nil {
		return err
	}
	worker.RegisterHandlers(metafield.NewCascadeHandler(fields))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log,
		httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
		httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)},
	))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	server := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(worker.Run(ctx))
	g.Go(server.RunFunc(ctx, r))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

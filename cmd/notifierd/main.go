package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhvanit-ts/hrms-sub001/pkg/config"
	"github.com/dhvanit-ts/hrms-sub001/pkg/delivery"
	"github.com/dhvanit-ts/hrms-sub001/pkg/dispatcher"
	"github.com/dhvanit-ts/hrms-sub001/pkg/eventbus"
	"github.com/dhvanit-ts/hrms-sub001/pkg/httpserver"
	"github.com/dhvanit-ts/hrms-sub001/pkg/logger"
	"github.com/dhvanit-ts/hrms-sub001/pkg/notifications"
	"github.com/dhvanit-ts/hrms-sub001/pkg/ops"
	"github.com/dhvanit-ts/hrms-sub001/pkg/pg"
	"github.com/dhvanit-ts/hrms-sub001/pkg/realtime"
	"github.com/dhvanit-ts/hrms-sub001/pkg/redis"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	// Storage backends: "memory" for development, "postgres"/"redis" for
	// durable deployments.
	Storage    string `env:"NOTIFIER_STORAGE" envDefault:"memory"`
	EventStore string `env:"NOTIFIER_EVENT_STORE" envDefault:"memory"`

	EventTTL        time.Duration `env:"NOTIFIER_EVENT_TTL" envDefault:"24h"`
	MaxConcurrent   int           `env:"NOTIFIER_MAX_CONCURRENT" envDefault:"10"`
	MaxRetries      int           `env:"NOTIFIER_MAX_RETRIES" envDefault:"3"`
	QueueCapacity   int           `env:"NOTIFIER_QUEUE_CAPACITY" envDefault:"1000"`
	RoomCapacity    int           `env:"NOTIFIER_ROOM_CAPACITY" envDefault:"10000"`
	SessionBuffer   int           `env:"NOTIFIER_SESSION_BUFFER" envDefault:"16"`
	ShutdownTimeout time.Duration `env:"NOTIFIER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("notifierd exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.WithEnvironment(cfg.Environment, "notifierd"))
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var probes []ops.Option

	// Notification storage.
	var storage notifications.Storage
	switch cfg.Storage {
	case "postgres":
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return fmt.Errorf("load postgres config: %w", err)
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		storage = notifications.NewPostgresStorage(pool)
		probes = append(probes, ops.WithProbe("postgres", pg.Healthcheck(pool)))
	case "memory":
		storage = notifications.NewMemoryStorage()
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	// Idempotence gate for processed events.
	var eventStore notifications.EventStore
	switch cfg.EventStore {
	case "redis":
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return fmt.Errorf("load redis config: %w", err)
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = client.Close() }()
		eventStore = notifications.NewRedisEventStore(client, cfg.EventTTL)
		probes = append(probes, ops.WithProbe("redis", redis.Healthcheck(client)))
	case "memory":
		eventStore = notifications.NewMemoryEventStore(cfg.EventTTL)
	default:
		return fmt.Errorf("unknown event store backend %q", cfg.EventStore)
	}

	bus := eventbus.New(eventbus.WithLogger(log))
	rooms := realtime.NewRegistry(cfg.RoomCapacity, cfg.SessionBuffer)

	processor := notifications.NewProcessor(eventStore, storage, notifications.DefaultRules(),
		notifications.WithProcessorLogger(log),
		notifications.WithMaxConcurrent(cfg.MaxConcurrent),
		notifications.WithPublisher(bus),
	)
	deliverySvc := delivery.NewService(storage, rooms, delivery.WithLogger(log))

	disp := dispatcher.New(bus, processor, deliverySvc,
		dispatcher.WithLogger(log),
		dispatcher.WithMaxRetries(cfg.MaxRetries),
		dispatcher.WithQueueCapacity(cfg.QueueCapacity),
	)
	if err := disp.Start(ctx); err != nil {
		return fmt.Errorf("start dispatcher: %w", err)
	}

	handler := ops.NewHandler(disp, deliverySvc, storage,
		append(probes, ops.WithLogger(log))...)

	server := httpserver.New(
		httpserver.WithAddr(cfg.HTTPAddr),
		httpserver.WithLogger(log),
	)

	runErr := server.Run(ctx, handler.Router())

	// Shutdown ordering: the HTTP surface is already down; stop accepting
	// retries, flush pending announcements, drain in-flight handlers, then
	// drop the realtime rooms.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := disp.Close(shutdownCtx); err != nil {
		log.Error("dispatcher shutdown", logger.Error(err))
	}
	processor.Wait()
	if err := bus.Close(shutdownCtx); err != nil {
		log.Error("event bus shutdown", logger.Error(err))
	}
	if err := rooms.Close(); err != nil {
		log.Error("realtime registry shutdown", logger.Error(err))
	}

	return runErr
}

package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/zoneflow/zoneflow/pkg/cmd"
	"github.com/zoneflow/zoneflow/pkg/irods"
	"github.com/zoneflow/zoneflow/pkg/lock"
	"github.com/zoneflow/zoneflow/pkg/log"
	"github.com/zoneflow/zoneflow/pkg/otelhelper"
)

func main() {
	command := &cli.Command{
		Name:                  "zoneflow-worker",
		Usage:                 "Run landing zone flows submitted through the event bus",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "storage-url",
				Usage:   "Storage driver URL (inmem:// for development)",
				Value:   "inmem://",
				Sources: cli.EnvVars("STORAGE_URL"),
			},
			&cli.StringFlag{
				Name:    "storage-root",
				Usage:   "Root collection for all project data",
				Value:   irods.DefaultRoot,
				Sources: cli.EnvVars("STORAGE_ROOT"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL for project lock coordination",
				Value:   "redis://localhost:6379/0",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.BoolFlag{
				Name:    "lock-enabled",
				Usage:   "Coordinate flows through distributed project locks",
				Value:   true,
				Sources: cli.EnvVars("LOCK_ENABLED"),
			},
			&cli.IntFlag{
				Name:    "lock-retry-count",
				Usage:   "Lock acquisition attempts before giving up",
				Value:   2,
				Sources: cli.EnvVars("LOCK_RETRY_COUNT"),
			},
			&cli.DurationFlag{
				Name:    "lock-retry-interval",
				Usage:   "Wait between lock acquisition attempts",
				Value:   3 * time.Second,
				Sources: cli.EnvVars("LOCK_RETRY_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "checksum-scheme",
				Usage:   "Checksum scheme for file validation (MD5, SHA256)",
				Value:   "MD5",
				Sources: cli.EnvVars("CHECKSUM_SCHEME"),
			},
			&cli.IntFlag{
				Name:    "validate-limit",
				Usage:   "Concurrent validations allowed per project",
				Value:   4,
				Sources: cli.EnvVars("VALIDATE_LIMIT"),
			},
			&cli.StringSliceFlag{
				Name:    "prohibited-suffixes",
				Usage:   "File suffixes rejected during zone validation",
				Sources: cli.EnvVars("PROHIBITED_SUFFIXES"),
			},
			&cli.StringFlag{
				Name:    "admin-user",
				Usage:   "Backend admin account re-granted ownership on moves",
				Sources: cli.EnvVars("ADMIN_USER"),
			},
			&cli.StringFlag{
				Name:    "script-user",
				Usage:   "Service account granted write access on new zones",
				Sources: cli.EnvVars("SCRIPT_USER"),
			},
			&cli.StringFlag{
				Name:    "janitor-schedule",
				Usage:   "Cron schedule for the stuck zone sweep",
				Value:   "*/5 * * * *",
				Sources: cli.EnvVars("JANITOR_SCHEDULE"),
			},
			&cli.DurationFlag{
				Name:    "janitor-max-age",
				Usage:   "Busy age after which a zone is marked failed",
				Value:   2 * time.Hour,
				Sources: cli.EnvVars("JANITOR_MAX_AGE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("zoneflow-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing zoneflow worker")

			tracerProvider, err := otelhelper.InitTracer(ctx, "zoneflow-worker")
			if err != nil {
				return err
			}
			defer func() {
				if err := tracerProvider.Shutdown(context.WithoutCancel(ctx)); err != nil {
					logger.ErrorContext(ctx, "Failed to shut down tracer provider", "error", err)
				}
			}()

			checksumScheme, err := irods.ParseChecksumScheme(command.String("checksum-scheme"))
			if err != nil {
				return err
			}

			store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			storage, err := cmd.NewStorage(command.String("storage-url"))
			if err != nil {
				return err
			}

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			locks := lock.NewService(
				command.String("redis-url"),
				command.Bool("lock-enabled"),
				command.Int("lock-retry-count"),
				command.Duration("lock-retry-interval"),
				logger,
			)

			worker := NewWorkerManager(workerID, store, storage, eventBus, locks, WorkerConfig{
				StorageRoot:        command.String("storage-root"),
				ChecksumScheme:     checksumScheme,
				ValidateLimit:      command.Int("validate-limit"),
				ProhibitedSuffixes: command.StringSlice("prohibited-suffixes"),
				AdminUser:          command.String("admin-user"),
				ScriptUser:         command.String("script-user"),
				JanitorSchedule:    command.String("janitor-schedule"),
				JanitorMaxAge:      command.Duration("janitor-max-age"),
			}, logger)

			if err := worker.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to start worker", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

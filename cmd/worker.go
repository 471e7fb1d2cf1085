package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dbaltunis/interio-ai-canvas-sub011/config"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/cache"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/database"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/messaging"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/services"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker to process goods receipt messages from Azure Service Bus and run the batch schedule policy`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

	// Initialize database connections
	db, readOnlyDB, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	// Initialize cache
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	// Initialize services
	batchService, _, busClient, err := buildServices(cfg, db, readOnlyDB, redisCache)
	if err != nil {
		return err
	}
	if busClient != nil {
		defer busClient.Close()
	}

	// Start the goods receipt processor
	if cfg.Azure.ConnectionString != "" {
		processor, err := messaging.NewProcessor(cfg.Azure, cfg.Azure.ReceiptQueueName)
		if err != nil {
			return err
		}

		g.Go(func() error {
			log.Info().Str("queue", cfg.Azure.ReceiptQueueName).Msg("Starting goods receipt processor")
			return processor.ProcessMessages(ctx, batchService.ProcessGoodsReceiptMessage)
		})
	} else {
		log.Warn().Msg("Azure Service Bus not configured, goods receipts must come through the API")
	}

	// Start the schedule policy cron job
	if cfg.Procurement.AutoCreateEnabled {
		policy := services.NewSchedulePolicy(batchService, services.NewConfigScheduleSettings(cfg.Procurement))

		g.Go(func() error {
			log.Info().
				Dur("interval", cfg.Procurement.AutoCreateInterval).
				Msg("Starting batch schedule policy job")

			// Create a scheduler
			scheduler, err := gocron.NewScheduler()
			if err != nil {
				return err
			}

			_, err = scheduler.NewJob(
				gocron.DurationJob(cfg.Procurement.AutoCreateInterval),
				gocron.NewTask(func() {
					if err := policy.Run(ctx); err != nil {
						log.Error().Err(err).Msg("Schedule policy run failed")
					}
				}),
			)
			if err != nil {
				return err
			}

			// Start the scheduler
			scheduler.Start()

			// Wait for context cancellation
			<-ctx.Done()

			// Shutdown the scheduler
			return scheduler.Shutdown()
		})
	}

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}

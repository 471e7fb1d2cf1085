package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/dbaltunis/interio-ai-canvas-sub011/config"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/api"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/cache"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/clients"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/database"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/inventory"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/messaging"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/metrics"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/repositories"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/search"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/services"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/tracing"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server to manage material queues, batch orders and lead-time analytics`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
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

	// Initialize tracer
	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
	}

	// Initialize metrics
	metricsCollector := metrics.NewMetrics()

	// Initialize service dependencies
	batchService, leadTimeService, busClient, err := buildServices(cfg, db, readOnlyDB, redisCache)
	if err != nil {
		return err
	}
	if busClient != nil {
		defer busClient.Close()
	}

	// Initialize and start the server
	server := api.NewServer(cfg, batchService, leadTimeService, metricsCollector, tracer)

	// Start the server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Shutdown the server
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}

// buildServices wires repositories, collaborators and services. Shared between
// the api and worker commands.
func buildServices(
	cfg config.Config,
	db, readOnlyDB *gorm.DB,
	redisCache *cache.RedisCache,
) (*services.BatchService, *services.LeadTimeService, messaging.ServiceBusClient, error) {
	batchRepo := repositories.NewBatchOrderRepository(db, readOnlyDB)
	queueRepo := repositories.NewMaterialQueueRepository(db, readOnlyDB)
	trackingRepo := repositories.NewTrackingEventRepository(db, readOnlyDB)
	sampleRepo := repositories.NewLeadTimeSampleRepository(db, readOnlyDB)

	// Supplier registry, optional when no endpoint is configured
	var suppliers services.SupplierRegistry
	if cfg.Suppliers.BaseURL != "" {
		suppliers = clients.NewSupplierRegistryClient(cfg.Suppliers, redisCache)
	}

	// Inventory hook, falls back to log-only when the bus is not configured
	var inventoryHook services.InventoryAdjustmentHook
	var busClient messaging.ServiceBusClient
	if cfg.Azure.ConnectionString != "" {
		client, err := messaging.NewServiceBusClient(cfg.Azure, cfg.Azure.InventoryQueueName, "procurement")
		if err != nil {
			return nil, nil, nil, err
		}
		busClient = client
		inventoryHook = inventory.NewServiceBusHook(client)
	} else {
		inventoryHook = inventory.NewLoggingHook()
	}

	// Search indexer, optional
	var indexer services.BatchIndexer
	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
	} else {
		indexer = elasticClient
	}

	leadTimeService := services.NewLeadTimeService(sampleRepo, redisCache)
	settings := services.NewConfigScheduleSettings(cfg.Procurement)
	batchService := services.NewBatchService(
		batchRepo, queueRepo, trackingRepo,
		suppliers, inventoryHook, indexer, settings, leadTimeService,
	)

	return batchService, leadTimeService, busClient, nil
}

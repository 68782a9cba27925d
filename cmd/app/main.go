package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/money-movement/pkg/admin"
	"github.com/chris/money-movement/pkg/api"
	"github.com/chris/money-movement/pkg/bus"
	"github.com/chris/money-movement/pkg/config"
	"github.com/chris/money-movement/pkg/gate"
	"github.com/chris/money-movement/pkg/handlers"
	wshandler "github.com/chris/money-movement/pkg/handlers/websockets"
	"github.com/chris/money-movement/pkg/lifecycle"
	"github.com/chris/money-movement/pkg/logging"
	appmiddleware "github.com/chris/money-movement/pkg/middleware"
	"github.com/chris/money-movement/pkg/rabbitmq"
	"github.com/chris/money-movement/pkg/scheduler"
	"github.com/chris/money-movement/pkg/storage"
	dydbstore "github.com/chris/money-movement/pkg/storage/dynamodb"
	"github.com/chris/money-movement/pkg/swap"
	"github.com/chris/money-movement/pkg/websockets"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	logger = logger.With(zap.String("instance_id", instanceID))

	client := api.NewClient(cfg.RemoteAPIBaseURL, cfg.RemoteAPITimeout, logger)
	cues := bus.New(logger)

	limiter := newLimiter(ctx, cfg, logger)
	receipts := newReceiptStore(ctx, cfg, logger)
	stopRelay, relayed := startRelay(cfg, cues, instanceID, logger)
	defer stopRelay()

	sched, stopScheduler := newScheduler(ctx, cfg, cues, relayed, logger)
	defer stopScheduler()

	gates := gate.NewRegistry(client, limiter, logger)
	transfers := lifecycle.NewClient(client, cues, receipts, logger)
	swaps := swap.NewEngine(client, sched, cues, receipts, cfg.SwapSettlementDelay, logger)
	panel := admin.NewPanel(client, cues, logger)

	apiHandler := handlers.NewApiHandler(handlers.Deps{
		Gates:              gates,
		Transfers:          transfers,
		Swaps:              swaps,
		Receipts:           receipts,
		Panel:              panel,
		Remote:             client,
		Subscriber:         cues,
		PollInterval:       cfg.ExchangeRatePollInterval,
		SessionIdleTimeout: cfg.SessionIdleTimeout,
		Logger:             logger,
	})
	defer apiHandler.Close()

	hub := websockets.NewHub(logger)
	hubSub, err := hub.Attach(cues)
	if err != nil {
		logger.Fatal("failed to attach cue stream", zap.Error(err))
	}
	defer hubSub.Unsubscribe()

	metrics := appmiddleware.NewMetrics(prometheus.DefaultRegisterer)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(appmiddleware.NewStructuredLogger(logger))
	router.Use(metrics.Handler)
	router.Handle("/ws", wshandler.NewHandler(hub, logger))
	router.Handle("/metrics", promhttp.Handler())
	router.Mount("/", apiHandler.Routes())

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newLimiter uses Redis when configured. Without it PIN attempts are only
// counted in this process.
func newLimiter(ctx context.Context, cfg config.Config, logger *zap.Logger) gate.AttemptLimiter {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set; counting pin attempts in memory")
		return gate.NewMemoryAttemptLimiter(cfg.PINMaxAttempts, cfg.PINAttemptWindow)
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid REDIS_URL; counting pin attempts in memory", zap.Error(err))
		return gate.NewMemoryAttemptLimiter(cfg.PINMaxAttempts, cfg.PINAttemptWindow)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable; counting pin attempts in memory", zap.Error(err))
		_ = rdb.Close()
		return gate.NewMemoryAttemptLimiter(cfg.PINMaxAttempts, cfg.PINAttemptWindow)
	}
	return gate.NewRedisAttemptLimiter(rdb, cfg.RedisKeyPrefix, cfg.PINMaxAttempts, cfg.PINAttemptWindow)
}

func newReceiptStore(ctx context.Context, cfg config.Config, logger *zap.Logger) storage.ReceiptStore {
	if cfg.DynamoDBReceiptsTableName == "" {
		logger.Warn("DYNAMODB_RECEIPTS_TABLE_NAME not set; keeping receipts in memory")
		return storage.NewMemoryStore()
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Warn("unable to load AWS config; keeping receipts in memory", zap.Error(err))
		return storage.NewMemoryStore()
	}
	return dydbstore.New(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBReceiptsTableName, logger)
}

// newScheduler sends settlement cues through SQS when a queue is configured
// and the cue relay is running, since the settlement worker answers over the
// cue exchange. Otherwise it falls back to in-process timers.
func newScheduler(ctx context.Context, cfg config.Config, cues *bus.Bus, relayed bool, logger *zap.Logger) (scheduler.Scheduler, func()) {
	timers := func() (scheduler.Scheduler, func()) {
		s := scheduler.NewTimerScheduler(cues, logger)
		return s, s.Stop
	}
	if cfg.SQSQueueURL == "" {
		logger.Warn("SQS_QUEUE_URL not set; settling swaps with in-process timers")
		return timers()
	}
	if !relayed {
		logger.Warn("cue relay is not running; settling swaps with in-process timers")
		return timers()
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Warn("unable to load AWS config; using in-process timers", zap.Error(err))
		return timers()
	}
	return scheduler.NewSQSScheduler(sqs.NewFromConfig(awsCfg), cfg.SQSQueueURL, logger), func() {}
}

// startRelay connects the local bus to the cue exchange so that cues
// published by other processes reach this one. It reports whether the relay
// is running.
func startRelay(cfg config.Config, cues *bus.Bus, instanceID string, logger *zap.Logger) (func(), bool) {
	noop := func() {}
	if cfg.RabbitMQURL == "" {
		logger.Warn("RABBITMQ_URL not set; cues stay in this process")
		return noop, false
	}

	producer, err := rabbitmq.NewProducer(cfg.RabbitMQURL, cfg.CueExchange, logger)
	if err != nil {
		logger.Warn("failed to connect cue producer; cues stay in this process", zap.Error(err))
		return noop, false
	}
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL, logger)
	if err != nil {
		producer.Close()
		logger.Warn("failed to connect cue consumer; cues stay in this process", zap.Error(err))
		return noop, false
	}

	relay := rabbitmq.NewRelay(cues, producer, instanceID, logger)
	queue := cfg.CueQueuePrefix + "." + instanceID
	opts := rabbitmq.QueueOptions{AutoDelete: true, Exclusive: true}
	if err := consumer.ConsumeWithBindings(cfg.CueExchange, queue, opts, relay.Bindings()); err != nil {
		consumer.Close()
		producer.Close()
		logger.Warn("failed to consume cues; cues stay in this process", zap.Error(err))
		return noop, false
	}
	relay.Start()
	logger.Info("cue relay started", zap.String("exchange", cfg.CueExchange), zap.String("queue", queue))

	return func() {
		relay.Stop()
		consumer.Close()
		producer.Close()
	}, true
}

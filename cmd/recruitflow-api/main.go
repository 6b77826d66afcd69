package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	apiserver "github.com/recruitflow/recruitflow/internal/api_server"
	"github.com/recruitflow/recruitflow/internal/config"
	"github.com/recruitflow/recruitflow/internal/events"
	"github.com/recruitflow/recruitflow/internal/extraction"
	handlers "github.com/recruitflow/recruitflow/internal/handlers/v1alpha1"
	"github.com/recruitflow/recruitflow/internal/llm"
	"github.com/recruitflow/recruitflow/internal/objstore"
	"github.com/recruitflow/recruitflow/internal/progress"
	"github.com/recruitflow/recruitflow/internal/scheduler"
	"github.com/recruitflow/recruitflow/internal/service"
	"github.com/recruitflow/recruitflow/internal/store"
	"github.com/recruitflow/recruitflow/pkg/log"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		zap.S().Fatalw("failed to load configuration", "error", err)
	}

	logLvl, err := zap.ParseAtomicLevel(cfg.Service.LogLevel)
	if err != nil {
		logLvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger := log.InitLog(logLvl)
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	zap.S().Info("Starting API service")
	defer zap.S().Info("API service stopped")

	db, err := store.InitDB(cfg)
	if err != nil {
		zap.S().Fatalw("failed to initialize data store", "error", err)
	}
	st := store.NewStore(db)
	defer st.Close()

	if err := st.InitialMigration(); err != nil {
		zap.S().Fatalw("failed to run initial migration", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	objects, err := objstore.NewMinioStore(cfg)
	if err != nil {
		zap.S().Fatalw("failed to initialize object storage", "error", err)
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		zap.S().Fatalw("failed to ensure storage bucket", "error", err)
	}

	generator, err := llm.NewClientFromConfig(cfg)
	if err != nil {
		zap.S().Fatalw("failed to initialize model providers", "error", err)
	}

	producer := events.NewEventProducer(&events.StdoutWriter{})
	defer func() { _ = producer.Close() }()

	batchSrv := service.NewBatchService(
		st,
		progress.NewMemoryStore(),
		objects,
		llm.NewScorer(generator),
		llm.NewOpenAIEmbedder(cfg.Llm.OpenAiApiKey, cfg.Llm.EmbeddingModel),
		extraction.NewInfoExtractor(generator),
		producer,
		service.WithMaxBatchFiles(cfg.Service.MaxBatchFiles),
		service.WithRunContext(ctx),
	)
	syncSrv := service.NewSyncService(st, batchSrv, cfg)
	handler := handlers.NewServiceHandler(batchSrv, syncSrv)

	go scheduler.New(st, syncSrv, scheduler.DefaultInterval).Run(ctx)

	go func() {
		listener, err := newListener(cfg.Service.Address)
		if err != nil {
			zap.S().Fatalw("failed to create listener", "error", err)
		}
		if err := apiserver.New(cfg, handler, listener).Run(ctx); err != nil {
			zap.S().Fatalw("failed to run api server", "error", err)
		}
		cancel()
	}()

	go func() {
		listener, err := newListener(cfg.Service.MetricsAddress)
		if err != nil {
			zap.S().Fatalw("failed to create metrics listener", "error", err)
		}
		if err := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener).Run(ctx); err != nil {
			zap.S().Fatalw("failed to run metrics server", "error", err)
		}
		cancel()
	}()

	<-ctx.Done()
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}

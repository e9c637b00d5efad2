package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"kifu/internal/adapters"
	"kifu/internal/bootstrap"
	gameDelivery "kifu/internal/delivery/game"
	ownMiddleware "kifu/internal/middleware"
	repo "kifu/internal/repository"
	gameuc "kifu/internal/usecase/game"
	"kifu/internal/usecase/layout"
)

type mainDeliveryHandler struct {
	game *gameDelivery.GameHandler
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	logger := NewLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Errorw("Failed to setup configuration", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	databaseAdapters := initDatabaseAdapters(ctx, logger, *cfg)
	defer databaseAdapters.redisAdapter.Close(context.Background())
	if databaseAdapters.mongoAdapter != nil {
		defer databaseAdapters.mongoAdapter.Close(context.Background())
	}

	gameUC := initGameUseCase(*cfg, logger, databaseAdapters)

	if cfg.EnginePath != "" {
		engine, err := repo.StartKatago(cfg.EnginePath, strings.Fields(cfg.EngineArgs), logger, gameUC.RouteAnalysis)
		if err != nil {
			logger.Fatalw("Failed to start analysis engine", "error", err)
		}
		defer func() {
			if err := engine.Halt(); err != nil {
				logger.Warnw("Failed to halt analysis engine", "error", err)
			}
			if err := engine.Close(); err != nil {
				logger.Warnw("Analysis engine exited with error", "error", err)
			}
		}()
		gameUC.SetEngine(engine)
		go watchEngine(ctx, engine, gameUC, logger)
	}

	if cfg.ImportDir != "" {
		if _, err := gameUC.ImportDirectory(ctx, cfg.ImportDir); err != nil {
			logger.Errorw("Failed to import records", "dir", cfg.ImportDir, "error", err)
		}
	}

	r := chi.NewRouter()
	handlers := &mainDeliveryHandler{game: gameDelivery.NewGameHandler(logger, gameUC)}
	handlers.Router(r, cfg.IsLocalCors)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Infof("Server is running on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalw("Failed to start server", "error", err)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	zap.ReplaceGlobals(logger)
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)

	h.game.Routes(r)
	r.Handle("/metrics", promhttp.Handler())
}

// initDatabaseAdapters connects to Redis, and to Mongo when MONGO_URI is set.
func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg bootstrap.Config) *dataBaseAdapters {
	redisAdapter := adapters.NewAdapterRedis(&cfg, log)
	if err := redisAdapter.Init(ctx); err != nil {
		log.Fatalw("Failed to initialize Redis", "error", err)
	}

	var mongoAdapter *adapters.AdapterMongo
	if cfg.MongoUri != "" {
		mongoAdapter = adapters.NewAdapterMongo(&cfg, log)
		if err := mongoAdapter.Init(ctx); err != nil {
			log.Fatalw("Failed to initialize MongoDB", "error", err)
		}
	}

	log.Info("Database adapters initialized")
	return &dataBaseAdapters{
		redisAdapter: redisAdapter,
		mongoAdapter: mongoAdapter,
	}
}

func initGameUseCase(cfg bootstrap.Config, log *zap.SugaredLogger, databaseAdapters *dataBaseAdapters) *gameuc.GameUseCase {
	records := repo.NewRecordStore(databaseAdapters.redisAdapter.GetClient(), cfg.RecordTTL, log)

	var archive gameuc.ArchiveStore
	if databaseAdapters.mongoAdapter != nil {
		archive = repo.NewArchiveStore(databaseAdapters.mongoAdapter.Database, cfg.PageLimitGames, log)
	}

	settings := gameuc.Settings{
		Load:     gameuc.LoadOptions{Relaxed: cfg.LaxSGF},
		TabLimit: cfg.TabLimit,
		View: layout.View{
			Width:   cfg.ViewWidth,
			Height:  cfg.ViewHeight,
			Spacing: cfg.TreeSpacing,
		},
		Analysis: gameuc.AnalysisSettings{
			Rules:     cfg.DefaultRules,
			Komi:      cfg.DefaultKomi,
			BoardSize: cfg.DefaultBoardSize,
			MaxVisits: cfg.EngineMaxVisits,
		},
	}
	return gameuc.NewGameUseCase(records, archive, settings, log)
}

// watchEngine disables analysis once the engine's output ends.
func watchEngine(ctx context.Context, engine *repo.KatagoClient, gameUC *gameuc.GameUseCase, log *zap.SugaredLogger) {
	select {
	case <-engine.Done():
		log.Errorw("Analysis engine stopped, analysis disabled", "pending", engine.Pending())
		gameUC.SetEngine(nil)
	case <-ctx.Done():
	}
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"chess_mentor/internal/adapters"
	"chess_mentor/internal/bootstrap"
	authDelivery "chess_mentor/internal/delivery/auth"
	gameDelivery "chess_mentor/internal/delivery/game"
	reviewDelivery "chess_mentor/internal/delivery/review"
	ownMiddleware "chess_mentor/internal/middleware"
	"chess_mentor/internal/repository"
	"chess_mentor/internal/usecase/learn"
)

type mainDeliveryHandler struct {
	auth   *authDelivery.AuthHandler
	game   *gameDelivery.GameHandler
	review *reviewDelivery.ReviewHandler
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	databaseAdapters := initDatabaseAdapters(ctx, logger, cfg)
	defer databaseAdapters.mongoAdapter.Close(ctx)
	defer databaseAdapters.redisAdapter.Close(ctx)

	engine := repository.NewEngineClient(cfg, logger)
	if !engine.Init(ctx) {
		// degraded mode: play and hints refuse, the rest of the API works
		logger.Warn("no chess engine available, analysis features are disabled")
	}
	defer engine.Quit()

	if cfg.ArchiveImportDir != "" {
		go importArchive(ctx, logger, cfg, databaseAdapters)
	}

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(*cfg, logger, engine, databaseAdapters)
	handlers.Router(r, cfg.IsLocalCors)

	addr := ":" + cfg.ServerPort
	logger.Infof("Server is running on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)

	r.Post("/register", h.auth.Register)
	r.Post("/login", h.auth.Login)
	r.Delete("/logout", h.auth.Logout)

	r.Post("/NewGame", h.game.HandleNewGame)
	r.Get("/startGame", h.game.HandleStartGame)
	r.Post("/getGameById", h.game.GetGameById)
	r.Get("/archive", h.game.HandleArchive)

	r.Get("/review", h.review.HandleReview)
	r.Get("/review/report", h.review.HandleReport)
	r.Get("/review/pgn", h.review.HandlePGN)
}

func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *dataBaseAdapters {
	mongoAdapter := adapters.NewAdapterMongo(cfg)
	if err := mongoAdapter.Init(ctx); err != nil {
		log.Fatal("Failed to initialize MongoDB", zap.Error(err))
	}

	redisAdapter := adapters.NewAdapterRedis(cfg)
	if err := redisAdapter.Init(ctx); err != nil {
		log.Fatal("Failed to initialize Redis", zap.Error(err))
	}

	log.Info("Database adapters initialized")
	return &dataBaseAdapters{
		redisAdapter: redisAdapter,
		mongoAdapter: mongoAdapter,
	}
}

func initializeDeliveryHandlers(
	cfg bootstrap.Config,
	log *zap.SugaredLogger,
	engine *repository.EngineClient,
	databaseAdapters *dataBaseAdapters,
) *mainDeliveryHandler {
	book, err := repository.NewOpeningBook()
	if err != nil {
		log.Fatal("Failed to load opening book", zap.Error(err))
	}

	llm := repository.NewLlmRepository(adapters.NewLlmAdapter(cfg.MistralApiKey, cfg.MistralAgentKey), log)

	authDeliveryHandler := authDelivery.NewAuthHandler(databaseAdapters.redisAdapter, databaseAdapters.mongoAdapter, log)
	gameDeliveryHandler := gameDelivery.NewGameHandler(cfg, log, databaseAdapters.mongoAdapter, databaseAdapters.redisAdapter, engine, book, authDeliveryHandler)
	reviewDeliveryHandler := reviewDelivery.NewReviewHandler(cfg, log, databaseAdapters.mongoAdapter, databaseAdapters.redisAdapter, engine, llm, authDeliveryHandler)

	return &mainDeliveryHandler{
		auth:   authDeliveryHandler,
		game:   gameDeliveryHandler,
		review: reviewDeliveryHandler,
	}
}

func importArchive(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config, databaseAdapters *dataBaseAdapters) {
	learner := learn.NewLearner(
		repository.NewPatternStorage(databaseAdapters.redisAdapter.GetClient(), log),
		log,
	)
	imported, err := learner.ImportArchiveDir(ctx, cfg.ArchiveImportDir)
	if err != nil {
		log.Warnf("archive import failed: %v", err)
		return
	}
	log.Infof("imported %d archive games", imported)
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
	time.Sleep(1 * time.Second)
}

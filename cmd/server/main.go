package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/api/option"

	"whispers/backend/internal/config"
	"whispers/backend/internal/database"
	"whispers/backend/internal/garden"
	"whispers/backend/internal/handlers"
	"whispers/backend/internal/middleware"
)

func main() {
	cfg, envFileLoaded, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()
	if !envFileLoaded {
		logger.Info("No .env file found, relying on environment variables")
	}

	ctx := context.Background()

	var app *firebase.App
	if cfg.NeedsFirebase() {
		app, err = newFirebaseApp(ctx, cfg)
		if err != nil {
			logger.Fatal("error initializing app", zap.Error(err))
		}
	}

	store, closeStore, err := newStore(ctx, cfg, app, logger)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeStore()

	authMiddleware := middleware.DebugAuthMiddleware()
	if !cfg.AuthDisabled {
		authClient, err := app.Auth(ctx)
		if err != nil {
			logger.Fatal("error getting Auth client", zap.Error(err))
		}
		authMiddleware = middleware.AuthMiddleware(authClient, logger)
	} else {
		logger.Warn("Firebase authentication disabled; trusting " + middleware.DebugUserHeader)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	gardens := garden.NewRegistry(store, logger, garden.Options{
		RefreshOnFailure: cfg.RefreshOnFailure,
		IdleTTL:          cfg.GardenIdleTTL,
	})
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go gardens.Run(sweepCtx, cfg.GardenIdleTTL/2)
	router := handlers.NewRouter(handlers.RouterConfig{
		Gardens:        gardens,
		Auth:           authMiddleware,
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func newLogger(cfg *config.Config) *zap.Logger {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	credentials, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}
	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	return firebase.NewApp(ctx, fbConfig, option.WithCredentialsJSON(credentials))
}

// newStore picks the remote thought store and returns a func releasing it.
func newStore(ctx context.Context, cfg *config.Config, app *firebase.App, logger *zap.Logger) (garden.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return database.NewMongoStore(client.Database(cfg.DBName), cfg.UsersCollection, logger), closeFn, nil
	case config.BackendMemory:
		logger.Warn("Using in-memory thought store; thoughts are lost on restart")
		return database.NewMemoryStore(), func() {}, nil
	default:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Close() }
		return database.NewFirestoreStore(client, cfg.UsersCollection, logger), closeFn, nil
	}
}

package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ajnadfm/cache"
	"ajnadfm/config"
	"ajnadfm/core/auth"
	"ajnadfm/core/catalog"
	"ajnadfm/core/favorites"
	"ajnadfm/db"
	"ajnadfm/logger"
	"ajnadfm/repository"
	"ajnadfm/storage"

	"github.com/gorilla/mux"
)

// Start initializes the backing services and runs the HTTP server until
// an interrupt arrives.
func Start() {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(os.Getenv("LOG_LEVEL")),
		OutputPath: os.Getenv("LOG_FILE"),
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
		Compress:   true,
	})
	defer logger.Sync()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer cache.CloseRedis()
	logger.Info("connected to Redis")

	if err := db.InitDB(); err != nil {
		logger.Fatal("failed to initialize database schema", logger.ErrorField(err))
	}

	auth.InitJWT(cfg.JWTSecret)

	localFavs, err := favorites.NewLocalStore(cfg.DataDir)
	if err != nil {
		logger.Fatal("failed to open local favorites store", logger.ErrorField(err))
	}
	defer localFavs.Close()

	nasheedRepo := repository.NewMySQLNasheedRepository(db.DB)
	userRepo := repository.NewMySQLUserRepository(db.DB)
	favRepo := repository.NewGormFavoriteRepository(db.GormDB)

	var favFn favorites.Fn
	if cfg.FavoritesFnURL != "" {
		favFn = favorites.NewFnClient(cfg.FavoritesFnURL)
	}
	favService := favorites.NewService(favRepo, favFn)

	bucket := storage.NewBucket(cfg)

	sources := make([]catalog.Source, 0, 3)
	if cfg.CatalogFnURL != "" {
		sources = append(sources, catalog.NewFnClient(cfg.CatalogFnURL).AsSource())
	}
	sources = append(sources, catalog.DBSource(nasheedRepo), catalog.BucketSource(bucket))
	resolver := catalog.NewResolver(sources...)

	apiHandler := NewAPIHandler(nasheedRepo, userRepo, favService, localFavs, bucket, resolver, cfg)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Catalog
	router.HandleFunc("/functions/nasheeds", apiHandler.CatalogFnHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/nasheeds", apiHandler.GetNasheedsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/nasheeds/{id}/url", apiHandler.GetNasheedURLHandler).Methods(http.MethodGet)

	// Favorites function
	router.HandleFunc("/functions/favorites", apiHandler.OptionalAuthMiddleware(apiHandler.FavoritesFnHandler)).Methods(http.MethodGet, http.MethodPost)

	// Admin function
	router.HandleFunc("/functions/admin-nasheeds", apiHandler.AuthMiddleware(apiHandler.AdminNasheedsHandler)).Methods(http.MethodPost, http.MethodDelete)

	// Auth
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// Playback session
	router.HandleFunc("/ws/session", apiHandler.OptionalAuthMiddleware(apiHandler.SessionHandler))

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}

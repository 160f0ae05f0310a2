package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	panchayathshandler "github.com/keraleeyam/swasraya-registry/domains/panchayaths/be/handler"
	panchayathsrepo "github.com/keraleeyam/swasraya-registry/domains/panchayaths/be/repo"
	panchayathsservice "github.com/keraleeyam/swasraya-registry/domains/panchayaths/be/service"
	registrationshandler "github.com/keraleeyam/swasraya-registry/domains/registrations/be/handler"
	registrationsrepo "github.com/keraleeyam/swasraya-registry/domains/registrations/be/repo"
	registrationsservice "github.com/keraleeyam/swasraya-registry/domains/registrations/be/service"
	registrationsmetrics "github.com/keraleeyam/swasraya-registry/domains/registrations/metrics"
	taxonomyhandler "github.com/keraleeyam/swasraya-registry/domains/taxonomy/be/handler"
	taxonomyrepo "github.com/keraleeyam/swasraya-registry/domains/taxonomy/be/repo"
	taxonomyservice "github.com/keraleeyam/swasraya-registry/domains/taxonomy/be/service"
	transfershandler "github.com/keraleeyam/swasraya-registry/domains/transfers/be/handler"
	transfersrepo "github.com/keraleeyam/swasraya-registry/domains/transfers/be/repo"
	transfersservice "github.com/keraleeyam/swasraya-registry/domains/transfers/be/service"
	transfersmetrics "github.com/keraleeyam/swasraya-registry/domains/transfers/metrics"
	platformlogging "github.com/keraleeyam/swasraya-registry/platform/go/logging"
	platformmiddleware "github.com/keraleeyam/swasraya-registry/platform/go/middleware"
	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
}

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	taxonomyStore, err := persistence.NewTaxonomyStore(ctx, pool)
	if err != nil {
		logger.Fatal("init taxonomy store", zap.Error(err))
	}
	registrationStore, err := persistence.NewRegistrationStore(ctx, pool)
	if err != nil {
		logger.Fatal("init registration store", zap.Error(err))
	}
	transferStore, err := persistence.NewTransferStore(ctx, pool)
	if err != nil {
		logger.Fatal("init transfer store", zap.Error(err))
	}
	panchayathStore, err := persistence.NewPanchayathStore(ctx, pool)
	if err != nil {
		logger.Fatal("init panchayath store", zap.Error(err))
	}

	taxonomySvc := taxonomyservice.New(taxonomyrepo.NewPostgresRepository(taxonomyStore))
	taxonomyHTTPHandler := taxonomyhandler.New(taxonomySvc, logger)

	registrationsSvc := registrationsservice.New(
		registrationsrepo.NewPostgresRepository(registrationStore),
		registrationsmetrics.New(),
	)
	registrationsHTTPHandler := registrationshandler.New(registrationsSvc, logger)

	transfersSvc := transfersservice.New(
		transfersrepo.NewPostgresRepository(transferStore, registrationStore, taxonomyStore),
		transfersmetrics.New(),
	)
	transfersHTTPHandler := transfershandler.New(transfersSvc, logger)

	panchayathsSvc := panchayathsservice.New(panchayathsrepo.NewPostgresRepository(panchayathStore))
	panchayathsHTTPHandler := panchayathshandler.New(panchayathsSvc, logger)

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)

	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Handle("/metrics", promhttp.Handler())

	apiRouter := chi.NewRouter()
	taxonomyHTTPHandler.Mount(apiRouter)
	registrationsHTTPHandler.Mount(apiRouter)
	transfersHTTPHandler.Mount(apiRouter)
	panchayathsHTTPHandler.Mount(apiRouter)

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"certreg/internal/jwtauth"
	"certreg/internal/platform/config"
	"certreg/internal/platform/httpserver"
	"certreg/internal/platform/logger"
	platformMetrics "certreg/internal/platform/metrics"
	"certreg/internal/platform/middleware"
	platformRedis "certreg/internal/platform/redis"
	"certreg/internal/registry"
	"certreg/internal/registry/events"
	registryMetrics "certreg/internal/registry/metrics"
	"certreg/internal/registry/service"
	certStore "certreg/internal/registry/store/certificates"
	issuerStore "certreg/internal/registry/store/issuers"
	"certreg/internal/registry/store/status"
	"certreg/pkg/domain"
)

// main wires dependencies and owns the process lifecycle. All registry
// policy lives in internal/registry; everything optional (postgres, redis,
// kafka) degrades to an in-process default when unconfigured.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	authority, err := domain.ParsePrincipal(cfg.AuthorityAddr)
	if err != nil {
		log.Error("invalid AUTHORITY_ADDR", "error", err)
		os.Exit(1)
	}
	if authority.IsZero() {
		log.Error("AUTHORITY_ADDR is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when DATABASE_URL is set, memory otherwise.
	var (
		issuers service.IssuerStore
		certs   service.CertificateStore
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		issuers = issuerStore.NewPostgres(db)
		certs = certStore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		issuers = issuerStore.NewInMemory()
		certs = certStore.NewInMemory()
		log.Info("using in-memory stores")
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(registryMetrics.New()),
	}

	redisClient, err := platformRedis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, service.WithStatusCache(
			status.NewRedisCache(redisClient.Client, cfg.Redis.StatusTTL)))
		log.Info("revocation status cache enabled")
	}

	// Notifications always go to the log; kafka fans out asynchronously
	// behind a buffer so slow brokers never stall mutations.
	publishers := events.Multi{events.NewLogPublisher(log)}
	var worker *events.Worker
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.NewKafka(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()

		buffer := events.NewBuffer(1024, log)
		worker = events.NewWorker(buffer, kafka, log)
		publishers = append(publishers, buffer)
		log.Info("kafka notifications enabled", "topic", cfg.Kafka.Topic)
	}
	opts = append(opts, service.WithEvents(publishers))

	svc := registry.NewService(authority, issuers, certs, opts...)
	jwtService := jwtauth.NewService(cfg.JWTSigningKey, "certreg", "certreg")
	httpMetrics := platformMetrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Latency(httpMetrics))
	router.Use(middleware.Timeout(30 * time.Second))

	registry.NewHandler(svc, jwtService, log).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting certificate registry", "addr", cfg.Addr, "authority", authority.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if worker != nil {
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

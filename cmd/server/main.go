package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	authhandler "proptoken/internal/callerauth/handler"
	"proptoken/internal/callerauth/revocation"
	"proptoken/internal/callerauth/token"
	"proptoken/internal/platform/config"
	"proptoken/internal/platform/httpserver"
	"proptoken/internal/platform/logger"
	"proptoken/internal/platform/metrics"
	"proptoken/internal/platform/middleware"
	"proptoken/internal/platform/postgres"
	platformredis "proptoken/internal/platform/redis"
	registryhandler "proptoken/internal/registry/handler"
	"proptoken/internal/registry/seed"
	"proptoken/internal/registry/service"
	"proptoken/internal/registry/store"
	"proptoken/pkg/platform/audit"
	auditkafka "proptoken/pkg/platform/audit/publishers/kafka"
	auditmemory "proptoken/pkg/platform/audit/store/memory"
	auditpostgres "proptoken/pkg/platform/audit/store/postgres"
	"proptoken/pkg/platform/circuit"
	"proptoken/pkg/platform/httputil"
)

const (
	revocationSweepInterval   = time.Minute
	forwarderFailureThreshold = 5
	forwarderCooldown         = 30 * time.Second
)

// main wires dependencies and runs the HTTP server until a signal arrives.
// Business logic lives in internal/registry.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Format, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

// closer releases a resource acquired during startup.
type closer func()

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	var closers []closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	publisher, publisherClosers, err := buildAuditPublisher(ctx, cfg.Audit, log)
	closers = append(closers, publisherClosers...)
	if err != nil {
		return err
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	registryStore := store.NewInMemory()
	registry, err := service.New(cfg.Admin, registryStore,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(publisher),
	)
	if err != nil {
		return fmt.Errorf("create registry: %w", err)
	}

	if cfg.Registry.SeedFile != "" {
		f, err := seed.LoadFile(cfg.Registry.SeedFile)
		if err != nil {
			return err
		}
		sum, err := f.Apply(ctx, registryStore)
		if err != nil {
			return err
		}
		log.Info("registry seeded",
			"file", cfg.Registry.SeedFile,
			"owners", sum.Owners,
			"properties", sum.Properties,
		)
	}
	owners, err := registryStore.Owners(ctx)
	if err != nil {
		return err
	}
	log.Info("registry ready", "admin", cfg.Admin.String(), "owners", len(owners))

	g, gctx := errgroup.WithContext(ctx)

	var revocations interface {
		middleware.RevocationChecker
		authhandler.Revoker
	}
	if redisClient != nil {
		revocations = revocation.NewRedis(redisClient.Client)
	} else {
		memoryList := revocation.NewInMemory()
		revocations = memoryList
		g.Go(func() error {
			if err := memoryList.StartSweeper(gctx, revocationSweepInterval); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	tokens := token.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	requireCaller := middleware.RequireCaller(tokens, revocations, log)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(log))
	r.Use(middleware.LatencyMiddleware(m))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/health", healthHandler(redisClient))
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		registryhandler.New(registry, log).Register(r, requireCaller)
		authhandler.New(revocations, cfg.Auth.TokenTTL, publisher, log).Register(r, requireCaller)
	})

	srv := httpserver.New(cfg.Addr, r, log)

	g.Go(func() error {
		log.Info("starting proptoken", "addr", cfg.Addr, "admin", cfg.Admin.Short())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildAuditPublisher picks the audit store and forwarders from config. The
// returned closers run even when an error is returned.
func buildAuditPublisher(ctx context.Context, cfg config.Audit, log *slog.Logger) (*audit.Publisher, []closer, error) {
	var (
		closers    []closer
		auditStore audit.Store = auditmemory.NewInMemoryStore(auditmemory.WithRetention(cfg.MemoryRetention))
		opts       = []audit.Option{audit.WithLogger(log), audit.WithAsyncBuffer(cfg.AsyncBuffer)}
	)

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, closers, fmt.Errorf("connect audit database: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		pgStore := auditpostgres.New(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return nil, closers, err
		}
		auditStore = pgStore
		log.Info("audit events persisted to postgres")
	}

	if len(cfg.KafkaBrokers) > 0 {
		forwarder, err := auditkafka.New(cfg.KafkaBrokers, cfg.Topic)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, forwarder.Close)
		if err := forwarder.EnsureTopic(ctx, cfg.TopicPartitions, cfg.TopicReplication); err != nil {
			return nil, closers, err
		}
		breaker := circuit.New("audit-kafka",
			circuit.WithFailureThreshold(forwarderFailureThreshold),
			circuit.WithCooldown(forwarderCooldown),
		)
		opts = append(opts, audit.WithForwarder(audit.NewGuardedSink(forwarder, breaker, log)))
		log.Info("audit events forwarded to kafka", "topic", cfg.Topic, "brokers", cfg.KafkaBrokers)
	}

	publisher := audit.NewPublisher(auditStore, opts...)
	closers = append(closers, publisher.Close)
	return publisher, closers, nil
}

type healthResponse struct {
	Status         string `json:"status"`
	Redis          string `json:"redis,omitempty"`
	RedisLatencyMS int64  `json:"redis_latency_ms,omitempty"`
}

func healthHandler(redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		if redisClient != nil {
			latency, err := redisClient.Health(r.Context())
			if err != nil {
				resp.Status = "degraded"
				resp.Redis = "unreachable"
				httputil.WriteJSON(w, http.StatusServiceUnavailable, resp)
				return
			}
			resp.Redis = "ok"
			resp.RedisLatencyMS = latency.Milliseconds()
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	firhandler "firledger/internal/fir/handler"
	firservice "firledger/internal/fir/service"
	firstore "firledger/internal/fir/store"
	"firledger/internal/ledger"
	ledgerhandler "firledger/internal/ledger/handler"
	"firledger/internal/platform/config"
	"firledger/internal/platform/httpserver"
	"firledger/internal/platform/logger"
	"firledger/internal/platform/metrics"
	platformredis "firledger/internal/platform/redis"
	regcache "firledger/internal/registry/cache"
	reghandler "firledger/internal/registry/handler"
	regservice "firledger/internal/registry/service"
	regstore "firledger/internal/registry/store"
	"firledger/internal/token"
	httptransport "firledger/internal/transport/http"
	id "firledger/pkg/domain"
	"firledger/pkg/platform/audit"
	auditkafka "firledger/pkg/platform/audit/publishers/kafka"
	auditmemory "firledger/pkg/platform/audit/store/memory"
	auditpostgres "firledger/pkg/platform/audit/store/postgres"
	auditworker "firledger/pkg/platform/audit/worker"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	chain := ledger.NewMemory()

	// Storage: postgres when configured, in-memory otherwise.
	var (
		roleStore  regservice.RoleStore
		recStore   firservice.RecordStore
		auditStore audit.Store
		db         *sql.DB
	)
	if cfg.PostgresURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()

		roles := regstore.NewPostgres(db)
		records := firstore.NewPostgres(db)
		audits := auditpostgres.New(db)
		for _, ensure := range []func(context.Context) error{
			roles.EnsureSchema, records.EnsureSchema, audits.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				return err
			}
		}
		roleStore, recStore, auditStore = roles, records, audits
		log.Info("using postgres storage")
	} else {
		roleStore = regstore.NewMemory()
		recStore = firstore.NewMemory()
		auditStore = auditmemory.New()
		log.Info("using in-memory storage")
	}

	// Optional role cache.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		roleStore = regcache.New(roleStore, redisClient.Client, cfg.RoleCacheTTL, log)
		log.Info("role cache enabled", "ttl", cfg.RoleCacheTTL.String())
	}

	// Audit pipeline: async recorder -> worker -> store, with optional kafka
	// fan-out for downstream consumers.
	recorder := audit.NewRecorder(cfg.AuditInboxSize, log,
		audit.WithDropCounter(m.AuditEventsDropped.Inc))
	var publisher audit.Publisher = recorder
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err := auditkafka.New(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer kafkaPub.Close()
		publisher = audit.Fanout{recorder, kafkaPub}
		log.Info("kafka audit fan-out enabled", "topic", cfg.AuditTopic)
	}
	worker := auditworker.New(auditStore, recorder.Inbox(), log)

	registry := regservice.New(roleStore, chain,
		regservice.WithLogger(log),
		regservice.WithAuditPublisher(publisher),
		regservice.WithMetrics(m),
	)
	if err := registry.Bootstrap(ctx, id.Identity(cfg.BootstrapAdmin)); err != nil {
		return err
	}

	fir := firservice.New(recStore, registry, chain,
		firservice.WithLogger(log),
		firservice.WithAuditPublisher(publisher),
		firservice.WithMetrics(m),
	)

	tokens := token.NewService(cfg.TokenSigningKey, "firledger")

	router := httptransport.NewRouter(httptransport.Options{
		Logger:         log,
		TokenValidator: tokens,
		RequireToken:   cfg.RequireToken,
		RequestTimeout: cfg.CommitTimeout + 5*time.Second,
		Metrics:        m,
		Health: func() error {
			if redisClient != nil {
				return redisClient.Health(context.Background())
			}
			return nil
		},
	},
		firhandler.New(fir, log),
		reghandler.New(registry, log),
		ledgerhandler.New(chain, registry, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := worker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("starting firledger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"datagate/internal/engine"
	enginemetrics "datagate/internal/engine/metrics"
	jwttoken "datagate/internal/jwt_token"
	"datagate/internal/platform/config"
	"datagate/internal/platform/httpserver"
	"datagate/internal/platform/logger"
	"datagate/internal/platform/metrics"
	httptransport "datagate/internal/transport/http"
	"datagate/internal/user"
	"datagate/pkg/platform/audit/publisher"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM.

When DATAGATE_SYSTEM_ADDRESS is set the SYSTEM user is seeded at that address
before the server starts accepting requests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), config.FromEnv())
		},
	}
}

func serve(ctx context.Context, cfg config.Server) error {
	log := logger.New(os.Stdout, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}

	d, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open state store", "store", cfg.Store, "error", err)
		return err
	}
	defer d.Close()
	if err := d.openAuditStore(ctx, cfg, log); err != nil {
		log.Error("failed to open audit sink", "error", err)
		return err
	}

	if cfg.SystemAddress != "" {
		if _, err := user.SeedSystemUser(ctx, d.backend, cfg.SystemAddress); err != nil {
			log.Error("failed to seed bootstrap user", "address", cfg.SystemAddress, "error", err)
			return err
		}
		log.Info("bootstrap user ready", "address", cfg.SystemAddress)
	} else if cfg.Store == config.StoreMemory {
		log.Warn("no bootstrap user configured; the memory store starts empty and no caller can register users")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pubOpts := []publisher.Option{publisher.WithLogger(log)}
	if cfg.AuditBuffer > 0 {
		pubOpts = append(pubOpts, publisher.WithAsyncBuffer(cfg.AuditBuffer))
	}
	pub := publisher.NewPublisher(d.auditStore, pubOpts...)

	eng := engine.NewFromBackend(d.backend,
		engine.WithLogger(log),
		engine.WithMetrics(enginemetrics.New(reg)),
		engine.WithAuditPublisher(pub),
	)
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	handler := httptransport.New(eng, log, metrics.New(reg), jwttoken.NewJWTServiceAdapter(jwtService))
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, reg, d.checks))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting datagate", "addr", cfg.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// drain buffered audit events once no invocation can add more
		return errors.Join(err, pub.Close())
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

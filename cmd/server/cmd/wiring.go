package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"datagate/internal/platform/config"
	platformredis "datagate/internal/platform/redis"
	"datagate/internal/storage"
	"datagate/internal/storage/postgres"
	redisbackend "datagate/internal/storage/redis"
	"datagate/internal/storage/sqlite"
	httptransport "datagate/internal/transport/http"
	audit "datagate/pkg/platform/audit"
	"datagate/pkg/platform/audit/store/fallback"
	"datagate/pkg/platform/audit/store/kafka"
	"datagate/pkg/platform/audit/store/memory"
	auditpostgres "datagate/pkg/platform/audit/store/postgres"
	"datagate/pkg/platform/circuit"
)

// deps are the external resources a command runs against.
type deps struct {
	backend    storage.Backend
	auditStore audit.Store
	db         *sql.DB
	checks     map[string]httptransport.HealthCheck
	closers    []func() error
}

func (d *deps) onClose(fn func() error) {
	d.closers = append(d.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

// openBackend opens the state store selected by cfg.Store.
func openBackend(ctx context.Context, cfg config.Server, log *slog.Logger) (*deps, error) {
	d := &deps{checks: map[string]httptransport.HealthCheck{}}

	switch cfg.Store {
	case config.StoreMemory:
		d.backend = storage.NewMemory()
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.onClose(db.Close)
		backend := postgres.New(db)
		if err := backend.EnsureSchema(ctx); err != nil {
			d.Close()
			return nil, err
		}
		d.db = db
		d.backend = backend
		d.checks["postgres"] = db.PingContext
	case config.StoreRedis:
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		d.onClose(client.Close)
		d.backend = redisbackend.New(client.Client)
		d.checks["redis"] = client.Health
	case config.StoreSQLite:
		backend, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		d.onClose(backend.Close)
		d.backend = backend
		d.checks["sqlite"] = backend.Ping
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	log.InfoContext(ctx, "state store ready", "store", cfg.Store)
	return d, nil
}

// openAuditStore picks the audit sink: Kafka when brokers are configured, the
// postgres audit table when state lives in postgres, memory otherwise. Kafka
// sits behind a breaker that spills to the local sink while brokers fail.
func (d *deps) openAuditStore(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	local, localName, err := d.localAuditStore(ctx)
	if err != nil {
		return err
	}
	if len(cfg.Kafka.Brokers) == 0 {
		d.auditStore = local
		log.InfoContext(ctx, "audit relay ready", "sink", localName)
		return nil
	}

	sink, err := kafka.Dial(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return err
	}
	d.onClose(func() error {
		sink.Close()
		return nil
	})
	if err := sink.EnsureTopic(ctx, 1, 1); err != nil {
		return err
	}
	d.auditStore = fallback.New(sink, local, circuit.New("audit-kafka"), fallback.WithLogger(log))
	log.InfoContext(ctx, "audit relay ready", "sink", "kafka", "topic", sink.Topic(), "fallback", localName)
	return nil
}

func (d *deps) localAuditStore(ctx context.Context) (audit.Store, string, error) {
	if d.db == nil {
		return memory.NewInMemoryStore(), "memory", nil
	}
	store := auditpostgres.New(d.db)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, "", err
	}
	return store, "postgres", nil
}

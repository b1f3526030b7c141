package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/hero-pool-platform/internal/pool-service/repo"
	"github.com/radieske/hero-pool-platform/internal/shared/config"
	"github.com/radieske/hero-pool-platform/internal/shared/db"
	"github.com/radieske/hero-pool-platform/internal/shared/kafka"
	"github.com/radieske/hero-pool-platform/internal/shared/logger"
	"github.com/radieske/hero-pool-platform/internal/shared/metrics"
	ev "github.com/radieske/hero-pool-platform/pkg/contracts/events"
)

// pool-close-worker aplica o cutoff: varre periodicamente os eventos OPEN
// com end_time vencido, fecha os pools e publica pool_closed. O fechamento é
// um UPDATE condicional, então rodar múltiplas instâncias é seguro.
func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	ledger := repo.NewPostgres(pg)

	closedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPoolClosed)
	defer closedWriter.Close()

	// Métricas Prometheus do sweep
	sweeps := prometheus.NewCounter(prometheus.CounterOpts{Name: "pool_close_sweeps_total", Help: "varreduras executadas"})
	closed := prometheus.NewCounter(prometheus.CounterOpts{Name: "pool_close_pools_closed_total", Help: "pools fechados por cutoff"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "pool_close_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(sweeps, closed, errorsBy)

	// Servidor HTTP para métricas Prometheus e healthcheck
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health", zap.String("port", cfg.MetricsPort))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	interval := time.Duration(cfg.CloseSweepSeconds) * time.Second
	log.Info("pool-close-worker started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("pool-close-worker stopped")
			return
		case <-ticker.C:
			sweeps.Inc()
			ids, err := ledger.CloseExpired(ctx)
			if err != nil {
				log.Warn("close sweep", zap.Error(err))
				errorsBy.WithLabelValues("sweep").Inc()
				continue
			}
			for _, id := range ids {
				closed.Inc()
				log.Info("pool closed by cutoff", zap.String("eventId", id))

				b, _ := json.Marshal(ev.PoolClosed{EventID: id, Reason: "CUTOFF", Ts: time.Now()})
				if err := kafka.WriteJSON(ctx, closedWriter, id, b); err != nil {
					log.Error("publish pool_closed", zap.String("eventId", id), zap.Error(err))
					errorsBy.WithLabelValues("publish").Inc()
				}
			}
		}
	}
}

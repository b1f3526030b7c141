package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/hero-pool-platform/pkg/contracts/events"

	sharedcache "github.com/radieske/hero-pool-platform/internal/shared/cache"
	"github.com/radieske/hero-pool-platform/internal/shared/config"
	"github.com/radieske/hero-pool-platform/internal/shared/db"
	"github.com/radieske/hero-pool-platform/internal/shared/kafka"
	"github.com/radieske/hero-pool-platform/internal/shared/logger"
	"github.com/radieske/hero-pool-platform/internal/shared/metrics"
	"github.com/radieske/hero-pool-platform/internal/totals-projection/cache"
	"github.com/radieske/hero-pool-platform/internal/totals-projection/consumer"
	"github.com/radieske/hero-pool-platform/internal/totals-projection/pubsub"
	"github.com/radieske/hero-pool-platform/internal/totals-projection/repository"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Instancia cache Redis e repositório Postgres da projeção
	ttl := 60 * time.Second
	rcache := cache.NewRedisCache(redisClient, ttl)
	repo := repository.NewPostgresRepo(pg)

	// Configura o consumer Kafka (consumer group totals-projection)
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicWagerPlaced, "totals-projection")
	defer reader.Close()

	// Métricas Prometheus para monitoramento da projeção
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "totals_proj_messages_consumed_total", Help: "mensagens consumidas"})
	cached := prometheus.NewCounter(prometheus.CounterOpts{Name: "totals_proj_cache_sets_total", Help: "sets no cache"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "totals_proj_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, cached, errorsBy)

	// Broadcaster para publicar snapshots no Redis Pub/Sub (usado pelo board-service/ws)
	broadcaster := pubsub.NewRedisBroadcaster(redisClient)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Repo:       repo,
		Cache:      rcache,
		OnConsumed: func() { consumed.Inc() },
		OnCached:   func() { cached.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },

		// Após projetar, envia o snapshot para o WebSocket via Redis Pub/Sub
		OnSnapshot: func(snap *events.TotalsSnapshot) {
			msg := pubsub.WSUpdate{EventID: snap.EventID, Payload: snap}
			b, _ := json.Marshal(msg)

			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			if err := broadcaster.Publish(ctx, pubsub.ChannelTotalsBroadcast, b); err != nil {
				log.Warn("ws broadcast publish failed", zap.Error(err))
			}
		},
	}

	// Servidor HTTP para métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("totals-projection started")
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("totals-projection stopped")
}

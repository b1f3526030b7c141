package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/hero-pool-platform/internal/totals-projection/cache"
	"github.com/radieske/hero-pool-platform/internal/totals-projection/repository"
	"github.com/radieske/hero-pool-platform/pkg/contracts/events"
)

// Processor consome eventos wager_placed, reprojeta os totais do evento no
// Redis e repassa o snapshot para o broadcast WebSocket.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa.
type Processor struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Repo   *repository.PostgresRepo
	Cache  *cache.RedisCache

	OnConsumed func()       // métricas (counter++)
	OnCached   func()       // métricas
	OnError    func(string) // métricas por fase

	// Após montar o snapshot, envia para o WS via Redis Pub/Sub
	OnSnapshot func(snap *events.TotalsSnapshot)
}

// Run inicia o loop principal de consumo e projeção
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var ev events.WagerPlaced
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			if p.OnError != nil {
				p.OnError("decode")
			}
			continue
		}

		// Reprojeção completa do evento: barata (poucos heróis por pool)
		// e imune a reentregas do Kafka
		snap, err := p.Repo.SnapshotTotals(ctx, ev.EventID)
		if err != nil {
			p.Log.Warn("snapshot totals failed", zap.String("eventId", ev.EventID), zap.Error(err))
			if p.OnError != nil {
				p.OnError("db_snapshot")
			}
			continue
		}

		if err := p.Cache.SetCurrent(ctx, snap); err != nil {
			p.Log.Warn("redis set failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("cache")
			}
			// não bloqueia o broadcast se falhar o cache
		} else if p.OnCached != nil {
			p.OnCached()
		}

		if p.OnSnapshot != nil {
			p.OnSnapshot(snap)
		}
	}
}

package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/hero-pool-platform/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de domínio do pool, um writer por tópico
type KafkaPublisher struct {
	WagerPlaced *kafka.Writer
	PoolClosed  *kafka.Writer
	PoolSettled *kafka.Writer
}

func NewKafkaPublisher(wagerPlaced, poolClosed, poolSettled *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{
		WagerPlaced: wagerPlaced,
		PoolClosed:  poolClosed,
		PoolSettled: poolSettled,
	}
}

func (p *KafkaPublisher) PublishWagerPlaced(ctx context.Context, e events.WagerPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.WagerPlaced.WriteMessages(ctx, kafka.Message{Key: []byte(e.EventID), Value: b})
}

func (p *KafkaPublisher) PublishPoolClosed(ctx context.Context, e events.PoolClosed) error {
	b, _ := json.Marshal(e)
	return p.PoolClosed.WriteMessages(ctx, kafka.Message{Key: []byte(e.EventID), Value: b})
}

func (p *KafkaPublisher) PublishPoolSettled(ctx context.Context, e events.PoolSettled) error {
	b, _ := json.Marshal(e)
	return p.PoolSettled.WriteMessages(ctx, kafka.Message{Key: []byte(e.EventID), Value: b})
}

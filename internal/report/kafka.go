package report

import (
	"context"
	"strings"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/alexanderjulianmartinez/schemawalk/internal/config"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaBatchTimeout caps how long a synchronous single-block write waits
// for its batch to fill. kafka-go defaults to one second.
const kafkaBatchTimeout = 5 * time.Millisecond

// KafkaSink publishes each block as one message keyed by database name, so
// a database's blocks land on one partition in report order.
type KafkaSink struct {
	w messageWriter
}

func NewKafkaSink(cfg config.KafkaConfig) *KafkaSink {
	brokers := []string{}
	for _, b := range cfg.Brokers {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return &KafkaSink{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    1,
		BatchTimeout: kafkaBatchTimeout,
	}}
}

func (s *KafkaSink) Write(ctx context.Context, b Block) error {
	return s.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(b.Database),
		Value: []byte(b.String()),
		Headers: []kafka.Header{
			{Key: "table", Value: []byte(b.Table)},
		},
	})
}

func (s *KafkaSink) Close() error {
	return s.w.Close()
}

package relay

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/interestIngc/cyphershare/internal/common"
)

// Kafka is a Relay over a Kafka topic. Each subscriber gets its own
// consumer group, so every session sees every announcement — at least once,
// which the dedup layer upstream absorbs.
type Kafka struct {
	brokers []string
	groupID string

	writer *kafka.Writer
}

func NewKafka(brokers []string, groupID string) *Kafka {
	return &Kafka{
		brokers: brokers,
		groupID: groupID,
	}
}

func (k *Kafka) Publish(ctx context.Context, topic string, payload []byte) error {
	if k.writer == nil {
		k.writer = &kafka.Writer{
			Addr:     kafka.TCP(k.brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
	}

	if err := k.writer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
		return fmt.Errorf("%w: kafka publish: %v", common.ErrTransport, err)
	}
	return nil
}

func (k *Kafka) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.brokers,
		GroupID: k.groupID,
		Topic:   topic,
	})

	ch := make(chan []byte, 64)
	go func() {
		defer close(ch)
		defer reader.Close()

		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				return // ctx cancelled or reader closed
			}
			select {
			case ch <- m.Value:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func (k *Kafka) Close() error {
	if k.writer != nil {
		return k.writer.Close()
	}
	return nil
}

package relay

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/interestIngc/cyphershare/internal/common"
)

// Redis is a Relay over Redis pub/sub. Delivery is fan-out to all connected
// subscribers of the channel, including ourselves.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(addr string) *Redis {
	return &Redis{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *Redis) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := r.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("%w: redis publish: %v", common.ErrTransport, err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	sub := r.rdb.Subscribe(ctx, topic)

	// force the subscription to be established before returning
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("%w: redis subscribe: %v", common.ErrTransport, err)
	}

	ch := make(chan []byte, 64)
	go func() {
		defer close(ch)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case ch <- []byte(m.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

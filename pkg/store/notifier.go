package store

import (
	"context"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/example/pizzashop/pkg/config"
)

const channelPrefix = "store:"

// Notifier distributes collection-change signals between writers and live
// subscriptions. The payload is just the collection path; subscribers
// re-read the full collection on every signal.
type Notifier interface {
	Publish(ctx context.Context, collection string) error
	Listen(ctx context.Context, pattern string) (<-chan string, func(), error)
}

// RedisNotifier carries change signals over redis pub/sub so every process
// attached to the same store observes every write.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(cfg *config.RedisConfig) *RedisNotifier {
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
	}
}

func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

func (n *RedisNotifier) Publish(ctx context.Context, collection string) error {
	return n.client.Publish(ctx, channelPrefix+collection, collection).Err()
}

// Listen subscribes to change signals for every collection matching the
// pattern. The returned channel carries the changed collection path and is
// closed by the stop function.
func (n *RedisNotifier) Listen(ctx context.Context, pattern string) (<-chan string, func(), error) {
	sub := n.client.PSubscribe(ctx, channelPrefix+pattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- strings.TrimPrefix(msg.Channel, channelPrefix):
				case <-done:
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func() {
		close(done)
		_ = sub.Close()
	}
	return out, stop, nil
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

// Client exposes the underlying redis client for components that share the
// connection, like the admin session flag store.
func (n *RedisNotifier) Client() *redis.Client {
	return n.client
}

package push

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisChannel publishes real-time payloads over Redis pub/sub. Gateway
// processes subscribe to channel:{id} and forward frames to the socket
// they own; this side only fires and checks the publish succeeded.
type RedisChannel struct {
	client *redis.Client
}

func NewRedisChannel(addr, password string) *RedisChannel {
	return &RedisChannel{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func (r *RedisChannel) Push(ctx context.Context, channelID int64, payload []byte) error {
	return r.client.Publish(ctx, channelKey(channelID), payload).Err()
}

func (r *RedisChannel) Close() error {
	return r.client.Close()
}

func channelKey(channelID int64) string {
	return fmt.Sprintf("channel:%d", channelID)
}

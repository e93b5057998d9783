package chat

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Broadcaster publishes an accepted message event toward room
// participants. The local implementation delivers in-process; the Redis
// implementation routes through pub/sub so every instance's hub sees the
// same channel order.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

// LocalBroadcaster delivers directly to the in-process hub.
type LocalBroadcaster struct {
	Hub *Hub
}

func (b *LocalBroadcaster) Broadcast(_ context.Context, event Event) error {
	b.Hub.Deliver(event)
	return nil
}

const redisChannelPrefix = "chat:"

// RedisBroadcaster publishes events to the ticket's Redis channel.
// Instances running RunRelay deliver them to their local rooms.
type RedisBroadcaster struct {
	Client *redis.Client
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.Client.Publish(ctx, redisChannelPrefix+event.TicketID, payload).Err()
}

// RunRelay subscribes to all chat channels and feeds received events to
// the local hub. Blocks until ctx is cancelled.
func RunRelay(ctx context.Context, client *redis.Client, hub *Hub, logger *zap.Logger) {
	sub := client.PSubscribe(ctx, redisChannelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn("discarding malformed chat relay payload", zap.Error(err))
				continue
			}
			hub.Deliver(event)
		}
	}
}

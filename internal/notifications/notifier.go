package notifications

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"roommatch/internal/middleware"
	"roommatch/internal/observability"

	"github.com/redis/go-redis/v9"
)

const roomChannelPrefix = "realtime:room:"

// RoomChannel returns the Redis channel relaying a room.
func RoomChannel(room string) string {
	return roomChannelPrefix + room
}

// Notifier publishes room events. With Redis it relays through a channel per
// room so every instance delivers to its own registry. Without Redis it
// delivers to the local registry directly.
type Notifier struct {
	rdb   *redis.Client
	local *Registry
}

// NewNotifier creates a Notifier. rdb may be nil.
func NewNotifier(rdb *redis.Client, local *Registry) *Notifier {
	return &Notifier{rdb: rdb, local: local}
}

// Relayed reports whether publishing goes through Redis.
func (n *Notifier) Relayed() bool {
	return n.rdb != nil
}

// PublishRoom delivers payload to every client in room across instances.
// A failed Redis publish falls back to local delivery and is returned.
func (n *Notifier) PublishRoom(ctx context.Context, room string, payload []byte) error {
	if n.rdb == nil {
		n.local.Publish(room, payload)
		return nil
	}
	if err := n.rdb.Publish(ctx, RoomChannel(room), payload).Err(); err != nil {
		observability.RealtimeRelayErrors.WithLabelValues("publish").Inc()
		n.local.Publish(room, payload)
		return fmt.Errorf("relay publish to %s: %w", room, err)
	}
	return nil
}

// StartRelay subscribes to every room channel and forwards incoming payloads to
// the local registry until ctx is cancelled. It returns once the subscription
// is confirmed.
func (n *Notifier) StartRelay(ctx context.Context) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, roomChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		observability.RealtimeRelayErrors.WithLabelValues("subscribe").Inc()
		return fmt.Errorf("relay subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.RealtimeRelayErrors.WithLabelValues("deliver").Inc()
							middleware.Logger.Error("panic in realtime relay", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					room := strings.TrimPrefix(msg.Channel, roomChannelPrefix)
					n.local.Publish(room, []byte(msg.Payload))
				}()
			}
		}
	}()

	middleware.Logger.Info("realtime relay subscribed", "pattern", roomChannelPrefix+"*")
	return nil
}

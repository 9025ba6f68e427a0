package realtime

import (
	"context"
	"encoding/json"

	"github.com/cardverse/cardverse/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// relayChannel is the redis pub/sub channel shared by all instances.
const relayChannel = "cardverse:events"

// envelope wraps a hub message for cross-instance transport. Origin lets an
// instance skip its own publications.
type envelope struct {
	Origin  string  `json:"origin"`
	Channel string  `json:"channel"`
	Message Message `json:"message"`
}

// Relay fans hub messages out across instances through redis pub/sub, so a
// client connected to one instance still sees bids placed through another.
type Relay struct {
	client *redis.Client
	hub    *Hub
	origin string
}

// NewRelay constructs a relay, or nil when redis is not configured.
func NewRelay(cfg config.RedisConfig, hub *Hub) *Relay {
	if cfg.Addr == "" || hub == nil {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Relay{client: client, hub: hub, origin: uuid.NewString()}
}

// Start launches the subscription loop in a background goroutine.
func (r *Relay) Start(ctx context.Context) {
	if r == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go r.consume(ctx)
	log.Info("realtime relay started")
}

func (r *Relay) consume(ctx context.Context) {
	sub := r.client.Subscribe(ctx, relayChannel)
	defer func() { _ = sub.Close() }()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-messages:
			if !ok {
				return
			}
			var env envelope
			if errUnmarshal := json.Unmarshal([]byte(m.Payload), &env); errUnmarshal != nil {
				log.WithError(errUnmarshal).Warn("realtime relay: bad envelope")
				continue
			}
			if env.Origin == r.origin {
				continue
			}
			r.hub.Broadcast(env.Channel, env.Message)
		}
	}
}

// Publish sends a hub message to the other instances.
func (r *Relay) Publish(ctx context.Context, channel string, msg Message) error {
	if r == nil {
		return nil
	}
	payload, errMarshal := json.Marshal(envelope{Origin: r.origin, Channel: channel, Message: msg})
	if errMarshal != nil {
		return errMarshal
	}
	return r.client.Publish(ctx, relayChannel, payload).Err()
}

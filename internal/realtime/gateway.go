package realtime

import (
	"context"

	"github.com/cardverse/cardverse/internal/events"
)

// RegisterForwarders subscribes the hub (and the optional cross-instance
// relay) to the domain events clients care about.
func RegisterForwarders(bus *events.Bus, hub *Hub, relay *Relay) {
	forward := func(ctx context.Context, channel string, msg Message) error {
		hub.Broadcast(channel, msg)
		if relay != nil {
			return relay.Publish(ctx, channel, msg)
		}
		return nil
	}

	bus.OnNewBid(func(ctx context.Context, e events.NewBid) error {
		return forward(ctx, AuctionChannel(e.AuctionID), Message{Type: TypeNewBid, Payload: e})
	})
	bus.OnAuctionChanged(func(ctx context.Context, e events.AuctionChanged) error {
		return forward(ctx, AuctionChannel(e.AuctionID), Message{Type: TypeAuctionChanged, Payload: e})
	})
	bus.OnAuctionFinished(func(ctx context.Context, e events.AuctionFinished) error {
		return forward(ctx, AuctionChannel(e.AuctionID), Message{Type: TypeAuctionFinished, Payload: e})
	})
	bus.OnMessageSent(func(ctx context.Context, e events.MessageSent) error {
		return forward(ctx, ConversationChannel(e.ConversationID), Message{Type: TypeNewMessage, Payload: e})
	})
}

// Package events provides the in-process domain event bus. Handlers are
// registered per event type through typed methods, so wiring mistakes fail at
// compile time instead of at dispatch.
package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// NewBid is published after a bid is persisted. Consumed by the anti-sniping
// extension logic and the realtime gateway.
type NewBid struct {
	AuctionID uint64    `json:"auctionId"`
	BidderID  uint64    `json:"bidderId"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuctionChanged is published after a mutating auction update. Fields carries
// only the patched columns.
type AuctionChanged struct {
	AuctionID uint64         `json:"auctionId"`
	Fields    map[string]any `json:"fields"`
}

// AuctionFinished is published once when an auction settles with a winner.
// Auctions that expire without bids publish nothing.
type AuctionFinished struct {
	AuctionID      uint64 `json:"auctionId"`
	CardInstanceID uint64 `json:"cardInstanceId"`
	CardID         uint64 `json:"cardId"`
	WinnerID       uint64 `json:"winnerId"`
	SellerID       uint64 `json:"sellerId"`
	Amount         int64  `json:"amount"`
}

// RatingAdjusted asks the rating reactor to apply a delta to a user.
type RatingAdjusted struct {
	UserID uint64 `json:"userId"`
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// MessageSent is published after a chat message is persisted.
type MessageSent struct {
	ConversationID uint64    `json:"conversationId"`
	MessageID      uint64    `json:"messageId"`
	SenderID       uint64    `json:"senderId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Handler funcs per event type.
type (
	NewBidHandler          func(ctx context.Context, e NewBid) error
	AuctionChangedHandler  func(ctx context.Context, e AuctionChanged) error
	AuctionFinishedHandler func(ctx context.Context, e AuctionFinished) error
	RatingAdjustedHandler  func(ctx context.Context, e RatingAdjusted) error
	MessageSentHandler     func(ctx context.Context, e MessageSent) error
)

// Bus dispatches domain events to registered handlers synchronously, in
// registration order. A failing handler is logged and does not stop the
// remaining handlers.
type Bus struct {
	mu              sync.RWMutex
	newBid          []NewBidHandler
	auctionChanged  []AuctionChangedHandler
	auctionFinished []AuctionFinishedHandler
	ratingAdjusted  []RatingAdjustedHandler
	messageSent     []MessageSentHandler
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// OnNewBid registers a handler for NewBid events.
func (b *Bus) OnNewBid(fn NewBidHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.newBid = append(b.newBid, fn)
}

// OnAuctionChanged registers a handler for AuctionChanged events.
func (b *Bus) OnAuctionChanged(fn AuctionChangedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.auctionChanged = append(b.auctionChanged, fn)
}

// OnAuctionFinished registers a handler for AuctionFinished events.
func (b *Bus) OnAuctionFinished(fn AuctionFinishedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.auctionFinished = append(b.auctionFinished, fn)
}

// OnRatingAdjusted registers a handler for RatingAdjusted events.
func (b *Bus) OnRatingAdjusted(fn RatingAdjustedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ratingAdjusted = append(b.ratingAdjusted, fn)
}

// OnMessageSent registers a handler for MessageSent events.
func (b *Bus) OnMessageSent(fn MessageSentHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messageSent = append(b.messageSent, fn)
}

// PublishNewBid dispatches a NewBid event.
func (b *Bus) PublishNewBid(ctx context.Context, e NewBid) {
	b.mu.RLock()
	handlers := b.newBid
	b.mu.RUnlock()
	for _, fn := range handlers {
		if errHandle := fn(ctx, e); errHandle != nil {
			log.WithError(errHandle).Warnf("events: new bid handler failed (auction=%d)", e.AuctionID)
		}
	}
}

// PublishAuctionChanged dispatches an AuctionChanged event.
func (b *Bus) PublishAuctionChanged(ctx context.Context, e AuctionChanged) {
	b.mu.RLock()
	handlers := b.auctionChanged
	b.mu.RUnlock()
	for _, fn := range handlers {
		if errHandle := fn(ctx, e); errHandle != nil {
			log.WithError(errHandle).Warnf("events: auction changed handler failed (auction=%d)", e.AuctionID)
		}
	}
}

// PublishAuctionFinished dispatches an AuctionFinished event.
func (b *Bus) PublishAuctionFinished(ctx context.Context, e AuctionFinished) {
	b.mu.RLock()
	handlers := b.auctionFinished
	b.mu.RUnlock()
	for _, fn := range handlers {
		if errHandle := fn(ctx, e); errHandle != nil {
			log.WithError(errHandle).Warnf("events: auction finished handler failed (auction=%d)", e.AuctionID)
		}
	}
}

// PublishRatingAdjusted dispatches a RatingAdjusted event.
func (b *Bus) PublishRatingAdjusted(ctx context.Context, e RatingAdjusted) {
	b.mu.RLock()
	handlers := b.ratingAdjusted
	b.mu.RUnlock()
	for _, fn := range handlers {
		if errHandle := fn(ctx, e); errHandle != nil {
			log.WithError(errHandle).Warnf("events: rating handler failed (user=%d)", e.UserID)
		}
	}
}

// PublishMessageSent dispatches a MessageSent event.
func (b *Bus) PublishMessageSent(ctx context.Context, e MessageSent) {
	b.mu.RLock()
	handlers := b.messageSent
	b.mu.RUnlock()
	for _, fn := range handlers {
		if errHandle := fn(ctx, e); errHandle != nil {
			log.WithError(errHandle).Warnf("events: message handler failed (conversation=%d)", e.ConversationID)
		}
	}
}

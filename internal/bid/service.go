// Package bid validates and records auction bids. Creation is serialized per
// auction so two concurrent bids cannot both validate against the same stale
// highest-bid snapshot.
package bid

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cardverse/cardverse/internal/auction"
	"github.com/cardverse/cardverse/internal/balance"
	"github.com/cardverse/cardverse/internal/domainerr"
	"github.com/cardverse/cardverse/internal/events"
	"github.com/cardverse/cardverse/internal/models"
	"gorm.io/gorm"
)

// keyedMutex serializes work per auction ID. Entries are kept for the process
// lifetime; the map is bounded by the number of auctions bid on.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// Lock acquires the mutex for a key and returns its unlock func.
func (k *keyedMutex) Lock(key uint64) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[uint64]*sync.Mutex)
	}
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Service validates and persists bids.
type Service struct {
	db       *gorm.DB
	auctions *auction.Repository
	balances *balance.Service
	bus      *events.Bus
	locks    keyedMutex
}

// NewService constructs a bid service.
func NewService(conn *gorm.DB, auctions *auction.Repository, balances *balance.Service, bus *events.Bus) *Service {
	return &Service{db: conn, auctions: auctions, balances: balances, bus: bus}
}

// CreateInput holds bid placement parameters.
type CreateInput struct {
	AuctionID uint64
	BidderID  uint64
	Amount    int64
}

// Create validates a bid against the current auction state, persists it and
// publishes a NewBid event. Each rule violation returns a distinct
// machine-readable code.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Bid, error) {
	unlock := s.locks.Lock(in.AuctionID)
	defer unlock()

	target, errFind := s.auctions.FindByID(ctx, in.AuctionID)
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, domainerr.NotFound(domainerr.CodeAuctionNotFound, "auction not found")
		}
		return nil, errFind
	}
	if target.IsCompleted {
		return nil, domainerr.BadRequest(domainerr.CodeAuctionCompleted, "auction is already completed")
	}

	ownsCard, errOwns := s.auctions.OwnsCard(ctx, in.BidderID, target.CardInstance.CardID)
	if errOwns != nil {
		return nil, errOwns
	}
	if ownsCard {
		return nil, domainerr.BadRequest(domainerr.CodeUserAlreadyHasCard, "you already own this card")
	}

	highest, errHighest := s.auctions.HighestBid(ctx, in.AuctionID)
	if errHighest != nil {
		return nil, errHighest
	}

	if highest == nil && in.Amount < target.StartingBid {
		return nil, domainerr.BadRequest(domainerr.CodeBidBelowStarting, "bid is below the starting bid")
	}
	if target.MaxBid != nil && in.Amount > *target.MaxBid {
		return nil, domainerr.BadRequest(domainerr.CodeBidExceedsMax, "bid exceeds the maximum bid")
	}

	base := target.StartingBid
	if highest != nil {
		base = highest.Amount
	}
	if in.Amount-base < target.MinBidStep {
		return nil, domainerr.BadRequest(domainerr.CodeBidNotExceedsMinimumStep, "bid does not exceed the minimum step")
	}

	// Frozen points on this auction are spendable: raising one's own leading
	// bid replaces the old freeze rather than stacking on top of it.
	available, errAvail := s.balances.Available(ctx, in.BidderID, in.AuctionID)
	if errAvail != nil {
		return nil, errAvail
	}
	if available < in.Amount {
		return nil, domainerr.BadRequest(domainerr.CodeInsufficientBalance, "insufficient balance")
	}

	created := models.Bid{
		AuctionID: in.AuctionID,
		BidderID:  in.BidderID,
		Amount:    in.Amount,
		CreatedAt: time.Now().UTC(),
	}
	if errCreate := s.db.WithContext(ctx).Create(&created).Error; errCreate != nil {
		return nil, errCreate
	}

	s.bus.PublishNewBid(ctx, events.NewBid{
		AuctionID: created.AuctionID,
		BidderID:  created.BidderID,
		Amount:    created.Amount,
		CreatedAt: created.CreatedAt,
	})
	return &created, nil
}

package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cardverse/cardverse/internal/domainerr"
	"github.com/cardverse/cardverse/internal/events"
	"github.com/cardverse/cardverse/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service implements the auction lifecycle rules.
type Service struct {
	db   *gorm.DB
	repo *Repository
	bus  *events.Bus
}

// NewService constructs an auction service.
func NewService(conn *gorm.DB, repo *Repository, bus *events.Bus) *Service {
	return &Service{db: conn, repo: repo, bus: bus}
}

// CreateInput holds auction creation parameters.
type CreateInput struct {
	CardID      uint64
	StartingBid int64
	MinBidStep  int64
	MaxBid      *int64
	MinLength   time.Duration
	EndTime     time.Time
	CreatorID   uint64
	CreatorRole string
}

// Create opens an auction on a card the creator owns. Admins get a fresh
// instance minted unconditionally; everyone else must already own one.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Auction, error) {
	if in.StartingBid <= 0 {
		return nil, domainerr.BadRequest(domainerr.CodeValidation, "starting bid must be positive")
	}
	if in.MinBidStep <= 0 {
		return nil, domainerr.BadRequest(domainerr.CodeValidation, "minimum bid step must be positive")
	}
	if in.MaxBid != nil && *in.MaxBid < in.StartingBid {
		return nil, domainerr.BadRequest(domainerr.CodeValidation, "maximum bid is below the starting bid")
	}
	if in.MinLength <= 0 {
		return nil, domainerr.BadRequest(domainerr.CodeValidation, "minimum length must be positive")
	}
	now := time.Now().UTC()
	if !in.EndTime.After(now) {
		return nil, domainerr.BadRequest(domainerr.CodeValidation, "end time must be in the future")
	}

	var card models.Card
	if errFind := s.db.WithContext(ctx).First(&card, in.CardID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, domainerr.NotFound(domainerr.CodeCardNotFound, "card not found")
		}
		return nil, errFind
	}
	if !card.IsActive {
		return nil, domainerr.BadRequest(domainerr.CodeCardInactive, "card is not active")
	}

	var created models.Auction
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var instance models.CardInstance
		if in.CreatorRole == models.RoleAdmin {
			instance = models.CardInstance{CardID: card.ID, OwnerID: in.CreatorID}
			if errCreate := tx.Create(&instance).Error; errCreate != nil {
				return errCreate
			}
		} else {
			errFind := tx.
				Where("owner_id = ? AND card_id = ?", in.CreatorID, card.ID).
				Order("id ASC").
				First(&instance).Error
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return domainerr.BadRequest(domainerr.CodeCardNotOwned, "You don't have this card")
			}
			if errFind != nil {
				return errFind
			}
		}

		created = models.Auction{
			CardInstanceID:   instance.ID,
			StartingBid:      in.StartingBid,
			MinBidStep:       in.MinBidStep,
			MaxBid:           in.MaxBid,
			MinLengthSeconds: int64(in.MinLength / time.Second),
			EndTime:          in.EndTime.UTC(),
			CreatedBy:        in.CreatorID,
		}
		return tx.Create(&created).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &created, nil
}

// PageMeta describes one page of a listing.
type PageMeta struct {
	Page            int   `json:"page"`
	Take            int   `json:"take"`
	ItemCount       int64 `json:"itemCount"`
	PageCount       int   `json:"pageCount"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
	HasNextPage     bool  `json:"hasNextPage"`
}

// FindAll returns a filtered, sorted page of auction summaries.
func (s *Service) FindAll(ctx context.Context, f ListFilter) ([]ListRow, PageMeta, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Take <= 0 {
		f.Take = 10
	}
	if f.Take > 50 {
		f.Take = 50
	}

	rows, total, errList := s.repo.List(ctx, f)
	if errList != nil {
		return nil, PageMeta{}, errList
	}

	pageCount := int((total + int64(f.Take) - 1) / int64(f.Take))
	meta := PageMeta{
		Page:            f.Page,
		Take:            f.Take,
		ItemCount:       total,
		PageCount:       pageCount,
		HasPreviousPage: f.Page > 1,
		HasNextPage:     f.Page < pageCount,
	}
	return rows, meta, nil
}

// HighestBidView annotates the current highest bid for a viewer.
type HighestBidView struct {
	BidderID  uint64    `json:"bidderId"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
	IsViewers bool      `json:"isViewers"`
}

// Detail is the full auction view returned by FindOne.
type Detail struct {
	Auction      models.Auction  `json:"auction"`
	Card         models.Card     `json:"card"`
	IsOwnCard    bool            `json:"isOwnCard"`
	CurrentPrice int64           `json:"currentPrice"`
	HighestBid   *HighestBidView `json:"highestBid"`
}

// FindOne returns the auction detail scoped to a viewer: the card carries an
// ownership flag and the highest bid is annotated with whether the viewer
// placed it.
func (s *Service) FindOne(ctx context.Context, id, viewerID uint64) (*Detail, error) {
	auction, errFind := s.repo.FindByID(ctx, id)
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, domainerr.NotFound(domainerr.CodeAuctionNotFound, "auction not found")
		}
		return nil, errFind
	}

	ownsCard, errOwns := s.repo.OwnsCard(ctx, viewerID, auction.CardInstance.CardID)
	if errOwns != nil {
		return nil, errOwns
	}

	detail := &Detail{
		Auction:      *auction,
		Card:         auction.CardInstance.Card,
		IsOwnCard:    ownsCard,
		CurrentPrice: auction.StartingBid,
	}

	highest, errHighest := s.repo.HighestBid(ctx, id)
	if errHighest != nil {
		return nil, errHighest
	}
	if highest != nil {
		detail.CurrentPrice = highest.Amount
		detail.HighestBid = &HighestBidView{
			BidderID:  highest.BidderID,
			Amount:    highest.Amount,
			CreatedAt: highest.CreatedAt,
			IsViewers: highest.BidderID == viewerID,
		}
	}
	return detail, nil
}

// UpdateInput holds the patchable auction fields.
type UpdateInput struct {
	StartingBid      *int64
	MinBidStep       *int64
	MaxBid           *int64
	MinLengthSeconds *int64
	EndTime          *time.Time
}

// Update patches an auction that has not completed. The patched fields are
// published as an AuctionChanged event.
func (s *Service) Update(ctx context.Context, id uint64, in UpdateInput) error {
	auction, errFind := s.repo.FindByID(ctx, id)
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return domainerr.NotFound(domainerr.CodeAuctionNotFound, "auction not found")
		}
		return errFind
	}
	if auction.IsCompleted {
		return domainerr.Forbidden(domainerr.CodeAuctionFinishedForbidden, "cannot update a finished auction")
	}

	fields := map[string]any{}
	if in.StartingBid != nil {
		if *in.StartingBid <= 0 {
			return domainerr.BadRequest(domainerr.CodeValidation, "starting bid must be positive")
		}
		fields["starting_bid"] = *in.StartingBid
	}
	if in.MinBidStep != nil {
		if *in.MinBidStep <= 0 {
			return domainerr.BadRequest(domainerr.CodeValidation, "minimum bid step must be positive")
		}
		fields["min_bid_step"] = *in.MinBidStep
	}
	if in.MaxBid != nil {
		fields["max_bid"] = *in.MaxBid
	}
	if in.MinLengthSeconds != nil {
		if *in.MinLengthSeconds <= 0 {
			return domainerr.BadRequest(domainerr.CodeValidation, "minimum length must be positive")
		}
		fields["min_length_seconds"] = *in.MinLengthSeconds
	}
	if in.EndTime != nil {
		// End time only ever moves forward.
		if in.EndTime.Before(auction.EndTime) {
			return domainerr.BadRequest(domainerr.CodeEndTimeMovedBack, "end time cannot move backward")
		}
		fields["end_time"] = in.EndTime.UTC()
	}
	if len(fields) == 0 {
		return nil
	}

	if errUpdate := s.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("id = ?", id).
		Updates(fields).Error; errUpdate != nil {
		return errUpdate
	}

	s.bus.PublishAuctionChanged(ctx, events.AuctionChanged{AuctionID: id, Fields: fields})
	return nil
}

// Remove deletes an auction that has not completed, together with its bids.
func (s *Service) Remove(ctx context.Context, id uint64) error {
	auction, errFind := s.repo.FindByID(ctx, id)
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return domainerr.NotFound(domainerr.CodeAuctionNotFound, "auction not found")
		}
		return errFind
	}
	if auction.IsCompleted {
		return domainerr.Forbidden(domainerr.CodeAuctionFinishedForbidden, "cannot remove a finished auction")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errBids := tx.Where("auction_id = ?", id).Delete(&models.Bid{}).Error; errBids != nil {
			return errBids
		}
		return tx.Delete(&models.Auction{}, id).Error
	})
}

// FinishAuction settles an expired auction: it flips the completion flag and,
// when a winning bid exists, publishes the finished event plus the two rating
// adjustments. Auctions without bids settle silently. Calling it on an
// already-completed auction is a no-op.
func (s *Service) FinishAuction(ctx context.Context, id uint64) error {
	auction, errFind := s.repo.FindByID(ctx, id)
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return domainerr.NotFound(domainerr.CodeAuctionNotFound, "auction not found")
		}
		return errFind
	}
	if auction.IsCompleted {
		return nil
	}

	winning, errHighest := s.repo.HighestBid(ctx, id)
	if errHighest != nil {
		return errHighest
	}

	if errUpdate := s.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("id = ?", id).
		Update("is_completed", true).Error; errUpdate != nil {
		return errUpdate
	}

	if winning == nil {
		log.Infof("auction %d settled without bids", id)
		return nil
	}

	s.bus.PublishAuctionFinished(ctx, events.AuctionFinished{
		AuctionID:      auction.ID,
		CardInstanceID: auction.CardInstanceID,
		CardID:         auction.CardInstance.CardID,
		WinnerID:       winning.BidderID,
		SellerID:       auction.CreatedBy,
		Amount:         winning.Amount,
	})
	s.bus.PublishRatingAdjusted(ctx, events.RatingAdjusted{
		UserID: auction.CreatedBy,
		Delta:  -1,
		Reason: fmt.Sprintf("sold card at auction %d", auction.ID),
	})
	s.bus.PublishRatingAdjusted(ctx, events.RatingAdjusted{
		UserID: winning.BidderID,
		Delta:  1,
		Reason: fmt.Sprintf("won auction %d", auction.ID),
	})
	return nil
}

// ExtendAuctionIfNecessary guarantees a minimum runway after every bid: when
// the remaining time is shorter than the auction's minimum length, the end
// time moves to bid time plus that length. End time never moves backward.
func (s *Service) ExtendAuctionIfNecessary(ctx context.Context, e events.NewBid) error {
	auction, errFind := s.repo.FindByID(ctx, e.AuctionID)
	if errFind != nil {
		return errFind
	}
	if auction.IsCompleted {
		return nil
	}

	remaining := auction.EndTime.Sub(e.CreatedAt)
	if remaining >= auction.MinLength() {
		return nil
	}

	newEnd := e.CreatedAt.Add(auction.MinLength()).UTC()
	if errUpdate := s.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("id = ?", auction.ID).
		Update("end_time", newEnd).Error; errUpdate != nil {
		return errUpdate
	}

	log.Debugf("auction %d extended to %s", auction.ID, newEnd.Format(time.RFC3339))
	s.bus.PublishAuctionChanged(ctx, events.AuctionChanged{
		AuctionID: auction.ID,
		Fields:    map[string]any{"end_time": newEnd},
	})
	return nil
}

// Expired returns IDs of auctions due for settlement.
func (s *Service) Expired(ctx context.Context, now time.Time) ([]uint64, error) {
	return s.repo.ExpiredIncomplete(ctx, now)
}

// GetHighestBidRange returns the global current-price bounds over incomplete
// auctions, or nil when none are open.
func (s *Service) GetHighestBidRange(ctx context.Context) (*BidRange, error) {
	return s.repo.HighestBidRange(ctx)
}

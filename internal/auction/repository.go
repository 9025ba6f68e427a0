package auction

import (
	"context"
	"errors"
	"time"

	"github.com/cardverse/cardverse/internal/db"
	"github.com/cardverse/cardverse/internal/models"
	"gorm.io/gorm"
)

// Current price of an auction is its highest bid, falling back to the
// starting bid while no bids exist.
const currentPriceExpr = "COALESCE((SELECT MAX(b.amount) FROM bids b WHERE b.auction_id = auctions.id), auctions.starting_bid)"

// Leader of an auction is the bidder of the highest bid; ties go to the
// earliest bid. The same ordering decides the winner at settlement.
const leaderExpr = "(SELECT b.bidder_id FROM bids b WHERE b.auction_id = auctions.id ORDER BY b.amount DESC, b.created_at ASC, b.id ASC LIMIT 1)"

// Sort keys accepted by List.
const (
	SortByCreatedAt  = "created_at"
	SortByEndTime    = "end_time"
	SortByHighestBid = "highest_bid"
)

// ListFilter narrows and orders the auction listing.
type ListFilter struct {
	LocationID    *uint64
	CardName      string
	FromPrice     *int64
	ToPrice       *int64
	CreatedBy     *uint64
	ParticipantID *uint64 // has at least one bid on the auction
	LeaderID      *uint64 // currently holds the highest bid
	IsCompleted   *bool

	SortBy    string // created_at, end_time or highest_bid
	SortOrder string // asc or desc

	Page int
	Take int
}

// ListRow is one auction summary with its derived current price.
type ListRow struct {
	models.Auction `gorm:"embedded"`
	CurrentPrice   int64 `gorm:"column:current_price"`
}

// BidRange holds the global min and max current price over incomplete auctions.
type BidRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Repository provides auction and bid persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an auction repository.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// listQuery builds the filtered base query joining cards for card filters.
func (r *Repository) listQuery(ctx context.Context, f ListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Joins("JOIN card_instances ON card_instances.id = auctions.card_instance_id").
		Joins("JOIN cards ON cards.id = card_instances.card_id")

	if f.LocationID != nil {
		q = q.Where("cards.location_id = ?", *f.LocationID)
	}
	if f.CardName != "" {
		pattern := "%" + db.NormalizeLikePattern(r.db, f.CardName) + "%"
		q = q.Where(db.CaseInsensitiveLikeExpr(r.db, "cards.name"), pattern)
	}
	if f.FromPrice != nil {
		q = q.Where(currentPriceExpr+" >= ?", *f.FromPrice)
	}
	if f.ToPrice != nil {
		q = q.Where(currentPriceExpr+" <= ?", *f.ToPrice)
	}
	if f.CreatedBy != nil {
		q = q.Where("auctions.created_by = ?", *f.CreatedBy)
	}
	if f.ParticipantID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM bids b WHERE b.auction_id = auctions.id AND b.bidder_id = ?)", *f.ParticipantID)
	}
	if f.LeaderID != nil {
		q = q.Where("? = "+leaderExpr, *f.LeaderID)
	}
	if f.IsCompleted != nil {
		q = q.Where("auctions.is_completed = ?", *f.IsCompleted)
	}
	return q
}

// List returns one page of auction summaries plus the total match count.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]ListRow, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Take <= 0 {
		f.Take = 10
	}
	if f.Take > 50 {
		f.Take = 50
	}

	var total int64
	if errCount := r.listQuery(ctx, f).Count(&total).Error; errCount != nil {
		return nil, 0, errCount
	}

	order := "DESC"
	if f.SortOrder == "asc" {
		order = "ASC"
	}
	sortExpr := "auctions.created_at"
	switch f.SortBy {
	case SortByEndTime:
		sortExpr = "auctions.end_time"
	case SortByHighestBid:
		sortExpr = "current_price"
	case SortByCreatedAt, "":
	}

	var rows []ListRow
	errFind := r.listQuery(ctx, f).
		Select("auctions.*, " + currentPriceExpr + " AS current_price").
		Order(sortExpr + " " + order).
		Limit(f.Take).
		Offset((f.Page - 1) * f.Take).
		Find(&rows).Error
	if errFind != nil {
		return nil, 0, errFind
	}
	return rows, total, nil
}

// FindByID loads an auction with its card instance and card.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.Auction, error) {
	var auction models.Auction
	errFind := r.db.WithContext(ctx).
		Preload("CardInstance").
		Preload("CardInstance.Card").
		First(&auction, id).Error
	if errFind != nil {
		return nil, errFind
	}
	return &auction, nil
}

// HighestBid returns the winning candidate bid for an auction, or nil when no
// bids exist. Ties on amount resolve to the earliest bid.
func (r *Repository) HighestBid(ctx context.Context, auctionID uint64) (*models.Bid, error) {
	var bid models.Bid
	errFind := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("amount DESC, created_at ASC, id ASC").
		First(&bid).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if errFind != nil {
		return nil, errFind
	}
	return &bid, nil
}

// Bids returns all bids for an auction, newest first.
func (r *Repository) Bids(ctx context.Context, auctionID uint64) ([]models.Bid, error) {
	var bids []models.Bid
	errFind := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("amount DESC, created_at ASC, id ASC").
		Find(&bids).Error
	if errFind != nil {
		return nil, errFind
	}
	return bids, nil
}

// OwnsCard reports whether a user currently owns any instance of a card.
func (r *Repository) OwnsCard(ctx context.Context, userID, cardID uint64) (bool, error) {
	var count int64
	errCount := r.db.WithContext(ctx).
		Model(&models.CardInstance{}).
		Where("owner_id = ? AND card_id = ?", userID, cardID).
		Count(&count).Error
	if errCount != nil {
		return false, errCount
	}
	return count > 0, nil
}

// ExpiredIncomplete returns IDs of auctions past their end time that have not
// settled yet, oldest expiry first.
func (r *Repository) ExpiredIncomplete(ctx context.Context, now time.Time) ([]uint64, error) {
	var ids []uint64
	errFind := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("is_completed = ? AND end_time <= ?", false, now).
		Order("end_time ASC").
		Pluck("id", &ids).Error
	if errFind != nil {
		return nil, errFind
	}
	return ids, nil
}

// HighestBidRange returns the min and max current price across incomplete
// auctions, or nil when none are open.
func (r *Repository) HighestBidRange(ctx context.Context) (*BidRange, error) {
	minPrice, okMin, errMin := r.boundaryPrice(ctx, "ASC")
	if errMin != nil {
		return nil, errMin
	}
	if !okMin {
		return nil, nil
	}
	maxPrice, _, errMax := r.boundaryPrice(ctx, "DESC")
	if errMax != nil {
		return nil, errMax
	}
	return &BidRange{Min: minPrice, Max: maxPrice}, nil
}

// boundaryPrice fetches a single current price over incomplete auctions,
// sorted in the given direction.
func (r *Repository) boundaryPrice(ctx context.Context, direction string) (int64, bool, error) {
	var prices []int64
	errScan := r.db.WithContext(ctx).
		Raw("SELECT "+currentPriceExpr+" FROM auctions WHERE auctions.is_completed = ? ORDER BY 1 "+direction+" LIMIT 1", false).
		Scan(&prices).Error
	if errScan != nil {
		return 0, false, errScan
	}
	if len(prices) == 0 {
		return 0, false, nil
	}
	return prices[0], true, nil
}

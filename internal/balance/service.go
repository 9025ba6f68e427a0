// Package balance derives user point balances on demand from the transfer
// ledger. There is no stored running total: total balance is the signed sum
// of transfers, and the available balance additionally subtracts points
// frozen in bids the user currently leads on incomplete auctions.
package balance

import (
	"context"

	"github.com/cardverse/cardverse/internal/models"
	"gorm.io/gorm"
)

// Leading bids of a user on incomplete auctions. A bid leads when it is the
// top row under the winner ordering (amount desc, earliest first).
const frozenQuery = `
SELECT COALESCE(SUM(b.amount), 0)
FROM bids b
JOIN auctions a ON a.id = b.auction_id AND a.is_completed = ?
WHERE b.bidder_id = ?
  AND b.auction_id <> ?
  AND b.id = (
    SELECT b2.id FROM bids b2
    WHERE b2.auction_id = b.auction_id
    ORDER BY b2.amount DESC, b2.created_at ASC, b2.id ASC
    LIMIT 1
  )`

// Summary is a point-in-time balance snapshot.
type Summary struct {
	Total     int64 `json:"total"`
	Frozen    int64 `json:"frozen"`
	Available int64 `json:"available"`
}

// Service computes balances.
type Service struct {
	db *gorm.DB
}

// NewService constructs a balance service.
func NewService(conn *gorm.DB) *Service {
	return &Service{db: conn}
}

// Total returns the signed sum of a user's transfers.
func (s *Service) Total(ctx context.Context, userID uint64) (int64, error) {
	var total int64
	errScan := s.db.WithContext(ctx).
		Model(&models.Transfer{}).
		Select("COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE -amount END), 0)", models.TransferKindIncome).
		Where("user_id = ?", userID).
		Scan(&total).Error
	if errScan != nil {
		return 0, errScan
	}
	return total, nil
}

// Frozen returns the points locked in bids the user currently leads on
// incomplete auctions, excluding excludeAuctionID when non-zero.
func (s *Service) Frozen(ctx context.Context, userID, excludeAuctionID uint64) (int64, error) {
	var frozen int64
	errScan := s.db.WithContext(ctx).
		Raw(frozenQuery, false, userID, excludeAuctionID).
		Scan(&frozen).Error
	if errScan != nil {
		return 0, errScan
	}
	return frozen, nil
}

// Available returns total minus frozen. When excludeAuctionID is non-zero,
// points frozen on that auction are treated as spendable; bid validation uses
// this so a leader can raise their own bid.
func (s *Service) Available(ctx context.Context, userID, excludeAuctionID uint64) (int64, error) {
	total, errTotal := s.Total(ctx, userID)
	if errTotal != nil {
		return 0, errTotal
	}
	frozen, errFrozen := s.Frozen(ctx, userID, excludeAuctionID)
	if errFrozen != nil {
		return 0, errFrozen
	}
	return total - frozen, nil
}

// Summarize returns the full balance snapshot for a user.
func (s *Service) Summarize(ctx context.Context, userID uint64) (Summary, error) {
	total, errTotal := s.Total(ctx, userID)
	if errTotal != nil {
		return Summary{}, errTotal
	}
	frozen, errFrozen := s.Frozen(ctx, userID, 0)
	if errFrozen != nil {
		return Summary{}, errFrozen
	}
	return Summary{Total: total, Frozen: frozen, Available: total - frozen}, nil
}

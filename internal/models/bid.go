package models

import "time"

// Bid is an immutable offer on an auction. Rows are only ever inserted.
type Bid struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	AuctionID uint64 `gorm:"not null;index"` // Target auction.
	BidderID  uint64 `gorm:"not null;index"` // Bidding user.
	Amount    int64  `gorm:"not null"`       // Offered points.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Placement timestamp.
}

// TableName overrides the default table name.
func (Bid) TableName() string {
	return "bids"
}

package models

import "time"

// Auction is a time-boxed sale of one card instance via competitive bidding.
//
// EndTime only ever moves forward (anti-sniping extension) and IsCompleted
// flips false to true exactly once, at settlement.
type Auction struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	CardInstanceID uint64 `gorm:"not null;index"` // Instance being sold.

	StartingBid      int64  `gorm:"not null"` // Minimum first bid, in points.
	MinBidStep       int64  `gorm:"not null"` // Minimum increment over the highest bid.
	MaxBid           *int64 ``                // Optional buyout ceiling.
	MinLengthSeconds int64  `gorm:"not null"` // Guaranteed runway after every bid.

	EndTime     time.Time `gorm:"not null;index"`               // Scheduled close.
	IsCompleted bool      `gorm:"not null;default:false;index"` // Settlement flag.

	CreatedBy uint64 `gorm:"not null;index"` // Seller.

	CardInstance CardInstance `gorm:"foreignKey:CardInstanceID"` // Related instance.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (Auction) TableName() string {
	return "auctions"
}

// MinLength returns the configured minimum runway as a duration.
func (a Auction) MinLength() time.Duration {
	return time.Duration(a.MinLengthSeconds) * time.Second
}

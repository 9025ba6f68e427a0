package models

import "time"

// Transfer kinds. Balance = sum(income) - sum(expense) - sum(fee).
const (
	// TransferKindIncome credits points to a user.
	TransferKindIncome = "income"
	// TransferKindExpense debits points from a user.
	TransferKindExpense = "expense"
	// TransferKindFee is the system cut taken at settlement.
	TransferKindFee = "fee"
)

// Transfer is one signed ledger record. Balances are derived by summing
// transfers on demand; there is no stored running total.
//
// The (auction_id, user_id, kind) unique index makes settlement replays
// no-ops: a second attempt to record the same auction's transfer fails
// instead of double-moving points.
type Transfer struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID    uint64  `gorm:"not null;index;uniqueIndex:uniq_transfer_auction_user_kind"` // Affected user.
	AuctionID *uint64 `gorm:"uniqueIndex:uniq_transfer_auction_user_kind"`                // Originating auction, nil for top-ups.
	Kind      string  `gorm:"type:text;not null;uniqueIndex:uniq_transfer_auction_user_kind"` // income, expense or fee.

	Amount  int64  `gorm:"not null"`  // Points moved, always positive.
	Comment string `gorm:"type:text"` // Human-readable reason.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// TableName overrides the default table name.
func (Transfer) TableName() string {
	return "transfers"
}

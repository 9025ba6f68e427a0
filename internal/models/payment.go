package models

import "time"

// Payment statuses.
const (
	// PaymentStatusPending marks an intent awaiting processor confirmation.
	PaymentStatusPending = "pending"
	// PaymentStatusSucceeded marks a confirmed intent; points were credited.
	PaymentStatusSucceeded = "succeeded"
	// PaymentStatusCanceled marks an abandoned or failed intent.
	PaymentStatusCanceled = "canceled"
)

// Payment is a points top-up intent created against the payment processor.
// Confirmation arrives via webhook and records an income transfer.
type Payment struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID       uint64 `gorm:"not null;index"`                  // Paying user.
	Amount       int64  `gorm:"not null"`                        // Points purchased.
	ClientSecret string `gorm:"type:text;not null;uniqueIndex"`  // Processor-side intent reference.
	Status       string `gorm:"type:text;not null;default:pending"` // pending, succeeded or canceled.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (Payment) TableName() string {
	return "payments"
}

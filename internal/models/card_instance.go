package models

import "time"

// CardInstance is a specific owned unit of a catalog Card. It is the sellable
// unit an auction references; settlement reassigns OwnerID to the winner.
type CardInstance struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	CardID  uint64 `gorm:"not null;index"` // Catalog card.
	OwnerID uint64 `gorm:"not null;index"` // Current owner.

	Card  Card `gorm:"foreignKey:CardID"`  // Related card.
	Owner User `gorm:"foreignKey:OwnerID"` // Related owner.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (CardInstance) TableName() string {
	return "card_instances"
}

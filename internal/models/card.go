package models

import (
	"time"

	"gorm.io/datatypes"
)

// Card is a catalog entry. Ownership is tracked per CardInstance, not here.
type Card struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null;uniqueIndex"` // Display name.
	Type     string `gorm:"type:text;not null"`             // Character type or species.
	Gender   string `gorm:"type:text"`                      // Character gender.
	ImageURL string `gorm:"type:text"`                      // Card artwork URL.

	LocationID *uint64 `gorm:"index"` // Home location, optional.

	Episodes datatypes.JSON `gorm:"not null;default:'[]'"` // Episode references from the source catalog.

	IsActive bool `gorm:"not null;default:true"` // Inactive cards cannot be auctioned.

	Location *Location `gorm:"foreignKey:LocationID"` // Related location.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (Card) TableName() string {
	return "cards"
}

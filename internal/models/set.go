package models

import "time"

// Set is a named collection of cards. Owning at least one instance of every
// card in the set grants the bonus; losing a card takes it back.
type Set struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name  string `gorm:"type:text;not null;uniqueIndex"` // Display name.
	Bonus int    `gorm:"not null;default:1"`             // Rating delta on collect/break.

	Cards []SetCard `gorm:"foreignKey:SetID"` // Member cards.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// SetCard binds a card to a set.
type SetCard struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	SetID  uint64 `gorm:"not null;index;uniqueIndex:uniq_set_card"` // Parent set.
	CardID uint64 `gorm:"not null;index;uniqueIndex:uniq_set_card"` // Member card.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// TableName overrides the default table name.
func (SetCard) TableName() string {
	return "set_cards"
}

package db

import (
	"fmt"

	"github.com/cardverse/cardverse/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates all tables used by the application.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.Location{},
		&models.Card{},
		&models.CardInstance{},
		&models.Auction{},
		&models.Bid{},
		&models.Transfer{},
		&models.Set{},
		&models.SetCard{},
		&models.Conversation{},
		&models.Message{},
		&models.Payment{},
	)
}

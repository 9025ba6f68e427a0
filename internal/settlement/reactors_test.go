package settlement

import (
	"context"
	"testing"

	"github.com/cardverse/cardverse/internal/balance"
	"github.com/cardverse/cardverse/internal/db"
	"github.com/cardverse/cardverse/internal/events"
	"github.com/cardverse/cardverse/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	conn   *gorm.DB
	bus    *events.Bus
	seller models.User
	winner models.User
	card   models.Card
	sold   models.CardInstance
}

// newFixture wires the full reactor set (5% fee) around one sold card: seller
// owns the instance, winner holds 1000 points.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	bus := events.NewBus()
	Register(bus, NewReactors(conn, balance.NewService(conn), bus, 5))

	seller := models.User{Username: "seller", Email: "seller@example.com", Password: "x", Role: models.RoleUser}
	winner := models.User{Username: "winner", Email: "winner@example.com", Password: "x", Role: models.RoleUser}
	if errUser := conn.Create(&seller).Error; errUser != nil {
		t.Fatalf("seed seller: %v", errUser)
	}
	if errUser := conn.Create(&winner).Error; errUser != nil {
		t.Fatalf("seed winner: %v", errUser)
	}

	card := models.Card{Name: "Rick Sanchez", Type: "Human", Episodes: datatypes.JSON([]byte("[]")), IsActive: true}
	if errCard := conn.Create(&card).Error; errCard != nil {
		t.Fatalf("seed card: %v", errCard)
	}
	sold := models.CardInstance{CardID: card.ID, OwnerID: seller.ID}
	if errInstance := conn.Create(&sold).Error; errInstance != nil {
		t.Fatalf("seed instance: %v", errInstance)
	}

	funding := models.Transfer{UserID: winner.ID, Kind: models.TransferKindIncome, Amount: 1000, Comment: "top-up"}
	if errFund := conn.Create(&funding).Error; errFund != nil {
		t.Fatalf("fund winner: %v", errFund)
	}

	return &fixture{conn: conn, bus: bus, seller: seller, winner: winner, card: card, sold: sold}
}

func (f *fixture) finishedEvent(auctionID uint64, amount int64) events.AuctionFinished {
	return events.AuctionFinished{
		AuctionID:      auctionID,
		CardInstanceID: f.sold.ID,
		CardID:         f.card.ID,
		WinnerID:       f.winner.ID,
		SellerID:       f.seller.ID,
		Amount:         amount,
	}
}

func TestSettlementTransfersOwnershipAndPoints(t *testing.T) {
	f := newFixture(t)
	f.bus.PublishAuctionFinished(context.Background(), f.finishedEvent(1, 200))

	var instance models.CardInstance
	if errFind := f.conn.First(&instance, f.sold.ID).Error; errFind != nil {
		t.Fatalf("load instance: %v", errFind)
	}
	if instance.OwnerID != f.winner.ID {
		t.Fatalf("owner = %d, want winner %d", instance.OwnerID, f.winner.ID)
	}

	balances := balance.NewService(f.conn)
	winnerTotal, errWinner := balances.Total(context.Background(), f.winner.ID)
	if errWinner != nil {
		t.Fatalf("winner total: %v", errWinner)
	}
	if winnerTotal != 800 {
		t.Fatalf("winner total = %d, want 800", winnerTotal)
	}

	// Seller receives 200 minus the 5% fee.
	sellerTotal, errSeller := balances.Total(context.Background(), f.seller.ID)
	if errSeller != nil {
		t.Fatalf("seller total: %v", errSeller)
	}
	if sellerTotal != 190 {
		t.Fatalf("seller total = %d, want 190", sellerTotal)
	}
}

func TestSettlementReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	e := f.finishedEvent(1, 200)
	f.bus.PublishAuctionFinished(context.Background(), e)
	f.bus.PublishAuctionFinished(context.Background(), e)

	var transfers int64
	f.conn.Model(&models.Transfer{}).Where("auction_id = ?", e.AuctionID).Count(&transfers)
	if transfers != 3 {
		t.Fatalf("transfer rows = %d, want 3 (expense, income, fee)", transfers)
	}

	balances := balance.NewService(f.conn)
	winnerTotal, _ := balances.Total(context.Background(), f.winner.ID)
	if winnerTotal != 800 {
		t.Fatalf("winner total after replay = %d, want 800", winnerTotal)
	}
}

func TestSettlementAdjustsRatings(t *testing.T) {
	f := newFixture(t)
	f.bus.PublishRatingAdjusted(context.Background(), events.RatingAdjusted{UserID: f.seller.ID, Delta: -1})
	f.bus.PublishRatingAdjusted(context.Background(), events.RatingAdjusted{UserID: f.winner.ID, Delta: 1})

	var seller, winner models.User
	if errFind := f.conn.First(&seller, f.seller.ID).Error; errFind != nil {
		t.Fatalf("load seller: %v", errFind)
	}
	if errFind := f.conn.First(&winner, f.winner.ID).Error; errFind != nil {
		t.Fatalf("load winner: %v", errFind)
	}
	if seller.Rating != -1 || winner.Rating != 1 {
		t.Fatalf("ratings seller=%d winner=%d, want -1/1", seller.Rating, winner.Rating)
	}
}

func TestSettlementGrantsSetBonusToCollector(t *testing.T) {
	f := newFixture(t)

	// Two-card set; the winner already owns the other card, so buying this
	// one completes it.
	other := models.Card{Name: "Morty Smith", Type: "Human", Episodes: datatypes.JSON([]byte("[]")), IsActive: true}
	if errCard := f.conn.Create(&other).Error; errCard != nil {
		t.Fatalf("seed other card: %v", errCard)
	}
	set := models.Set{Name: "Smith Family", Bonus: 5}
	if errSet := f.conn.Create(&set).Error; errSet != nil {
		t.Fatalf("seed set: %v", errSet)
	}
	members := []models.SetCard{{SetID: set.ID, CardID: f.card.ID}, {SetID: set.ID, CardID: other.ID}}
	if errMembers := f.conn.Create(&members).Error; errMembers != nil {
		t.Fatalf("seed set cards: %v", errMembers)
	}
	owned := models.CardInstance{CardID: other.ID, OwnerID: f.winner.ID}
	if errOwned := f.conn.Create(&owned).Error; errOwned != nil {
		t.Fatalf("seed owned instance: %v", errOwned)
	}

	f.bus.PublishAuctionFinished(context.Background(), f.finishedEvent(1, 200))

	var winner models.User
	if errFind := f.conn.First(&winner, f.winner.ID).Error; errFind != nil {
		t.Fatalf("load winner: %v", errFind)
	}
	if winner.Rating != 5 {
		t.Fatalf("winner rating = %d, want set bonus 5", winner.Rating)
	}
}

func TestSettlementTakesBonusFromSellerWhoBrokeSet(t *testing.T) {
	f := newFixture(t)

	other := models.Card{Name: "Morty Smith", Type: "Human", Episodes: datatypes.JSON([]byte("[]")), IsActive: true}
	if errCard := f.conn.Create(&other).Error; errCard != nil {
		t.Fatalf("seed other card: %v", errCard)
	}
	set := models.Set{Name: "Smith Family", Bonus: 5}
	if errSet := f.conn.Create(&set).Error; errSet != nil {
		t.Fatalf("seed set: %v", errSet)
	}
	members := []models.SetCard{{SetID: set.ID, CardID: f.card.ID}, {SetID: set.ID, CardID: other.ID}}
	if errMembers := f.conn.Create(&members).Error; errMembers != nil {
		t.Fatalf("seed set cards: %v", errMembers)
	}

	// The seller owned the full set before the sale: the sold card plus the
	// other member.
	sellerOther := models.CardInstance{CardID: other.ID, OwnerID: f.seller.ID}
	if errOwned := f.conn.Create(&sellerOther).Error; errOwned != nil {
		t.Fatalf("seed seller instance: %v", errOwned)
	}

	f.bus.PublishAuctionFinished(context.Background(), f.finishedEvent(1, 200))

	var seller models.User
	if errFind := f.conn.First(&seller, f.seller.ID).Error; errFind != nil {
		t.Fatalf("load seller: %v", errFind)
	}
	if seller.Rating != -5 {
		t.Fatalf("seller rating = %d, want -5 for broken set", seller.Rating)
	}
}

func TestSettlementIgnoresEventsWithoutWinner(t *testing.T) {
	f := newFixture(t)
	e := f.finishedEvent(1, 200)
	e.WinnerID = 0
	f.bus.PublishAuctionFinished(context.Background(), e)

	var instance models.CardInstance
	if errFind := f.conn.First(&instance, f.sold.ID).Error; errFind != nil {
		t.Fatalf("load instance: %v", errFind)
	}
	if instance.OwnerID != f.seller.ID {
		t.Fatalf("owner changed to %d without a winner", instance.OwnerID)
	}
	var transfers int64
	f.conn.Model(&models.Transfer{}).Count(&transfers)
	if transfers != 1 { // only the funding top-up
		t.Fatalf("transfer rows = %d, want 1", transfers)
	}
}

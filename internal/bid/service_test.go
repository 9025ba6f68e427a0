package bid

import (
	"context"
	"testing"
	"time"

	"github.com/cardverse/cardverse/internal/auction"
	"github.com/cardverse/cardverse/internal/balance"
	"github.com/cardverse/cardverse/internal/db"
	"github.com/cardverse/cardverse/internal/domainerr"
	"github.com/cardverse/cardverse/internal/events"
	"github.com/cardverse/cardverse/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	svc    *Service
	conn   *gorm.DB
	bus    *events.Bus
	seller models.User
	bidder models.User
	card   models.Card
	target models.Auction
}

// newFixture seeds one open auction (starting bid 100, step 10, max 600) and a
// bidder holding 1000 points.
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
	repo := auction.NewRepository(conn)
	balances := balance.NewService(conn)
	svc := NewService(conn, repo, balances, bus)

	seller := models.User{Username: "seller", Email: "seller@example.com", Password: "x", Role: models.RoleUser}
	bidder := models.User{Username: "bidder", Email: "bidder@example.com", Password: "x", Role: models.RoleUser}
	if errUsers := conn.Create(&seller).Error; errUsers != nil {
		t.Fatalf("seed seller: %v", errUsers)
	}
	if errUsers := conn.Create(&bidder).Error; errUsers != nil {
		t.Fatalf("seed bidder: %v", errUsers)
	}

	card := models.Card{Name: "Rick Sanchez", Type: "Human", Episodes: datatypes.JSON([]byte("[]")), IsActive: true}
	if errCard := conn.Create(&card).Error; errCard != nil {
		t.Fatalf("seed card: %v", errCard)
	}
	instance := models.CardInstance{CardID: card.ID, OwnerID: seller.ID}
	if errInstance := conn.Create(&instance).Error; errInstance != nil {
		t.Fatalf("seed instance: %v", errInstance)
	}

	maxBid := int64(600)
	target := models.Auction{
		CardInstanceID:   instance.ID,
		StartingBid:      100,
		MinBidStep:       10,
		MaxBid:           &maxBid,
		MinLengthSeconds: 300,
		EndTime:          time.Now().Add(time.Hour).UTC(),
		CreatedBy:        seller.ID,
	}
	if errAuction := conn.Create(&target).Error; errAuction != nil {
		t.Fatalf("seed auction: %v", errAuction)
	}

	f := &fixture{svc: svc, conn: conn, bus: bus, seller: seller, bidder: bidder, card: card, target: target}
	f.fund(t, bidder.ID, 1000)
	return f
}

func (f *fixture) fund(t *testing.T, userID uint64, amount int64) {
	t.Helper()
	transfer := models.Transfer{UserID: userID, Kind: models.TransferKindIncome, Amount: amount, Comment: "top-up"}
	if errCreate := f.conn.Create(&transfer).Error; errCreate != nil {
		t.Fatalf("fund user %d: %v", userID, errCreate)
	}
}

func (f *fixture) place(amount int64) (*models.Bid, error) {
	return f.svc.Create(context.Background(), CreateInput{
		AuctionID: f.target.ID,
		BidderID:  f.bidder.ID,
		Amount:    amount,
	})
}

func TestCreateValidationOrder(t *testing.T) {
	f := newFixture(t)

	// Below the starting bid entirely.
	if _, errBid := f.place(90); !domainerr.HasCode(errBid, domainerr.CodeBidBelowStarting) {
		t.Fatalf("bid 90: got %v", errBid)
	}

	// At the starting bid but short of the first step.
	if _, errBid := f.place(105); !domainerr.HasCode(errBid, domainerr.CodeBidNotExceedsMinimumStep) {
		t.Fatalf("bid 105: got %v", errBid)
	}

	// Over the buyout ceiling.
	if _, errBid := f.place(601); !domainerr.HasCode(errBid, domainerr.CodeBidExceedsMax) {
		t.Fatalf("bid 601: got %v", errBid)
	}

	// First valid bid.
	created, errBid := f.place(110)
	if errBid != nil {
		t.Fatalf("bid 110: %v", errBid)
	}
	if created.Amount != 110 || created.AuctionID != f.target.ID {
		t.Fatalf("unexpected bid %+v", created)
	}

	// Next bid must clear the highest by the step.
	if _, errBid := f.place(115); !domainerr.HasCode(errBid, domainerr.CodeBidNotExceedsMinimumStep) {
		t.Fatalf("bid 115 over highest 110: got %v", errBid)
	}
	if _, errBid := f.place(120); errBid != nil {
		t.Fatalf("bid 120: %v", errBid)
	}
}

func TestCreateRejectsUnknownAuction(t *testing.T) {
	f := newFixture(t)
	_, errBid := f.svc.Create(context.Background(), CreateInput{AuctionID: 9999, BidderID: f.bidder.ID, Amount: 110})
	if !domainerr.HasCode(errBid, domainerr.CodeAuctionNotFound) {
		t.Fatalf("expected not-found, got %v", errBid)
	}
}

func TestCreateRejectsCompletedAuction(t *testing.T) {
	f := newFixture(t)
	if errComplete := f.conn.Model(&models.Auction{}).Where("id = ?", f.target.ID).Update("is_completed", true).Error; errComplete != nil {
		t.Fatalf("mark completed: %v", errComplete)
	}
	_, errBid := f.place(110)
	if !domainerr.HasCode(errBid, domainerr.CodeAuctionCompleted) {
		t.Fatalf("expected completed guard, got %v", errBid)
	}
}

func TestCreateRejectsOwnerOfSameCard(t *testing.T) {
	f := newFixture(t)
	owned := models.CardInstance{CardID: f.card.ID, OwnerID: f.bidder.ID}
	if errCreate := f.conn.Create(&owned).Error; errCreate != nil {
		t.Fatalf("seed owned instance: %v", errCreate)
	}
	_, errBid := f.place(110)
	if !domainerr.HasCode(errBid, domainerr.CodeUserAlreadyHasCard) {
		t.Fatalf("expected already-has-card, got %v", errBid)
	}
}

func TestCreateRejectsInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	_, errBid := f.place(600)
	if errBid != nil {
		t.Fatalf("bid within balance: %v", errBid)
	}

	// A bidder holding 200 points bids 300 on a second auction.
	poor := models.User{Username: "poor", Email: "poor@example.com", Password: "x", Role: models.RoleUser}
	if errUser := f.conn.Create(&poor).Error; errUser != nil {
		t.Fatalf("seed poor bidder: %v", errUser)
	}
	f.fund(t, poor.ID, 200)

	// Second open auction so the step rule is not the failing check.
	instance := models.CardInstance{CardID: f.card.ID, OwnerID: f.seller.ID}
	if errInstance := f.conn.Create(&instance).Error; errInstance != nil {
		t.Fatalf("seed instance: %v", errInstance)
	}
	second := models.Auction{
		CardInstanceID:   instance.ID,
		StartingBid:      100,
		MinBidStep:       10,
		MinLengthSeconds: 300,
		EndTime:          time.Now().Add(time.Hour).UTC(),
		CreatedBy:        f.seller.ID,
	}
	if errAuction := f.conn.Create(&second).Error; errAuction != nil {
		t.Fatalf("seed second auction: %v", errAuction)
	}

	_, errPoor := f.svc.Create(context.Background(), CreateInput{AuctionID: second.ID, BidderID: poor.ID, Amount: 300})
	if !domainerr.HasCode(errPoor, domainerr.CodeInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", errPoor)
	}
}

func TestCreateLetsLeaderRaiseOwnBid(t *testing.T) {
	f := newFixture(t)

	// The bidder holds 1000 points total. After leading at 900 on another
	// auction they could not afford 150 here unless their frozen points on
	// THIS auction were spendable; leading here at 110, raising to 150 must
	// still work.
	if _, errBid := f.place(110); errBid != nil {
		t.Fatalf("first bid: %v", errBid)
	}

	instance := models.CardInstance{CardID: f.card.ID, OwnerID: f.seller.ID}
	if errInstance := f.conn.Create(&instance).Error; errInstance != nil {
		t.Fatalf("seed instance: %v", errInstance)
	}
	other := models.Auction{
		CardInstanceID:   instance.ID,
		StartingBid:      100,
		MinBidStep:       10,
		MinLengthSeconds: 300,
		EndTime:          time.Now().Add(time.Hour).UTC(),
		CreatedBy:        f.seller.ID,
	}
	if errAuction := f.conn.Create(&other).Error; errAuction != nil {
		t.Fatalf("seed other auction: %v", errAuction)
	}
	frozen := models.Bid{AuctionID: other.ID, BidderID: f.bidder.ID, Amount: 800, CreatedAt: time.Now().UTC()}
	if errFrozen := f.conn.Create(&frozen).Error; errFrozen != nil {
		t.Fatalf("seed frozen bid: %v", errFrozen)
	}

	// Available outside this auction: 1000 - 800 = 200. The 110 frozen here
	// does not count against the raise.
	if _, errRaise := f.place(150); errRaise != nil {
		t.Fatalf("raise own bid: %v", errRaise)
	}

	// But the cross-auction freeze still binds: 250 > 200 available.
	if _, errTooHigh := f.place(250); !domainerr.HasCode(errTooHigh, domainerr.CodeInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", errTooHigh)
	}
}

func TestCreatePublishesNewBidEvent(t *testing.T) {
	f := newFixture(t)

	var published []events.NewBid
	f.bus.OnNewBid(func(_ context.Context, e events.NewBid) error {
		published = append(published, e)
		return nil
	})

	created, errBid := f.place(110)
	if errBid != nil {
		t.Fatalf("bid: %v", errBid)
	}
	if len(published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(published))
	}
	e := published[0]
	if e.AuctionID != f.target.ID || e.BidderID != f.bidder.ID || e.Amount != 110 {
		t.Fatalf("unexpected event %+v", e)
	}
	if !e.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("event timestamp %s != bid timestamp %s", e.CreatedAt, created.CreatedAt)
	}
}

package auction

import (
	"context"
	"testing"
	"time"

	"github.com/cardverse/cardverse/internal/db"
	"github.com/cardverse/cardverse/internal/domainerr"
	"github.com/cardverse/cardverse/internal/events"
	"github.com/cardverse/cardverse/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *Repository, *gorm.DB, *events.Bus) {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	bus := events.NewBus()
	repo := NewRepository(conn)
	return NewService(conn, repo, bus), repo, conn, bus
}

func seedUser(t *testing.T, conn *gorm.DB, username, role string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Password: "x", Role: role}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("seed user %s: %v", username, errCreate)
	}
	return user
}

func seedCard(t *testing.T, conn *gorm.DB, name string) models.Card {
	t.Helper()
	card := models.Card{Name: name, Type: "Human", Episodes: datatypes.JSON([]byte("[]")), IsActive: true}
	if errCreate := conn.Create(&card).Error; errCreate != nil {
		t.Fatalf("seed card %s: %v", name, errCreate)
	}
	return card
}

func seedInstance(t *testing.T, conn *gorm.DB, cardID, ownerID uint64) models.CardInstance {
	t.Helper()
	instance := models.CardInstance{CardID: cardID, OwnerID: ownerID}
	if errCreate := conn.Create(&instance).Error; errCreate != nil {
		t.Fatalf("seed instance: %v", errCreate)
	}
	return instance
}

func seedAuction(t *testing.T, conn *gorm.DB, instanceID, createdBy uint64, starting, step int64, end time.Time) models.Auction {
	t.Helper()
	auction := models.Auction{
		CardInstanceID:   instanceID,
		StartingBid:      starting,
		MinBidStep:       step,
		MinLengthSeconds: 300,
		EndTime:          end.UTC(),
		CreatedBy:        createdBy,
	}
	if errCreate := conn.Create(&auction).Error; errCreate != nil {
		t.Fatalf("seed auction: %v", errCreate)
	}
	return auction
}

func seedBid(t *testing.T, conn *gorm.DB, auctionID, bidderID uint64, amount int64, at time.Time) models.Bid {
	t.Helper()
	bid := models.Bid{AuctionID: auctionID, BidderID: bidderID, Amount: amount, CreatedAt: at.UTC()}
	if errCreate := conn.Create(&bid).Error; errCreate != nil {
		t.Fatalf("seed bid: %v", errCreate)
	}
	return bid
}

func TestCreateMintsInstanceForAdmin(t *testing.T) {
	svc, _, conn, _ := setupService(t)
	admin := seedUser(t, conn, "admin", models.RoleAdmin)
	card := seedCard(t, conn, "Rick Sanchez")

	created, errCreate := svc.Create(context.Background(), CreateInput{
		CardID:      card.ID,
		StartingBid: 100,
		MinBidStep:  10,
		MinLength:   5 * time.Minute,
		EndTime:     time.Now().Add(time.Hour),
		CreatorID:   admin.ID,
		CreatorRole: admin.Role,
	})
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	var instance models.CardInstance
	if errFind := conn.First(&instance, created.CardInstanceID).Error; errFind != nil {
		t.Fatalf("load minted instance: %v", errFind)
	}
	if instance.OwnerID != admin.ID || instance.CardID != card.ID {
		t.Fatalf("minted instance owner=%d card=%d", instance.OwnerID, instance.CardID)
	}
}

func TestCreateRequiresOwnedCardForRegularUser(t *testing.T) {
	svc, _, conn, _ := setupService(t)
	seller := seedUser(t, conn, "seller", models.RoleUser)
	card := seedCard(t, conn, "Morty Smith")

	_, errCreate := svc.Create(context.Background(), CreateInput{
		CardID:      card.ID,
		StartingBid: 100,
		MinBidStep:  10,
		MinLength:   5 * time.Minute,
		EndTime:     time.Now().Add(time.Hour),
		CreatorID:   seller.ID,
		CreatorRole: seller.Role,
	})
	if !domainerr.HasCode(errCreate, domainerr.CodeCardNotOwned) {
		t.Fatalf("expected card-not-owned error, got %v", errCreate)
	}
	if errCreate.Error() != "You don't have this card" {
		t.Fatalf("unexpected message %q", errCreate.Error())
	}

	// Owning an instance makes the same call succeed and reuses it.
	instance := seedInstance(t, conn, card.ID, seller.ID)
	created, errRetry := svc.Create(context.Background(), CreateInput{
		CardID:      card.ID,
		StartingBid: 100,
		MinBidStep:  10,
		MinLength:   5 * time.Minute,
		EndTime:     time.Now().Add(time.Hour),
		CreatorID:   seller.ID,
		CreatorRole: seller.Role,
	})
	if errRetry != nil {
		t.Fatalf("create with owned card: %v", errRetry)
	}
	if created.CardInstanceID != instance.ID {
		t.Fatalf("expected instance %d to be auctioned, got %d", instance.ID, created.CardInstanceID)
	}
}

func TestCreateRejectsInactiveCard(t *testing.T) {
	svc, _, conn, _ := setupService(t)
	admin := seedUser(t, conn, "admin", models.RoleAdmin)
	card := seedCard(t, conn, "Birdperson")
	if errUpdate := conn.Model(&card).Update("is_active", false).Error; errUpdate != nil {
		t.Fatalf("deactivate card: %v", errUpdate)
	}

	_, errCreate := svc.Create(context.Background(), CreateInput{
		CardID:      card.ID,
		StartingBid: 100,
		MinBidStep:  10,
		MinLength:   5 * time.Minute,
		EndTime:     time.Now().Add(time.Hour),
		CreatorID:   admin.ID,
		CreatorRole: admin.Role,
	})
	if !domainerr.HasCode(errCreate, domainerr.CodeCardInactive) {
		t.Fatalf("expected card-inactive error, got %v", errCreate)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, conn, _ := setupService(t)
	admin := seedUser(t, conn, "admin", models.RoleAdmin)
	card := seedCard(t, conn, "Squanchy")

	base := CreateInput{
		CardID:      card.ID,
		StartingBid: 100,
		MinBidStep:  10,
		MinLength:   5 * time.Minute,
		EndTime:     time.Now().Add(time.Hour),
		CreatorID:   admin.ID,
		CreatorRole: admin.Role,
	}

	bad := base
	bad.StartingBid = 0
	if _, errCreate := svc.Create(context.Background(), bad); !domainerr.HasCode(errCreate, domainerr.CodeValidation) {
		t.Fatalf("zero starting bid: got %v", errCreate)
	}

	bad = base
	maxBid := int64(50)
	bad.MaxBid = &maxBid
	if _, errCreate := svc.Create(context.Background(), bad); !domainerr.HasCode(errCreate, domainerr.CodeValidation) {
		t.Fatalf("max bid below starting: got %v", errCreate)
	}

	bad = base
	bad.EndTime = time.Now().Add(-time.Minute)
	if _, errCreate := svc.Create(context.Background(), bad); !domainerr.HasCode(errCreate, domainerr.CodeValidation) {
		t.Fatalf("past end time: got %v", errCreate)
	}
}

func TestUpdateGuards(t *testing.T) {
	svc, _, conn, bus := setupService(t)
	seller := seedUser(t, conn, "seller", models.RoleUser)
	card := seedCard(t, conn, "Mr. Meeseeks")
	instance := seedInstance(t, conn, card.ID, seller.ID)
	target := seedAuction(t, conn, instance.ID, seller.ID, 100, 10, time.Now().Add(time.Hour))

	var changed []events.AuctionChanged
	bus.OnAuctionChanged(func(_ context.Context, e events.AuctionChanged) error {
		changed = append(changed, e)
		return nil
	})

	// End time only moves forward.
	earlier := target.EndTime.Add(-time.Minute)
	errBack := svc.Update(context.Background(), target.ID, UpdateInput{EndTime: &earlier})
	if !domainerr.HasCode(errBack, domainerr.CodeEndTimeMovedBack) {
		t.Fatalf("expected end-time guard, got %v", errBack)
	}

	newStart := int64(200)
	if errUpdate := svc.Update(context.Background(), target.ID, UpdateInput{StartingBid: &newStart}); errUpdate != nil {
		t.Fatalf("update: %v", errUpdate)
	}
	if len(changed) != 1 {
		t.Fatalf("expected 1 change event, got %d", len(changed))
	}
	if _, ok := changed[0].Fields["starting_bid"]; !ok {
		t.Fatalf("change event missing patched field: %v", changed[0].Fields)
	}

	if errComplete := conn.Model(&models.Auction{}).Where("id = ?", target.ID).Update("is_completed", true).Error; errComplete != nil {
		t.Fatalf("mark completed: %v", errComplete)
	}
	errFinished := svc.Update(context.Background(), target.ID, UpdateInput{StartingBid: &newStart})
	if !domainerr.HasCode(errFinished, domainerr.CodeAuctionFinishedForbidden) {
		t.Fatalf("expected finished guard, got %v", errFinished)
	}
}

func TestRemoveDeletesAuctionAndBids(t *testing.T) {
	svc, _, conn, _ := setupService(t)
	seller := seedUser(t, conn, "seller", models.RoleUser)
	bidder := seedUser(t, conn, "bidder", models.RoleUser)
	card := seedCard(t, conn, "Snowball")
	instance := seedInstance(t, conn, card.ID, seller.ID)
	target := seedAuction(t, conn, instance.ID, seller.ID, 100, 10, time.Now().Add(time.Hour))
	seedBid(t, conn, target.ID, bidder.ID, 110, time.Now())

	if errRemove := svc.Remove(context.Background(), target.ID); errRemove != nil {
		t.Fatalf("remove: %v", errRemove)
	}

	var auctions, bids int64
	conn.Model(&models.Auction{}).Where("id = ?", target.ID).Count(&auctions)
	conn.Model(&models.Bid{}).Where("auction_id = ?", target.ID).Count(&bids)
	if auctions != 0 || bids != 0 {
		t.Fatalf("leftover rows: auctions=%d bids=%d", auctions, bids)
	}
}

func TestRemoveRefusesCompletedAuction(t *testing.T) {
	svc, _, conn, _ := setupService(t)
	seller := seedUser(t, conn, "seller", models.RoleUser)
	card := seedCard(t, conn, "Jerry Smith")
	instance := seedInstance(t, conn, card.ID, seller.ID)
	target := seedAuction(t, conn, instance.ID, seller.ID, 100, 10, time.Now().Add(time.Hour))
	if errComplete := conn.Model(&models.Auction{}).Where("id = ?", target.ID).Update("is_completed", true).Error; errComplete != nil {
		t.Fatalf("mark completed: %v", errComplete)
	}

	errRemove := svc.Remove(context.Background(), target.ID)
	if !domainerr.HasCode(errRemove, domainerr.CodeAuctionFinishedForbidden) {
		t.Fatalf("expected finished guard, got %v", errRemove)
	}
}

func TestFinishAuctionPublishesWinnerAndRatings(t *testing.T) {
	svc, _, conn, bus := setupService(t)
	seller := seedUser(t, conn, "seller", models.RoleUser)
	loser := seedUser(t, conn, "loser", models.RoleUser)
	winner := seedUser(t, conn, "winner", models.RoleUser)
	card := seedCard(t, conn, "Scary Terry")
	instance := seedInstance(t, conn, card.ID, seller.ID)
	target := seedAuction(t, conn, instance.ID, seller.ID, 100, 10, time.Now().Add(-time.Minute))
	seedBid(t, conn, target.ID, loser.ID, 110, time.Now().Add(-10*time.Minute))
	seedBid(t, conn, target.ID, winner.ID, 120, time.Now().Add(-5*time.Minute))

	var finished []events.AuctionFinished
	var ratings []events.RatingAdjusted
	bus.OnAuctionFinished(func(_ context.Context, e events.AuctionFinished) error {
		finished = append(finished, e)
		return nil
	})
	bus.OnRatingAdjusted(func(_ context.Context, e events.RatingAdjusted) error {
		ratings = append(ratings, e)
		return nil
	})

	if errFinish := svc.FinishAuction(context.Background(), target.ID); errFinish != nil {
		t.Fatalf("finish: %v", errFinish)
	}

	if len(finished) != 1 {
		t.Fatalf("expected 1 finished event, got %d", len(finished))
	}
	e := finished[0]
	if e.WinnerID != winner.ID || e.SellerID != seller.ID || e.Amount != 120 || e.CardID != card.ID {
		t.Fatalf("unexpected finished event %+v", e)
	}
	if len(ratings) != 2 {
		t.Fatalf("expected 2 rating events, got %d", len(ratings))
	}
	if ratings[0].UserID != seller.ID || ratings[0].Delta != -1 {
		t.Fatalf("unexpected seller rating %+v", ratings[0])
	}
	if ratings[1].UserID != winner.ID || ratings[1].Delta != 1 {
		t.Fatalf("unexpected winner rating %+v", ratings[1])
	}

	// Settling again is a no-op.
	if errAgain := svc.FinishAuction(context.Background(), target.ID); errAgain != nil {
		t.Fatalf("second finish: %v", errAgain)
	}
	if len(finished) != 1 || len(ratings) != 2 {
		t.Fatalf("replay published extra events: finished=%d ratings=%d", len(finished), len(ratings))
	}
}

func TestFinishAuctionWithoutBidsSettlesSilently(t *testing.T) {
	svc, _, conn, bus := setupService(t)
	seller := seedUser(t, conn, "seller", models.RoleUser)
	card := seedCard(t, conn, "Abradolf Lincler")
	instance := seedInstance(t, conn, card.ID, seller.ID)
	target := seedAuction(t, conn, instance.ID, seller.ID, 100, 10, time.Now().Add(-time.Minute))

	published := 0
	bus.OnAuctionFinished(func(_ context.Context, _ events.AuctionFinished) error {
		published++
		return nil
	})

	if errFinish := svc.FinishAuction(context.Background(), target.ID); errFinish != nil {
		t.Fatalf("finish: %v", errFinish)
	}
	if published != 0 {
		t.Fatalf("no-bid settlement published %d events", published)
	}

	var reloaded models.Auction
	if errFind := conn.First(&reloaded, target.ID).Error; errFind != nil {
		t.Fatalf("reload: %v", errFind)
	}
	if !reloaded.IsCompleted {
		t.Fatal("auction not marked completed")
	}
}

func TestHighestBidTieGoesToEarliestBid(t *testing.T) {
	_, repo, conn, _ := setupService(t)
	seller := seedUser(t, conn, "seller", models.RoleUser)
	first := seedUser(t, conn, "first", models.RoleUser)
	second := seedUser(t, conn, "second", models.RoleUser)
	card := seedCard(t, conn, "Pickle Rick")
	instance := seedInstance(t, conn, card.ID, seller.ID)
	target := seedAuction(t, conn, instance.ID, seller.ID, 100, 10, time.Now().Add(time.Hour))

	now := time.Now()
	seedBid(t, conn, target.ID, first.ID, 120, now.Add(-2*time.Minute))
	seedBid(t, conn, target.ID, second.ID, 120, now.Add(-time.Minute))

	highest, errHighest := repo.HighestBid(context.Background(), target.ID)
	if errHighest != nil {
		t.Fatalf("highest bid: %v", errHighest)
	}
	if highest == nil || highest.BidderID != first.ID {
		t.Fatalf("expected earliest bidder %d to lead, got %+v", first.ID, highest)
	}
}

func TestExtendAuctionIfNecessary(t *testing.T) {
	svc, _, conn, bus := setupService(t)
	seller := seedUser(t, conn, "seller", models.RoleUser)
	card := seedCard(t, conn, "Unity")
	instance := seedInstance(t, conn, card.ID, seller.ID)

	// 300s minimum runway, 100s remaining: the bid pushes the end out.
	target := seedAuction(t, conn, instance.ID, seller.ID, 100, 10, time.Now().Add(100*time.Second))

	var changed []events.AuctionChanged
	bus.OnAuctionChanged(func(_ context.Context, e events.AuctionChanged) error {
		changed = append(changed, e)
		return nil
	})

	bidAt := time.Now().UTC()
	errExtend := svc.ExtendAuctionIfNecessary(context.Background(), events.NewBid{
		AuctionID: target.ID,
		Amount:    110,
		CreatedAt: bidAt,
	})
	if errExtend != nil {
		t.Fatalf("extend: %v", errExtend)
	}

	var reloaded models.Auction
	if errFind := conn.First(&reloaded, target.ID).Error; errFind != nil {
		t.Fatalf("reload: %v", errFind)
	}
	wantEnd := bidAt.Add(300 * time.Second)
	if reloaded.EndTime.Unix() != wantEnd.Unix() {
		t.Fatalf("end time = %s, want %s", reloaded.EndTime, wantEnd)
	}
	if len(changed) != 1 {
		t.Fatalf("expected 1 change event, got %d", len(changed))
	}
	if _, ok := changed[0].Fields["end_time"]; !ok {
		t.Fatalf("change event missing end_time: %v", changed[0].Fields)
	}

	// Runway now equals the minimum exactly, so a bid a second later leaves
	// 299s and pushes the end out again.
	reBidAt := bidAt.Add(time.Second)
	errReExtend := svc.ExtendAuctionIfNecessary(context.Background(), events.NewBid{
		AuctionID: target.ID,
		Amount:    120,
		CreatedAt: reBidAt,
	})
	if errReExtend != nil {
		t.Fatalf("re-extend: %v", errReExtend)
	}
	if errFind := conn.First(&reloaded, target.ID).Error; errFind != nil {
		t.Fatalf("reload after re-extend: %v", errFind)
	}
	if reloaded.EndTime.Unix() != reBidAt.Add(300*time.Second).Unix() {
		t.Fatalf("end time after re-extend = %s, want %s", reloaded.EndTime, reBidAt.Add(300*time.Second))
	}
	if len(changed) != 2 {
		t.Fatalf("expected 2 change events, got %d", len(changed))
	}

	// With the end pushed far out, another bid does not move it again.
	if errPush := conn.Model(&models.Auction{}).Where("id = ?", target.ID).
		Update("end_time", bidAt.Add(2*time.Hour)).Error; errPush != nil {
		t.Fatalf("push end time: %v", errPush)
	}
	errNoop := svc.ExtendAuctionIfNecessary(context.Background(), events.NewBid{
		AuctionID: target.ID,
		Amount:    130,
		CreatedAt: reBidAt.Add(time.Second),
	})
	if errNoop != nil {
		t.Fatalf("second extend: %v", errNoop)
	}
	if len(changed) != 2 {
		t.Fatalf("no-op extension published an event, got %d", len(changed))
	}
}

func TestGetHighestBidRange(t *testing.T) {
	svc, _, conn, _ := setupService(t)

	empty, errEmpty := svc.GetHighestBidRange(context.Background())
	if errEmpty != nil {
		t.Fatalf("empty range: %v", errEmpty)
	}
	if empty != nil {
		t.Fatalf("expected nil range with no open auctions, got %+v", empty)
	}

	seller := seedUser(t, conn, "seller", models.RoleUser)
	bidder := seedUser(t, conn, "bidder", models.RoleUser)
	cardA := seedCard(t, conn, "Rick Sanchez")
	cardB := seedCard(t, conn, "Morty Smith")
	instanceA := seedInstance(t, conn, cardA.ID, seller.ID)
	instanceB := seedInstance(t, conn, cardB.ID, seller.ID)

	// No bids yet: current price falls back to the starting bid.
	seedAuction(t, conn, instanceA.ID, seller.ID, 100, 10, time.Now().Add(time.Hour))
	withBid := seedAuction(t, conn, instanceB.ID, seller.ID, 50, 10, time.Now().Add(time.Hour))
	seedBid(t, conn, withBid.ID, bidder.ID, 500, time.Now())

	bidRange, errRange := svc.GetHighestBidRange(context.Background())
	if errRange != nil {
		t.Fatalf("range: %v", errRange)
	}
	if bidRange == nil || bidRange.Min != 100 || bidRange.Max != 500 {
		t.Fatalf("unexpected range %+v", bidRange)
	}

	// Completed auctions drop out of the range.
	if errComplete := conn.Model(&models.Auction{}).Where("id = ?", withBid.ID).Update("is_completed", true).Error; errComplete != nil {
		t.Fatalf("mark completed: %v", errComplete)
	}
	bidRange, errRange = svc.GetHighestBidRange(context.Background())
	if errRange != nil {
		t.Fatalf("range after completion: %v", errRange)
	}
	if bidRange == nil || bidRange.Min != 100 || bidRange.Max != 100 {
		t.Fatalf("unexpected range after completion %+v", bidRange)
	}
}

func TestFindAllFiltersAndPaginates(t *testing.T) {
	svc, _, conn, _ := setupService(t)
	seller := seedUser(t, conn, "seller", models.RoleUser)
	bidder := seedUser(t, conn, "bidder", models.RoleUser)
	rick := seedCard(t, conn, "Rick Sanchez")
	morty := seedCard(t, conn, "Morty Smith")
	rickInstance := seedInstance(t, conn, rick.ID, seller.ID)
	mortyInstance := seedInstance(t, conn, morty.ID, seller.ID)

	rickAuction := seedAuction(t, conn, rickInstance.ID, seller.ID, 100, 10, time.Now().Add(time.Hour))
	seedAuction(t, conn, mortyInstance.ID, seller.ID, 50, 5, time.Now().Add(2*time.Hour))
	seedBid(t, conn, rickAuction.ID, bidder.ID, 150, time.Now())

	// Case-insensitive card name match.
	rows, meta, errList := svc.FindAll(context.Background(), ListFilter{CardName: "rick"})
	if errList != nil {
		t.Fatalf("list by name: %v", errList)
	}
	if meta.ItemCount != 1 || len(rows) != 1 || rows[0].ID != rickAuction.ID {
		t.Fatalf("unexpected name filter result: meta=%+v rows=%d", meta, len(rows))
	}
	if rows[0].CurrentPrice != 150 {
		t.Fatalf("current price = %d, want 150", rows[0].CurrentPrice)
	}

	// Leader filter only matches the current highest bidder.
	leaderID := bidder.ID
	rows, _, errLeader := svc.FindAll(context.Background(), ListFilter{LeaderID: &leaderID})
	if errLeader != nil {
		t.Fatalf("list by leader: %v", errLeader)
	}
	if len(rows) != 1 || rows[0].ID != rickAuction.ID {
		t.Fatalf("unexpected leader filter rows: %d", len(rows))
	}

	// One item per page over two auctions.
	rows, meta, errPage := svc.FindAll(context.Background(), ListFilter{Take: 1, Page: 1})
	if errPage != nil {
		t.Fatalf("list page: %v", errPage)
	}
	if len(rows) != 1 || meta.ItemCount != 2 || meta.PageCount != 2 || !meta.HasNextPage || meta.HasPreviousPage {
		t.Fatalf("unexpected page meta %+v", meta)
	}
}

func TestFindOneAnnotatesViewer(t *testing.T) {
	svc, _, conn, _ := setupService(t)
	seller := seedUser(t, conn, "seller", models.RoleUser)
	bidder := seedUser(t, conn, "bidder", models.RoleUser)
	other := seedUser(t, conn, "other", models.RoleUser)
	card := seedCard(t, conn, "Evil Morty")
	instance := seedInstance(t, conn, card.ID, seller.ID)
	target := seedAuction(t, conn, instance.ID, seller.ID, 100, 10, time.Now().Add(time.Hour))
	seedBid(t, conn, target.ID, bidder.ID, 130, time.Now())

	detail, errFind := svc.FindOne(context.Background(), target.ID, bidder.ID)
	if errFind != nil {
		t.Fatalf("find one: %v", errFind)
	}
	if detail.CurrentPrice != 130 || detail.HighestBid == nil || !detail.HighestBid.IsViewers {
		t.Fatalf("unexpected detail for bidder: %+v", detail)
	}
	if detail.IsOwnCard {
		t.Fatal("bidder does not own the card")
	}

	detail, errFind = svc.FindOne(context.Background(), target.ID, other.ID)
	if errFind != nil {
		t.Fatalf("find one as other: %v", errFind)
	}
	if detail.HighestBid == nil || detail.HighestBid.IsViewers {
		t.Fatalf("highest bid wrongly attributed to viewer: %+v", detail.HighestBid)
	}

	_, errMissing := svc.FindOne(context.Background(), 9999, bidder.ID)
	if !domainerr.HasCode(errMissing, domainerr.CodeAuctionNotFound) {
		t.Fatalf("expected not-found, got %v", errMissing)
	}
}

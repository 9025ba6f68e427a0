// Package settlement hosts the reactors that run after an auction finishes
// with a winner: card ownership transfer, balance transfer with the system
// fee, rating adjustments and the set collected/broken check. Each reactor is
// an independent bus subscriber and is written to be idempotent so a partial
// failure can be replayed safely.
package settlement

import (
	"context"
	"fmt"

	"github.com/cardverse/cardverse/internal/balance"
	"github.com/cardverse/cardverse/internal/events"
	"github.com/cardverse/cardverse/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Reactors reacts to auction settlement events.
type Reactors struct {
	db         *gorm.DB
	balances   *balance.Service
	bus        *events.Bus
	feePercent int64
}

// NewReactors constructs the settlement reactors.
func NewReactors(conn *gorm.DB, balances *balance.Service, bus *events.Bus, feePercent int64) *Reactors {
	return &Reactors{db: conn, balances: balances, bus: bus, feePercent: feePercent}
}

// Register subscribes all reactors. Ownership must run before the set check:
// the set check reads post-transfer ownership.
func Register(bus *events.Bus, r *Reactors) {
	bus.OnAuctionFinished(r.TransferCardOwnership)
	bus.OnAuctionFinished(r.TransferBalance)
	bus.OnAuctionFinished(r.CheckSets)
	bus.OnRatingAdjusted(r.AdjustRating)
}

// TransferCardOwnership reassigns the sold instance to the winner. The write
// is idempotent: replaying it sets the same owner again.
func (r *Reactors) TransferCardOwnership(ctx context.Context, e events.AuctionFinished) error {
	if e.WinnerID == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.CardInstance{}).
		Where("id = ?", e.CardInstanceID).
		Update("owner_id", e.WinnerID).Error
}

// TransferBalance moves the winning amount from winner to seller, deducting
// the system fee from the seller's side. The winner's available balance is
// re-validated first to guard against double-spend across auctions finishing
// close together. The unique transfer index makes replays no-ops.
func (r *Reactors) TransferBalance(ctx context.Context, e events.AuctionFinished) error {
	if e.WinnerID == 0 {
		return nil
	}

	available, errAvail := r.balances.Available(ctx, e.WinnerID, e.AuctionID)
	if errAvail != nil {
		return errAvail
	}
	if available < e.Amount {
		log.Warnf("settlement: winner %d cannot cover auction %d (available=%d amount=%d)", e.WinnerID, e.AuctionID, available, e.Amount)
		return fmt.Errorf("settlement: winner %d balance no longer covers auction %d", e.WinnerID, e.AuctionID)
	}

	fee := e.Amount * r.feePercent / 100
	auctionID := e.AuctionID

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if errCount := tx.Model(&models.Transfer{}).
			Where("auction_id = ? AND kind = ?", auctionID, models.TransferKindExpense).
			Count(&existing).Error; errCount != nil {
			return errCount
		}
		if existing > 0 {
			return nil
		}

		transfers := []models.Transfer{
			{
				UserID:    e.WinnerID,
				AuctionID: &auctionID,
				Kind:      models.TransferKindExpense,
				Amount:    e.Amount,
				Comment:   fmt.Sprintf("won auction %d", e.AuctionID),
			},
			{
				UserID:    e.SellerID,
				AuctionID: &auctionID,
				Kind:      models.TransferKindIncome,
				Amount:    e.Amount,
				Comment:   fmt.Sprintf("sold card at auction %d", e.AuctionID),
			},
		}
		if fee > 0 {
			transfers = append(transfers, models.Transfer{
				UserID:    e.SellerID,
				AuctionID: &auctionID,
				Kind:      models.TransferKindFee,
				Amount:    fee,
				Comment:   fmt.Sprintf("system fee for auction %d", e.AuctionID),
			})
		}
		return tx.Create(&transfers).Error
	})
}

// AdjustRating applies a rating delta to a user.
func (r *Reactors) AdjustRating(ctx context.Context, e events.RatingAdjusted) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", e.UserID).
		Update("rating", gorm.Expr("rating + ?", e.Delta)).Error
}

// CheckSets re-evaluates collectible sets touched by the transferred card:
// the buyer earns each set's bonus when the card completes it, the seller
// loses the bonus of each set the departure breaks. Adjustments are published
// as rating events so the rating reactor stays the single write path.
func (r *Reactors) CheckSets(ctx context.Context, e events.AuctionFinished) error {
	if e.WinnerID == 0 {
		return nil
	}

	var sets []models.Set
	if errFind := r.db.WithContext(ctx).
		Joins("JOIN set_cards ON set_cards.set_id = sets.id").
		Where("set_cards.card_id = ?", e.CardID).
		Find(&sets).Error; errFind != nil {
		return errFind
	}

	for _, set := range sets {
		collected, errBuyer := r.ownsWholeSet(ctx, e.WinnerID, set.ID)
		if errBuyer != nil {
			return errBuyer
		}
		if collected {
			r.bus.PublishRatingAdjusted(ctx, events.RatingAdjusted{
				UserID: e.WinnerID,
				Delta:  set.Bonus,
				Reason: fmt.Sprintf("collected set %q", set.Name),
			})
		}

		broken, errSeller := r.brokeSet(ctx, e.SellerID, set.ID, e.CardID)
		if errSeller != nil {
			return errSeller
		}
		if broken {
			r.bus.PublishRatingAdjusted(ctx, events.RatingAdjusted{
				UserID: e.SellerID,
				Delta:  -set.Bonus,
				Reason: fmt.Sprintf("broke set %q", set.Name),
			})
		}
	}
	return nil
}

// ownsWholeSet reports whether a user owns at least one instance of every
// card in a set.
func (r *Reactors) ownsWholeSet(ctx context.Context, userID, setID uint64) (bool, error) {
	var total int64
	if errTotal := r.db.WithContext(ctx).
		Model(&models.SetCard{}).
		Where("set_id = ?", setID).
		Count(&total).Error; errTotal != nil {
		return false, errTotal
	}
	if total == 0 {
		return false, nil
	}

	var owned int64
	if errOwned := r.db.WithContext(ctx).
		Model(&models.SetCard{}).
		Where("set_id = ?", setID).
		Where("EXISTS (SELECT 1 FROM card_instances ci WHERE ci.card_id = set_cards.card_id AND ci.owner_id = ?)", userID).
		Count(&owned).Error; errOwned != nil {
		return false, errOwned
	}
	return owned == total, nil
}

// brokeSet reports whether losing cardID broke the set for the seller: they
// no longer own the card but still own every other card in the set, meaning
// the set was complete before the transfer.
func (r *Reactors) brokeSet(ctx context.Context, sellerID, setID, cardID uint64) (bool, error) {
	var stillOwns int64
	if errCount := r.db.WithContext(ctx).
		Model(&models.CardInstance{}).
		Where("owner_id = ? AND card_id = ?", sellerID, cardID).
		Count(&stillOwns).Error; errCount != nil {
		return false, errCount
	}
	if stillOwns > 0 {
		return false, nil
	}

	var total int64
	if errTotal := r.db.WithContext(ctx).
		Model(&models.SetCard{}).
		Where("set_id = ? AND card_id <> ?", setID, cardID).
		Count(&total).Error; errTotal != nil {
		return false, errTotal
	}

	var owned int64
	if errOwned := r.db.WithContext(ctx).
		Model(&models.SetCard{}).
		Where("set_id = ? AND card_id <> ?", setID, cardID).
		Where("EXISTS (SELECT 1 FROM card_instances ci WHERE ci.card_id = set_cards.card_id AND ci.owner_id = ?)", sellerID).
		Count(&owned).Error; errOwned != nil {
		return false, errOwned
	}
	return owned == total, nil
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cardverse/cardverse/internal/auction"
	"github.com/cardverse/cardverse/internal/bid"
	"github.com/cardverse/cardverse/internal/models"
	"github.com/gin-gonic/gin"
)

// AuctionsHandler serves the auction lifecycle and bidding endpoints.
type AuctionsHandler struct {
	auctions *auction.Service
	repo     *auction.Repository
	bids     *bid.Service
}

// NewAuctionsHandler constructs an auctions handler.
func NewAuctionsHandler(auctions *auction.Service, repo *auction.Repository, bids *bid.Service) *AuctionsHandler {
	return &AuctionsHandler{auctions: auctions, repo: repo, bids: bids}
}

// parseListFilter maps the listing query parameters onto a repository filter.
func parseListFilter(c *gin.Context) (auction.ListFilter, bool) {
	var f auction.ListFilter
	f.Page, f.Take = parsePagination(c)
	f.CardName = strings.TrimSpace(c.Query("cardName"))
	f.SortBy = c.Query("sortBy")
	f.SortOrder = c.Query("sortOrder")

	parseUint := func(name string) (*uint64, bool) {
		raw := c.Query(name)
		if raw == "" {
			return nil, true
		}
		value, errParse := strconv.ParseUint(raw, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
			return nil, false
		}
		return &value, true
	}
	parseInt := func(name string) (*int64, bool) {
		raw := c.Query(name)
		if raw == "" {
			return nil, true
		}
		value, errParse := strconv.ParseInt(raw, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
			return nil, false
		}
		return &value, true
	}

	var ok bool
	if f.LocationID, ok = parseUint("locationId"); !ok {
		return f, false
	}
	if f.FromPrice, ok = parseInt("fromPrice"); !ok {
		return f, false
	}
	if f.ToPrice, ok = parseInt("toPrice"); !ok {
		return f, false
	}
	if f.CreatedBy, ok = parseUint("createdBy"); !ok {
		return f, false
	}
	if f.ParticipantID, ok = parseUint("participantId"); !ok {
		return f, false
	}
	if f.LeaderID, ok = parseUint("leaderId"); !ok {
		return f, false
	}
	if raw := c.Query("isCompleted"); raw != "" {
		completed, errParse := strconv.ParseBool(raw)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid isCompleted"})
			return f, false
		}
		f.IsCompleted = &completed
	}
	return f, true
}

// List returns a filtered page of auctions.
func (h *AuctionsHandler) List(c *gin.Context) {
	f, ok := parseListFilter(c)
	if !ok {
		return
	}
	rows, meta, errList := h.auctions.FindAll(c.Request.Context(), f)
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auctions": rows, "meta": meta})
}

// Get returns one auction detail scoped to the viewer.
func (h *AuctionsHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detail, errFind := h.auctions.FindOne(c.Request.Context(), id, currentUserID(c))
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// BidRange returns the global current-price bounds over open auctions.
func (h *AuctionsHandler) BidRange(c *gin.Context) {
	bidRange, errRange := h.auctions.GetHighestBidRange(c.Request.Context())
	if errRange != nil {
		respondError(c, errRange)
		return
	}
	if bidRange == nil {
		c.JSON(http.StatusOK, gin.H{"range": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"range": bidRange})
}

type createAuctionRequest struct {
	CardID           uint64    `json:"cardId" binding:"required"`
	StartingBid      int64     `json:"startingBid" binding:"required"`
	MinBidStep       int64     `json:"minBidStep" binding:"required"`
	MaxBid           *int64    `json:"maxBid"`
	MinLengthSeconds int64     `json:"minLengthSeconds" binding:"required"`
	EndTime          time.Time `json:"endTime" binding:"required"`
}

// Create opens an auction for the authenticated user.
func (h *AuctionsHandler) Create(c *gin.Context) {
	var req createAuctionRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	created, errCreate := h.auctions.Create(c.Request.Context(), auction.CreateInput{
		CardID:      req.CardID,
		StartingBid: req.StartingBid,
		MinBidStep:  req.MinBidStep,
		MaxBid:      req.MaxBid,
		MinLength:   time.Duration(req.MinLengthSeconds) * time.Second,
		EndTime:     req.EndTime,
		CreatorID:   currentUserID(c),
		CreatorRole: currentRole(c),
	})
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"auction": created})
}

type updateAuctionRequest struct {
	StartingBid      *int64     `json:"startingBid"`
	MinBidStep       *int64     `json:"minBidStep"`
	MaxBid           *int64     `json:"maxBid"`
	MinLengthSeconds *int64     `json:"minLengthSeconds"`
	EndTime          *time.Time `json:"endTime"`
}

// Update patches an auction. Only the seller or an admin may update.
func (h *AuctionsHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !h.authorizeSeller(c, id) {
		return
	}

	var req updateAuctionRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}
	errUpdate := h.auctions.Update(c.Request.Context(), id, auction.UpdateInput{
		StartingBid:      req.StartingBid,
		MinBidStep:       req.MinBidStep,
		MaxBid:           req.MaxBid,
		MinLengthSeconds: req.MinLengthSeconds,
		EndTime:          req.EndTime,
	})
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// Remove deletes an auction. Only the seller or an admin may remove.
func (h *AuctionsHandler) Remove(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !h.authorizeSeller(c, id) {
		return
	}
	if errRemove := h.auctions.Remove(c.Request.Context(), id); errRemove != nil {
		respondError(c, errRemove)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// authorizeSeller loads the auction and verifies the caller is its seller or
// an admin. On failure it writes the response and returns false.
func (h *AuctionsHandler) authorizeSeller(c *gin.Context, auctionID uint64) bool {
	detail, errFind := h.auctions.FindOne(c.Request.Context(), auctionID, currentUserID(c))
	if errFind != nil {
		respondError(c, errFind)
		return false
	}
	if detail.Auction.CreatedBy != currentUserID(c) && currentRole(c) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your auction"})
		return false
	}
	return true
}

// Bids lists an auction's bids, highest first.
func (h *AuctionsHandler) Bids(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bids, errBids := h.repo.Bids(c.Request.Context(), id)
	if errBids != nil {
		respondError(c, errBids)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

type createBidRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// CreateBid places a bid for the authenticated user.
func (h *AuctionsHandler) CreateBid(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req createBidRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	created, errCreate := h.bids.Create(c.Request.Context(), bid.CreateInput{
		AuctionID: id,
		BidderID:  currentUserID(c),
		Amount:    req.Amount,
	})
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bid": created})
}

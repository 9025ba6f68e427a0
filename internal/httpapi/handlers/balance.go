package handlers

import (
	"net/http"

	"github.com/cardverse/cardverse/internal/balance"
	"github.com/cardverse/cardverse/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BalanceHandler serves the authenticated user's point balance and ledger.
type BalanceHandler struct {
	db       *gorm.DB
	balances *balance.Service
}

// NewBalanceHandler constructs a balance handler.
func NewBalanceHandler(conn *gorm.DB, balances *balance.Service) *BalanceHandler {
	return &BalanceHandler{db: conn, balances: balances}
}

// Summary returns the total, frozen and available balance.
func (h *BalanceHandler) Summary(c *gin.Context) {
	summary, errSummary := h.balances.Summarize(c.Request.Context(), currentUserID(c))
	if errSummary != nil {
		respondError(c, errSummary)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Transfers returns a page of the user's ledger, newest first.
func (h *BalanceHandler) Transfers(c *gin.Context) {
	page, take := parsePagination(c)
	userID := currentUserID(c)

	var total int64
	if errCount := h.db.Model(&models.Transfer{}).Where("user_id = ?", userID).Count(&total).Error; errCount != nil {
		respondError(c, errCount)
		return
	}

	var transfers []models.Transfer
	errFind := h.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(take).
		Offset((page - 1) * take).
		Find(&transfers).Error
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfers": transfers, "itemCount": total, "page": page, "take": take})
}

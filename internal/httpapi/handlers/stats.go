package handlers

import (
	"net/http"

	"github.com/cardverse/cardverse/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StatsHandler serves public collection statistics.
type StatsHandler struct {
	db *gorm.DB
}

// NewStatsHandler constructs a stats handler.
func NewStatsHandler(conn *gorm.DB) *StatsHandler {
	return &StatsHandler{db: conn}
}

// leaderboardRow is one leaderboard entry.
type leaderboardRow struct {
	UserID    uint64 `json:"userId" gorm:"column:id"`
	Username  string `json:"username"`
	Rating    int    `json:"rating"`
	CardCount int64  `json:"cardCount" gorm:"column:card_count"`
}

// Leaderboard returns the top collectors by rating.
func (h *StatsHandler) Leaderboard(c *gin.Context) {
	_, take := parsePagination(c)

	var rows []leaderboardRow
	errFind := h.db.Model(&models.User{}).
		Select("users.id, users.username, users.rating, (SELECT COUNT(*) FROM card_instances ci WHERE ci.owner_id = users.id) AS card_count").
		Where("users.disabled = ?", false).
		Order("users.rating DESC, users.id ASC").
		Limit(take).
		Find(&rows).Error
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": rows})
}

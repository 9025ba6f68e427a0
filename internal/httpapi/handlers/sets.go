package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cardverse/cardverse/internal/domainerr"
	"github.com/cardverse/cardverse/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetsHandler serves collectible sets and their admin management.
type SetsHandler struct {
	db *gorm.DB
}

// NewSetsHandler constructs a sets handler.
func NewSetsHandler(conn *gorm.DB) *SetsHandler {
	return &SetsHandler{db: conn}
}

// List returns all sets with their member cards.
func (h *SetsHandler) List(c *gin.Context) {
	var sets []models.Set
	if errFind := h.db.Preload("Cards").Order("name ASC").Find(&sets).Error; errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sets": sets})
}

// Get returns one set. Authenticated viewers also see how many member cards
// they own.
func (h *SetsHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var set models.Set
	errFind := h.db.Preload("Cards").First(&set, id).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		respondError(c, domainerr.NotFound(domainerr.CodeSetNotFound, "set not found"))
		return
	}
	if errFind != nil {
		respondError(c, errFind)
		return
	}

	response := gin.H{"set": set}
	if viewerID := currentUserID(c); viewerID != 0 {
		var owned int64
		errOwned := h.db.Model(&models.SetCard{}).
			Where("set_id = ?", set.ID).
			Where("EXISTS (SELECT 1 FROM card_instances ci WHERE ci.card_id = set_cards.card_id AND ci.owner_id = ?)", viewerID).
			Count(&owned).Error
		if errOwned != nil {
			respondError(c, errOwned)
			return
		}
		response["ownedCards"] = owned
		response["collected"] = len(set.Cards) > 0 && owned == int64(len(set.Cards))
	}
	c.JSON(http.StatusOK, response)
}

type setRequest struct {
	Name    string   `json:"name" binding:"required"`
	Bonus   int      `json:"bonus" binding:"required,min=1"`
	CardIDs []uint64 `json:"cardIds" binding:"required,min=1"`
}

// Create adds a set with its member cards. Admin only.
func (h *SetsHandler) Create(c *gin.Context) {
	var req setRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	var cards int64
	if errCount := h.db.Model(&models.Card{}).Where("id IN ?", req.CardIDs).Count(&cards).Error; errCount != nil {
		respondError(c, errCount)
		return
	}
	if cards != int64(len(req.CardIDs)) {
		respondError(c, domainerr.BadRequest(domainerr.CodeCardNotFound, "unknown card in set"))
		return
	}

	set := models.Set{Name: strings.TrimSpace(req.Name), Bonus: req.Bonus}
	errTx := h.db.Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&set).Error; errCreate != nil {
			return errCreate
		}
		members := make([]models.SetCard, 0, len(req.CardIDs))
		for _, cardID := range req.CardIDs {
			members = append(members, models.SetCard{SetID: set.ID, CardID: cardID})
		}
		return tx.Create(&members).Error
	})
	if errTx != nil {
		respondError(c, errTx)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"set": set})
}

// Update replaces a set's name, bonus and membership. Admin only.
func (h *SetsHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	errTx := h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Set{}).Where("id = ?", id).Updates(map[string]any{
			"name":  strings.TrimSpace(req.Name),
			"bonus": req.Bonus,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerr.NotFound(domainerr.CodeSetNotFound, "set not found")
		}
		if errClear := tx.Where("set_id = ?", id).Delete(&models.SetCard{}).Error; errClear != nil {
			return errClear
		}
		members := make([]models.SetCard, 0, len(req.CardIDs))
		for _, cardID := range req.CardIDs {
			members = append(members, models.SetCard{SetID: id, CardID: cardID})
		}
		return tx.Create(&members).Error
	})
	if errTx != nil {
		respondError(c, errTx)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// Delete removes a set and its membership rows. Admin only.
func (h *SetsHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	errTx := h.db.Transaction(func(tx *gorm.DB) error {
		if errClear := tx.Where("set_id = ?", id).Delete(&models.SetCard{}).Error; errClear != nil {
			return errClear
		}
		result := tx.Delete(&models.Set{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerr.NotFound(domainerr.CodeSetNotFound, "set not found")
		}
		return nil
	})
	if errTx != nil {
		respondError(c, errTx)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

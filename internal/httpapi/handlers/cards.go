package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cardverse/cardverse/internal/db"
	"github.com/cardverse/cardverse/internal/domainerr"
	"github.com/cardverse/cardverse/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CardsHandler serves the card catalog, ownership views and the admin card
// management endpoints.
type CardsHandler struct {
	db         *gorm.DB
	uploadsDir string
}

// NewCardsHandler constructs a cards handler.
func NewCardsHandler(conn *gorm.DB, uploadsDir string) *CardsHandler {
	return &CardsHandler{db: conn, uploadsDir: uploadsDir}
}

// List returns a filtered page of active catalog cards.
func (h *CardsHandler) List(c *gin.Context) {
	page, take := parsePagination(c)

	q := h.db.Model(&models.Card{}).Where("is_active = ?", true)
	if name := strings.TrimSpace(c.Query("name")); name != "" {
		pattern := "%" + db.NormalizeLikePattern(h.db, name) + "%"
		q = q.Where(db.CaseInsensitiveLikeExpr(h.db, "name"), pattern)
	}
	if location := c.Query("locationId"); location != "" {
		locationID, errParse := strconv.ParseUint(location, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid locationId"})
			return
		}
		q = q.Where("location_id = ?", locationID)
	}

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		respondError(c, errCount)
		return
	}
	var cards []models.Card
	if errFind := q.Preload("Location").
		Order("name ASC").
		Limit(take).
		Offset((page - 1) * take).
		Find(&cards).Error; errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards, "itemCount": total, "page": page, "take": take})
}

// Get returns one catalog card.
func (h *CardsHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var card models.Card
	errFind := h.db.Preload("Location").First(&card, id).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		respondError(c, domainerr.NotFound(domainerr.CodeCardNotFound, "card not found"))
		return
	}
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": card})
}

// Mine lists the authenticated user's owned card instances.
func (h *CardsHandler) Mine(c *gin.Context) {
	var instances []models.CardInstance
	errFind := h.db.Preload("Card").Preload("Card.Location").
		Where("owner_id = ?", currentUserID(c)).
		Order("id ASC").
		Find(&instances).Error
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instances": instances})
}

// Locations lists all card locations for filter dropdowns.
func (h *CardsHandler) Locations(c *gin.Context) {
	var locations []models.Location
	if errFind := h.db.Order("name ASC").Find(&locations).Error; errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

type cardRequest struct {
	Name       string   `json:"name" binding:"required"`
	Type       string   `json:"type" binding:"required"`
	Gender     string   `json:"gender"`
	ImageURL   string   `json:"imageUrl"`
	LocationID *uint64  `json:"locationId"`
	Episodes   []string `json:"episodes"`
	IsActive   *bool    `json:"isActive"`
}

// Create adds a catalog card. Admin only.
func (h *CardsHandler) Create(c *gin.Context) {
	var req cardRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	if req.Episodes == nil {
		req.Episodes = []string{}
	}
	episodes, errEpisodes := json.Marshal(req.Episodes)
	if errEpisodes != nil {
		respondError(c, errEpisodes)
		return
	}
	card := models.Card{
		Name:       strings.TrimSpace(req.Name),
		Type:       req.Type,
		Gender:     req.Gender,
		ImageURL:   req.ImageURL,
		LocationID: req.LocationID,
		Episodes:   datatypes.JSON(episodes),
		IsActive:   true,
	}
	if req.IsActive != nil {
		card.IsActive = *req.IsActive
	}
	if errCreate := h.db.Create(&card).Error; errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"card": card})
}

// Update patches a catalog card. Admin only.
func (h *CardsHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req cardRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	fields := map[string]any{
		"name":        strings.TrimSpace(req.Name),
		"type":        req.Type,
		"gender":      req.Gender,
		"image_url":   req.ImageURL,
		"location_id": req.LocationID,
	}
	if req.Episodes != nil {
		episodes, errEpisodes := json.Marshal(req.Episodes)
		if errEpisodes != nil {
			respondError(c, errEpisodes)
			return
		}
		fields["episodes"] = datatypes.JSON(episodes)
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	result := h.db.Model(&models.Card{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, domainerr.NotFound(domainerr.CodeCardNotFound, "card not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// Delete removes a catalog card. Cards with owned instances are deactivated
// instead, so existing collections and auctions stay intact.
func (h *CardsHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var instances int64
	if errCount := h.db.Model(&models.CardInstance{}).Where("card_id = ?", id).Count(&instances).Error; errCount != nil {
		respondError(c, errCount)
		return
	}
	if instances > 0 {
		if errDeactivate := h.db.Model(&models.Card{}).Where("id = ?", id).Update("is_active", false).Error; errDeactivate != nil {
			respondError(c, errDeactivate)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deactivated": true})
		return
	}

	result := h.db.Delete(&models.Card{}, id)
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, domainerr.NotFound(domainerr.CodeCardNotFound, "card not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// UploadImage stores a card artwork file and points the card at it. Admin only.
func (h *CardsHandler) UploadImage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, errFile := c.FormFile("image")
	if errFile != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
		return
	}

	name := uuid.NewString() + ext
	dest := filepath.Join(h.uploadsDir, name)
	if errSave := c.SaveUploadedFile(file, dest); errSave != nil {
		respondError(c, errSave)
		return
	}

	imageURL := "/uploads/" + name
	result := h.db.Model(&models.Card{}).Where("id = ?", id).Update("image_url", imageURL)
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, domainerr.NotFound(domainerr.CodeCardNotFound, "card not found"))
		return
	}
	log.Infof("card %d image updated (%s)", id, name)
	c.JSON(http.StatusOK, gin.H{"imageUrl": imageURL})
}

type mintRequest struct {
	OwnerID uint64 `json:"ownerId" binding:"required"`
}

// Mint creates a card instance for a user. Admin only.
func (h *CardsHandler) Mint(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req mintRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	var card models.Card
	errFind := h.db.First(&card, id).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		respondError(c, domainerr.NotFound(domainerr.CodeCardNotFound, "card not found"))
		return
	}
	if errFind != nil {
		respondError(c, errFind)
		return
	}

	var owner models.User
	errOwner := h.db.First(&owner, req.OwnerID).Error
	if errors.Is(errOwner, gorm.ErrRecordNotFound) {
		respondError(c, domainerr.NotFound(domainerr.CodeUserNotFound, "user not found"))
		return
	}
	if errOwner != nil {
		respondError(c, errOwner)
		return
	}

	instance := models.CardInstance{CardID: card.ID, OwnerID: owner.ID}
	if errCreate := h.db.Create(&instance).Error; errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"instance": instance})
}

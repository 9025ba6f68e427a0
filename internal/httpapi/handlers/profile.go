package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cardverse/cardverse/internal/balance"
	"github.com/cardverse/cardverse/internal/domainerr"
	"github.com/cardverse/cardverse/internal/models"
	"github.com/cardverse/cardverse/internal/security"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProfileHandler serves user profiles and the admin user controls.
type ProfileHandler struct {
	db       *gorm.DB
	balances *balance.Service
}

// NewProfileHandler constructs a profile handler.
func NewProfileHandler(conn *gorm.DB, balances *balance.Service) *ProfileHandler {
	return &ProfileHandler{db: conn, balances: balances}
}

// Me returns the authenticated user's profile with the balance snapshot.
func (h *ProfileHandler) Me(c *gin.Context) {
	var user models.User
	if errFind := h.db.First(&user, currentUserID(c)).Error; errFind != nil {
		respondError(c, errFind)
		return
	}
	summary, errSummary := h.balances.Summarize(c.Request.Context(), user.ID)
	if errSummary != nil {
		respondError(c, errSummary)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": viewOf(user), "balance": summary})
}

type updateProfileRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	AvatarURL *string `json:"avatarUrl"`
	Password  *string `json:"password" binding:"omitempty,min=8,max=128"`
}

// UpdateMe patches the authenticated user's own profile.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	fields := map[string]any{}
	if req.Email != nil {
		fields["email"] = strings.TrimSpace(*req.Email)
	}
	if req.AvatarURL != nil {
		fields["avatar_url"] = *req.AvatarURL
	}
	if req.Password != nil {
		hash, errHash := security.HashPassword(*req.Password)
		if errHash != nil {
			respondError(c, errHash)
			return
		}
		fields["password"] = hash
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	userID := currentUserID(c)
	if errUpdate := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(fields).Error; errUpdate != nil {
		respondError(c, errUpdate)
		return
	}

	var user models.User
	if errFind := h.db.First(&user, userID).Error; errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": viewOf(user)})
}

// GetUser returns another user's public profile with their owned cards count.
func (h *ProfileHandler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var user models.User
	errFind := h.db.First(&user, id).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		respondError(c, domainerr.NotFound(domainerr.CodeUserNotFound, "user not found"))
		return
	}
	if errFind != nil {
		respondError(c, errFind)
		return
	}

	var cards int64
	if errCount := h.db.Model(&models.CardInstance{}).Where("owner_id = ?", id).Count(&cards).Error; errCount != nil {
		respondError(c, errCount)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": viewOf(user), "cardCount": cards})
}

type setDisabledRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

// SetDisabled blocks or unblocks a user account. Admin only.
func (h *ProfileHandler) SetDisabled(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setDisabledRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	result := h.db.Model(&models.User{}).Where("id = ?", id).Update("disabled", *req.Disabled)
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, domainerr.NotFound(domainerr.CodeUserNotFound, "user not found"))
		return
	}
	log.Infof("user %d disabled=%t", id, *req.Disabled)
	c.JSON(http.StatusOK, gin.H{"disabled": *req.Disabled})
}

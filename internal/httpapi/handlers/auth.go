package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cardverse/cardverse/internal/models"
	"github.com/cardverse/cardverse/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	db        *gorm.DB
	jwtSecret string
	expiry    time.Duration
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(conn *gorm.DB, jwtSecret string, expiry time.Duration) *AuthHandler {
	return &AuthHandler{db: conn, jwtSecret: jwtSecret, expiry: expiry}
}

// userView is the sanitized user representation returned by the API.
type userView struct {
	ID         uint64 `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Rating     int    `json:"rating"`
	AvatarURL  string `json:"avatarUrl"`
	MFAEnabled bool   `json:"mfaEnabled"`
}

func viewOf(u models.User) userView {
	return userView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		Rating:     u.Rating,
		AvatarURL:  u.AvatarURL,
		MFAEnabled: u.TOTPSecret != "",
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// Register creates a collector account and returns a signed token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	username := strings.TrimSpace(req.Username)
	var existing int64
	if errCount := h.db.Model(&models.User{}).Where("username = ?", username).Count(&existing).Error; errCount != nil {
		respondError(c, errCount)
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "username is taken"})
		return
	}

	hash, errHash := security.HashPassword(req.Password)
	if errHash != nil {
		respondError(c, errHash)
		return
	}

	user := models.User{
		Username: username,
		Email:    strings.TrimSpace(req.Email),
		Password: hash,
		Role:     models.RoleUser,
	}
	if errCreate := h.db.Create(&user).Error; errCreate != nil {
		respondError(c, errCreate)
		return
	}
	log.Infof("registered user %s (id=%d)", user.Username, user.ID)

	token, errToken := security.GenerateToken(h.jwtSecret, user.ID, user.Username, user.Role, h.expiry)
	if errToken != nil {
		respondError(c, errToken)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": viewOf(user)})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totpCode"`
}

// Login exchanges credentials for a token. Accounts with MFA enabled must
// also supply a valid TOTP code.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	var user models.User
	errFind := h.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) || (errFind == nil && !security.CheckPassword(user.Password, req.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	if user.Disabled {
		c.JSON(http.StatusForbidden, gin.H{"error": "account is disabled"})
		return
	}

	if user.TOTPSecret != "" {
		if req.TOTPCode == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "totp code required", "mfaRequired": true})
			return
		}
		if !totp.Validate(req.TOTPCode, user.TOTPSecret) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid totp code"})
			return
		}
	}

	token, errToken := security.GenerateToken(h.jwtSecret, user.ID, user.Username, user.Role, h.expiry)
	if errToken != nil {
		respondError(c, errToken)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": viewOf(user)})
}

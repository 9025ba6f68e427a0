package handlers

import (
	"net/http"

	"github.com/cardverse/cardverse/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MFAHandler manages TOTP enrollment for the authenticated user.
type MFAHandler struct {
	db *gorm.DB
}

// NewMFAHandler constructs an MFA handler.
func NewMFAHandler(conn *gorm.DB) *MFAHandler {
	return &MFAHandler{db: conn}
}

// Prepare generates a fresh TOTP secret. Nothing is stored until the client
// confirms with a valid code, so an abandoned enrollment cannot lock the
// account.
func (h *MFAHandler) Prepare(c *gin.Context) {
	var user models.User
	if errFind := h.db.First(&user, currentUserID(c)).Error; errFind != nil {
		respondError(c, errFind)
		return
	}
	if user.TOTPSecret != "" {
		c.JSON(http.StatusConflict, gin.H{"error": "mfa is already enabled"})
		return
	}

	key, errGenerate := totp.Generate(totp.GenerateOpts{
		Issuer:      "cardverse",
		AccountName: user.Username,
	})
	if errGenerate != nil {
		respondError(c, errGenerate)
		return
	}
	c.JSON(http.StatusOK, gin.H{"secret": key.Secret(), "url": key.URL()})
}

type mfaConfirmRequest struct {
	Secret string `json:"secret" binding:"required"`
	Code   string `json:"code" binding:"required"`
}

// Confirm verifies a code against the prepared secret and enables MFA.
func (h *MFAHandler) Confirm(c *gin.Context) {
	var req mfaConfirmRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}
	if !totp.Validate(req.Code, req.Secret) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid totp code"})
		return
	}

	userID := currentUserID(c)
	if errUpdate := h.db.Model(&models.User{}).
		Where("id = ? AND totp_secret = ''", userID).
		Update("totp_secret", req.Secret).Error; errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	log.Infof("mfa enabled for user %d", userID)
	c.JSON(http.StatusOK, gin.H{"enabled": true})
}

type mfaDisableRequest struct {
	Code string `json:"code" binding:"required"`
}

// Disable turns MFA off after verifying a current code.
func (h *MFAHandler) Disable(c *gin.Context) {
	var req mfaDisableRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	var user models.User
	if errFind := h.db.First(&user, currentUserID(c)).Error; errFind != nil {
		respondError(c, errFind)
		return
	}
	if user.TOTPSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mfa is not enabled"})
		return
	}
	if !totp.Validate(req.Code, user.TOTPSecret) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid totp code"})
		return
	}

	if errUpdate := h.db.Model(&user).Update("totp_secret", "").Error; errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	log.Infof("mfa disabled for user %d", user.ID)
	c.JSON(http.StatusOK, gin.H{"enabled": false})
}

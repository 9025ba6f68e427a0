package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/cardverse/cardverse/internal/domainerr"
	"github.com/cardverse/cardverse/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PaymentsHandler serves point top-ups: intent creation by the user and
// confirmation via the processor webhook.
type PaymentsHandler struct {
	db            *gorm.DB
	webhookSecret string
}

// NewPaymentsHandler constructs a payments handler.
func NewPaymentsHandler(conn *gorm.DB, webhookSecret string) *PaymentsHandler {
	return &PaymentsHandler{db: conn, webhookSecret: webhookSecret}
}

type createIntentRequest struct {
	Amount int64 `json:"amount" binding:"required,min=1"`
}

// CreateIntent opens a pending top-up and returns its client secret.
func (h *PaymentsHandler) CreateIntent(c *gin.Context) {
	var req createIntentRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	payment := models.Payment{
		UserID:       currentUserID(c),
		Amount:       req.Amount,
		ClientSecret: uuid.NewString(),
		Status:       models.PaymentStatusPending,
	}
	if errCreate := h.db.Create(&payment).Error; errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"clientSecret": payment.ClientSecret, "amount": payment.Amount})
}

// List returns the authenticated user's payment history.
func (h *PaymentsHandler) List(c *gin.Context) {
	var payments []models.Payment
	errFind := h.db.Where("user_id = ?", currentUserID(c)).
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

type webhookRequest struct {
	ClientSecret string `json:"clientSecret" binding:"required"`
	Status       string `json:"status" binding:"required,oneof=succeeded canceled"`
}

// Webhook confirms or cancels a pending payment. Calls must carry the shared
// secret; a succeeded confirmation credits the points exactly once.
func (h *PaymentsHandler) Webhook(c *gin.Context) {
	signature := c.GetHeader("X-Webhook-Signature")
	if h.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(signature), []byte(h.webhookSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var req webhookRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	errTx := h.db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		errFind := tx.Where("client_secret = ?", req.ClientSecret).First(&payment).Error
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return domainerr.NotFound(domainerr.CodePaymentNotFound, "payment not found")
		}
		if errFind != nil {
			return errFind
		}

		// Replayed webhooks are acknowledged without moving points again.
		if payment.Status != models.PaymentStatusPending {
			return nil
		}

		if errUpdate := tx.Model(&payment).Update("status", req.Status).Error; errUpdate != nil {
			return errUpdate
		}
		if req.Status != models.PaymentStatusSucceeded {
			return nil
		}

		transfer := models.Transfer{
			UserID:  payment.UserID,
			Kind:    models.TransferKindIncome,
			Amount:  payment.Amount,
			Comment: "points top-up",
		}
		if errCredit := tx.Create(&transfer).Error; errCredit != nil {
			return errCredit
		}
		log.Infof("payment %d succeeded, credited %d points to user %d", payment.ID, payment.Amount, payment.UserID)
		return nil
	})
	if errTx != nil {
		respondError(c, errTx)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

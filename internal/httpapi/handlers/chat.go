package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cardverse/cardverse/internal/domainerr"
	"github.com/cardverse/cardverse/internal/events"
	"github.com/cardverse/cardverse/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ChatHandler serves two-party conversations. Sent messages are published on
// the bus so websocket subscribers see them live.
type ChatHandler struct {
	db  *gorm.DB
	bus *events.Bus
}

// NewChatHandler constructs a chat handler.
func NewChatHandler(conn *gorm.DB, bus *events.Bus) *ChatHandler {
	return &ChatHandler{db: conn, bus: bus}
}

// normalizePair orders two user IDs so each pair maps to one conversation row.
func normalizePair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// ListConversations returns the user's conversations, most recent first.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := currentUserID(c)
	var conversations []models.Conversation
	errFind := h.db.Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("id DESC").
		Find(&conversations).Error
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

type openConversationRequest struct {
	UserID uint64 `json:"userId" binding:"required"`
}

// OpenConversation finds or creates the conversation with another user.
func (h *ChatHandler) OpenConversation(c *gin.Context) {
	var req openConversationRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}
	userID := currentUserID(c)
	if req.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}

	var peer models.User
	errPeer := h.db.First(&peer, req.UserID).Error
	if errors.Is(errPeer, gorm.ErrRecordNotFound) {
		respondError(c, domainerr.NotFound(domainerr.CodeUserNotFound, "user not found"))
		return
	}
	if errPeer != nil {
		respondError(c, errPeer)
		return
	}

	a, b := normalizePair(userID, req.UserID)
	conversation := models.Conversation{UserAID: a, UserBID: b}
	errFind := h.db.Where("user_a_id = ? AND user_b_id = ?", a, b).
		FirstOrCreate(&conversation).Error
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conversation})
}

// loadOwnConversation fetches a conversation and checks the caller belongs to
// it. On failure it writes the response and returns nil.
func (h *ChatHandler) loadOwnConversation(c *gin.Context) *models.Conversation {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}
	var conversation models.Conversation
	errFind := h.db.First(&conversation, id).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		respondError(c, domainerr.NotFound(domainerr.CodeConversationNotFound, "conversation not found"))
		return nil
	}
	if errFind != nil {
		respondError(c, errFind)
		return nil
	}
	userID := currentUserID(c)
	if conversation.UserAID != userID && conversation.UserBID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your conversation"})
		return nil
	}
	return &conversation
}

// ListMessages returns a page of a conversation's messages, newest first.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	conversation := h.loadOwnConversation(c)
	if conversation == nil {
		return
	}
	page, take := parsePagination(c)

	var messages []models.Message
	errFind := h.db.Where("conversation_id = ?", conversation.ID).
		Order("id DESC").
		Limit(take).
		Offset((page - 1) * take).
		Find(&messages).Error
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// SendMessage appends a message and publishes it to the conversation channel.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	conversation := h.loadOwnConversation(c)
	if conversation == nil {
		return
	}
	var req sendMessageRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty message"})
		return
	}

	message := models.Message{
		ConversationID: conversation.ID,
		SenderID:       currentUserID(c),
		Content:        content,
	}
	if errCreate := h.db.Create(&message).Error; errCreate != nil {
		respondError(c, errCreate)
		return
	}

	h.bus.PublishMessageSent(c.Request.Context(), events.MessageSent{
		ConversationID: message.ConversationID,
		MessageID:      message.ID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
	})
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

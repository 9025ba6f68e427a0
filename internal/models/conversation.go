package models

import "time"

// Conversation is a two-party chat. The pair is stored normalized with
// UserAID < UserBID so each pair has exactly one conversation.
type Conversation struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserAID uint64 `gorm:"not null;index;uniqueIndex:uniq_conversation_pair"` // Lower user ID.
	UserBID uint64 `gorm:"not null;index;uniqueIndex:uniq_conversation_pair"` // Higher user ID.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// Message is one chat message inside a conversation.
type Message struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ConversationID uint64 `gorm:"not null;index"`     // Parent conversation.
	SenderID       uint64 `gorm:"not null;index"`     // Author.
	Content        string `gorm:"type:text;not null"` // Message body.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

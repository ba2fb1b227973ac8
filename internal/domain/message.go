package domain

import (
	"time"
)

// ChatMessage is an authoritative chat history row. It is written before
// relay delivery is attempted; delivery failure never removes it.
type ChatMessage struct {
	ID            string    `json:"id"`
	RoomID        string    `json:"room_id"`
	SessionID     string    `json:"session_id"`
	ParticipantID string    `json:"participant_id"`
	Content       string    `json:"content"`
	SentAt        time.Time `json:"sent_at"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID            string    `json:"id"`
	RoomID        string    `json:"room_id"`
	ParticipantID string    `json:"participant_id"`
	Content       string    `json:"content"`
	SentAt        time.Time `json:"sent_at"`
}

// ToResponse converts ChatMessage to MessageResponse.
func (m *ChatMessage) ToResponse() MessageResponse {
	return MessageResponse{
		ID:            m.ID,
		RoomID:        m.RoomID,
		ParticipantID: m.ParticipantID,
		Content:       m.Content,
		SentAt:        m.SentAt,
	}
}

// MessageModel is the GORM model for chat_messages table.
type MessageModel struct {
	ID            string    `gorm:"type:varchar(36);primaryKey"`
	RoomID        string    `gorm:"type:varchar(36);index;not null"`
	SessionID     string    `gorm:"type:varchar(36);index;not null"`
	ParticipantID string    `gorm:"type:varchar(36);index;not null"`
	Content       string    `gorm:"type:text;not null"`
	SentAt        time.Time `gorm:"index;not null"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "chat_messages"
}

// ToDomain converts MessageModel to domain ChatMessage.
func (m *MessageModel) ToDomain() *ChatMessage {
	return &ChatMessage{
		ID:            m.ID,
		RoomID:        m.RoomID,
		SessionID:     m.SessionID,
		ParticipantID: m.ParticipantID,
		Content:       m.Content,
		SentAt:        m.SentAt,
	}
}

// MessageToModel converts domain ChatMessage to MessageModel.
func MessageToModel(msg *ChatMessage) *MessageModel {
	return &MessageModel{
		ID:            msg.ID,
		RoomID:        msg.RoomID,
		SessionID:     msg.SessionID,
		ParticipantID: msg.ParticipantID,
		Content:       msg.Content,
		SentAt:        msg.SentAt,
	}
}

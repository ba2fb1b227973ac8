package domain

import (
	"time"
)

// ParticipantType classifies who is sitting in the room.
type ParticipantType string

const (
	ParticipantTypeRegistered ParticipantType = "registered_user"
	ParticipantTypeGuest      ParticipantType = "guest_user"
	ParticipantTypeModerator  ParticipantType = "system_moderator"
	ParticipantTypeBot        ParticipantType = "bot_participant"
)

// Participant is a member of a room. Participants are soft-retained for
// history: leaving marks them inactive, it never deletes the row.
type Participant struct {
	ID           string          `json:"id"`
	RoomID       string          `json:"room_id"`
	SessionID    string          `json:"session_id"`
	UserID       *string         `json:"user_id,omitempty"` // nil for guests
	DisplayName  string          `json:"display_name"`
	ConnectionID *string         `json:"connection_id,omitempty"`
	Type         ParticipantType `json:"type"`
	JoinedAt     time.Time       `json:"joined_at"`
	LeftAt       *time.Time      `json:"left_at,omitempty"`
	IsActive     bool            `json:"is_active"`
}

// IsConnected reports whether the participant has a live connection.
func (p *Participant) IsConnected() bool {
	return p.ConnectionID != nil && *p.ConnectionID != ""
}

// JoinSessionRequest represents a join request, either via invite token
// or an open join with a display name.
type JoinSessionRequest struct {
	InviteToken string `json:"invite_token"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=100"`
}

// SendMessageRequest represents a chat message submission.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

// ParticipantResponse represents a participant in API responses.
type ParticipantResponse struct {
	ID          string          `json:"id"`
	RoomID      string          `json:"room_id"`
	SessionID   string          `json:"session_id"`
	DisplayName string          `json:"display_name"`
	Type        ParticipantType `json:"type"`
	JoinedAt    time.Time       `json:"joined_at"`
	IsActive    bool            `json:"is_active"`
}

// ToResponse converts Participant to ParticipantResponse.
func (p *Participant) ToResponse() ParticipantResponse {
	return ParticipantResponse{
		ID:          p.ID,
		RoomID:      p.RoomID,
		SessionID:   p.SessionID,
		DisplayName: p.DisplayName,
		Type:        p.Type,
		JoinedAt:    p.JoinedAt,
		IsActive:    p.IsActive,
	}
}

// JoinSessionResponse is returned after a successful join.
type JoinSessionResponse struct {
	Participant ParticipantResponse `json:"participant"`
	Room        RoomResponse        `json:"room"`
	Session     SessionResponse     `json:"session"`
}

// ParticipantModel is the GORM model for participants table.
type ParticipantModel struct {
	ID           string  `gorm:"type:varchar(36);primaryKey"`
	RoomID       string  `gorm:"type:varchar(36);index;not null"`
	SessionID    string  `gorm:"type:varchar(36);index;not null"`
	UserID       *string `gorm:"type:varchar(36);index"`
	DisplayName  string  `gorm:"type:varchar(100);not null"`
	ConnectionID *string `gorm:"type:varchar(64)"`
	Type         string  `gorm:"type:varchar(20);not null"`
	JoinedAt     time.Time
	LeftAt       *time.Time
	IsActive     bool `gorm:"index;not null;default:true"`
}

// TableName specifies the table name for ParticipantModel.
func (ParticipantModel) TableName() string {
	return "participants"
}

// ToDomain converts ParticipantModel to domain Participant.
func (m *ParticipantModel) ToDomain() *Participant {
	return &Participant{
		ID:           m.ID,
		RoomID:       m.RoomID,
		SessionID:    m.SessionID,
		UserID:       m.UserID,
		DisplayName:  m.DisplayName,
		ConnectionID: m.ConnectionID,
		Type:         ParticipantType(m.Type),
		JoinedAt:     m.JoinedAt,
		LeftAt:       m.LeftAt,
		IsActive:     m.IsActive,
	}
}

// ParticipantToModel converts domain Participant to ParticipantModel.
func ParticipantToModel(p *Participant) *ParticipantModel {
	return &ParticipantModel{
		ID:           p.ID,
		RoomID:       p.RoomID,
		SessionID:    p.SessionID,
		UserID:       p.UserID,
		DisplayName:  p.DisplayName,
		ConnectionID: p.ConnectionID,
		Type:         string(p.Type),
		JoinedAt:     p.JoinedAt,
		LeftAt:       p.LeftAt,
		IsActive:     p.IsActive,
	}
}

package domain

import (
	"time"
)

// RoomStatus represents room status.
type RoomStatus string

const (
	RoomStatusWaiting RoomStatus = "waiting"
	RoomStatusActive  RoomStatus = "active"
	RoomStatusClosed  RoomStatus = "closed"
)

// ChatRoom is a fixed-capacity room inside a session. Rooms are created
// lazily by the allocator; the participant count is only ever mutated by
// join/leave operations.
type ChatRoom struct {
	ID               string     `json:"id"`
	SessionID        string     `json:"session_id"`
	Name             string     `json:"name"`
	ParticipantCount int        `json:"participant_count"`
	MaxParticipants  int        `json:"max_participants"`
	Status           RoomStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
}

// IsFull reports whether the room reached capacity.
func (r *ChatRoom) IsFull() bool {
	return r.ParticipantCount >= r.MaxParticipants
}

// HasSpace reports whether the room can accept another participant.
func (r *ChatRoom) HasSpace() bool {
	return r.Status != RoomStatusClosed && r.ParticipantCount < r.MaxParticipants
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID               string     `json:"id"`
	SessionID        string     `json:"session_id"`
	Name             string     `json:"name"`
	ParticipantCount int        `json:"participant_count"`
	MaxParticipants  int        `json:"max_participants"`
	Status           RoomStatus `json:"status"`
	IsFull           bool       `json:"is_full"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ToResponse converts ChatRoom to RoomResponse.
func (r *ChatRoom) ToResponse() RoomResponse {
	return RoomResponse{
		ID:               r.ID,
		SessionID:        r.SessionID,
		Name:             r.Name,
		ParticipantCount: r.ParticipantCount,
		MaxParticipants:  r.MaxParticipants,
		Status:           r.Status,
		IsFull:           r.IsFull(),
		CreatedAt:        r.CreatedAt,
	}
}

// RoomModel is the GORM model for chat_rooms table.
type RoomModel struct {
	ID               string    `gorm:"type:varchar(36);primaryKey"`
	SessionID        string    `gorm:"type:varchar(36);index;not null"`
	Name             string    `gorm:"type:varchar(200);not null"`
	ParticipantCount int       `gorm:"not null;default:0"`
	MaxParticipants  int       `gorm:"not null"`
	Status           string    `gorm:"type:varchar(20);index;not null;default:'waiting'"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	ClosedAt         *time.Time
}

// TableName specifies the table name for RoomModel.
func (RoomModel) TableName() string {
	return "chat_rooms"
}

// ToDomain converts RoomModel to domain ChatRoom.
func (m *RoomModel) ToDomain() *ChatRoom {
	return &ChatRoom{
		ID:               m.ID,
		SessionID:        m.SessionID,
		Name:             m.Name,
		ParticipantCount: m.ParticipantCount,
		MaxParticipants:  m.MaxParticipants,
		Status:           RoomStatus(m.Status),
		CreatedAt:        m.CreatedAt,
		ClosedAt:         m.ClosedAt,
	}
}

// RoomToModel converts domain ChatRoom to RoomModel.
func RoomToModel(r *ChatRoom) *RoomModel {
	return &RoomModel{
		ID:               r.ID,
		SessionID:        r.SessionID,
		Name:             r.Name,
		ParticipantCount: r.ParticipantCount,
		MaxParticipants:  r.MaxParticipants,
		Status:           string(r.Status),
		CreatedAt:        r.CreatedAt,
		ClosedAt:         r.ClosedAt,
	}
}

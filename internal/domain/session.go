package domain

import (
	"fmt"
	"time"

	"github.com/alecbaum/wagl-backend-sub002/pkg/database"
)

// SessionStatus represents the lifecycle state of a chat session.
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusEnded     SessionStatus = "ended"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// MaxRoomCapacity is the hard ceiling on participants per room.
const MaxRoomCapacity = 6

// ChatSession is a time-bounded session that owns rooms and invites.
type ChatSession struct {
	ID                     string        `json:"id"`
	Name                   string        `json:"name"`
	ScheduledStartTime     time.Time     `json:"scheduled_start_time"`
	Duration               time.Duration `json:"duration"`
	MaxParticipants        int           `json:"max_participants"`
	MaxParticipantsPerRoom int           `json:"max_participants_per_room"`
	Status                 SessionStatus `json:"status"`
	CreatedByID            string        `json:"created_by_id"`
	Tags                   []string      `json:"tags,omitempty"`
	CreatedAt              time.Time     `json:"created_at"`
	StartedAt              *time.Time    `json:"started_at,omitempty"`
	EndedAt                *time.Time    `json:"ended_at,omitempty"`
}

// ScheduledEndTime is always derived from start time plus duration.
func (s *ChatSession) ScheduledEndTime() time.Time {
	return s.ScheduledStartTime.Add(s.Duration)
}

// MaxRooms is the room-count ceiling for the session.
func (s *ChatSession) MaxRooms() int {
	if s.MaxParticipantsPerRoom == 0 {
		return 0
	}
	return s.MaxParticipants / s.MaxParticipantsPerRoom
}

// IsTerminal reports whether the session reached an immutable state.
func (s *ChatSession) IsTerminal() bool {
	switch s.Status {
	case SessionStatusEnded, SessionStatusCompleted, SessionStatusCancelled:
		return true
	}
	return false
}

// CanStart reports whether the session may transition to Active at the
// given time. Starting before the scheduled time is rejected.
func (s *ChatSession) CanStart(now time.Time) bool {
	return s.Status == SessionStatusScheduled && !now.Before(s.ScheduledStartTime)
}

// CanCancel reports whether cancellation is legal from the current state.
func (s *ChatSession) CanCancel() bool {
	return s.Status == SessionStatusScheduled || s.Status == SessionStatusActive
}

// Validate checks the session capacity invariants.
func (s *ChatSession) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("session name is required")
	}
	if s.Duration <= 0 {
		return fmt.Errorf("session duration must be positive")
	}
	if s.MaxParticipantsPerRoom < 1 || s.MaxParticipantsPerRoom > MaxRoomCapacity {
		return fmt.Errorf("max participants per room must be between 1 and %d", MaxRoomCapacity)
	}
	if s.MaxParticipants < s.MaxParticipantsPerRoom {
		return fmt.Errorf("max participants must be at least %d", s.MaxParticipantsPerRoom)
	}
	if s.MaxParticipants%s.MaxParticipantsPerRoom != 0 {
		return fmt.Errorf("max participants must be a multiple of max participants per room")
	}
	return nil
}

// CreateSessionRequest represents a create session request.
type CreateSessionRequest struct {
	Name                   string    `json:"name" binding:"required,min=1,max=200"`
	ScheduledStartTime     time.Time `json:"scheduled_start_time" binding:"required"`
	DurationMinutes        int       `json:"duration_minutes" binding:"required,min=1"`
	MaxParticipants        int       `json:"max_participants" binding:"required,min=1"`
	MaxParticipantsPerRoom int       `json:"max_participants_per_room" binding:"required,min=1,max=6"`
	Tags                   []string  `json:"tags"`
}

// SessionResponse represents a session in API responses.
type SessionResponse struct {
	ID                     string        `json:"id"`
	Name                   string        `json:"name"`
	ScheduledStartTime     time.Time     `json:"scheduled_start_time"`
	ScheduledEndTime       time.Time     `json:"scheduled_end_time"`
	DurationMinutes        int           `json:"duration_minutes"`
	MaxParticipants        int           `json:"max_participants"`
	MaxParticipantsPerRoom int           `json:"max_participants_per_room"`
	Status                 SessionStatus `json:"status"`
	Tags                   []string      `json:"tags,omitempty"`
	CreatedAt              time.Time     `json:"created_at"`
	StartedAt              *time.Time    `json:"started_at,omitempty"`
	EndedAt                *time.Time    `json:"ended_at,omitempty"`
}

// ToResponse converts ChatSession to SessionResponse.
func (s *ChatSession) ToResponse() SessionResponse {
	return SessionResponse{
		ID:                     s.ID,
		Name:                   s.Name,
		ScheduledStartTime:     s.ScheduledStartTime,
		ScheduledEndTime:       s.ScheduledEndTime(),
		DurationMinutes:        int(s.Duration / time.Minute),
		MaxParticipants:        s.MaxParticipants,
		MaxParticipantsPerRoom: s.MaxParticipantsPerRoom,
		Status:                 s.Status,
		Tags:                   s.Tags,
		CreatedAt:              s.CreatedAt,
		StartedAt:              s.StartedAt,
		EndedAt:                s.EndedAt,
	}
}

// ListSessionsResponse represents a paginated session listing.
type ListSessionsResponse struct {
	Sessions   []SessionResponse `json:"sessions"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// SessionDetailResponse represents a session with its room layout and
// invite statistics.
type SessionDetailResponse struct {
	Session            SessionResponse `json:"session"`
	Rooms              []RoomResponse  `json:"rooms"`
	ActiveParticipants int             `json:"active_participants"`
	InvitesTotal       int             `json:"invites_total"`
	InvitesConsumed    int             `json:"invites_consumed"`
}

// SessionModel is the GORM model for chat_sessions table.
type SessionModel struct {
	ID                     string               `gorm:"type:varchar(36);primaryKey"`
	Name                   string               `gorm:"type:varchar(200);not null"`
	ScheduledStartTime     time.Time            `gorm:"index;not null"`
	DurationSeconds        int64                `gorm:"not null"`
	MaxParticipants        int                  `gorm:"not null"`
	MaxParticipantsPerRoom int                  `gorm:"not null"`
	Status                 string               `gorm:"type:varchar(20);index;not null;default:'scheduled'"`
	CreatedByID            string               `gorm:"type:varchar(36);index;not null"`
	Tags                   database.StringArray `gorm:"type:text"`
	CreatedAt              time.Time            `gorm:"autoCreateTime"`
	StartedAt              *time.Time
	EndedAt                *time.Time
}

// TableName specifies the table name for SessionModel.
func (SessionModel) TableName() string {
	return "chat_sessions"
}

// ToDomain converts SessionModel to domain ChatSession.
func (m *SessionModel) ToDomain() *ChatSession {
	return &ChatSession{
		ID:                     m.ID,
		Name:                   m.Name,
		ScheduledStartTime:     m.ScheduledStartTime,
		Duration:               time.Duration(m.DurationSeconds) * time.Second,
		MaxParticipants:        m.MaxParticipants,
		MaxParticipantsPerRoom: m.MaxParticipantsPerRoom,
		Status:                 SessionStatus(m.Status),
		CreatedByID:            m.CreatedByID,
		Tags:                   []string(m.Tags),
		CreatedAt:              m.CreatedAt,
		StartedAt:              m.StartedAt,
		EndedAt:                m.EndedAt,
	}
}

// SessionToModel converts domain ChatSession to SessionModel.
func SessionToModel(s *ChatSession) *SessionModel {
	return &SessionModel{
		ID:                     s.ID,
		Name:                   s.Name,
		ScheduledStartTime:     s.ScheduledStartTime,
		DurationSeconds:        int64(s.Duration / time.Second),
		MaxParticipants:        s.MaxParticipants,
		MaxParticipantsPerRoom: s.MaxParticipantsPerRoom,
		Status:                 string(s.Status),
		CreatedByID:            s.CreatedByID,
		Tags:                   database.StringArray(s.Tags),
		CreatedAt:              s.CreatedAt,
		StartedAt:              s.StartedAt,
		EndedAt:                s.EndedAt,
	}
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alecbaum/wagl-backend-sub002/internal/domain"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrRoomNotFound        = errors.New("room not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrInviteNotFound      = errors.New("invite not found")

	// Conditional-update guards. These come back when an atomic
	// compare-and-set matched zero rows.
	ErrRoomFull          = errors.New("room is at capacity")
	ErrInvalidTransition = errors.New("illegal session status transition")
	ErrInviteConsumed    = errors.New("invite already consumed")
	ErrInviteExpired     = errors.New("invite expired")
	ErrAlreadyLeft       = errors.New("participant already left")
)

// SessionRepository persists chat sessions. Status transitions are
// conditional updates so concurrent writers cannot double-apply them.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.ChatSession) error
	GetByID(ctx context.Context, id string) (*domain.ChatSession, error)
	List(ctx context.Context, page, pageSize int, status string) ([]domain.ChatSession, int, error)
	ListByCreator(ctx context.Context, creatorID string) ([]domain.ChatSession, error)
	MarkStarted(ctx context.Context, id string, at time.Time) error
	MarkEnded(ctx context.Context, id string, status domain.SessionStatus, at time.Time) error
	MarkCancelled(ctx context.Context, id string, at time.Time) error
}

// RoomRepository persists rooms. The participant count is only mutated
// through the atomic increment/decrement operations.
type RoomRepository interface {
	Create(ctx context.Context, room *domain.ChatRoom) error
	GetByID(ctx context.Context, id string) (*domain.ChatRoom, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.ChatRoom, error)
	// FindAssignable returns open rooms with space, fullest first.
	FindAssignable(ctx context.Context, sessionID string) ([]domain.ChatRoom, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
	TotalParticipants(ctx context.Context, sessionID string) (int, error)
	// IncrementParticipants adds one occupant iff the room is below
	// capacity and not closed; returns ErrRoomFull otherwise.
	IncrementParticipants(ctx context.Context, roomID string) error
	// DecrementParticipants removes one occupant, floored at zero.
	// A room emptied this way reverts to waiting status.
	DecrementParticipants(ctx context.Context, roomID string) error
	CloseBySession(ctx context.Context, sessionID string, at time.Time) error
}

// ParticipantRepository persists participants. Rows are soft-retained:
// leaving marks them inactive, nothing is deleted.
type ParticipantRepository interface {
	Create(ctx context.Context, p *domain.Participant) error
	GetByID(ctx context.Context, id string) (*domain.Participant, error)
	ListActiveByRoom(ctx context.Context, roomID string) ([]domain.Participant, error)
	MarkLeft(ctx context.Context, id string, at time.Time) error
	UpdateConnection(ctx context.Context, id string, connectionID *string) error
}

// InviteRepository persists invites. Consume is an atomic conditional
// update so two concurrent redemptions of the same token cannot both
// succeed.
type InviteRepository interface {
	Create(ctx context.Context, invite *domain.SessionInvite) error
	GetByToken(ctx context.Context, token string) (*domain.SessionInvite, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.SessionInvite, error)
	Consume(ctx context.Context, token string, consumerID *string, now time.Time) error
	Stats(ctx context.Context, sessionID string) (total, consumed int, err error)
}

// MessageRepository persists the authoritative chat history.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	ListByRoom(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error)
}

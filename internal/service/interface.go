package service

import (
	"context"

	"github.com/alecbaum/wagl-backend-sub002/internal/domain"
)

// SessionService drives the session lifecycle and the room allocator.
type SessionService interface {
	CreateSession(ctx context.Context, userID string, req *domain.CreateSessionRequest) (*domain.SessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*domain.SessionDetailResponse, error)
	ListSessions(ctx context.Context, page, pageSize int, status string) (*domain.ListSessionsResponse, error)
	GetMySessions(ctx context.Context, userID string) ([]domain.SessionResponse, error)
	StartSession(ctx context.Context, userID, sessionID string) (*domain.SessionResponse, error)
	EndSession(ctx context.Context, userID, sessionID string, completed bool) (*domain.SessionResponse, error)
	CancelSession(ctx context.Context, userID, sessionID string) (*domain.SessionResponse, error)

	Join(ctx context.Context, sessionID string, userID *string, req *domain.JoinSessionRequest) (*domain.JoinSessionResponse, error)
	GetParticipant(ctx context.Context, participantID string) (*domain.ParticipantResponse, error)
	Leave(ctx context.Context, participantID string) error
	SendMessage(ctx context.Context, participantID string, req *domain.SendMessageRequest) (*domain.MessageResponse, error)
	PostSystemMessage(ctx context.Context, roomID, sender, content string) (*domain.MessageResponse, error)

	ListRooms(ctx context.Context, sessionID string) ([]domain.RoomResponse, error)
	RoomParticipants(ctx context.Context, roomID string) ([]domain.ParticipantResponse, error)
	RoomMessages(ctx context.Context, roomID string, limit int) ([]domain.MessageResponse, error)
}

// InviteService manages the invite lifecycle.
type InviteService interface {
	CreateInvites(ctx context.Context, userID, sessionID string, req *domain.CreateInvitesRequest) (*domain.BulkInviteResult, error)
	GetInvite(ctx context.Context, token string) (*domain.InviteResponse, error)
	ListInvites(ctx context.Context, sessionID string) ([]domain.InviteResponse, error)
	Stats(ctx context.Context, sessionID string) (total, consumed int, err error)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alecbaum/wagl-backend-sub002/internal/audit"
	"github.com/alecbaum/wagl-backend-sub002/internal/domain"
	"github.com/alecbaum/wagl-backend-sub002/internal/repository"
)

var (
	ErrInviteNotFound      = errors.New("invite not found")
	ErrSessionClosed       = errors.New("session is closed to new invites")
	ErrRecipientIncomplete = errors.New("recipient needs an email or a name")
)

// inviteBatchWorkers caps concurrent invite inserts per request.
const inviteBatchWorkers = 8

// inviteServiceImpl implements InviteService.
type inviteServiceImpl struct {
	sessions repository.SessionRepository
	invites  repository.InviteRepository
	now      func() time.Time
}

// NewInviteService creates a new invite service.
func NewInviteService(sessions repository.SessionRepository, invites repository.InviteRepository) InviteService {
	return &inviteServiceImpl{
		sessions: sessions,
		invites:  invites,
		now:      time.Now,
	}
}

// CreateInvites creates a batch of invites concurrently. Results and
// errors keep recipient order so callers can correlate failures.
func (s *inviteServiceImpl) CreateInvites(ctx context.Context, userID, sessionID string, req *domain.CreateInvitesRequest) (*domain.BulkInviteResult, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.CreatedByID != userID {
		return nil, ErrNotSessionOwner
	}
	if session.IsTerminal() {
		return nil, ErrSessionClosed
	}

	now := s.now()
	expiresAt := now.Add(time.Duration(req.ExpiresInHours) * time.Hour)

	created := make([]*domain.SessionInvite, len(req.Recipients))
	failures := make([]error, len(req.Recipients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(inviteBatchWorkers)
	for i, recipient := range req.Recipients {
		i, recipient := i, recipient
		g.Go(func() error {
			invite, err := s.createOne(gctx, sessionID, recipient, now, expiresAt)
			if err != nil {
				failures[i] = err
				return nil
			}
			created[i] = invite
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &domain.BulkInviteResult{Total: len(req.Recipients)}
	for i := range req.Recipients {
		if failures[i] != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("recipient %d: %v", i+1, failures[i]))
			continue
		}
		result.Successful++
		result.Invites = append(result.Invites, created[i].ToResponse())
	}

	audit.LogWithDetail(ctx, audit.ActionCreateInvites, userID, sessionID,
		fmt.Sprintf("created %d of %d invites", result.Successful, result.Total))
	return result, nil
}

func (s *inviteServiceImpl) createOne(ctx context.Context, sessionID string, recipient domain.InviteRecipient, now, expiresAt time.Time) (*domain.SessionInvite, error) {
	if recipient.Email == "" && recipient.Name == "" {
		return nil, ErrRecipientIncomplete
	}

	token, err := domain.NewInviteToken()
	if err != nil {
		return nil, err
	}

	invite := &domain.SessionInvite{
		ID:           uuid.NewString(),
		Token:        token,
		SessionID:    sessionID,
		InviteeEmail: recipient.Email,
		InviteeName:  recipient.Name,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, err
	}
	return invite, nil
}

// GetInvite retrieves an invite by token.
func (s *inviteServiceImpl) GetInvite(ctx context.Context, token string) (*domain.InviteResponse, error) {
	invite, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrInviteNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}

	resp := invite.ToResponse()
	return &resp, nil
}

// ListInvites lists the invites of a session.
func (s *inviteServiceImpl) ListInvites(ctx context.Context, sessionID string) ([]domain.InviteResponse, error) {
	invites, err := s.invites.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.InviteResponse, len(invites))
	for i, invite := range invites {
		responses[i] = invite.ToResponse()
	}
	return responses, nil
}

// Stats returns total and consumed invite counts for a session.
func (s *inviteServiceImpl) Stats(ctx context.Context, sessionID string) (int, int, error) {
	return s.invites.Stats(ctx, sessionID)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alecbaum/wagl-backend-sub002/internal/audit"
	"github.com/alecbaum/wagl-backend-sub002/internal/dispatcher"
	"github.com/alecbaum/wagl-backend-sub002/internal/domain"
	"github.com/alecbaum/wagl-backend-sub002/internal/relay"
	"github.com/alecbaum/wagl-backend-sub002/internal/repository"
	"github.com/alecbaum/wagl-backend-sub002/pkg/log"
	"github.com/alecbaum/wagl-backend-sub002/pkg/pubsub"
)

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrRoomNotFound          = errors.New("room not found")
	ErrParticipantNotFound   = errors.New("participant not found")
	ErrNotSessionOwner       = errors.New("you are not the owner of this session")
	ErrSessionNotStartable   = errors.New("session cannot be started")
	ErrSessionNotActive      = errors.New("session is not active")
	ErrSessionNotEndable     = errors.New("session cannot be ended")
	ErrSessionNotCancellable = errors.New("session cannot be cancelled")
	ErrSessionFull           = errors.New("session is at capacity")
	ErrInviteRequired        = errors.New("an invite token is required to join")
	ErrInviteInvalid         = errors.New("invite token is invalid")
	ErrInviteConsumed        = errors.New("invite token was already used")
	ErrInviteExpired         = errors.New("invite token expired")
	ErrInviteWrongSession    = errors.New("invite token belongs to another session")
	ErrParticipantInactive   = errors.New("participant is not active")
)

// allocateRetries bounds the FindAssignable walk when concurrent joins
// keep stealing the slots we are about to take.
const allocateRetries = 3

// sessionServiceImpl implements SessionService.
type sessionServiceImpl struct {
	sessions     repository.SessionRepository
	rooms        repository.RoomRepository
	participants repository.ParticipantRepository
	invites      repository.InviteRepository
	messages     repository.MessageRepository
	mapper       relay.RoomMapper
	dispatch     Deliverer
	pub          pubsub.Publisher
	now          func() time.Time
}

// Deliverer is the slice of the dispatcher the service needs.
type Deliverer interface {
	Enqueue(task *dispatcher.Task) error
}

// NewSessionService creates a new session service. pub may be nil when
// cross-instance fan-out is disabled.
func NewSessionService(
	sessions repository.SessionRepository,
	rooms repository.RoomRepository,
	participants repository.ParticipantRepository,
	invites repository.InviteRepository,
	messages repository.MessageRepository,
	mapper relay.RoomMapper,
	dispatch Deliverer,
	pub pubsub.Publisher,
) SessionService {
	return &sessionServiceImpl{
		sessions:     sessions,
		rooms:        rooms,
		participants: participants,
		invites:      invites,
		messages:     messages,
		mapper:       mapper,
		dispatch:     dispatch,
		pub:          pub,
		now:          time.Now,
	}
}

// CreateSession creates a scheduled session.
func (s *sessionServiceImpl) CreateSession(ctx context.Context, userID string, req *domain.CreateSessionRequest) (*domain.SessionResponse, error) {
	session := &domain.ChatSession{
		ID:                     uuid.NewString(),
		Name:                   req.Name,
		ScheduledStartTime:     req.ScheduledStartTime,
		Duration:               time.Duration(req.DurationMinutes) * time.Minute,
		MaxParticipants:        req.MaxParticipants,
		MaxParticipantsPerRoom: req.MaxParticipantsPerRoom,
		Status:                 domain.SessionStatusScheduled,
		CreatedByID:            userID,
		Tags:                   req.Tags,
		CreatedAt:              s.now(),
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionCreateSession, userID, session.ID, "session created")
	resp := session.ToResponse()
	return &resp, nil
}

// GetSession retrieves a session with its rooms and invite statistics.
func (s *sessionServiceImpl) GetSession(ctx context.Context, sessionID string) (*domain.SessionDetailResponse, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rooms, err := s.rooms.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	active, err := s.rooms.TotalParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	total, consumed, err := s.invites.Stats(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	roomResponses := make([]domain.RoomResponse, len(rooms))
	for i, room := range rooms {
		roomResponses[i] = room.ToResponse()
	}

	return &domain.SessionDetailResponse{
		Session:            session.ToResponse(),
		Rooms:              roomResponses,
		ActiveParticipants: active,
		InvitesTotal:       total,
		InvitesConsumed:    consumed,
	}, nil
}

// ListSessions lists sessions with pagination.
func (s *sessionServiceImpl) ListSessions(ctx context.Context, page, pageSize int, status string) (*domain.ListSessionsResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	sessions, total, err := s.sessions.List(ctx, page, pageSize, status)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.SessionResponse, len(sessions))
	for i, session := range sessions {
		responses[i] = session.ToResponse()
	}

	totalPages := (total + pageSize - 1) / pageSize

	return &domain.ListSessionsResponse{
		Sessions:   responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GetMySessions retrieves sessions created by a user.
func (s *sessionServiceImpl) GetMySessions(ctx context.Context, userID string) ([]domain.SessionResponse, error) {
	sessions, err := s.sessions.ListByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.SessionResponse, len(sessions))
	for i, session := range sessions {
		responses[i] = session.ToResponse()
	}
	return responses, nil
}

// StartSession activates a scheduled session. The transition is a
// conditional update, so a concurrent double start loses cleanly.
func (s *sessionServiceImpl) StartSession(ctx context.Context, userID, sessionID string) (*domain.SessionResponse, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !session.CanStart(now) {
		return nil, ErrSessionNotStartable
	}

	if err := s.sessions.MarkStarted(ctx, sessionID, now); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, ErrSessionNotStartable
		}
		return nil, err
	}

	session.Status = domain.SessionStatusActive
	session.StartedAt = &now

	audit.LogWithDetail(ctx, audit.ActionStartSession, userID, sessionID, "session started")
	resp := session.ToResponse()
	return &resp, nil
}

// EndSession terminates an active session. completed marks a natural
// end of life, otherwise the session is recorded as ended early.
func (s *sessionServiceImpl) EndSession(ctx context.Context, userID, sessionID string, completed bool) (*domain.SessionResponse, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	status := domain.SessionStatusEnded
	if completed {
		status = domain.SessionStatusCompleted
	}

	now := s.now()
	if err := s.sessions.MarkEnded(ctx, sessionID, status, now); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, ErrSessionNotEndable
		}
		return nil, err
	}

	s.closeRooms(ctx, sessionID, now)

	session.Status = status
	session.EndedAt = &now

	audit.LogWithDetail(ctx, audit.ActionEndSession, userID, sessionID, "session ended")
	resp := session.ToResponse()
	return &resp, nil
}

// CancelSession cancels a scheduled or active session.
func (s *sessionServiceImpl) CancelSession(ctx context.Context, userID, sessionID string) (*domain.SessionResponse, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.CanCancel() {
		return nil, ErrSessionNotCancellable
	}

	now := s.now()
	if err := s.sessions.MarkCancelled(ctx, sessionID, now); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, ErrSessionNotCancellable
		}
		return nil, err
	}

	s.closeRooms(ctx, sessionID, now)

	session.Status = domain.SessionStatusCancelled
	session.EndedAt = &now

	audit.LogWithDetail(ctx, audit.ActionCancelSession, userID, sessionID, "session cancelled")
	resp := session.ToResponse()
	return &resp, nil
}

// Join places a participant into the fullest room with space, creating
// a room only when every open room is full and the ceiling allows it.
// Guests must present an invite token; registered users may join open.
func (s *sessionServiceImpl) Join(ctx context.Context, sessionID string, userID *string, req *domain.JoinSessionRequest) (*domain.JoinSessionResponse, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusActive {
		return nil, ErrSessionNotActive
	}
	if req.InviteToken == "" && userID == nil {
		return nil, ErrInviteRequired
	}

	room, err := s.allocateRoom(ctx, session)
	if err != nil {
		return nil, err
	}

	// The slot is held; consuming the invite second means a burned
	// token always corresponds to a granted seat.
	if req.InviteToken != "" {
		if err := s.consumeInvite(ctx, session.ID, req.InviteToken, userID); err != nil {
			s.releaseSlot(ctx, room.ID)
			return nil, err
		}
	}

	participant := &domain.Participant{
		ID:          uuid.NewString(),
		RoomID:      room.ID,
		SessionID:   session.ID,
		UserID:      userID,
		DisplayName: req.DisplayName,
		Type:        domain.ParticipantTypeGuest,
		JoinedAt:    s.now(),
		IsActive:    true,
	}
	if userID != nil {
		participant.Type = domain.ParticipantTypeRegistered
	}

	if err := s.participants.Create(ctx, participant); err != nil {
		s.releaseSlot(ctx, room.ID)
		return nil, err
	}

	relayRoom, relayOK := s.relayRoomFor(ctx, room.ID)
	if relayOK {
		s.enqueue(ctx, &dispatcher.Task{
			Kind:          dispatcher.TaskConnect,
			SessionID:     session.ID,
			RoomID:        room.ID,
			ParticipantID: participant.ID,
			DisplayName:   participant.DisplayName,
			RelayRoom:     relayRoom,
		})
	}
	s.publishPresence(ctx, pubsub.EventParticipantJoined, session.ID, room.ID, participant)

	audit.LogWithDetail(ctx, audit.ActionJoinSession, participant.ID, session.ID, "participant joined")

	return &domain.JoinSessionResponse{
		Participant: participant.ToResponse(),
		Room:        room.ToResponse(),
		Session:     session.ToResponse(),
	}, nil
}

// GetParticipant retrieves a participant by ID.
func (s *sessionServiceImpl) GetParticipant(ctx context.Context, participantID string) (*domain.ParticipantResponse, error) {
	participant, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}

	resp := participant.ToResponse()
	return &resp, nil
}

// Leave marks a participant inactive and frees their room slot.
func (s *sessionServiceImpl) Leave(ctx context.Context, participantID string) error {
	participant, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}

	if err := s.participants.MarkLeft(ctx, participantID, s.now()); err != nil {
		if errors.Is(err, repository.ErrAlreadyLeft) {
			return ErrParticipantInactive
		}
		return err
	}

	if err := s.rooms.DecrementParticipants(ctx, participant.RoomID); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).
			Str(log.FieldRoomID, participant.RoomID).
			Msg("failed to release room slot")
	}

	if relayRoom, ok := s.relayRoomFor(ctx, participant.RoomID); ok {
		s.enqueue(ctx, &dispatcher.Task{
			Kind:          dispatcher.TaskDisconnect,
			SessionID:     participant.SessionID,
			RoomID:        participant.RoomID,
			ParticipantID: participant.ID,
			DisplayName:   participant.DisplayName,
			RelayRoom:     relayRoom,
		})
	}
	s.publishPresence(ctx, pubsub.EventParticipantLeft, participant.SessionID, participant.RoomID, participant)

	audit.LogWithDetail(ctx, audit.ActionLeaveSession, participant.ID, participant.SessionID, "participant left")
	return nil
}

// SendMessage persists a message and hands delivery to the dispatcher.
// History is authoritative: relay failure never removes the row.
func (s *sessionServiceImpl) SendMessage(ctx context.Context, participantID string, req *domain.SendMessageRequest) (*domain.MessageResponse, error) {
	participant, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	if !participant.IsActive {
		return nil, ErrParticipantInactive
	}

	msg := &domain.ChatMessage{
		ID:            uuid.NewString(),
		RoomID:        participant.RoomID,
		SessionID:     participant.SessionID,
		ParticipantID: participant.ID,
		Content:       req.Content,
		SentAt:        s.now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	if relayRoom, ok := s.relayRoomFor(ctx, participant.RoomID); ok {
		s.enqueue(ctx, &dispatcher.Task{
			Kind:          dispatcher.TaskMessage,
			SessionID:     participant.SessionID,
			RoomID:        participant.RoomID,
			ParticipantID: participant.ID,
			RelayRoom:     relayRoom,
			Content:       req.Content,
		})
	}
	s.publishMessage(ctx, msg, participant.DisplayName)

	resp := msg.ToResponse()
	return &resp, nil
}

// PostSystemMessage injects a message from an out-of-band sender, such
// as a moderator console or a bot, into a room. The sender label stands
// in for a participant id in history.
func (s *sessionServiceImpl) PostSystemMessage(ctx context.Context, roomID, sender, content string) (*domain.MessageResponse, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	session, err := s.getSession(ctx, room.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusActive {
		return nil, ErrSessionNotActive
	}

	msg := &domain.ChatMessage{
		ID:            uuid.NewString(),
		RoomID:        room.ID,
		SessionID:     room.SessionID,
		ParticipantID: sender,
		Content:       content,
		SentAt:        s.now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	if relayRoom, ok := s.relayRoomFor(ctx, room.ID); ok {
		s.enqueue(ctx, &dispatcher.Task{
			Kind:          dispatcher.TaskMessage,
			SessionID:     room.SessionID,
			RoomID:        room.ID,
			ParticipantID: sender,
			RelayRoom:     relayRoom,
			Content:       content,
		})
	}
	s.publishMessage(ctx, msg, sender)

	resp := msg.ToResponse()
	return &resp, nil
}

// ListRooms lists the rooms of a session.
func (s *sessionServiceImpl) ListRooms(ctx context.Context, sessionID string) ([]domain.RoomResponse, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	rooms, err := s.rooms.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.RoomResponse, len(rooms))
	for i, room := range rooms {
		responses[i] = room.ToResponse()
	}
	return responses, nil
}

// RoomParticipants lists the active participants of a room.
func (s *sessionServiceImpl) RoomParticipants(ctx context.Context, roomID string) ([]domain.ParticipantResponse, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	participants, err := s.participants.ListActiveByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.ParticipantResponse, len(participants))
	for i, p := range participants {
		responses[i] = p.ToResponse()
	}
	return responses, nil
}

// RoomMessages returns recent room history in chronological order.
func (s *sessionServiceImpl) RoomMessages(ctx context.Context, roomID string, limit int) ([]domain.MessageResponse, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	messages, err := s.messages.ListByRoom(ctx, roomID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.MessageResponse, len(messages))
	for i, msg := range messages {
		responses[i] = msg.ToResponse()
	}
	return responses, nil
}

// allocateRoom packs the fullest open room first. Capacity is enforced
// by the store's conditional increment, so losing a race to another
// join simply moves on to the next candidate.
func (s *sessionServiceImpl) allocateRoom(ctx context.Context, session *domain.ChatSession) (*domain.ChatRoom, error) {
	for attempt := 0; attempt < allocateRetries; attempt++ {
		rooms, err := s.rooms.FindAssignable(ctx, session.ID)
		if err != nil {
			return nil, err
		}

		for i := range rooms {
			room := &rooms[i]
			err := s.rooms.IncrementParticipants(ctx, room.ID)
			if err == nil {
				room.ParticipantCount++
				return room, nil
			}
			if !errors.Is(err, repository.ErrRoomFull) {
				return nil, err
			}
		}

		count, err := s.rooms.CountBySession(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		if count >= session.MaxRooms() {
			return nil, ErrSessionFull
		}

		room := &domain.ChatRoom{
			ID:              uuid.NewString(),
			SessionID:       session.ID,
			Name:            fmt.Sprintf("Room %d", count+1),
			MaxParticipants: session.MaxParticipantsPerRoom,
			Status:          domain.RoomStatusWaiting,
			CreatedAt:       s.now(),
		}
		if err := s.rooms.Create(ctx, room); err != nil {
			return nil, err
		}
		err = s.rooms.IncrementParticipants(ctx, room.ID)
		if err == nil {
			room.ParticipantCount = 1
			room.Status = domain.RoomStatusActive
			return room, nil
		}
		if !errors.Is(err, repository.ErrRoomFull) {
			return nil, err
		}
		// Lost the race for our own fresh room; walk candidates again.
	}
	return nil, ErrSessionFull
}

// consumeInvite redeems a token atomically and maps store errors to
// service errors.
func (s *sessionServiceImpl) consumeInvite(ctx context.Context, sessionID, token string, userID *string) error {
	invite, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrInviteNotFound) {
			return ErrInviteInvalid
		}
		return err
	}
	if invite.SessionID != sessionID {
		return ErrInviteWrongSession
	}

	if err := s.invites.Consume(ctx, token, userID, s.now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrInviteConsumed):
			return ErrInviteConsumed
		case errors.Is(err, repository.ErrInviteExpired):
			return ErrInviteExpired
		case errors.Is(err, repository.ErrInviteNotFound):
			return ErrInviteInvalid
		}
		return err
	}

	audit.LogWithDetail(ctx, audit.ActionConsumeInvite, invite.ID, sessionID, "invite consumed")
	return nil
}

func (s *sessionServiceImpl) getSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *sessionServiceImpl) getOwnedSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CreatedByID != userID {
		return nil, ErrNotSessionOwner
	}
	return session, nil
}

// closeRooms shuts a session's rooms and returns their relay rooms to
// the pool. Failures here are logged, the session transition already
// happened.
func (s *sessionServiceImpl) closeRooms(ctx context.Context, sessionID string, at time.Time) {
	rooms, err := s.rooms.ListBySession(ctx, sessionID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).
			Str(log.FieldSessionID, sessionID).
			Msg("failed to list rooms for close")
	} else {
		for _, room := range rooms {
			s.mapper.Release(room.ID)
		}
	}

	if err := s.rooms.CloseBySession(ctx, sessionID, at); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).
			Str(log.FieldSessionID, sessionID).
			Msg("failed to close rooms")
	}
}

// releaseSlot undoes a held room slot when a later join step fails.
func (s *sessionServiceImpl) releaseSlot(ctx context.Context, roomID string) {
	if err := s.rooms.DecrementParticipants(ctx, roomID); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).
			Str(log.FieldRoomID, roomID).
			Msg("failed to roll back room slot")
	}
}

// relayRoomFor resolves or acquires the relay room for a chat room.
// Pool exhaustion degrades delivery to log-only rather than failing
// the caller.
func (s *sessionServiceImpl) relayRoomFor(ctx context.Context, roomID string) (int, bool) {
	if relayRoom, ok := s.mapper.Lookup(roomID); ok {
		return relayRoom, true
	}
	relayRoom, err := s.mapper.Acquire(roomID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).
			Str(log.FieldRoomID, roomID).
			Msg("relay room pool exhausted, delivery degraded")
		return 0, false
	}
	return relayRoom, true
}

func (s *sessionServiceImpl) enqueue(ctx context.Context, task *dispatcher.Task) {
	if s.dispatch == nil {
		return
	}
	if err := s.dispatch.Enqueue(task); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).
			Str(log.FieldRoomID, task.RoomID).
			Str("kind", string(task.Kind)).
			Msg("relay task dropped")
	}
}

func (s *sessionServiceImpl) publishPresence(ctx context.Context, eventType, sessionID, roomID string, p *domain.Participant) {
	if s.pub == nil {
		return
	}
	event, err := pubsub.NewEvent(eventType, sessionID, roomID, pubsub.PresencePayload{
		ParticipantID:   p.ID,
		ParticipantName: p.DisplayName,
	})
	if err != nil {
		return
	}
	if err := s.pub.Publish(ctx, pubsub.RoomChannel(roomID), event); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).
			Str(log.FieldRoomID, roomID).
			Msg("failed to publish presence event")
	}
}

func (s *sessionServiceImpl) publishMessage(ctx context.Context, msg *domain.ChatMessage, displayName string) {
	if s.pub == nil {
		return
	}
	event, err := pubsub.NewEvent(pubsub.EventChatMessage, msg.SessionID, msg.RoomID, pubsub.ChatMessagePayload{
		MessageID:       msg.ID,
		ParticipantID:   msg.ParticipantID,
		ParticipantName: displayName,
		Content:         msg.Content,
	})
	if err != nil {
		return
	}
	if err := s.pub.Publish(ctx, pubsub.RoomChannel(msg.RoomID), event); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).
			Str(log.FieldRoomID, msg.RoomID).
			Msg("failed to publish chat event")
	}
}

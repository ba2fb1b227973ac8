package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alecbaum/wagl-backend-sub002/internal/dispatcher"
	"github.com/alecbaum/wagl-backend-sub002/internal/domain"
	"github.com/alecbaum/wagl-backend-sub002/internal/repository"
)

// In-memory repositories with the same conditional-update semantics as
// the GORM implementations, so allocator races behave identically.

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.ChatSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domain.ChatSession)}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *domain.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*domain.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) List(_ context.Context, page, pageSize int, status string) ([]domain.ChatSession, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatSession
	for _, s := range r.sessions {
		if status == "" || string(s.Status) == status {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, len(out), nil
}

func (r *fakeSessionRepo) ListByCreator(_ context.Context, creatorID string) ([]domain.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatSession
	for _, s := range r.sessions {
		if s.CreatedByID == creatorID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) MarkStarted(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	if s.Status != domain.SessionStatusScheduled {
		return repository.ErrInvalidTransition
	}
	s.Status = domain.SessionStatusActive
	s.StartedAt = &at
	return nil
}

func (r *fakeSessionRepo) MarkEnded(_ context.Context, id string, status domain.SessionStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	if s.Status != domain.SessionStatusActive {
		return repository.ErrInvalidTransition
	}
	s.Status = status
	s.EndedAt = &at
	return nil
}

func (r *fakeSessionRepo) MarkCancelled(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	if s.Status != domain.SessionStatusScheduled && s.Status != domain.SessionStatusActive {
		return repository.ErrInvalidTransition
	}
	s.Status = domain.SessionStatusCancelled
	s.EndedAt = &at
	return nil
}

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*domain.ChatRoom
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]*domain.ChatRoom)}
}

func (r *fakeRoomRepo) Create(_ context.Context, room *domain.ChatRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *room
	r.rooms[room.ID] = &cp
	return nil
}

func (r *fakeRoomRepo) GetByID(_ context.Context, id string) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

func (r *fakeRoomRepo) ListBySession(_ context.Context, sessionID string) ([]domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatRoom
	for _, room := range r.rooms {
		if room.SessionID == sessionID {
			out = append(out, *room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeRoomRepo) FindAssignable(_ context.Context, sessionID string) ([]domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatRoom
	for _, room := range r.rooms {
		if room.SessionID == sessionID && room.Status != domain.RoomStatusClosed && room.ParticipantCount < room.MaxParticipants {
			out = append(out, *room)
		}
	}
	// Fullest first.
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantCount > out[j].ParticipantCount })
	return out, nil
}

func (r *fakeRoomRepo) CountBySession(_ context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, room := range r.rooms {
		if room.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

func (r *fakeRoomRepo) TotalParticipants(_ context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, room := range r.rooms {
		if room.SessionID == sessionID {
			total += room.ParticipantCount
		}
	}
	return total, nil
}

func (r *fakeRoomRepo) IncrementParticipants(_ context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	if room.Status == domain.RoomStatusClosed || room.ParticipantCount >= room.MaxParticipants {
		return repository.ErrRoomFull
	}
	room.ParticipantCount++
	room.Status = domain.RoomStatusActive
	return nil
}

func (r *fakeRoomRepo) DecrementParticipants(_ context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	if room.ParticipantCount > 0 {
		room.ParticipantCount--
	}
	if room.ParticipantCount == 0 && room.Status == domain.RoomStatusActive {
		room.Status = domain.RoomStatusWaiting
	}
	return nil
}

func (r *fakeRoomRepo) CloseBySession(_ context.Context, sessionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if room.SessionID == sessionID && room.Status != domain.RoomStatusClosed {
			room.Status = domain.RoomStatusClosed
			t := at
			room.ClosedAt = &t
		}
	}
	return nil
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants map[string]*domain.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[string]*domain.Participant)}
}

func (r *fakeParticipantRepo) Create(_ context.Context, p *domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.participants[p.ID] = &cp
	return nil
}

func (r *fakeParticipantRepo) GetByID(_ context.Context, id string) (*domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return nil, repository.ErrParticipantNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeParticipantRepo) ListActiveByRoom(_ context.Context, roomID string) ([]domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Participant
	for _, p := range r.participants {
		if p.RoomID == roomID && p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) MarkLeft(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return repository.ErrParticipantNotFound
	}
	if !p.IsActive {
		return repository.ErrAlreadyLeft
	}
	p.IsActive = false
	t := at
	p.LeftAt = &t
	p.ConnectionID = nil
	return nil
}

func (r *fakeParticipantRepo) UpdateConnection(_ context.Context, id string, connectionID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return repository.ErrParticipantNotFound
	}
	p.ConnectionID = connectionID
	return nil
}

type fakeInviteRepo struct {
	mu      sync.Mutex
	byToken map[string]*domain.SessionInvite
	now     func() time.Time
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{
		byToken: make(map[string]*domain.SessionInvite),
		now:     time.Now,
	}
}

func (r *fakeInviteRepo) Create(_ context.Context, invite *domain.SessionInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *invite
	r.byToken[invite.Token] = &cp
	return nil
}

func (r *fakeInviteRepo) GetByToken(_ context.Context, token string) (*domain.SessionInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.byToken[token]
	if !ok {
		return nil, repository.ErrInviteNotFound
	}
	cp := *invite
	return &cp, nil
}

func (r *fakeInviteRepo) ListBySession(_ context.Context, sessionID string) ([]domain.SessionInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SessionInvite
	for _, invite := range r.byToken {
		if invite.SessionID == sessionID {
			out = append(out, *invite)
		}
	}
	return out, nil
}

// Consume mirrors the single conditional UPDATE of the GORM repo: only
// one caller can flip is_consumed.
func (r *fakeInviteRepo) Consume(_ context.Context, token string, consumerID *string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.byToken[token]
	if !ok {
		return repository.ErrInviteNotFound
	}
	if invite.IsConsumed {
		return repository.ErrInviteConsumed
	}
	if now.After(invite.ExpiresAt) {
		return repository.ErrInviteExpired
	}
	invite.IsConsumed = true
	t := now
	invite.ConsumedAt = &t
	invite.ConsumedByID = consumerID
	return nil
}

func (r *fakeInviteRepo) Stats(_ context.Context, sessionID string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total, consumed := 0, 0
	for _, invite := range r.byToken {
		if invite.SessionID == sessionID {
			total++
			if invite.IsConsumed {
				consumed++
			}
		}
	}
	return total, consumed, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByRoom(_ context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatMessage
	for _, msg := range r.messages {
		if msg.RoomID == roomID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// fakeDispatcher records enqueued relay tasks.
type fakeDispatcher struct {
	mu    sync.Mutex
	tasks []*dispatcher.Task
}

func (d *fakeDispatcher) Enqueue(task *dispatcher.Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, task)
	return nil
}

func (d *fakeDispatcher) Tasks() []*dispatcher.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*dispatcher.Task, len(d.tasks))
	copy(out, d.tasks)
	return out
}

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alecbaum/wagl-backend-sub002/internal/dispatcher"
	"github.com/alecbaum/wagl-backend-sub002/internal/domain"
	"github.com/alecbaum/wagl-backend-sub002/internal/relay"
)

type serviceFixture struct {
	sessions     *fakeSessionRepo
	rooms        *fakeRoomRepo
	participants *fakeParticipantRepo
	invites      *fakeInviteRepo
	messages     *fakeMessageRepo
	dispatch     *fakeDispatcher
	svc          SessionService
	invSvc       InviteService
	now          time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		sessions:     newFakeSessionRepo(),
		rooms:        newFakeRoomRepo(),
		participants: newFakeParticipantRepo(),
		invites:      newFakeInviteRepo(),
		messages:     newFakeMessageRepo(),
		dispatch:     &fakeDispatcher{},
		now:          time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	svc := NewSessionService(
		f.sessions, f.rooms, f.participants, f.invites, f.messages,
		relay.NewStaticMapper([]int{1, 2, 3}), f.dispatch, nil,
	)
	svc.(*sessionServiceImpl).now = func() time.Time { return f.now }
	f.svc = svc

	invSvc := NewInviteService(f.sessions, f.invites)
	invSvc.(*inviteServiceImpl).now = func() time.Time { return f.now }
	f.invSvc = invSvc
	return f
}

func (f *serviceFixture) activeSession(t *testing.T, maxParticipants, perRoom int) *domain.SessionResponse {
	t.Helper()
	resp, err := f.svc.CreateSession(context.Background(), "owner-1", &domain.CreateSessionRequest{
		Name:                   "standup",
		ScheduledStartTime:     f.now.Add(-time.Minute),
		DurationMinutes:        60,
		MaxParticipants:        maxParticipants,
		MaxParticipantsPerRoom: perRoom,
	})
	require.NoError(t, err)
	started, err := f.svc.StartSession(context.Background(), "owner-1", resp.ID)
	require.NoError(t, err)
	return started
}

func (f *serviceFixture) join(t *testing.T, sessionID, name string) *domain.JoinSessionResponse {
	t.Helper()
	userID := "user-" + name
	resp, err := f.svc.Join(context.Background(), sessionID, &userID, &domain.JoinSessionRequest{DisplayName: name})
	require.NoError(t, err)
	return resp
}

func TestCreateSessionValidatesCapacity(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.CreateSession(context.Background(), "owner-1", &domain.CreateSessionRequest{
		Name:                   "bad",
		ScheduledStartTime:     f.now,
		DurationMinutes:        60,
		MaxParticipants:        10,
		MaxParticipantsPerRoom: 6, // 10 is not a multiple of 6
	})
	require.Error(t, err)

	_, err = f.svc.CreateSession(context.Background(), "owner-1", &domain.CreateSessionRequest{
		Name:                   "bad",
		ScheduledStartTime:     f.now,
		DurationMinutes:        60,
		MaxParticipants:        14,
		MaxParticipantsPerRoom: 7, // above the per-room ceiling
	})
	require.Error(t, err)
}

func TestStartSessionRules(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateSession(ctx, "owner-1", &domain.CreateSessionRequest{
		Name:                   "future",
		ScheduledStartTime:     f.now.Add(time.Hour),
		DurationMinutes:        30,
		MaxParticipants:        6,
		MaxParticipantsPerRoom: 6,
	})
	require.NoError(t, err)

	// Too early.
	_, err = f.svc.StartSession(ctx, "owner-1", resp.ID)
	assert.ErrorIs(t, err, ErrSessionNotStartable)

	// Not the owner.
	f.now = f.now.Add(2 * time.Hour)
	_, err = f.svc.StartSession(ctx, "someone-else", resp.ID)
	assert.ErrorIs(t, err, ErrNotSessionOwner)

	started, err := f.svc.StartSession(ctx, "owner-1", resp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusActive, started.Status)

	// Double start loses against the conditional update.
	_, err = f.svc.StartSession(ctx, "owner-1", resp.ID)
	assert.ErrorIs(t, err, ErrSessionNotStartable)
}

func TestJoinCreatesRoomLazily(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 12, 6)

	rooms, err := f.svc.ListRooms(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	joined := f.join(t, session.ID, "alice")
	assert.Equal(t, 1, joined.Room.ParticipantCount)

	rooms, err = f.svc.ListRooms(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
}

func TestJoinPacksFullestRoomFirst(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 18, 6)

	// Fill room 1 to 6, room 2 gets 3.
	var roomA string
	for i := 0; i < 6; i++ {
		r := f.join(t, session.ID, fmt.Sprintf("a%d", i))
		roomA = r.Room.ID
	}
	var roomB string
	for i := 0; i < 3; i++ {
		r := f.join(t, session.ID, fmt.Sprintf("b%d", i))
		require.NotEqual(t, roomA, r.Room.ID)
		roomB = r.Room.ID
	}

	// One leaves room B, so B now holds 2. A new join must still pack
	// into B, the fullest room with space, never open a third room.
	participants, err := f.svc.RoomParticipants(context.Background(), roomB)
	require.NoError(t, err)
	require.NoError(t, f.svc.Leave(context.Background(), participants[0].ID))

	joined := f.join(t, session.ID, "late")
	assert.Equal(t, roomB, joined.Room.ID)

	rooms, err := f.svc.ListRooms(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestJoinRejectsWhenSessionFull(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 12, 6)

	for i := 0; i < 12; i++ {
		f.join(t, session.ID, fmt.Sprintf("p%d", i))
	}

	userID := "user-13"
	_, err := f.svc.Join(context.Background(), session.ID, &userID, &domain.JoinSessionRequest{DisplayName: "p13"})
	assert.ErrorIs(t, err, ErrSessionFull)

	rooms, err := f.svc.ListRooms(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestJoinRequiresActiveSession(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateSession(ctx, "owner-1", &domain.CreateSessionRequest{
		Name:                   "scheduled",
		ScheduledStartTime:     f.now.Add(time.Hour),
		DurationMinutes:        30,
		MaxParticipants:        6,
		MaxParticipantsPerRoom: 6,
	})
	require.NoError(t, err)

	userID := "user-1"
	_, err = f.svc.Join(ctx, resp.ID, &userID, &domain.JoinSessionRequest{DisplayName: "alice"})
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestGuestJoinNeedsInvite(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 6, 6)

	_, err := f.svc.Join(context.Background(), session.ID, nil, &domain.JoinSessionRequest{DisplayName: "ghost"})
	assert.ErrorIs(t, err, ErrInviteRequired)
}

func TestGuestJoinWithInvite(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 6, 6)

	result, err := f.invSvc.CreateInvites(context.Background(), "owner-1", session.ID, &domain.CreateInvitesRequest{
		Recipients:     []domain.InviteRecipient{{Email: "guest@example.com"}},
		ExpiresInHours: 24,
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Successful)
	token := result.Invites[0].Token

	joined, err := f.svc.Join(context.Background(), session.ID, nil, &domain.JoinSessionRequest{
		InviteToken: token,
		DisplayName: "guest",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipantTypeGuest, joined.Participant.Type)

	// Second use of the same token fails and frees no extra slot.
	_, err = f.svc.Join(context.Background(), session.ID, nil, &domain.JoinSessionRequest{
		InviteToken: token,
		DisplayName: "guest-2",
	})
	assert.ErrorIs(t, err, ErrInviteConsumed)

	rooms, err := f.svc.ListRooms(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, 1, rooms[0].ParticipantCount)
}

func TestExpiredInviteRejected(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 6, 6)

	result, err := f.invSvc.CreateInvites(context.Background(), "owner-1", session.ID, &domain.CreateInvitesRequest{
		Recipients:     []domain.InviteRecipient{{Name: "late guest"}},
		ExpiresInHours: 1,
	})
	require.NoError(t, err)
	token := result.Invites[0].Token

	f.now = f.now.Add(2 * time.Hour)

	_, err = f.svc.Join(context.Background(), session.ID, nil, &domain.JoinSessionRequest{
		InviteToken: token,
		DisplayName: "late guest",
	})
	assert.ErrorIs(t, err, ErrInviteExpired)
}

func TestConcurrentInviteConsumeSingleWinner(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 12, 6)

	result, err := f.invSvc.CreateInvites(context.Background(), "owner-1", session.ID, &domain.CreateInvitesRequest{
		Recipients:     []domain.InviteRecipient{{Email: "contested@example.com"}},
		ExpiresInHours: 24,
	})
	require.NoError(t, err)
	token := result.Invites[0].Token

	const racers = 16
	var wg sync.WaitGroup
	successes := make(chan struct{}, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.svc.Join(context.Background(), session.ID, nil, &domain.JoinSessionRequest{
				InviteToken: token,
				DisplayName: fmt.Sprintf("racer-%d", n),
			})
			if err == nil {
				successes <- struct{}{}
			}
		}(i)
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	assert.Equal(t, 1, count)

	// The losers' held slots were all rolled back.
	total := 0
	rooms, err := f.svc.ListRooms(context.Background(), session.ID)
	require.NoError(t, err)
	for _, room := range rooms {
		total += room.ParticipantCount
	}
	assert.Equal(t, 1, total)
}

func TestLeaveFreesSlotAndIsIdempotentSafe(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 6, 6)

	joined := f.join(t, session.ID, "alice")

	require.NoError(t, f.svc.Leave(context.Background(), joined.Participant.ID))

	rooms, err := f.svc.ListRooms(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, rooms[0].ParticipantCount)
	assert.Equal(t, domain.RoomStatusWaiting, rooms[0].Status)

	// Second leave must not decrement again.
	err = f.svc.Leave(context.Background(), joined.Participant.ID)
	assert.ErrorIs(t, err, ErrParticipantInactive)

	rooms, err = f.svc.ListRooms(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, rooms[0].ParticipantCount)
}

func TestSendMessagePersistsAndQueuesDelivery(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 6, 6)
	joined := f.join(t, session.ID, "alice")

	msg, err := f.svc.SendMessage(context.Background(), joined.Participant.ID, &domain.SendMessageRequest{Content: "hello room"})
	require.NoError(t, err)
	assert.Equal(t, "hello room", msg.Content)

	history, err := f.svc.RoomMessages(context.Background(), joined.Room.ID, 50)
	require.NoError(t, err)
	require.Len(t, history, 1)

	var messageTasks int
	for _, task := range f.dispatch.Tasks() {
		if task.Kind == dispatcher.TaskMessage {
			messageTasks++
			assert.Equal(t, "hello room", task.Content)
		}
	}
	assert.Equal(t, 1, messageTasks)
}

func TestSendMessageRejectsInactiveParticipant(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 6, 6)
	joined := f.join(t, session.ID, "alice")

	require.NoError(t, f.svc.Leave(context.Background(), joined.Participant.ID))

	_, err := f.svc.SendMessage(context.Background(), joined.Participant.ID, &domain.SendMessageRequest{Content: "too late"})
	assert.ErrorIs(t, err, ErrParticipantInactive)
}

func TestEndSessionClosesRooms(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 6, 6)
	f.join(t, session.ID, "alice")

	ended, err := f.svc.EndSession(context.Background(), "owner-1", session.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, ended.Status)

	rooms, err := f.svc.ListRooms(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusClosed, rooms[0].Status)

	// Ending twice is an illegal transition.
	_, err = f.svc.EndSession(context.Background(), "owner-1", session.ID, false)
	assert.ErrorIs(t, err, ErrSessionNotEndable)
}

func TestCancelSessionRules(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateSession(ctx, "owner-1", &domain.CreateSessionRequest{
		Name:                   "to cancel",
		ScheduledStartTime:     f.now.Add(time.Hour),
		DurationMinutes:        30,
		MaxParticipants:        6,
		MaxParticipantsPerRoom: 6,
	})
	require.NoError(t, err)

	cancelled, err := f.svc.CancelSession(ctx, "owner-1", resp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCancelled, cancelled.Status)

	// Cancelled is terminal.
	_, err = f.svc.CancelSession(ctx, "owner-1", resp.ID)
	assert.ErrorIs(t, err, ErrSessionNotCancellable)
}

func TestPostSystemMessage(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 6, 6)
	joined := f.join(t, session.ID, "alice")

	msg, err := f.svc.PostSystemMessage(context.Background(), joined.Room.ID, "moderator", "stay on topic")
	require.NoError(t, err)
	assert.Equal(t, "moderator", msg.ParticipantID)

	history, err := f.svc.RoomMessages(context.Background(), joined.Room.ID, 50)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "stay on topic", history[0].Content)
}

func TestPostSystemMessageRequiresActiveSession(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 6, 6)
	joined := f.join(t, session.ID, "alice")

	_, err := f.svc.EndSession(context.Background(), "owner-1", session.ID, true)
	require.NoError(t, err)

	_, err = f.svc.PostSystemMessage(context.Background(), joined.Room.ID, "bot", "anyone here")
	assert.ErrorIs(t, err, ErrSessionNotActive)

	_, err = f.svc.PostSystemMessage(context.Background(), "no-such-room", "bot", "hello")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestGetSessionDetail(t *testing.T) {
	f := newServiceFixture(t)
	session := f.activeSession(t, 12, 6)
	f.join(t, session.ID, "alice")
	f.join(t, session.ID, "bob")

	_, err := f.invSvc.CreateInvites(context.Background(), "owner-1", session.ID, &domain.CreateInvitesRequest{
		Recipients:     []domain.InviteRecipient{{Email: "x@example.com"}, {Email: "y@example.com"}},
		ExpiresInHours: 24,
	})
	require.NoError(t, err)

	detail, err := f.svc.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.ActiveParticipants)
	assert.Equal(t, 2, detail.InvitesTotal)
	assert.Equal(t, 0, detail.InvitesConsumed)
	require.Len(t, detail.Rooms, 1)
}

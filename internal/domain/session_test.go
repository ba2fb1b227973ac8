package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSession() *ChatSession {
	return &ChatSession{
		ID:                     "s-1",
		Name:                   "standup",
		ScheduledStartTime:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Duration:               time.Hour,
		MaxParticipants:        12,
		MaxParticipantsPerRoom: 6,
		Status:                 SessionStatusScheduled,
		CreatedByID:            "owner-1",
	}
}

func TestSessionValidate(t *testing.T) {
	require.NoError(t, validSession().Validate())

	s := validSession()
	s.Name = ""
	assert.Error(t, s.Validate())

	s = validSession()
	s.Duration = 0
	assert.Error(t, s.Validate())

	s = validSession()
	s.MaxParticipantsPerRoom = 7
	assert.Error(t, s.Validate())

	s = validSession()
	s.MaxParticipants = 10 // not a multiple of 6
	assert.Error(t, s.Validate())

	s = validSession()
	s.MaxParticipants = 3
	assert.Error(t, s.Validate())
}

func TestSessionDerivedValues(t *testing.T) {
	s := validSession()
	assert.Equal(t, s.ScheduledStartTime.Add(time.Hour), s.ScheduledEndTime())
	assert.Equal(t, 2, s.MaxRooms())
}

func TestSessionTransitionGuards(t *testing.T) {
	s := validSession()

	assert.False(t, s.CanStart(s.ScheduledStartTime.Add(-time.Minute)))
	assert.True(t, s.CanStart(s.ScheduledStartTime))
	assert.True(t, s.CanStart(s.ScheduledStartTime.Add(time.Minute)))

	s.Status = SessionStatusActive
	assert.False(t, s.CanStart(s.ScheduledStartTime.Add(time.Minute)))
	assert.True(t, s.CanCancel())
	assert.False(t, s.IsTerminal())

	for _, terminal := range []SessionStatus{SessionStatusEnded, SessionStatusCompleted, SessionStatusCancelled} {
		s.Status = terminal
		assert.True(t, s.IsTerminal(), "status %s", terminal)
		assert.False(t, s.CanCancel(), "status %s", terminal)
	}
}

func TestSessionModelRoundTrip(t *testing.T) {
	s := validSession()
	s.Tags = []string{"daily", "team-a"}

	got := SessionToModel(s).ToDomain()
	assert.Equal(t, s, got)
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInviteTokenIsOpaqueAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := NewInviteToken()
		require.NoError(t, err)
		// 32 random bytes in unpadded URL-safe base64.
		assert.Len(t, token, 43)
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestInviteValidity(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	invite := &SessionInvite{
		Token:     "tok",
		ExpiresAt: now.Add(time.Hour),
	}

	assert.True(t, invite.IsValid(now))
	assert.False(t, invite.IsExpired(now))

	assert.False(t, invite.IsValid(now.Add(2*time.Hour)))
	assert.True(t, invite.IsExpired(now.Add(2*time.Hour)))

	invite.IsConsumed = true
	assert.False(t, invite.IsValid(now))
}

func TestTierCapabilities(t *testing.T) {
	assert.True(t, TierOne.Has(CapBasicChat))
	assert.True(t, TierOne.Has(CapPresence))
	assert.False(t, TierOne.Has(CapWebhooks))
	assert.False(t, TierOne.Has(CapBulkInvites))

	assert.True(t, TierTwo.Has(CapWebhooks))
	assert.False(t, TierTwo.Has(CapBulkInvites))

	assert.True(t, TierThree.Has(CapBulkInvites))
	assert.False(t, TierThree.Has(CapRelayAdmin))

	assert.True(t, TierProvider.Has(CapRelayAdmin))
	assert.True(t, TierProvider.Has(CapUnlimitedRooms))
}

func TestTierHourlyLimits(t *testing.T) {
	assert.Equal(t, int64(100), TierOne.HourlyLimit())
	assert.Equal(t, int64(500), TierTwo.HourlyLimit())
	assert.Equal(t, int64(2000), TierThree.HourlyLimit())
	assert.Equal(t, int64(10000), TierProvider.HourlyLimit())
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierTwo, ParseTier("tier2"))
	assert.Equal(t, TierProvider, ParseTier("provider"))
	assert.Equal(t, TierOne, ParseTier(""))
	assert.Equal(t, TierOne, ParseTier("platinum"))
}

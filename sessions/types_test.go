package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/imtaco/rtc-room-client/internal/constants"
)

func TestHasFreshToken(t *testing.T) {
	now := time.Now()
	minRemaining := 30 * time.Second

	tests := []struct {
		name string
		s    *Session
		want bool
	}{
		{"nil", nil, false},
		{"no token", &Session{}, false},
		{"fresh", &Session{Token: "t", TokenExpiresAt: now.Add(time.Hour)}, true},
		{"used", &Session{Token: "t", TokenExpiresAt: now.Add(time.Hour), TokenUsed: true}, false},
		{"about to expire", &Session{Token: "t", TokenExpiresAt: now.Add(minRemaining)}, false},
		{"expired", &Session{Token: "t", TokenExpiresAt: now.Add(-time.Second)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.HasFreshToken(now, minRemaining))
		})
	}
}

func TestClearTokenAndClone(t *testing.T) {
	s := &Session{ID: "a", Token: "t", TokenExpiresAt: time.Now(), TokenUsed: true}
	c := s.Clone()
	s.ClearToken()

	assert.Empty(t, s.Token)
	assert.False(t, s.TokenUsed)
	assert.True(t, s.TokenExpiresAt.IsZero())
	assert.Equal(t, "t", c.Token, "clone is independent")
}

func TestConnectionState(t *testing.T) {
	cases := map[constants.SessionState]constants.ConnectionState{
		constants.SessionStateIdle:         constants.ConnectionStateDisconnected,
		constants.SessionStateGenerating:   constants.ConnectionStateConnecting,
		constants.SessionStateReady:        constants.ConnectionStateConnecting,
		constants.SessionStateConnected:    constants.ConnectionStateConnected,
		constants.SessionStateDisconnected: constants.ConnectionStateDisconnected,
		constants.SessionStateFailed:       constants.ConnectionStateDisconnected,
	}
	for state, want := range cases {
		assert.Equal(t, want, (&Session{State: state}).ConnectionState(), string(state))
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		TokenTTL:           time.Hour,
		TokenMinRemaining:  30 * time.Second,
		TokenRefreshMargin: 2 * time.Minute,
		SessionTTL:         30 * time.Minute,
	}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.TokenRefreshMargin = 10 * time.Second
	assert.ErrorIs(t, bad.Validate(), ErrInvalidRequest)

	bad = valid
	bad.TokenTTL = time.Minute
	assert.ErrorIs(t, bad.Validate(), ErrInvalidRequest)

	bad = valid
	bad.SessionTTL = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidRequest)
}

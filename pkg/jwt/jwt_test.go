package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_AccessTokenRoundTrip(t *testing.T) {
	m := NewManager("secret", 15*time.Minute, 72*time.Hour)

	token, err := m.GenerateAccessToken("u-1", "alice", "member")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "member", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.Type)
}

func TestManager_RejectsWrongType(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)

	refresh, err := m.GenerateRefreshToken("u-1")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(refresh)
	assert.ErrorContains(t, err, "invalid token type")

	claims, err := m.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	issuer := NewManager("one", time.Minute, time.Hour)
	verifier := NewManager("two", time.Minute, time.Hour)

	token, err := issuer.GenerateAccessToken("u-1", "alice", "member")
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestManager_RejectsExpired(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.GenerateAccessToken("u-1", "alice", "member")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/modelhub/internal/config"
	"github.com/agenthands/modelhub/internal/core/model"
)

func init() {
	PasswordCost = 4
}

func testIssuer() *Issuer {
	return NewIssuer(config.AuthConfig{
		JWTSecret:        "access-secret",
		RefreshSecret:    "refresh-secret",
		JWTExpiresIn:     config.Duration{Duration: time.Hour},
		RefreshExpiresIn: config.Duration{Duration: 7 * 24 * time.Hour},
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret"))
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestNewBasicPassword(t *testing.T) {
	a, b := NewBasicPassword(), NewBasicPassword()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestIssueAndParse(t *testing.T) {
	iss := testIssuer()
	u := &model.User{ID: "u-1", Email: "admin@example.com", Role: model.RoleAdmin}

	pair, err := iss.Issue(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), pair.ExpiresAt, time.Minute)

	claims, err := iss.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)

	claims, err = iss.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)

	_, err = iss.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token must not pass as access")
	_, err = iss.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = iss.ParseAccess("invalid.token.here")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseExpired(t *testing.T) {
	iss := testIssuer()
	pair, err := iss.Issue(&model.User{ID: "u-1"})
	require.NoError(t, err)

	iss.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = iss.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.ParseRefresh(pair.RefreshToken)
	assert.NoError(t, err, "refresh outlives access")
}

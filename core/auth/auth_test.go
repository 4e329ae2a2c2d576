package auth

import (
	"strings"
	"testing"
	"time"

	"musicapp/core/apperr"
	"musicapp/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, h.Matches("secret123", hash))
	assert.False(t, h.Matches("wrong", hash))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	_, err = h.Hash("12345")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
	_, err = h.Hash(strings.Repeat("a", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestPasswordHasherCost(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, bcrypt.DefaultCost},
		{1, bcrypt.MinCost},
		{12, 12},
		{99, bcrypt.MaxCost},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewPasswordHasher(tt.in).Cost(), "cost %d", tt.in)
	}
}

func TestCheckPassword(t *testing.T) {
	assert.NoError(t, CheckPassword("secret"))
	assert.NoError(t, CheckPassword(strings.Repeat("a", MaxPasswordLength)))
	// Six runes is enough even when they take more bytes.
	assert.NoError(t, CheckPassword("пароль"))
	assert.ErrorIs(t, CheckPassword("short"), ErrPasswordTooShort)
	// 25 three-byte runes exceed what bcrypt will look at.
	assert.ErrorIs(t, CheckPassword(strings.Repeat("密", 25)), ErrPasswordTooLong)
	assert.Equal(t, "Password must be at least 6 characters", apperr.MessageOf(ErrPasswordTooShort))
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.Generate("user-1")
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestTokenRejections(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	token, err := m.Generate("user-1")
	require.NoError(t, err)

	t.Run("other key", func(t *testing.T) {
		_, err := NewTokenManager("other-secret", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokenManager("test-secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Parse(none)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRequireRole(t *testing.T) {
	admin := &model.User{Role: model.RoleAdmin}
	user := &model.User{Role: model.RoleUser}

	assert.NoError(t, RequireRole(admin, model.RoleAdmin))
	assert.NoError(t, RequireRole(user, model.RoleUser))

	err := RequireRole(user, model.RoleAdmin)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, "Access denied. Admin only.", apperr.MessageOf(err))

	assert.Error(t, RequireRole(nil, model.RoleAdmin))
}

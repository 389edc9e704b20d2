package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokyojung/internal/core"
	"tokyojung/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret", nil)

	user := &models.User{ID: 7, Email: "cashier@tokyojung.local", Role: models.RoleCashier}
	token, err := svc.mintToken(user)
	require.NoError(t, err)

	principal := svc.Principal(token)
	require.NotNil(t, principal)
	assert.Equal(t, int64(7), principal.UserID)
	assert.Equal(t, "cashier@tokyojung.local", principal.Email)
	assert.Equal(t, models.RoleCashier, principal.Role)
}

func TestPrincipalRejectsBadTokens(t *testing.T) {
	svc := NewService("test-secret", nil)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredToken, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	otherSecret, err := NewService("other-secret", nil).mintToken(&models.User{ID: 1})
	require.NoError(t, err)

	// alg=none tokens must never resolve.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims{UserID: 1})
	unsignedToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"expired", expiredToken},
		{"wrong secret", otherSecret},
		{"unsigned", unsignedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, svc.Principal(tt.token))
		})
	}
}

func TestAuthorize(t *testing.T) {
	admin := &models.Principal{UserID: 1, Role: models.RoleAdmin}
	kitchen := &models.Principal{UserID: 2, Role: models.RoleKitchen}
	stranger := &models.Principal{UserID: 3, Role: models.Role("GUEST")}

	tests := []struct {
		name      string
		principal *models.Principal
		level     AccessLevel
		wantCode  core.Code
	}{
		{"public without principal", nil, Public, ""},
		{"public with principal", kitchen, Public, ""},
		{"authenticated without principal", nil, Authenticated, core.CodeUnauthorized},
		{"authenticated with principal", kitchen, Authenticated, ""},
		{"staff without principal", nil, Staff, core.CodeUnauthorized},
		{"staff with kitchen", kitchen, Staff, ""},
		{"staff with admin", admin, Staff, ""},
		{"staff with unknown role", stranger, Staff, core.CodeForbidden},
		{"admin without principal", nil, Admin, core.CodeUnauthorized},
		{"admin with kitchen", kitchen, Admin, core.CodeForbidden},
		{"admin with admin", admin, Admin, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.principal, tt.level)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, core.CodeOf(err))
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("kanom123")
	require.NoError(t, err)
	assert.NotEqual(t, "kanom123", hash)

	assert.True(t, CheckPassword("kanom123", hash))
	assert.False(t, CheckPassword("kanom124", hash))
	assert.False(t, CheckPassword("kanom123", "not-a-hash"))
}

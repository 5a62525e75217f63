package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	now := testNow
	issuer := NewTokenIssuer("secret", time.Hour, func() time.Time { return now })

	token, err := issuer.Issue("admin")
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, testNow.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())

	t.Run("expired", func(t *testing.T) {
		now = testNow.Add(2 * time.Hour)
		defer func() { now = testNow }()
		_, err := issuer.Verify(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("other", time.Hour, func() time.Time { return now })
		_, err := other.Verify(token)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.Error(t, err)
	})
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, func() time.Time { return testNow })
	claims := Claims{
		Username: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	assert.Error(t, err)
}

func TestTokenIssuer_RequiresUsername(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, func() time.Time { return testNow })
	token, err := issuer.Issue("")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.EqualError(t, err, "token has no username")
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/events?token=from-query", nil)
	assert.Equal(t, "from-query", tokenFromRequest(req))

	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", tokenFromRequest(req))

	req = httptest.NewRequest(http.MethodGet, "/events", nil)
	assert.Empty(t, tokenFromRequest(req))
}

func TestRequireToken(t *testing.T) {
	env := newTestEnv(t, testConfig(), testCredentials(t))

	var user string
	h := env.server.RequireToken(func(w http.ResponseWriter, r *http.Request) {
		user, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	w = httptest.NewRecorder()
	h(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	token, err := env.server.tokens.Issue(testUser)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	h(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testUser, user)
}

func TestRequireToken_DevMode(t *testing.T) {
	env := newTestEnv(t, testConfig(), nil)
	called := false
	h := env.server.RequireToken(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

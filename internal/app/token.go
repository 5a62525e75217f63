package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Claims carried by API tokens
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. now defaults to time.Now.
func NewTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue returns a signed token for username.
func (t *TokenIssuer) Issue(username string) (string, error) {
	issued := t.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and requires a username claim.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Username == "" {
		return nil, errors.New("token has no username")
	}
	return claims, nil
}

type userKey struct{}

// UserFromContext returns the authenticated username, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(userKey{}).(string)
	return user, ok
}

// tokenFromRequest reads "Authorization: Bearer <token>", then ?token=.
// EventSource clients cannot set headers, hence the query fallback.
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if _, token, ok := strings.Cut(header, " "); ok && token != "" {
			return token
		}
	}
	return r.URL.Query().Get("token")
}

// RequireToken rejects requests without a valid token: 401 when none is
// sent, 403 when it does not verify. Without credentials (dev mode) every
// request passes.
func (s *Server) RequireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.creds == nil {
			next(w, r)
			return
		}

		token := tokenFromRequest(r)
		if token == "" {
			s.logger.Debug("No token provided", zap.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			s.logger.Info("Token verification failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, claims.Username)
		next(w, r.WithContext(ctx))
	}
}

// Package authn issues and verifies API bearer tokens.
package authn

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/server/httpx"
)

// DefaultTokenTTL bounds how long an issued token stays valid.
const DefaultTokenTTL = 12 * time.Hour

const issuer = "talio"

type contextKey struct{}

// Claims carries the authenticated user identity.
type Claims struct {
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New builds an authenticator over a shared HS256 secret.
func New(secret string, ttl time.Duration, now func() time.Time) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("auth secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// Issue signs a token for the given user.
func (a *Authenticator) Issue(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	moment := a.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(moment),
			ExpiresAt: jwt.NewNumericDate(moment.Add(a.ttl)),
		},
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a signed token and returns the user it identifies.
func (a *Authenticator) Verify(raw string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", apperrors.Newf(apperrors.CodeAuthInvalidToken, "invalid token: %v", err)
	}
	userID := strings.TrimSpace(claims.Subject)
	if userID == "" {
		return "", apperrors.New(apperrors.CodeAuthInvalidToken, "token subject is empty")
	}
	return userID, nil
}

// Middleware enforces a Bearer token and stores the user on the context.
func (a *Authenticator) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			scheme, raw, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				httpx.WriteError(w, apperrors.New(apperrors.CodeAuthMissingToken, "a bearer token is required"))
				return
			}
			userID, err := a.Verify(raw)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
		})
	}
}

// WithUser returns a context carrying the authenticated user id.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, strings.TrimSpace(userID))
}

// UserID returns the authenticated user id, if any.
func UserID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	userID, _ := ctx.Value(contextKey{}).(string)
	return userID
}

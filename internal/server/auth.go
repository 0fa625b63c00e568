package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
)

// DevCaller is the identity of every request when no JWT secret is
// configured.
var DevCaller = model.Caller{ID: "dev", Role: model.RoleUser}

var (
	errNoToken      = errors.New("missing bearer token")
	errNoSubject    = errors.New("token has no subject")
	errUnknownRole  = errors.New("token carries an unknown role")
	errEmptySecret  = errors.New("jwt secret is empty")
	errBadAuthShape = errors.New("authorization header must be \"Bearer <token>\"")
)

// Claims are the bearer token claims. The subject is the caller id.
type Claims struct {
	Role model.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for caller. ttl <= 0 issues a token
// without expiry.
func IssueToken(secret string, caller model.Caller, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errEmptySecret
	}
	now := time.Now()
	claims := Claims{
		Role: caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  caller.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type authenticator struct {
	secret []byte
}

func newAuthenticator(secret string) *authenticator {
	return &authenticator{secret: []byte(secret)}
}

func (a *authenticator) callerFrom(r *http.Request) (model.Caller, error) {
	if len(a.secret) == 0 {
		return DevCaller, nil
	}
	raw, err := bearerToken(r)
	if err != nil {
		return model.Caller{}, err
	}

	var claims Claims
	_, err = jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return model.Caller{}, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return model.Caller{}, errNoSubject
	}

	role := claims.Role
	switch role {
	case "":
		role = model.RoleUser
	case model.RoleUser, model.RoleAdmin:
	default:
		return model.Caller{}, errUnknownRole
	}
	return model.Caller{ID: claims.Subject, Role: role}, nil
}

// bearerToken reads the Authorization header, or the token query parameter
// for WebSocket clients that cannot set headers.
func bearerToken(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", errBadAuthShape
		}
		return strings.TrimSpace(token), nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", errNoToken
}

type callerKey struct{}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller model.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller stored by the auth middleware.
func CallerFrom(ctx context.Context) (model.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(model.Caller)
	return c, ok
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := s.auth.callerFrom(r)
		if err != nil {
			s.logger.Warn("rejecting request", logging.Field{Key: "path", Value: r.URL.Path}, logging.Err(err))
			w.Header().Set("WWW-Authenticate", `Bearer realm="sitecheck"`)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"gitlab.com/subshare/subshare/internal/logger"
)

// Gateway headers trusted when no session secret is configured.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

type contextKey string

const sessionKey contextKey = "session"

// tokenLeeway tolerates clock skew between the gateway and this service.
const tokenLeeway = 30 * time.Second

// Session identifies the member making a request. IsAdmin and UnreadSupport
// are only as fresh as the last Refresh.
type Session struct {
	UserID        string
	Email         string
	IsAdmin       bool
	UnreadSupport int
	RefreshedAt   time.Time
}

// AdminChecker answers role checks for accounts.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// UnreadCounter counts unread support messages.
type UnreadCounter interface {
	CountUnread(ctx context.Context) (int, error)
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// SessionManager builds sessions from request credentials.
type SessionManager struct {
	secret []byte
	admins AdminChecker
	unread UnreadCounter
	now    func() time.Time
	log    zerolog.Logger
}

// NewSessionManager creates a SessionManager. With an empty secret the
// gateway headers are trusted as is.
func NewSessionManager(secret string, admins AdminChecker, unread UnreadCounter) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		admins: admins,
		unread: unread,
		now:    time.Now,
		log:    logger.Component("session"),
	}
}

// IssueToken signs a bearer token for userID valid for ttl.
func (m *SessionManager) IssueToken(userID, email string, ttl time.Duration) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("session secret is not configured")
	}
	now := m.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// identify returns the caller's session, nil for anonymous requests.
func (m *SessionManager) identify(r *http.Request) (*Session, error) {
	if len(m.secret) == 0 {
		userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if userID == "" {
			return nil, nil
		}
		return &Session{UserID: userID, Email: strings.TrimSpace(r.Header.Get(HeaderUserEmail))}, nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, errors.New("expected Bearer token")
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("session token has no subject")
	}
	return &Session{UserID: claims.Subject, Email: claims.Email}, nil
}

// Middleware attaches the caller's session, with the admin flag resolved, to
// the request context. Requests with bad credentials are rejected.
func (m *SessionManager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := m.identify(r)
			if err != nil {
				m.log.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("session rejected")
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired session")
				return
			}
			if s == nil {
				next.ServeHTTP(w, r)
				return
			}

			s.IsAdmin = m.isAdmin(r.Context(), s.UserID)
			s.RefreshedAt = m.now()
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, s)))
		})
	}
}

func (m *SessionManager) isAdmin(ctx context.Context, userID string) bool {
	if m.admins == nil {
		return false
	}
	ok, err := m.admins.IsAdmin(ctx, userID)
	if err != nil {
		m.log.Error().Err(err).Str("user_hash", logger.HashAccountID(userID)).Msg("admin check failed")
		return false
	}
	return ok
}

// Refresh re-reads the admin flag and, for admins, the unread support count.
func (m *SessionManager) Refresh(ctx context.Context, s *Session) error {
	s.IsAdmin = m.isAdmin(ctx, s.UserID)
	s.UnreadSupport = 0
	if s.IsAdmin && m.unread != nil {
		n, err := m.unread.CountUnread(ctx)
		if err != nil {
			return fmt.Errorf("failed to count unread support messages: %w", err)
		}
		s.UnreadSupport = n
	}
	s.RefreshedAt = m.now()
	return nil
}

// SessionFromContext returns the request's session or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from anyone but admins.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := SessionFromContext(r.Context())
		if s == nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
			return
		}
		if !s.IsAdmin {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

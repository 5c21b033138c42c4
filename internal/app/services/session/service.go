// Package session manages the authenticated identity: the current user, its
// bearer/refresh tokens and their persisted representation. All identity
// verification is delegated to the backend.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gazexpress/gazexpress/internal/app/domain/user"
	"github.com/gazexpress/gazexpress/internal/app/storage"
	"github.com/gazexpress/gazexpress/pkg/logger"
)

// ErrAuthenticationFailed is the single error class surfaced for any failed
// login, registration or refresh. The underlying cause is logged, not
// propagated: the caller only needs success or failure.
var ErrAuthenticationFailed = errors.New("authentication failed")

// API is the slice of the backend the session depends on.
type API interface {
	Login(ctx context.Context, email, password string) (user.TokenPair, error)
	Profile(ctx context.Context, access string) (user.User, error)
	Register(ctx context.Context, reg user.Registration) error
	Refresh(ctx context.Context, refresh string) (string, error)
}

// Service holds the session state. The user record and token pair are
// present together or absent together; no operation ever commits one
// without the other.
type Service struct {
	api API
	kv  storage.KV
	log *logger.Logger

	mu     sync.Mutex
	user   *user.User
	tokens *user.TokenPair
}

// New constructs an empty, unauthenticated session.
func New(api API, kv storage.KV, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("session")
	}
	return &Service{
		api: api,
		kv:  kv,
		log: log,
	}
}

// Load hydrates the session from the store. Both entries must be present
// and parsable; otherwise the session stays empty rather than half-built.
func (s *Service) Load(ctx context.Context) {
	rawTokens, errTokens := s.kv.Get(ctx, storage.TokensKey)
	rawUser, errUser := s.kv.Get(ctx, storage.UserKey)
	if errTokens != nil || errUser != nil {
		if (errTokens != nil && errTokens != storage.ErrNotFound) ||
			(errUser != nil && errUser != storage.ErrNotFound) {
			s.log.WithError(errors.Join(errTokens, errUser)).Warn("load persisted session")
		}
		return
	}

	var tokens user.TokenPair
	var u user.User
	if err := json.Unmarshal([]byte(rawTokens), &tokens); err != nil {
		s.log.WithError(err).Warn("decode persisted tokens, staying signed out")
		return
	}
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		s.log.WithError(err).Warn("decode persisted user, staying signed out")
		return
	}

	s.mu.Lock()
	s.tokens = &tokens
	s.user = &u
	s.mu.Unlock()
}

// Login authenticates with the backend: the token call first, then the
// profile call with the fresh access token. Nothing is committed unless
// both succeed; tokens from a half-completed flow are discarded.
func (s *Service) Login(ctx context.Context, email, password string) error {
	tokens, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.log.WithError(err).WithField("email", email).Warn("login token request failed")
		return ErrAuthenticationFailed
	}

	u, err := s.api.Profile(ctx, tokens.Access)
	if err != nil {
		s.log.WithError(err).WithField("email", email).Warn("login profile request failed")
		return ErrAuthenticationFailed
	}

	s.commit(ctx, tokens, u)
	s.log.WithField("user_id", u.ID).WithField("role", u.Role).Info("signed in")
	return nil
}

// Register creates the account, then runs the identical login flow with the
// just-registered credentials. A registration that succeeds server side but
// whose follow-up login fails leaves the local session empty; the account
// exists remotely and the user signs in manually.
func (s *Service) Register(ctx context.Context, reg user.Registration) error {
	if err := s.api.Register(ctx, reg); err != nil {
		s.log.WithError(err).WithField("email", reg.Email).Warn("registration failed")
		return ErrAuthenticationFailed
	}
	return s.Login(ctx, reg.Email, reg.Password)
}

// Logout clears the session. Storage deletes are best-effort; from the
// caller's perspective logout always succeeds.
func (s *Service) Logout(ctx context.Context) {
	if err := s.kv.Delete(ctx, storage.TokensKey); err != nil {
		s.log.WithError(err).Warn("delete persisted tokens")
	}
	if err := s.kv.Delete(ctx, storage.UserKey); err != nil {
		s.log.WithError(err).Warn("delete persisted user")
	}

	s.mu.Lock()
	s.tokens = nil
	s.user = nil
	s.mu.Unlock()
}

// UpdateUser replaces the user record and persists it. Tokens are untouched.
func (s *Service) UpdateUser(ctx context.Context, u user.User) {
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()

	encoded, err := json.Marshal(u)
	if err != nil {
		s.log.WithError(err).Warn("encode user for persistence")
		return
	}
	if err := s.kv.Set(ctx, storage.UserKey, string(encoded)); err != nil {
		s.log.WithError(err).Warn("persist user")
	}
}

// Refresh exchanges the refresh token for a new access token and persists
// the rotated pair. Without a session it reports authentication failure.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.tokens == nil {
		s.mu.Unlock()
		return ErrAuthenticationFailed
	}
	refresh := s.tokens.Refresh
	s.mu.Unlock()

	access, err := s.api.Refresh(ctx, refresh)
	if err != nil {
		s.log.WithError(err).Warn("token refresh failed")
		return ErrAuthenticationFailed
	}

	s.mu.Lock()
	if s.tokens == nil {
		// Logged out while the refresh was in flight; drop the result.
		s.mu.Unlock()
		return ErrAuthenticationFailed
	}
	s.tokens.Access = access
	rotated := *s.tokens
	s.mu.Unlock()

	s.persistTokens(ctx, rotated)
	return nil
}

// IsAuthenticated reports whether both a token pair and a user record are
// held in memory.
func (s *Service) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens != nil && s.user != nil
}

// User returns the current user record, or nil when signed out.
func (s *Service) User() *user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// AccessToken returns the current access token, or empty when signed out.
func (s *Service) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return ""
	}
	return s.tokens.Access
}

// AccessExpiresAt reads the exp claim from the access token without
// verifying the signature; verification is the backend's job, the client
// only schedules refreshes with it. The zero time means no session or no
// readable claim.
func (s *Service) AccessExpiresAt() time.Time {
	access := s.AccessToken()
	if access == "" {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// commit installs the authenticated state and persists both entries.
// Storage failures are logged and swallowed: the network flow succeeded and
// the in-memory session is authoritative.
func (s *Service) commit(ctx context.Context, tokens user.TokenPair, u user.User) {
	s.mu.Lock()
	s.tokens = &tokens
	s.user = &u
	s.mu.Unlock()

	s.persistTokens(ctx, tokens)

	encoded, err := json.Marshal(u)
	if err != nil {
		s.log.WithError(err).Warn("encode user for persistence")
		return
	}
	if err := s.kv.Set(ctx, storage.UserKey, string(encoded)); err != nil {
		s.log.WithError(err).Warn("persist user")
	}
}

func (s *Service) persistTokens(ctx context.Context, tokens user.TokenPair) {
	encoded, err := json.Marshal(tokens)
	if err != nil {
		s.log.WithError(err).Warn("encode tokens for persistence")
		return
	}
	if err := s.kv.Set(ctx, storage.TokensKey, string(encoded)); err != nil {
		s.log.WithError(err).Warn("persist tokens")
	}
}

// Package auth owns the bearer token and the authenticated user's
// profile summary. The request gateway reads the token from here on
// every call.
package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cleanhub/cleanhub-go/gateway"
	"github.com/cleanhub/cleanhub-go/internal/pkg/validator"
	"github.com/cleanhub/cleanhub-go/store"
)

// Session is the auth store. State machine:
// anonymous --login success--> authenticated --logout--> anonymous.
// Any 401 from the backend also forces the session back to anonymous.
type Session struct {
	store.Cell

	gw    *gateway.Gateway
	cache *TokenCache

	user      *User
	token     string
	expiresAt time.Time
}

// NewSession creates an anonymous session. A nil cache disables
// persistence.
func NewSession(cache *TokenCache) *Session {
	return &Session{cache: cache}
}

// Bind attaches the gateway and registers the forced-logout hook for
// 401 responses. Must be called once during wiring, before use.
func (s *Session) Bind(gw *gateway.Gateway) {
	s.gw = gw
	gw.SetOnUnauthorized(func() {
		log.Warn().Msg("Backend returned 401, clearing session")
		s.clearLocal()
	})
}

// Token implements gateway.TokenSource.
func (s *Session) Token() string {
	var token string
	s.Read(func() { token = s.token })
	return token
}

// User returns a copy of the authenticated user, or nil when
// anonymous.
func (s *Session) User() *User {
	var user *User
	s.Read(func() {
		if s.user != nil {
			u := *s.user
			user = &u
		}
	})
	return user
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Valid reports whether a token is held and, when the token carries a
// readable exp claim, that it has not passed yet.
func (s *Session) Valid() bool {
	var token string
	var expiresAt time.Time
	s.Read(func() {
		token = s.token
		expiresAt = s.expiresAt
	})
	if token == "" {
		return false
	}
	if !expiresAt.IsZero() && time.Now().After(expiresAt) {
		return false
	}
	return true
}

// Restore loads the persisted token and user id from the cache. The
// profile itself is refetched by the caller when needed. A cached
// token whose exp claim has already passed is dropped and reported as
// ErrSessionExpired so the caller can prompt a fresh login.
func (s *Session) Restore() error {
	cached, err := s.cache.Load()
	if err != nil {
		return err
	}
	if cached == nil {
		return nil
	}

	if exp, ok := tokenExpiry(cached.Token); ok && time.Now().After(exp) {
		if err := s.cache.Clear(); err != nil {
			log.Warn().Err(err).Msg("Failed to clear expired session cache")
		}
		return ErrSessionExpired
	}

	s.Mutate(func() {
		s.token = cached.Token
		s.user = &User{ID: cached.UserID}
		if exp, ok := tokenExpiry(cached.Token); ok {
			s.expiresAt = exp
		}
	})
	return nil
}

// Login authenticates against POST /login. On success the token is
// persisted and the in-memory user and token are replaced; on failure
// the previous state is left untouched and the error is both recorded
// and returned.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	req := LoginRequest{Email: email, Password: password}
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	token := s.Begin()
	payload, err := s.gw.SendAnon(ctx, http.MethodPost, "/login", req)
	if err != nil {
		if gateway.IsUnauthorized(err) {
			err = ErrInvalidCredentials
		}
		s.Settle(token, err, nil)
		return nil, err
	}

	var resp authResponse
	if decodeErr := payload.Decode(&resp); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode login response", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.token = resp.Token
		s.user = resp.User
		s.expiresAt = time.Time{}
		if exp, ok := tokenExpiry(resp.Token); ok {
			s.expiresAt = exp
		}
	})

	s.persist(resp)
	log.Info().Str("email", email).Msg("Logged in")
	return s.User(), nil
}

// Register signs up a new account against POST /register. The backend
// answers with the same token envelope as login, so a successful
// registration leaves the session authenticated.
func (s *Session) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	token := s.Begin()
	payload, err := s.gw.SendAnon(ctx, http.MethodPost, "/register", req)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var resp authResponse
	if decodeErr := payload.Decode(&resp); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode register response", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.token = resp.Token
		s.user = resp.User
		s.expiresAt = time.Time{}
		if exp, ok := tokenExpiry(resp.Token); ok {
			s.expiresAt = exp
		}
	})

	s.persist(resp)
	return s.User(), nil
}

// Logout notifies POST /auth/logout and clears the session. Local
// state and the cached token are cleared on logout intent regardless
// of the backend outcome, so a failed call can never strand a token.
func (s *Session) Logout(ctx context.Context) error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}

	token := s.Begin()
	_, err := s.gw.Send(ctx, http.MethodPost, "/auth/logout", nil)
	s.Settle(token, err, nil)

	s.clearLocal()
	if err != nil {
		log.Warn().Err(err).Msg("Logout call failed, session cleared anyway")
		return err
	}
	log.Info().Msg("Logged out")
	return nil
}

func (s *Session) persist(resp authResponse) {
	cached := CachedSession{Token: resp.Token}
	if resp.User != nil {
		cached.UserID = resp.User.ID
	}
	if err := s.cache.Save(cached); err != nil {
		log.Warn().Err(err).Msg("Failed to persist session")
	}
}

func (s *Session) clearLocal() {
	s.Mutate(func() {
		s.token = ""
		s.user = nil
		s.expiresAt = time.Time{}
	})
	if err := s.cache.Clear(); err != nil {
		log.Warn().Err(err).Msg("Failed to clear session cache")
	}
}

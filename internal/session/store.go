// Package session holds the signed-in identity and its tokens, persisted in
// a storage.KeyValueStore so a session survives process restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"finstudent/internal/core"
	"finstudent/internal/log"
	"finstudent/internal/resources"
	"finstudent/internal/storage"
)

// Authenticator is the slice of the auth resource the store calls.
type Authenticator interface {
	Refresh(ctx context.Context, refreshToken string) (resources.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
}

// Store moves between anonymous and authenticated. All methods are safe
// for concurrent use.
type Store struct {
	mu     sync.Mutex
	kv     storage.KeyValueStore
	auth   Authenticator
	logger *log.Logger

	user   *core.User
	closed bool
}

func NewStore(kv storage.KeyValueStore, auth Authenticator, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{
		kv:     kv,
		auth:   auth,
		logger: logger.WithComponent(log.ComponentSession),
	}
}

// User returns the signed-in user.
func (s *Store) User() (core.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return core.User{}, false
	}
	return *s.user, true
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// Login stores the identity and tokens returned by login or register. An
// empty refresh token removes any refresh token left by an earlier session.
// Tokens are written before the user; when any write fails every session
// key is removed so a later Init cannot restore a user without tokens.
func (s *Store) Login(ctx context.Context, user core.User, access, refresh string) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistLogin(ctx, string(payload), access, refresh); err != nil {
		s.user = nil
		if derr := s.kv.Delete(ctx, storage.KeyUser, storage.KeyAuthToken, storage.KeyAuthRefresh); derr != nil {
			s.logger.Error("Failed to roll back partial session", log.FieldError, derr)
		}
		return err
	}

	s.user = &user
	s.logger.Info("Signed in",
		log.FieldOperation, log.OpLogin,
		log.FieldUserID, user.ID,
		log.FieldEmail, user.Email)
	return nil
}

func (s *Store) persistLogin(ctx context.Context, user, access, refresh string) error {
	if access != "" {
		if err := s.kv.Set(ctx, storage.KeyAuthToken, access); err != nil {
			return fmt.Errorf("save access token: %w", err)
		}
	}
	var err error
	if refresh != "" {
		err = s.kv.Set(ctx, storage.KeyAuthRefresh, refresh)
	} else {
		err = s.kv.Delete(ctx, storage.KeyAuthRefresh)
	}
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyUser, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// Logout clears the local session, then tells the server using the access
// token held before clearing. Server failures are logged only. Calling
// Logout without a session is a no-op.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	token, had := s.clearLocked(ctx)
	s.mu.Unlock()

	if had {
		s.logger.Info("Signed out", log.FieldOperation, log.OpLogout)
	}
	s.notifyLogout(ctx, token)
}

// RefreshAccessToken exchanges the refresh token for a new access token.
// It returns false without touching the session when there is no refresh
// token. Any failure to refresh signs the user out. The lock is not held
// during the network call; if the session changed meanwhile (logout or a
// rotation by another refresh) the outcome is dropped.
func (s *Store) RefreshAccessToken(ctx context.Context) bool {
	s.mu.Lock()
	refresh, err := s.kv.Get(ctx, storage.KeyAuthRefresh)
	s.mu.Unlock()
	if err != nil || refresh == "" {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Failed to read refresh token", log.FieldError, err)
		}
		return false
	}

	pair, err := s.auth.Refresh(ctx, refresh)

	s.mu.Lock()
	if current, gerr := s.kv.Get(ctx, storage.KeyAuthRefresh); gerr != nil || current != refresh {
		s.mu.Unlock()
		s.logger.Debug("Session changed during token refresh, discarding result", log.FieldOperation, log.OpRefresh)
		return false
	}
	if err == nil {
		err = s.saveTokens(ctx, pair)
	}
	if err != nil {
		s.logger.Warn("Token refresh failed, signing out",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err)
		token, _ := s.clearLocked(ctx)
		s.mu.Unlock()
		s.notifyLogout(ctx, token)
		return false
	}
	s.mu.Unlock()

	s.logger.Debug("Access token refreshed", log.FieldOperation, log.OpRefresh, "rotated", pair.Refresh != "")
	return true
}

// Init restores a persisted session and, when a refresh token is stored,
// refreshes the access token right away. A persisted user that cannot be
// decoded is discarded.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()

	raw, err := s.kv.Get(ctx, storage.KeyUser)
	if errors.Is(err, storage.ErrNotFound) {
		s.user = nil
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("read persisted user: %w", err)
	}

	var user core.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("Discarding unreadable persisted session", log.FieldOperation, log.OpRestore, log.FieldError, err)
		s.clearLocked(ctx)
		s.mu.Unlock()
		return nil
	}
	s.user = &user

	_, refreshErr := s.kv.Get(ctx, storage.KeyAuthRefresh)
	s.mu.Unlock()

	s.logger.Debug("Session restored", log.FieldOperation, log.OpRestore, log.FieldUserID, user.ID)
	if refreshErr == nil {
		s.RefreshAccessToken(ctx)
	}
	return nil
}

// Close releases the underlying storage. Later calls are no-ops.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.user = nil
	return s.kv.Close()
}

func (s *Store) saveTokens(ctx context.Context, pair resources.TokenPair) error {
	if err := s.kv.Set(ctx, storage.KeyAuthToken, pair.Access); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	if pair.Refresh != "" {
		if err := s.kv.Set(ctx, storage.KeyAuthRefresh, pair.Refresh); err != nil {
			return fmt.Errorf("save refresh token: %w", err)
		}
	}
	return nil
}

// clearLocked drops the identity and the persisted keys and returns the
// access token that was stored. had reports whether anything was signed in.
func (s *Store) clearLocked(ctx context.Context) (token string, had bool) {
	token, _ = s.kv.Get(ctx, storage.KeyAuthToken)
	had = s.user != nil || token != ""
	s.user = nil
	if err := s.kv.Delete(ctx, storage.KeyUser, storage.KeyAuthToken, storage.KeyAuthRefresh); err != nil {
		s.logger.Error("Failed to clear persisted session", log.FieldError, err)
	}
	return token, had
}

func (s *Store) notifyLogout(ctx context.Context, token string) {
	if token == "" || s.auth == nil {
		return
	}
	if err := s.auth.Logout(ctx, token); err != nil {
		s.logger.Warn("Server logout notification failed", log.FieldOperation, log.OpLogout, log.FieldError, err)
	}
}

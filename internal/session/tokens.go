package session

import (
	"context"
	"errors"

	"finstudent/internal/log"
	"finstudent/internal/storage"
)

// Tokens reads the persisted access token for the API client. It is
// separate from Store so the client can be built before the session.
type Tokens struct {
	kv     storage.KeyValueStore
	logger *log.Logger
}

func NewTokens(kv storage.KeyValueStore, logger *log.Logger) *Tokens {
	if logger == nil {
		logger = log.Discard()
	}
	return &Tokens{kv: kv, logger: logger.WithComponent(log.ComponentSession)}
}

// AccessToken returns the stored access token, or "" when signed out.
func (t *Tokens) AccessToken(ctx context.Context) string {
	token, err := t.kv.Get(ctx, storage.KeyAuthToken)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			t.logger.Warn("Failed to read access token", log.FieldError, err)
		}
		return ""
	}
	return token
}

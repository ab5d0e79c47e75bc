// Package storage persists the client's durable state: the session and the
// user's preferences. It fills the role browser localStorage plays for the web
// front-end.
package storage

import (
	"context"
	"errors"
)

// Keys used by the session store and the currency preference.
const (
	KeyUser        = "user"
	KeyAuthToken   = "auth_token"
	KeyAuthRefresh = "auth_refresh"
	KeyCurrency    = "currency"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("key not found")

// KeyValueStore is a string key/value store. Writes are single-key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes the given keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

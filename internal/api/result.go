package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Meta carries the pagination envelope of a DRF list response.
type Meta struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// HasNext reports whether the server advertised a further page.
func (m *Meta) HasNext() bool {
	return m != nil && m.Next != nil && *m.Next != ""
}

// Result is the normalized outcome of every API call. On success Data holds
// the (unwrapped) JSON payload; on failure Error holds a human-readable
// message and Status the HTTP status when a response was received.
type Result struct {
	Success bool
	Data    json.RawMessage
	Meta    *Meta
	Error   string
	Status  int
}

// Err returns nil for a successful result and an *Error otherwise.
func (r *Result) Err() error {
	if r == nil {
		return &Error{Message: "no response"}
	}
	if r.Success {
		return nil
	}
	return &Error{Status: r.Status, Message: r.Error}
}

// Error is the error resource clients return for failed calls. Status is zero
// for transport failures.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return e.Message + " (status " + strconv.Itoa(e.Status) + ")"
}

// IsStatus reports whether err is an *Error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Decode unmarshals the data of a successful result into T. A failed result
// returns its *Error; an empty body decodes to the zero value.
func Decode[T any](r *Result) (T, error) {
	var out T
	if err := r.Err(); err != nil {
		return out, err
	}
	if len(r.Data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(r.Data, &out); err != nil {
		return out, &Error{Status: r.Status, Message: fmt.Sprintf("unexpected response shape: %v", err)}
	}
	return out, nil
}

func failure(status int, message string) *Result {
	return &Result{Success: false, Error: message, Status: status}
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Routing keys on the auth exchange.
const (
	KeyUserRegistered = "user.registered"
	KeyUserLoggedIn   = "user.loggedin"
)

// ErrMalformed marks a delivery that can never be processed; it is dropped instead of requeued.
var ErrMalformed = errors.New("malformed event")

type Publisher interface {
	Publish(ctx context.Context, key string, event any, reqID string) error
	Close() error
}

type NoopPub struct{}

func NewNoop() Publisher { return NoopPub{} }

func (NoopPub) Publish(context.Context, string, any, string) error { return nil }
func (NoopPub) Close() error                                       { return nil }

type UserRegistered struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Method string `json:"method"` // "local" or a provider name
}

type UserLoggedIn struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Method string `json:"method"`
}

// Decode unmarshals body into T, reporting ErrMalformed on failure.
func Decode[T any](body []byte) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

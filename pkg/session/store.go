// Package session stores one UIState per client session.
package session

import (
	"context"
	"errors"

	"github.com/segmentio/ksuid"

	"storyteller/pkg/state"
)

var ErrNotFound = errors.New("session not found")

// Store persists session state. Update applies fn atomically with respect to
// other updates of the same session; when fn returns an error nothing is
// written and the current state is returned alongside that error.
type Store interface {
	Create(ctx context.Context) (string, state.UIState, error)
	Get(ctx context.Context, id string) (state.UIState, error)
	Update(ctx context.Context, id string, fn func(*state.UIState) error) (state.UIState, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

func newID() string {
	return ksuid.New().String()
}

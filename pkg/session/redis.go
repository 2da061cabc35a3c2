package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"storyteller/pkg/state"
)

const (
	keyPrefix = "storyteller:session:"

	// Optimistic transactions retried on concurrent modification.
	maxTxAttempts = 10
)

// RedisStore keeps sessions as JSON strings so that several server instances
// can share them. Updates use WATCH/MULTI so concurrent writers never lose
// each other's changes.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	log *log.Logger
}

func NewRedisStore(redisURL string, ttl time.Duration, logger *log.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RedisStore{
		rdb: redis.NewClient(opt),
		ttl: max(ttl, 0),
		log: logger,
	}, nil
}

// WaitForConnection pings Redis until it answers or attempts run out.
func (r *RedisStore) WaitForConnection(ctx context.Context, attempts uint, delay time.Duration) error {
	return retry.Do(
		func() error {
			return r.rdb.Ping(ctx).Err()
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.log.Warn("redis not ready", "attempt", n+1, "error", err)
		}),
	)
}

func (r *RedisStore) key(id string) string {
	return keyPrefix + id
}

func (r *RedisStore) Create(ctx context.Context) (string, state.UIState, error) {
	id := newID()
	st := state.New()
	data, err := json.Marshal(st)
	if err != nil {
		return "", state.UIState{}, err
	}
	if err := r.rdb.Set(ctx, r.key(id), data, r.ttl).Err(); err != nil {
		return "", state.UIState{}, fmt.Errorf("failed to store session: %w", err)
	}
	return id, st, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (state.UIState, error) {
	return r.load(ctx, r.rdb, id)
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) load(ctx context.Context, c getter, id string) (state.UIState, error) {
	raw, err := c.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return state.UIState{}, ErrNotFound
	}
	if err != nil {
		return state.UIState{}, fmt.Errorf("failed to load session: %w", err)
	}
	var st state.UIState
	if err := json.Unmarshal(raw, &st); err != nil {
		return state.UIState{}, fmt.Errorf("corrupt session %s: %w", id, err)
	}
	return st, nil
}

func (r *RedisStore) Update(ctx context.Context, id string, fn func(*state.UIState) error) (state.UIState, error) {
	key := r.key(id)
	var out state.UIState

	txf := func(tx *redis.Tx) error {
		current, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		out = current

		next := current
		if err := fn(&next); err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	}

	for range maxTxAttempts {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return out, err
	}
	return out, fmt.Errorf("session %s: too much contention", id)
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.rdb.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}

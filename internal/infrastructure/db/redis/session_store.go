package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kalado/authentication/internal/core/domain"
)

const defaultKeyPrefix = "auth"

// SessionStore keeps issued tokens in Redis.
// Key format:
//
//	<prefix>:session:<token>     -> subject id, expires with the token
//	<prefix>:subject:<id>:tokens -> set of the subject's tokens
type SessionStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewSessionStore wraps client. An empty prefix falls back to "auth".
func NewSessionStore(client *redis.Client, prefix string, timeout time.Duration) *SessionStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &SessionStore{client: client, prefix: prefix, timeout: timeout}
}

// Save records token for subjectID. Tokens share one TTL, so refreshing the
// index expiry on every save keeps it alive as long as its newest token.
func (s *SessionStore) Save(ctx context.Context, token string, subjectID int64, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	index := s.subjectKey(subjectID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(token), subjectID, ttl)
		pipe.SAdd(ctx, index, token)
		pipe.Expire(ctx, index, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) SubjectOf(ctx context.Context, token string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Get(ctx, s.sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, domain.ErrSessionNotFound
		}
		return 0, fmt.Errorf("get session: %w", err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session value %q: %w", raw, err)
	}
	return id, nil
}

// Delete removes token. Deleting an unknown token is not an error.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := s.sessionKey(token)
	raw, err := s.client.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("get session: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if id, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			pipe.SRem(ctx, s.subjectKey(id), token)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteAllForSubject drops every token indexed for subjectID and returns how
// many live sessions were removed.
func (s *SessionStore) DeleteAllForSubject(ctx context.Context, subjectID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	index := s.subjectKey(subjectID)
	tokens, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, s.sessionKey(t))
	}

	var removed *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			removed = pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, index)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	if removed == nil {
		return 0, nil
	}
	return int(removed.Val()), nil
}

func (s *SessionStore) sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, token)
}

func (s *SessionStore) subjectKey(subjectID int64) string {
	return fmt.Sprintf("%s:subject:%d:tokens", s.prefix, subjectID)
}

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis failure other than a missing key.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrNotFound is returned by Get when the session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// deleteSessionScript removes one session and its index entry, prunes index entries
// whose records have already expired, and returns {deleted, live sessions left}.
const deleteSessionScript = `
local deleted = redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
local live = 0
local members = redis.call("SMEMBERS", KEYS[2])
for _, sid in ipairs(members) do
  if redis.call("EXISTS", ARGV[2] .. sid) == 1 then
    live = live + 1
  else
    redis.call("SREM", KEYS[2], sid)
  end
end
if live == 0 then
  redis.call("DEL", KEYS[2])
end
return {deleted, live}
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Store is a Redis-backed session store. It is safe for concurrent use.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session [Store] backed by the given Redis client. prefix sets the
// key namespace of session records.
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "as"
	}
	return &Store{redis: redis, prefix: prefix}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *Store) addressKey(addr common.Address) string {
	return s.prefix + "a:" + strings.ToLower(addr.Hex())
}

// Save persists sess for ttl and adds it to the address index. The index TTL is reset
// to ttl. Callers use one lifetime for every session, so the index outlives each member.
//
//	Performance: 1 MULTI/EXEC with SET + SADD + EXPIRE.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil || sess.SessionID == "" {
		return errors.New("session id required")
	}
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	addressKey := s.addressKey(sess.Address)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.SessionID), data, ttl)
		pipe.SAdd(ctx, addressKey, sess.SessionID)
		pipe.Expire(ctx, addressKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get loads a session. A missing or expired record yields [ErrNotFound].
//
//	Performance: 1 Redis GET.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sessionID

	if time.Now().Unix() >= sess.ExpiresAt {
		if _, err := s.Delete(ctx, sessionID, sess.Address); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete removes a session and reports how many live sessions addr still has.
// Deleting a missing session is not an error.
//
//	Performance: 1 Lua EVALSHA.
func (s *Store) Delete(ctx context.Context, sessionID string, addr common.Address) (int, error) {
	res, err := deleteSessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(sessionID), s.addressKey(addr)},
		sessionID,
		s.prefix+":",
	).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := res.([]interface{})
	if !ok || len(parts) != 2 {
		return 0, fmt.Errorf("%w: invalid delete script response", ErrRedisUnavailable)
	}
	live, ok := parts[1].(int64)
	if !ok {
		return 0, fmt.Errorf("%w: invalid delete script count", ErrRedisUnavailable)
	}
	return int(live), nil
}

// DeleteAllForAddress removes every session of addr and returns how many records
// existed.
//
// Not fully atomic: a session saved between the index read and the delete survives and
// expires on its own.
func (s *Store) DeleteAllForAddress(ctx context.Context, addr common.Address) (int, error) {
	addressKey := s.addressKey(addr)

	sessionIDs, err := s.redis.SMembers(ctx, addressKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	keys := make([]string, 0, len(sessionIDs))
	for _, sid := range sessionIDs {
		keys = append(keys, s.key(sid))
	}

	var delCmd *redis.IntCmd
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			delCmd = pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, addressKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if delCmd == nil {
		return 0, nil
	}
	return int(delCmd.Val()), nil
}

// LiveSessionCount returns the number of unexpired sessions indexed under addr.
//
//	Performance: 1 SMEMBERS + 1 pipelined EXISTS batch.
func (s *Store) LiveSessionCount(ctx context.Context, addr common.Address) (int, error) {
	sessionIDs, err := s.redis.SMembers(ctx, s.addressKey(addr)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(sessionIDs) == 0 {
		return 0, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.IntCmd, len(sessionIDs))
	for i, sid := range sessionIDs {
		cmds[i] = pipe.Exists(ctx, s.key(sid))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	live := 0
	for _, cmd := range cmds {
		n, err := cmd.Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		live += int(n)
	}
	return live, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

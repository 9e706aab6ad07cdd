package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wricardo/mcp-training/anomalybus/game/service"
)

const (
	defaultRedisPrefix = "anomalybus"
	redisOpTimeout     = 5 * time.Second
)

// RedisPersistence implements SessionPersistence on Redis. Each session is a
// JSON string key; a set indexes the stored IDs.
type RedisPersistence struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisPersistence connects to addr and checks the connection. A ttl of
// zero keeps sessions until they are deleted.
func NewRedisPersistence(addr, password string, db int, ttl time.Duration) (*RedisPersistence, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return NewRedisPersistenceWithClient(client, defaultRedisPrefix, ttl), nil
}

// NewRedisPersistenceWithClient wraps an existing client
func NewRedisPersistenceWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisPersistence {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisPersistence{client: client, prefix: prefix, ttl: ttl}
}

// Save stores the session and indexes its ID
func (rp *RedisPersistence) Save(session *service.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	id := strings.ToLower(session.ID)
	_, err = rp.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, rp.key(id), data, rp.ttl)
		pipe.SAdd(ctx, rp.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

// Load fetches a session. Expired keys are dropped from the index.
func (rp *RedisPersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	id = strings.ToLower(id)
	data, err := rp.client.Get(ctx, rp.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		rp.client.SRem(ctx, rp.indexKey(), id)
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return decodeSession(data)
}

// Delete removes a session and its index entry
func (rp *RedisPersistence) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	id = strings.ToLower(id)
	var del *redis.IntCmd
	_, err := rp.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, rp.key(id))
		pipe.SRem(ctx, rp.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if del.Val() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all indexed session IDs
func (rp *RedisPersistence) ListAll() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	ids, err := rp.client.SMembers(ctx, rp.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Exists checks if a session key exists
func (rp *RedisPersistence) Exists(id string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := rp.client.Exists(ctx, rp.key(strings.ToLower(id))).Result()
	return err == nil && n > 0
}

// Close closes the client
func (rp *RedisPersistence) Close() error {
	return rp.client.Close()
}

func (rp *RedisPersistence) key(id string) string {
	return rp.prefix + ":session:" + id
}

func (rp *RedisPersistence) indexKey() string {
	return rp.prefix + ":sessions"
}

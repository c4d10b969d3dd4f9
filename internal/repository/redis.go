package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"nectopoint-client/internal/models"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// RedisSessionStore keeps the snapshot under <prefix>:session with no expiry.
type RedisSessionStore struct {
	client *redis.Client
	key    string
}

func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	return &RedisSessionStore{client: client, key: prefix + ":session"}
}

func (s *RedisSessionStore) Load() (*models.SessionSnapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	payload, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshot models.SessionSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode cached session: %w", err)
	}
	return &snapshot, nil
}

// Save overwrites the key with SET, which replaces the whole value.
func (s *RedisSessionStore) Save(snapshot *models.SessionSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return s.client.Set(ctx, s.key, payload, 0).Err()
}

func (s *RedisSessionStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return s.client.Del(ctx, s.key).Err()
}

// RedisReadStateRepository stores one key per read ticket: <prefix>:read:<id>.
type RedisReadStateRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisReadStateRepository(client *redis.Client, prefix string) *RedisReadStateRepository {
	return &RedisReadStateRepository{client: client, prefix: prefix + ":read:"}
}

func (r *RedisReadStateRepository) key(ticketID int64) string {
	return r.prefix + strconv.FormatInt(ticketID, 10)
}

func (r *RedisReadStateRepository) IsRead(ticketID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	n, err := r.client.Exists(ctx, r.key(ticketID)).Result()
	return n > 0, err
}

func (r *RedisReadStateRepository) MarkRead(ticketIDs ...int64) error {
	if len(ticketIDs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	pipe := r.client.Pipeline()
	for _, id := range ticketIDs {
		pipe.Set(ctx, r.key(id), "1", 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisReadStateRepository) ReadSet(ticketIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	keys := make([]string, len(ticketIDs))
	for i, id := range ticketIDs {
		keys[i] = r.key(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, value := range values {
		if value != nil {
			result[ticketIDs[i]] = true
		}
	}
	return result, nil
}

func (r *RedisReadStateRepository) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

var (
	_ SessionStore        = (*RedisSessionStore)(nil)
	_ ReadStateRepository = (*RedisReadStateRepository)(nil)
	_ SessionStore        = (*GormSessionStore)(nil)
	_ SessionStore        = (*MemorySessionStore)(nil)
	_ ReadStateRepository = (*MemoryReadStateRepository)(nil)
)

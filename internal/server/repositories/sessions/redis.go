package sessions

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "agrocms:session:"

// RedisRepository stores each session as a hash whose key expires with the
// session, so DeleteExpired has nothing to do.
type RedisRepository struct {
	rdb redis.UniversalClient
	now func() time.Time
}

func NewRedisRepository(rdb redis.UniversalClient) *RedisRepository {
	return &RedisRepository{rdb: rdb, now: time.Now}
}

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

func redisKey(id string) string { return redisKeyPrefix + id }

func (r *RedisRepository) Create(ctx context.Context, s *models.Session) error {
	key := redisKey(s.ID)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			"user_id", s.UserID,
			"expires", s.Expires.UnixMilli(),
		)
		p.PExpireAt(ctx, key, s.Expires)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	vals, err := r.rdb.HGetAll(ctx, redisKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(vals) == 0 {
		return nil, common.ErrorNotFound
	}

	userID, err := strconv.ParseInt(vals["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", id, err)
	}
	ms, err := strconv.ParseInt(vals["expires"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", id, err)
	}

	s := &models.Session{ID: id, UserID: userID, Expires: time.UnixMilli(ms).UTC()}
	if s.Expired(r.now()) {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

// touchScript extends a live session. Checking and writing in one script
// keeps an expiring key from being recreated without its user_id.
var touchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'expires', ARGV[1])
redis.call('PEXPIREAT', KEYS[1], ARGV[1])
return 1
`)

func (r *RedisRepository) Touch(ctx context.Context, id string, expires time.Time) error {
	n, err := touchScript.Run(ctx, r.rdb, []string{redisKey(id)}, expires.UnixMilli()).Int()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op; Redis evicts keys at their deadline.
func (r *RedisRepository) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}

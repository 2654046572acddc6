package topscore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// setIfHigherScript compares and swaps atomically so concurrent completions
// cannot lower the stored value.
const setIfHigherScript = `
	local current = redis.call("get", KEYS[1])
	local candidate = tonumber(ARGV[1])
	if current == false or candidate > tonumber(current) then
		redis.call("set", KEYS[1], ARGV[1])
		return {1, candidate}
	end
	return {0, tonumber(current)}
`

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisStore keeps the best score under a single Redis string key.
type RedisStore struct {
	client redisClient
	key    string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore accepts a *redis.Client (or anything exposing Get and Eval).
func NewRedisStore(client redisClient, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Get(ctx context.Context) (int, bool, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get top score: %w", err)
	}
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse top score %q: %w", raw, err)
	}
	return score, true, nil
}

func (s *RedisStore) SetIfHigher(ctx context.Context, score int) (int, bool, error) {
	res, err := s.client.Eval(ctx, setIfHigherScript, []string{s.key}, score).Slice()
	if err != nil {
		return 0, false, fmt.Errorf("set top score: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("set top score: unexpected reply %v", res)
	}
	updated, ok1 := res[0].(int64)
	best, ok2 := res[1].(int64)
	if !ok1 || !ok2 {
		return 0, false, fmt.Errorf("set top score: unexpected reply %v", res)
	}
	return int(best), updated == 1, nil
}

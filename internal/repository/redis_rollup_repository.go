package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/godilite/wellbeing-server/internal/domain"
	"github.com/godilite/wellbeing-server/internal/repository/models"
)

const defaultRedisPrefix = "wellbeing"

// casRollupScript writes a rollup only when the stored version matches.
// KEYS: [1]=rollup hash, [2]=date index
// ARGV: [1]=expected version, [2]=new version, [3]=payload, [4]=day score, [5]=day
var casRollupScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
local expected = tonumber(ARGV[1])
if current == false then
  if expected ~= 0 then return 0 end
elseif tonumber(current) ~= expected then
  return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[2], 'data', ARGV[3])
redis.call('ZADD', KEYS[2], ARGV[4], ARGV[5])
return 1
`)

// RedisRollupRepository keeps each rollup in a hash and a per (user, feature)
// sorted set of days scored by days since the Unix epoch.
type RedisRollupRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRollupRepository returns a repository writing under prefix. An empty
// prefix uses "wellbeing".
func NewRedisRollupRepository(client *redis.Client, prefix string) *RedisRollupRepository {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisRollupRepository{client: client, prefix: prefix}
}

func (r *RedisRollupRepository) indexKey(user string, feature domain.Feature) string {
	return fmt.Sprintf("%s:days:%s:%s", r.prefix, feature, url.QueryEscape(user))
}

func (r *RedisRollupRepository) rollupKey(user string, feature domain.Feature, day string) string {
	return fmt.Sprintf("%s:rollup:%s:%s:%s", r.prefix, feature, url.QueryEscape(user), day)
}

func dayScore(t time.Time) int64 {
	return domain.DateOf(t, time.UTC).Unix() / 86400
}

func (r *RedisRollupRepository) Get(ctx context.Context, key domain.RollupKey) (domain.DailyRollup, error) {
	raw, err := r.client.HGet(ctx, r.rollupKey(key.User, key.Feature, domain.FormatDate(key.Date)), "data").Result()
	switch {
	case errors.Is(err, redis.Nil):
		return domain.DailyRollup{}, domain.ErrRollupNotFound
	case err != nil:
		return domain.DailyRollup{}, fmt.Errorf("%w: redis get %s: %v", domain.ErrStorageUnavailable, key, err)
	}
	out, err := decodeRecord([]byte(raw))
	if err != nil {
		return domain.DailyRollup{}, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return out, nil
}

func (r *RedisRollupRepository) Upsert(ctx context.Context, rollup domain.DailyRollup, expectedVersion int64) error {
	payload, err := json.Marshal(models.FromRollup(rollup))
	if err != nil {
		return fmt.Errorf("%w: encode rollup: %v", domain.ErrStorageUnavailable, err)
	}
	day := domain.FormatDate(rollup.Date)

	applied, err := casRollupScript.Run(ctx, r.client,
		[]string{r.rollupKey(rollup.User, rollup.Feature, day), r.indexKey(rollup.User, rollup.Feature)},
		strconv.FormatInt(expectedVersion, 10),
		strconv.FormatInt(rollup.Version, 10),
		payload,
		strconv.FormatInt(dayScore(rollup.Date), 10),
		day,
	).Int()
	if err != nil {
		return fmt.Errorf("%w: redis upsert %s: %v", domain.ErrStorageUnavailable, rollup.Key(), err)
	}
	if applied == 0 {
		return fmt.Errorf("%w: %s at version %d", domain.ErrConcurrentUpdateConflict, rollup.Key(), expectedVersion)
	}
	return nil
}

func (r *RedisRollupRepository) ListHistory(ctx context.Context, user string, feature domain.Feature) ([]domain.DailyRollup, error) {
	days, err := r.client.ZRevRange(ctx, r.indexKey(user, feature), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis ListHistory: %v", domain.ErrStorageUnavailable, err)
	}
	return r.load(ctx, user, feature, days)
}

func (r *RedisRollupRepository) ListRange(ctx context.Context, user string, feature domain.Feature, from, to time.Time) ([]domain.DailyRollup, error) {
	days, err := r.client.ZRangeByScore(ctx, r.indexKey(user, feature), &redis.ZRangeBy{
		Min: strconv.FormatInt(dayScore(from), 10),
		Max: strconv.FormatInt(dayScore(to), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis ListRange: %v", domain.ErrStorageUnavailable, err)
	}
	return r.load(ctx, user, feature, days)
}

// load fetches the hashes for days in one pipeline, keeping the given order.
func (r *RedisRollupRepository) load(ctx context.Context, user string, feature domain.Feature, days []string) ([]domain.DailyRollup, error) {
	if len(days) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.StringCmd, len(days))
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, day := range days {
			cmds[i] = p.HGet(ctx, r.rollupKey(user, feature, day), "data")
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: redis load rollups: %v", domain.ErrStorageUnavailable, err)
	}

	results := make([]domain.DailyRollup, 0, len(days))
	for _, cmd := range cmds {
		raw, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: redis load rollups: %v", domain.ErrStorageUnavailable, err)
		}
		rollup, err := decodeRecord([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
		results = append(results, rollup)
	}
	return results, nil
}

func decodeRecord(raw []byte) (domain.DailyRollup, error) {
	var rec models.RollupRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.DailyRollup{}, fmt.Errorf("decode rollup: %w", err)
	}
	return rec.ToRollup()
}

package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "verigate:ledger:"

// RedisJournal keeps one sorted set per address, scored by unix milliseconds.
type RedisJournal struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisJournal(ctx context.Context, redisURL string, window time.Duration) (*RedisJournal, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisJournal{client: client, ttl: window}, nil
}

func (j *RedisJournal) Close() error {
	return j.client.Close()
}

func (j *RedisJournal) Append(ctx context.Context, entry Entry) error {
	key := redisKeyPrefix + entry.Address
	millis := entry.At.UnixMilli()
	pipe := j.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(millis),
		Member: entry.SubjectID + "|" + strconv.FormatInt(millis, 10),
	})
	// the key outlives its newest member by one window
	pipe.Expire(ctx, key, j.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (j *RedisJournal) Purge(ctx context.Context, address string, cutoff time.Time) error {
	return j.client.ZRemRangeByScore(ctx, redisKeyPrefix+address, "-inf", strconv.FormatInt(cutoff.UnixMilli(), 10)).Err()
}

func (j *RedisJournal) LoadSince(ctx context.Context, cutoff time.Time) ([]Entry, error) {
	var entries []Entry
	lower := "(" + strconv.FormatInt(cutoff.UnixMilli(), 10)

	iter := j.client.Scan(ctx, 0, redisKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		address := strings.TrimPrefix(key, redisKeyPrefix)
		members, err := j.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{Min: lower, Max: "+inf"}).Result()
		if err != nil {
			return nil, err
		}
		for _, member := range members {
			raw, ok := member.Member.(string)
			if !ok {
				continue
			}
			subject, _, _ := strings.Cut(raw, "|")
			entries = append(entries, Entry{
				Address:   address,
				SubjectID: subject,
				At:        time.UnixMilli(int64(member.Score)),
			})
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

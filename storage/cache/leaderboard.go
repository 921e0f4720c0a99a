// Package cache holds Redis-backed storage: per-quiz leaderboards kept in
// sorted sets so ranking reads stay off PostgreSQL.
package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/quiz"
)

// Open connects to Redis and verifies the connection.
func Open(cfg core.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

type leaderboard struct {
	rdb *goredis.Client
}

var _ quiz.Leaderboard = (*leaderboard)(nil) // interface compliance check

func NewLeaderboard(rdb *goredis.Client) quiz.Leaderboard {
	return &leaderboard{rdb: rdb}
}

func (lb *leaderboard) key(quizID string) string { return "leaderboard:" + quizID }

// RecordScore keeps a member's best score only: ZADD GT never lowers an
// existing entry.
func (lb *leaderboard) RecordScore(ctx context.Context, quizID, userID string, score int) error {
	err := lb.rdb.ZAddGT(ctx, lb.key(quizID), goredis.Z{
		Score:  float64(score),
		Member: userID,
	}).Err()
	return errors.Wrap(err, "recording leaderboard score")
}

func (lb *leaderboard) Top(ctx context.Context, quizID string, n int) ([]quiz.LeaderboardEntry, error) {
	if n <= 0 {
		n = 10
	}
	zs, err := lb.rdb.ZRevRangeWithScores(ctx, lb.key(quizID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading leaderboard")
	}

	entries := make([]quiz.LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		uid, _ := z.Member.(string)
		entries = append(entries, quiz.LeaderboardEntry{
			UserID: uid,
			Score:  int(z.Score),
			Rank:   i + 1,
		})
	}
	return entries, nil
}

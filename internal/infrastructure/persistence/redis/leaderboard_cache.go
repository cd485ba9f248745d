package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lingoquest/lingoquest-backend/internal/application/query"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache provides O(log N) XP rankings using a Redis sorted set.
//
// Layout:
//   - Sorted set "leaderboard:xp" maps userID -> experience
//   - Hash "leaderboard:info" maps userID -> display info JSON
//
// Entries are written on every xp_gained event, so the ranking tracks writes
// instead of being rebuilt on a timer. The TTL only bounds staleness when
// the event flow is interrupted.
type LeaderboardCache struct {
	cache *Cache
}

const (
	keyLeaderboardXP   = PrefixLeaderboard + "xp"
	keyLeaderboardInfo = PrefixLeaderboard + "info"
)

var (
	// ErrUserNotRanked is returned when a user has no leaderboard entry.
	ErrUserNotRanked = errors.New("leaderboard_cache: user not ranked")
)

// entryInfo is the per-user display payload stored alongside the score.
type entryInfo struct {
	Username string `json:"username"`
}

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// UpdateScore records a user's experience in the ranking.
func (l *LeaderboardCache) UpdateScore(ctx context.Context, userID, username string, experience int) error {
	if userID == "" {
		return ErrCacheKeyEmpty
	}

	info, err := json.Marshal(entryInfo{Username: username})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	pipe := l.cache.Client().Pipeline()
	pipe.ZAdd(ctx, keyLeaderboardXP, redis.Z{
		Score:  float64(experience),
		Member: userID,
	})
	pipe.HSet(ctx, keyLeaderboardInfo, userID, info)
	pipe.Expire(ctx, keyLeaderboardXP, TTLLeaderboard)
	pipe.Expire(ctx, keyLeaderboardInfo, TTLLeaderboard)

	_, err = pipe.Exec(ctx)
	return err
}

// Remove drops a user from the ranking.
func (l *LeaderboardCache) Remove(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrCacheKeyEmpty
	}

	pipe := l.cache.Client().Pipeline()
	pipe.ZRem(ctx, keyLeaderboardXP, userID)
	pipe.HDel(ctx, keyLeaderboardInfo, userID)

	_, err := pipe.Exec(ctx)
	return err
}

// Rebuild clears the ranking and loads it from the given users.
func (l *LeaderboardCache) Rebuild(ctx context.Context, users []*user.User) error {
	pipe := l.cache.Client().TxPipeline()
	pipe.Del(ctx, keyLeaderboardXP, keyLeaderboardInfo)

	if len(users) > 0 {
		members := make([]redis.Z, 0, len(users))
		infos := make(map[string]interface{}, len(users))

		for _, u := range users {
			members = append(members, redis.Z{
				Score:  float64(u.Experience),
				Member: u.ID,
			})
			info, err := json.Marshal(entryInfo{Username: u.Username.String()})
			if err != nil {
				return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
			}
			infos[u.ID] = info
		}

		pipe.ZAdd(ctx, keyLeaderboardXP, members...)
		pipe.HSet(ctx, keyLeaderboardInfo, infos)
		pipe.Expire(ctx, keyLeaderboardXP, TTLLeaderboard)
		pipe.Expire(ctx, keyLeaderboardInfo, TTLLeaderboard)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate removes the whole ranking.
func (l *LeaderboardCache) Invalidate(ctx context.Context) error {
	return l.cache.Delete(ctx, keyLeaderboardXP, keyLeaderboardInfo)
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// Top implements query.LeaderboardCache. Ranks are 1-based in score order.
func (l *LeaderboardCache) Top(ctx context.Context, limit int) ([]query.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("leaderboard_cache: limit must be positive")
	}

	results, err := l.cache.Client().ZRevRangeWithScores(ctx, keyLeaderboardXP, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	ids := make([]string, len(results))
	for i, z := range results {
		ids[i] = z.Member.(string)
	}

	infos, err := l.cache.Client().HMGet(ctx, keyLeaderboardInfo, ids...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]query.LeaderboardEntry, 0, len(results))
	for i, z := range results {
		xp := int(z.Score)
		entry := query.LeaderboardEntry{
			Rank:       i + 1,
			UserID:     ids[i],
			Experience: xp,
			Level:      int(user.CalculateLevel(user.XP(xp))),
		}

		if raw, ok := infos[i].(string); ok {
			var info entryInfo
			if err := json.Unmarshal([]byte(raw), &info); err == nil {
				entry.Username = info.Username
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Rank returns the 1-based rank of a user.
func (l *LeaderboardCache) Rank(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrCacheKeyEmpty
	}

	rank, err := l.cache.Client().ZRevRank(ctx, keyLeaderboardXP, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrUserNotRanked
		}
		return 0, err
	}

	return int(rank) + 1, nil
}

// Count returns the number of ranked users.
func (l *LeaderboardCache) Count(ctx context.Context) (int64, error) {
	return l.cache.Client().ZCard(ctx, keyLeaderboardXP).Result()
}

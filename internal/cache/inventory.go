package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"atelier/internal/middleware"
)

const (
	UserKeyPrefix           = "user:%d"
	RequestCountKeyPrefix   = "requests:count:%s"
	RecentCompletedPrefix   = "requests:recent_completed:%d"
	RecentCompletedPattern  = "requests:recent_completed:*"
	TokenBlacklistKeyPrefix = "blacklist:%s"
)

const (
	UserTTL            = 5 * time.Minute
	RequestCountTTL    = 2 * time.Minute
	RecentCompletedTTL = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func RequestCountKey(status string) string {
	return fmt.Sprintf(RequestCountKeyPrefix, status)
}

func RecentCompletedKey(limit int) string {
	return fmt.Sprintf(RecentCompletedPrefix, limit)
}

func TokenBlacklistKey(jti string) string {
	return fmt.Sprintf(TokenBlacklistKeyPrefix, jti)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed",
			slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateRequestSummaries drops every cached count and gallery page.
func InvalidateRequestSummaries(ctx context.Context, statuses ...string) {
	keys := make([]string, 0, len(statuses))
	for _, s := range statuses {
		keys = append(keys, RequestCountKey(s))
	}
	if client != nil {
		iter := client.Scan(ctx, 0, RecentCompletedPattern, 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			middleware.Logger.WarnContext(ctx, "cache scan failed", slog.String("error", err.Error()))
		}
	}
	Invalidate(ctx, keys...)
}

// RevokeToken blacklists a JWT id until its natural expiry.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil || jti == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return client.Set(ctx, TokenBlacklistKey(jti), "1", ttl).Err()
}

// IsTokenRevoked reports whether jti was blacklisted. Lookups fail open.
func IsTokenRevoked(ctx context.Context, jti string) bool {
	if client == nil || jti == "" {
		return false
	}
	n, err := client.Exists(ctx, TokenBlacklistKey(jti)).Result()
	return err == nil && n > 0
}

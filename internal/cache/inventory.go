package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix            = "user:%d"
	ProfileByUserKeyPrefix   = "profile:user:%d"
	FeedbackSummaryKeyPrefix = "feedback:summary:%d"
	BlacklistKeyPrefix       = "blacklist:%s"
)

const (
	UserTTL            = 5 * time.Minute
	ProfileTTL         = 5 * time.Minute
	FeedbackSummaryTTL = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ProfileByUserKey(userID uint) string {
	return fmt.Sprintf(ProfileByUserKeyPrefix, userID)
}

func FeedbackSummaryKey(userID uint) string {
	return fmt.Sprintf(FeedbackSummaryKeyPrefix, userID)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateProfile(ctx context.Context, userID uint) {
	Invalidate(ctx, ProfileByUserKey(userID))
}

func InvalidateFeedbackSummary(ctx context.Context, userID uint) {
	Invalidate(ctx, FeedbackSummaryKey(userID))
}

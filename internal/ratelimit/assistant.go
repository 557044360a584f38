package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/courtsidehq/courtside/internal/config"
)

const keyAssistantUser = "assistant:chat:user:%s"

// AssistantLimiter throttles assistant chat calls per user. Limits come
// from the hot-reloadable assistant config, so operators can tighten them
// without a restart.
type AssistantLimiter struct {
	enabled bool
	bucket  *TokenBucket
	holder  *config.AssistantConfigHolder
}

func NewAssistantLimiter(cfg config.Config, holder *config.AssistantConfigHolder) *AssistantLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return &AssistantLimiter{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &AssistantLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		holder:  holder,
	}
}

func (l *AssistantLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *AssistantLimiter) AllowUser(ctx context.Context, userID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	assistantCfg := l.holder.Current()
	rate := float64(assistantCfg.RateLimitPerMin) / 60.0
	burst := assistantCfg.RateLimitBurst
	if rate <= 0 || burst <= 0 {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyAssistantUser, strings.TrimSpace(userID)), rate, burst)
}

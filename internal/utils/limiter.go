package utils

import (
	"sync"
	"time"
)

// RateLimiter 按服务器维度的平台API速率限制器
type RateLimiter struct {
	limiters map[string]*guildLimiter
	mu       sync.RWMutex
	maxRate  int // 每秒最大操作数
}

type guildLimiter struct {
	tokens    int
	lastReset time.Time
	mu        sync.Mutex
}

// NewRateLimiter 创建速率限制器
func NewRateLimiter(maxRate int) *RateLimiter {
	if maxRate <= 0 {
		maxRate = 5
	}
	return &RateLimiter{
		limiters: make(map[string]*guildLimiter),
		maxRate:  maxRate,
	}
}

// Allow 检查是否允许操作
func (r *RateLimiter) Allow(guildID string) bool {
	r.mu.Lock()
	limiter, exists := r.limiters[guildID]
	if !exists {
		limiter = &guildLimiter{
			tokens:    r.maxRate,
			lastReset: time.Now(),
		}
		r.limiters[guildID] = limiter
	}
	r.mu.Unlock()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	// 检查是否需要重置令牌
	now := time.Now()
	if now.Sub(limiter.lastReset) >= time.Second {
		limiter.tokens = r.maxRate
		limiter.lastReset = now
	}

	if limiter.tokens > 0 {
		limiter.tokens--
		return true
	}

	return false
}

// Wait 等待直到可以执行操作
func (r *RateLimiter) Wait(guildID string) {
	for !r.Allow(guildID) {
		time.Sleep(100 * time.Millisecond)
	}
}

// Reset 重置指定服务器的限制器
func (r *RateLimiter) Reset(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.limiters, guildID)
}

// CleanupOldLimiters 清理旧的限制器（定期调用）
func (r *RateLimiter) CleanupOldLimiters() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for guildID, limiter := range r.limiters {
		limiter.mu.Lock()
		if now.Sub(limiter.lastReset) > 5*time.Minute {
			delete(r.limiters, guildID)
		}
		limiter.mu.Unlock()
	}
}

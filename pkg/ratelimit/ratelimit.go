package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket 令牌桶速率限制器
type TokenBucket struct {
	capacity   int       // 桶容量
	tokens     int       // 当前令牌数
	refillRate int       // 每秒补充的令牌数
	lastRefill time.Time // 上次补充时间
	mu         sync.Mutex
}

// NewTokenBucket 创建新的令牌桶
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// refill 补充令牌
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)

	tokensToAdd := int(elapsed.Seconds()) * tb.refillRate
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}
}

// Allow 检查是否允许请求
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Remaining 获取剩余令牌数
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens
}

// PerKey 按 key（如客户端地址）维护独立令牌桶的限流器
type PerKey struct {
	capacity   int
	refillRate int

	mu      sync.Mutex
	buckets map[string]*TokenBucket
}

// NewPerKey 创建按 key 限流器
func NewPerKey(capacity, refillRate int) *PerKey {
	return &PerKey{
		capacity:   capacity,
		refillRate: refillRate,
		buckets:    make(map[string]*TokenBucket),
	}
}

// Allow 检查指定 key 是否允许请求
func (p *PerKey) Allow(key string) bool {
	p.mu.Lock()
	bucket, ok := p.buckets[key]
	if !ok {
		bucket = NewTokenBucket(p.capacity, p.refillRate)
		p.buckets[key] = bucket
	}
	p.mu.Unlock()

	return bucket.Allow()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

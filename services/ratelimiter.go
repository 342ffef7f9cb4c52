package services

import (
	"sync"
	"time"

	"github.com/sigmapool/mining-proxy/utils"
)

// RateLimiter implements a token bucket rate limiter per miner IP.
type RateLimiter struct {
	buckets         map[string]*tokenBucket
	mutex           sync.Mutex
	rate            time.Duration // Time between refills
	burst           int           // Maximum tokens
	cleanupInterval time.Duration
}

type tokenBucket struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerMinute, burstLimit int) *RateLimiter {
	rl := &RateLimiter{
		buckets:         make(map[string]*tokenBucket),
		rate:            time.Minute / time.Duration(requestsPerMinute),
		burst:           burstLimit,
		cleanupInterval: 10 * time.Minute,
	}
	go rl.cleanupOldBuckets()
	return rl
}

// Allow checks if a request from the given IP is allowed
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	bucket, exists := rl.buckets[ip]
	if !exists {
		bucket = &tokenBucket{
			tokens:     rl.burst - 1, // Use one token immediately
			lastRefill: time.Now(),
		}
		rl.buckets[ip] = bucket
		return true
	}

	// Refill tokens based on elapsed time
	now := time.Now()
	tokensToAdd := int(now.Sub(bucket.lastRefill) / rl.rate)
	if tokensToAdd > 0 {
		bucket.tokens += tokensToAdd
		if bucket.tokens > rl.burst {
			bucket.tokens = rl.burst
		}
		bucket.lastRefill = now
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}

	return false
}

// cleanupOldBuckets removes idle buckets periodically
func (rl *RateLimiter) cleanupOldBuckets() {
	defer utils.HandleSubroutinePanic("cleanupOldBuckets")

	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		rl.mutex.Lock()
		now := time.Now()
		for ip, bucket := range rl.buckets {
			if now.Sub(bucket.lastRefill) > rl.cleanupInterval {
				delete(rl.buckets, ip)
			}
		}
		rl.mutex.Unlock()
	}
}

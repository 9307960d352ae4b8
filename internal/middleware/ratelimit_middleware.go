package middleware

import (
	"sync"
	"time"
)

const (
	invalidAuthLimit  = 5
	invalidAuthWindow = time.Minute
)

// InvalidAuthRateLimiter throttles failed authentication attempts per IP.
type InvalidAuthRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptInfo
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

// NewInvalidAuthRateLimiter creates a limiter and starts its cleanup loop.
func NewInvalidAuthRateLimiter() *InvalidAuthRateLimiter {
	rl := &InvalidAuthRateLimiter{
		attempts: make(map[string]*attemptInfo),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow records a failed attempt and reports whether ip is still under the
// limit of 5 attempts per minute.
func (r *InvalidAuthRateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	info, exists := r.attempts[ip]
	if !exists || now.Sub(info.firstAt) > invalidAuthWindow {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return true
	}

	if info.count >= invalidAuthLimit {
		return false
	}
	info.count++
	return true
}

// RetryAfter reports how long ip stays throttled, or 0 when it may try again.
// It does not record an attempt.
func (r *InvalidAuthRateLimiter) RetryAfter(ip string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.attempts[ip]
	if !exists || info.count < invalidAuthLimit {
		return 0
	}
	remaining := invalidAuthWindow - r.now().Sub(info.firstAt)
	if remaining <= 0 {
		return 0
	}
	return remaining
}

// Stop ends the cleanup loop.
func (r *InvalidAuthRateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *InvalidAuthRateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			now := r.now()
			for ip, info := range r.attempts {
				if now.Sub(info.firstAt) > invalidAuthWindow {
					delete(r.attempts, ip)
				}
			}
			r.mu.Unlock()
		}
	}
}

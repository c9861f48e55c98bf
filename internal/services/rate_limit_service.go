package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitService throttles credential endpoints per client IP and per
// username using token buckets.
type RateLimitService struct {
	config   RateLimitConfig
	visitors map[string]*visitor
	mu       sync.Mutex
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           // Sustained attempts per key
	Burst             int           // Attempts allowed back to back
	IdleTTL           time.Duration // Buckets unused for this long are dropped
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 30,
		Burst:             10,
		IdleTTL:           10 * time.Minute,
	}
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(config RateLimitConfig) *RateLimitService {
	defaults := DefaultRateLimitConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = defaults.Burst
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = defaults.IdleTTL
	}
	return &RateLimitService{
		config:   config,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "ip" or "username"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckIP consumes one attempt for ip. The HTTP layer charges it once per
// credential request.
func (s *RateLimitService) CheckIP(ip string) error {
	return s.take("ip", ip)
}

// CheckUsername consumes one login attempt for username
func (s *RateLimitService) CheckUsername(username string) error {
	if username == "" {
		return nil
	}
	return s.take("username", strings.ToLower(strings.TrimSpace(username)))
}

func (s *RateLimitService) take(identifierType, identifier string) error {
	now := s.now()
	limiter := s.getLimiter(identifierType+":"+identifier, now)

	reservation := limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay == 0 {
		return nil
	}
	reservation.CancelAt(now)

	retryAfter := now.Add(delay)
	subject := "this IP address"
	if identifierType == "username" {
		subject = "this account"
	}
	return &RateLimitError{
		Message:    fmt.Sprintf("Too many attempts from %s. Please try again after %s", subject, retryAfter.Format("15:04:05")),
		RetryAfter: retryAfter,
		Type:       identifierType,
	}
}

func (s *RateLimitService) getLimiter(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, exists := s.visitors[key]; exists {
		v.lastSeen = now
		return v.limiter
	}

	every := time.Minute / time.Duration(s.config.RequestsPerMinute)
	limiter := rate.NewLimiter(rate.Every(every), s.config.Burst)
	s.visitors[key] = &visitor{limiter: limiter, lastSeen: now}
	return limiter
}

// CleanupExpired drops buckets idle longer than IdleTTL and returns how many
func (s *RateLimitService) CleanupExpired() int {
	cutoff := s.now().Add(-s.config.IdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, v := range s.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(s.visitors, key)
			removed++
		}
	}
	return removed
}

// Tracked returns the number of live buckets
func (s *RateLimitService) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

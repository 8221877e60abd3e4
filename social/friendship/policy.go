package friendship

import (
	"sync"

	"golang.org/x/time/rate"
)

// RequestPolicy decides whether a sender may issue another friend request
// right now. Implementations must be safe for concurrent use.
type RequestPolicy interface {
	Allow(senderID int64) bool
}

// AllowAll never throttles. Used when no rate is configured and in tests.
type AllowAll struct{}

func (AllowAll) Allow(int64) bool { return true }

// RateLimitPolicy throttles sends per sender with a token bucket.
type RateLimitPolicy struct {
	perMin  float64
	burst   int
	buckets sync.Map // senderID -> *rate.Limiter
}

// NewRateLimitPolicy allows perMin sends per minute with the given burst.
// perMin <= 0 disables throttling.
func NewRateLimitPolicy(perMin float64, burst int) *RateLimitPolicy {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitPolicy{perMin: perMin, burst: burst}
}

func (p *RateLimitPolicy) Allow(senderID int64) bool {
	if p.perMin <= 0 {
		return true
	}
	v, _ := p.buckets.LoadOrStore(senderID, rate.NewLimiter(rate.Limit(p.perMin/60), p.burst))
	return v.(*rate.Limiter).Allow()
}

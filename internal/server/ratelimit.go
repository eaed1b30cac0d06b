package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// sweepInterval is how often buckets of idle clients are dropped.
const sweepInterval = 10 * time.Minute

// bucket holds the tokens of one client as of updated.
type bucket struct {
	tokens  float64
	updated time.Time
}

// RateLimiter is a per-client token bucket. Each client may burst up to
// limit requests; tokens flow back continuously so a drained bucket is full
// again after one window.
type RateLimiter struct {
	mu      sync.Mutex
	limit   float64
	window  time.Duration
	buckets map[string]*bucket
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows limit requests per client and window. Stop releases
// the background sweep.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:   float64(limit),
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop ends the background sweep. Calling it twice is harmless.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Allow takes one token from the client's bucket.
func (rl *RateLimiter) Allow(client string) bool {
	ok, _ := rl.take(client)
	return ok
}

// take reports whether a token was available and, if not, how long until
// the next one is.
func (rl *RateLimiter) take(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[client]
	if !ok {
		b = &bucket{tokens: rl.limit, updated: now}
		rl.buckets[client] = b
	}
	rl.refill(b, now)

	if b.tokens < 1 {
		missing := 1 - b.tokens
		return false, time.Duration(missing / rl.limit * float64(rl.window))
	}
	b.tokens--
	return true, 0
}

func (rl *RateLimiter) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.updated)
	if elapsed <= 0 {
		return
	}
	b.tokens = math.Min(rl.limit, b.tokens+rl.limit*float64(elapsed)/float64(rl.window))
	b.updated = now
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

// sweep drops buckets that have refilled completely; a new bucket for the
// same client would look identical.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for client, b := range rl.buckets {
		rl.refill(b, now)
		if b.tokens >= rl.limit {
			delete(rl.buckets, client)
		}
	}
}

// RateLimitMiddleware answers 429 with a Retry-After header once a client
// has used up its bucket. A nil limiter disables limiting.
func RateLimitMiddleware(logger *zap.Logger, limiter *RateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientAddr(r)
		ok, wait := limiter.take(client)
		if !ok {
			logger.Debug("rate limit exceeded",
				zap.String("op", "server.RateLimitMiddleware"),
				zap.String("client", client),
				zap.Duration("retryAfter", wait),
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}` + "\n"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

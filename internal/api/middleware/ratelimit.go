package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/phrazzld/tokengate/internal/api/shared"
	"github.com/phrazzld/tokengate/internal/platform/logger"
	"golang.org/x/time/rate"
)

// Client entries unused for this long are dropped.
const defaultIdleTTL = 30 * time.Minute

// RateLimiter enforces a per-client request budget of max requests per
// window. Clients are keyed by IP and authenticated user.
type RateLimiter struct {
	name    string
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing max requests per window, refilled
// evenly over the window. name labels the tier in logs.
func NewRateLimiter(name string, max int, window time.Duration) *RateLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	idleTTL := defaultIdleTTL
	if window > idleTTL {
		idleTTL = window
	}

	return &RateLimiter{
		name:    name,
		limit:   rate.Every(window / time.Duration(max)),
		burst:   max,
		idleTTL: idleTTL,
		clients: make(map[string]*clientLimiter),
	}
}

// Handler returns the middleware enforcing the budget.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		limiter := l.getLimiter(clientKey(r), now)

		allowed := limiter.AllowN(now, 1)
		remaining := int(limiter.TokensAt(now))
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			logger.FromContext(r.Context()).Warn("rate limit exceeded",
				"tier", l.name,
				"path", r.URL.Path)
			shared.RespondWithError(w, r, http.StatusTooManyRequests, "RATE_LIMIT_ERROR",
				"Too many requests, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Run evicts idle clients every interval until ctx is done.
func (l *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.mu.Lock()
			l.evictIdleLocked(now)
			l.mu.Unlock()
		}
	}
}

func (l *RateLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.clients[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(l.limit, l.burst)
	l.clients[key] = &clientLimiter{limiter: limiter, lastSeen: now}
	return limiter
}

func (l *RateLimiter) evictIdleLocked(now time.Time) {
	for key, entry := range l.clients {
		if now.Sub(entry.lastSeen) > l.idleTTL {
			delete(l.clients, key)
		}
	}
}

// clientKey is "ip:userID", with "anonymous" before authentication.
func clientKey(r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		userID = "anonymous"
	}
	return ip + ":" + userID
}

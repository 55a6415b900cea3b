package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	clientIdleTTL = 5 * time.Minute
	sweepInterval = time.Minute
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client IP. A non-positive rate
// disables limiting.
type rateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time

	// trustProxy keys clients by X-Forwarded-For. Only safe behind a proxy
	// that overwrites the header.
	trustProxy bool
}

func newRateLimiter(rps float64, burst int, trustProxy bool) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &rateLimiter{
		clients:    make(map[string]*client),
		limit:      limit,
		burst:      burst,
		now:        time.Now,
		trustProxy: trustProxy,
	}
}

func (l *rateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > sweepInterval {
		for key, c := range l.clients {
			if now.Sub(c.lastSeen) > clientIdleTTL {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r, l.trustProxy)
		if !l.allow(ip) {
			loggerFrom(r).Warn().Str("client_ip", ip).Msg("rate limit exceeded")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the remote host, or the first X-Forwarded-For hop when
// trustProxy is set.
func clientIP(r *http.Request, trustProxy bool) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); trustProxy && forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

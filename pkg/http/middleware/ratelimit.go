package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client key.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	rps     rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

// NewLimiter allows rps requests per second per client with the given burst.
// Buckets unused for idle are dropped on the next sweep.
func NewLimiter(rps float64, burst int, idle time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
	}
}

// Allow reports whether one request from key may proceed now.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[key]
	if !ok {
		l.sweepLocked(now)
		cl = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (l *Limiter) sweepLocked(now time.Time) {
	if l.idle <= 0 {
		return
	}
	for k, cl := range l.clients {
		if now.Sub(cl.lastSeen) > l.idle {
			delete(l.clients, k)
		}
	}
}

// RateLimit rejects requests over the per-IP budget with 429.
func RateLimit(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
				})
			}
			return next(c)
		}
	}
}

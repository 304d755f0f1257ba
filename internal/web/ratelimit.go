package web

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/logging"
	"golang.org/x/time/rate"
)

const (
	visitorIdle     = 5 * time.Minute
	visitorSweepGap = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	rps   rate.Limit
	burst int
	log   logging.Logger
	now   func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

func newIPLimiter(rps float64, burst int, log logging.Logger) *ipLimiter {
	if log == nil {
		log = logging.Discard()
	}
	return &ipLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		log:      log,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = l.now()
	return v.limiter.AllowN(v.lastSeen, 1)
}

// sweep drops visitors idle for longer than visitorIdle.
func (l *ipLimiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	cutoff := l.now().Add(-visitorIdle)
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
			n++
		}
	}
	return n
}

// run sweeps periodically until ctx is done.
func (l *ipLimiter) run(ctx context.Context) {
	t := time.NewTicker(visitorSweepGap)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := l.sweep(); n > 0 {
				l.log.Debug(ctx, "rate limiter swept idle clients", "count", n)
			}
		}
	}
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.allow(ip) {
			l.log.Warn(r.Context(), "rate limit exceeded", "ip", ip)
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr. Behind a trusted proxy
// middleware.RealIP has already put the forwarded address there.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package sandbox

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// EndpointLimit is a token bucket budget for one route. A Path ending in "/" matches
// by prefix.
type EndpointLimit struct {
	Method string
	Path   string
	Limit  int // requests per Window
	Window time.Duration
	Burst  int // bucket capacity, Limit when zero
}

// DefaultLimit applies to routes without their own EndpointLimit.
var DefaultLimit = EndpointLimit{Limit: 600, Window: time.Minute}

// DefaultEndpointLimits guard the routes that do real work.
func DefaultEndpointLimits() []EndpointLimit {
	return []EndpointLimit{
		{Method: http.MethodPost, Path: BasePath + "/auth/login", Limit: 20, Window: time.Minute, Burst: 5},
		{Method: http.MethodPost, Path: BasePath + "/documents/upload", Limit: 30, Window: time.Minute, Burst: 10},
		{Method: http.MethodPost, Path: BasePath + "/analysis/", Limit: 10, Window: time.Minute, Burst: 5},
	}
}

type tokenBucket struct {
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func (b *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.refillRate)
	b.lastRefill = now
}

// take consumes a token, or reports how long until one is available.
func (b *tokenBucket) take(now time.Time) (bool, time.Duration) {
	b.refill(now)
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := (1 - b.tokens) / b.refillRate
	return false, time.Duration(math.Ceil(wait)) * time.Second
}

// limiter keeps one bucket per client and route.
type limiter struct {
	clock  clockwork.Clock
	limits []EndpointLimit

	mu      sync.Mutex
	buckets map[string]*tokenBucket
}

func newLimiter(clock clockwork.Clock, limits []EndpointLimit) *limiter {
	return &limiter{clock: clock, limits: limits, buckets: make(map[string]*tokenBucket)}
}

// match returns the limit for a request: exact path first, then prefix, then the
// default. Health checks are never limited.
func (l *limiter) match(method, path string) (EndpointLimit, bool) {
	if path == BasePath+"/health" {
		return EndpointLimit{}, false
	}
	for _, el := range l.limits {
		if el.Method == method && el.Path == path {
			return el, true
		}
	}
	for _, el := range l.limits {
		if el.Method == method && strings.HasSuffix(el.Path, "/") && strings.HasPrefix(path, el.Path) {
			return el, true
		}
	}
	return DefaultLimit, true
}

func (l *limiter) allow(clientID, method, path string) (bool, time.Duration) {
	el, limited := l.match(method, path)
	if !limited || el.Limit <= 0 {
		return true, 0
	}

	key := clientID + " " + method + " " + el.Path
	if el.Path == "" {
		key = clientID + " " + method + " " + path
	}
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		burst := el.Burst
		if burst <= 0 {
			burst = el.Limit
		}
		b = &tokenBucket{
			capacity:   float64(burst),
			refillRate: float64(el.Limit) / el.Window.Seconds(),
			tokens:     float64(burst),
			lastRefill: now,
		}
		l.buckets[key] = b
	}
	return b.take(now)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// withRateLimit rejects requests over their route's budget with 429.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retry := s.limiter.allow(clientIP(r), r.Method, r.URL.Path)
		if !ok {
			s.logger.Warn("sandbox.ratelimit.rejected", "client", clientIP(r), "method", r.Method, "path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
			s.detail(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

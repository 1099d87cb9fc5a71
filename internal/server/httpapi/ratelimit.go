package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// rateLimiter counts requests per client IP in fixed windows.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type visitor struct {
	windowStart time.Time
	count       int
}

// newRateLimiter starts a janitor that drops idle visitors every window.
// Call Stop to release it.
func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

func (rl *rateLimiter) janitor() {
	t := time.NewTicker(rl.window)
	defer t.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-t.C:
			rl.cleanup()
		}
	}
}

func (rl *rateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, v := range rl.visitors {
		if now.Sub(v.windowStart) > rl.window {
			delete(rl.visitors, ip)
		}
	}
}

// allow registers a hit for key and reports whether it is within the limit,
// and if not how long until the window resets.
func (rl *rateLimiter) allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok || now.Sub(v.windowStart) >= rl.window {
		rl.visitors[key] = &visitor{windowStart: now, count: 1}
		return true, 0
	}
	v.count++
	if v.count > rl.limit {
		return false, v.windowStart.Add(rl.window).Sub(now)
	}
	return true, 0
}

// Limit rejects requests over the limit with 429. It expects RealIP to have
// run so RemoteAddr is the client address.
func (rl *rateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retry := rl.allow(clientIP(r))
		if !ok {
			secs := int(retry.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeMessage(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

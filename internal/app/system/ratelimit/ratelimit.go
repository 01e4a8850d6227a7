// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/loomos/internal/app/system/metrics"
	"github.com/dalemusser/loomos/internal/app/system/respond"
)

// Limiter counts requests per key in fixed windows. It is safe for
// concurrent use.
type Limiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	limit     int           // max requests per window
	duration  time.Duration // window duration
	nextSweep time.Time
	now       func() time.Time

	// trusted are the proxies whose forwarding headers are believed.
	trusted []netip.Prefix
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per key per duration.
// limit <= 0 disables limiting.
func New(limit int, duration time.Duration) *Limiter {
	return &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
	}
}

// Allow records a request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	if l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many requests are left for key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || l.now().After(w.expiresAt) {
		return l.limit
	}
	return max(l.limit-w.count, 0)
}

// Reset clears the window for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// sweep drops expired windows at most once per two window durations.
// Caller holds l.mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, key)
		}
	}
	l.nextSweep = now.Add(2 * l.duration)
}

// TrustProxies sets the proxies whose X-Forwarded-For and X-Real-IP headers
// identify the client. With none, clients are keyed by RemoteAddr only.
func (l *Limiter) TrustProxies(prefixes []netip.Prefix) *Limiter {
	l.trusted = prefixes
	return l
}

// ParseTrustedProxies parses IPs and CIDR ranges.
func ParseTrustedProxies(list []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(list))
	for _, s := range list {
		if p, err := netip.ParsePrefix(s); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: not an IP or CIDR", s)
		}
		out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return out, nil
}

// Middleware rejects requests over the limit, keyed by client IP, with 429
// and a Retry-After header.
func (l *Limiter) Middleware(name string) func(http.Handler) http.Handler {
	retry := strconv.Itoa(int(l.duration.Round(time.Second) / time.Second))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(ClientIP(r, l.trusted)) {
				metrics.RecordRateLimited(name)
				w.Header().Set("Retry-After", retry)
				respond.Error(w, http.StatusTooManyRequests, "Too many requests. Please wait and try again.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the client IP from an HTTP request. Forwarding headers
// are honored only when RemoteAddr is one of the trusted proxies; the
// client is then the right-most X-Forwarded-For hop that is not itself a
// trusted proxy, or X-Real-IP when there is no X-Forwarded-For.
func ClientIP(r *http.Request, trusted []netip.Prefix) string {
	remote := remoteIP(r.RemoteAddr)
	if !isTrusted(remote, trusted) {
		return remote
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !isTrusted(hop, trusted) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return remote
}

func remoteIP(remoteAddr string) string {
	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return remoteAddr
	}
	return ip
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

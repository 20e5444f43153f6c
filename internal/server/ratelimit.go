package server

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	limiterIdleExpiry     = 10 * time.Minute
	limiterCleanupPeriod  = 5 * time.Minute
	rateLimitRetrySeconds = 1
)

// rateLimiter keeps one token bucket per client. Buckets of idle clients
// expire from the cache. X-Forwarded-For is only read from trusted proxies.
type rateLimiter struct {
	logger   *zap.Logger
	limiters *cache.Cache
	rate     rate.Limit
	burst    int
	trusted  []netip.Prefix
}

func newRateLimiter(logger *zap.Logger, requestsPerSecond float64, burst int, trusted []netip.Prefix) *rateLimiter {
	return &rateLimiter{
		logger:   logger,
		limiters: cache.New(limiterIdleExpiry, limiterCleanupPeriod),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		trusted:  trusted,
	}
}

// ParseTrustedProxies parses proxy addresses ("10.0.0.1") and networks
// ("10.0.0.0/8").
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if strings.Contains(value, "/") {
			prefix, err := netip.ParsePrefix(value)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", value, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", value, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func (rl *rateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := rl.limiters.Get(key); ok {
		l := v.(*rate.Limiter)
		rl.limiters.SetDefault(key, l)
		return l
	}
	l := rate.NewLimiter(rl.rate, rl.burst)
	if err := rl.limiters.Add(key, l, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if v, ok := rl.limiters.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		clientID := rl.clientIdentifier(r)
		if !rl.limiter(clientID).Allow() {
			rl.logger.Warn("rate limit exceeded",
				zap.String("op", "server.rateLimit"),
				zap.String("client_id", clientID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", fmt.Sprintf("%d", rateLimitRetrySeconds))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too many requests, please try again later"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIdentifier keys the limiter by the peer address. When the peer is a
// trusted proxy, the nearest untrusted X-Forwarded-For hop is used instead.
func (rl *rateLimiter) clientIdentifier(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "ip:unknown"
	}
	if !rl.isTrusted(host) {
		return "ip:" + host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !rl.isTrusted(hop) {
			return "ip:" + hop
		}
	}
	return "ip:" + host
}

func (rl *rateLimiter) isTrusted(host string) bool {
	if len(rl.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range rl.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

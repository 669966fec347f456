package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// RateLimiter считает запросы с одного IP в фиксированном окне
type RateLimiter struct {
	limit   int
	window  time.Duration
	counter *cache.Cache
	logger  *zap.Logger
}

func NewRateLimiter(limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		counter: cache.New(window, 5*time.Minute),
		logger:  logger,
	}
}

func (r *RateLimiter) Allow(ip string) bool {
	// первый запрос в окне создаёт запись с TTL окна
	if err := r.counter.Add(ip, 1, r.window); err == nil {
		return r.limit >= 1
	}

	n, err := r.counter.IncrementInt(ip, 1)
	if err != nil {
		// запись истекла между Add и Increment
		r.counter.Set(ip, 1, r.window)
		return r.limit >= 1
	}
	return n <= r.limit
}

func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip := clientIP(req)
		if !r.Allow(ip) {
			r.logger.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", req.URL.Path))
			WriteError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		next.ServeHTTP(w, req)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

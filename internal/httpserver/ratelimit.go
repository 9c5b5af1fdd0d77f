package httpserver

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fdg312/macro-coach/internal/config"
	"github.com/fdg312/macro-coach/internal/userctx"
)

const (
	// limiterIdleTTL: бакет клиента, не обращавшегося дольше, выбрасывается при очистке.
	limiterIdleTTL = 10 * time.Minute
	sweepEvery     = 1000
)

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter держит по бакету на ключ клиента: user:<sub> или ip:<addr>.
type clientLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*clientBucket
	rps      rate.Limit
	burst    int
	requests int
	now      func() time.Time
}

func newClientLimiter(rps, burst int) *clientLimiter {
	if burst <= 0 {
		burst = rps
	}
	return &clientLimiter{
		buckets: make(map[string]*clientBucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// allow тратит токен из бакета ключа и возвращает, через сколько появится следующий.
func (c *clientLimiter) allow(key string) (bool, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	b, ok := c.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(c.rps, c.burst)}
		c.buckets[key] = b
	}
	b.lastSeen = now

	c.requests++
	if c.requests%sweepEvery == 0 {
		c.sweep(now)
	}

	if b.limiter.AllowN(now, 1) {
		return true, 0
	}
	r := b.limiter.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

func (c *clientLimiter) sweep(now time.Time) {
	for key, b := range c.buckets {
		if now.Sub(b.lastSeen) > limiterIdleTTL {
			delete(c.buckets, key)
		}
	}
}

// size для тестов и отладки
func (c *clientLimiter) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}

// RateLimitMiddleware ограничивает частоту запросов token bucket'ом на клиента.
// Клиент с токеном считается по subject (один пользователь с разных адресов делит
// лимит), анонимный по IP. /healthz не лимитируется. RateLimitRPS <= 0 отключает.
// Должен стоять после auth middleware, иначе subject ещё не в контексте.
func RateLimitMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	if cfg.RateLimitRPS <= 0 {
		return next
	}
	limiter := newClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	return rateLimitHandler(limiter, next)
}

func rateLimitHandler(limiter *clientLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		ok, wait := limiter.allow(clientKey(r))
		if !ok {
			writeRateLimited(w, wait)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeRateLimited(w http.ResponseWriter, wait time.Duration) {
	retry := int(wait.Round(time.Second) / time.Second)
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    "rate_limited",
			"message": "Too many requests",
		},
	})
}

func clientKey(r *http.Request) string {
	if userID, ok := userctx.GetUserID(r.Context()); ok {
		return "user:" + userID
	}
	return "ip:" + clientIP(r)
}

// clientIP: первый адрес из X-Forwarded-For (за прокси), иначе RemoteAddr без порта.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig параметры token bucket для API админки
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	IdleTimeout       time.Duration // клиент без запросов дольше этого забывается
}

var DefaultRateLimiterConfig = RateLimiterConfig{
	RequestsPerSecond: 10,
	BurstSize:         20,
	IdleTimeout:       3 * time.Minute,
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает запросы к API по IP клиента
type RateLimiter struct {
	config  RateLimiterConfig
	clients map[string]*client
	mu      sync.Mutex
	quit    chan struct{}
	once    sync.Once
}

// NewRateLimiter создаёт лимитер и запускает фоновую очистку. Остановка через Stop.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = DefaultRateLimiterConfig.RequestsPerSecond
	}
	if config.BurstSize <= 0 {
		config.BurstSize = DefaultRateLimiterConfig.BurstSize
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultRateLimiterConfig.IdleTimeout
	}

	rl := &RateLimiter{
		config:  config,
		clients: make(map[string]*client),
		quit:    make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop останавливает фоновую очистку
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.quit) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.IdleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.quit:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.config.IdleTimeout {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if c, exists := rl.clients[ip]; exists {
		c.lastSeen = now
		return c.limiter
	}

	c := &client{
		limiter:  rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize),
		lastSeen: now,
	}
	rl.clients[ip] = c

	return c.limiter
}

// Middleware отвечает 429, когда корзина клиента пуста
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := int(math.Ceil(1 / rl.config.RequestsPerSecond))

	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Слишком много запросов, попробуйте позже",
			})
			return
		}

		c.Next()
	}
}

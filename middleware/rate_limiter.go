// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

type RateLimiter struct {
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	mu             *sync.RWMutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	endpointLimits map[string]endpointLimit
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:            make(map[string]*rate.Limiter),
		blockedIPs:     make(map[string]time.Time),
		mu:             &sync.RWMutex{},
		defaultLimit:   rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:   20,
		blockDuration:  5 * time.Minute,
		endpointLimits: make(map[string]endpointLimit),
	}

	// OTP sends are expensive provider calls; keep them slow.
	limiter.endpointLimits["/api/auth/registration/send-otps"] = endpointLimit{
		limit: rate.Every(2 * time.Second),
		burst: 5,
	}
	limiter.endpointLimits["/api/auth/registration/resend-otp"] = endpointLimit{
		limit: rate.Every(5 * time.Second),
		burst: 3,
	}
	limiter.endpointLimits["/api/auth/login"] = endpointLimit{
		limit: rate.Every(2 * time.Second),
		burst: 5,
	}
	limiter.endpointLimits["/api/auth/forget-password"] = endpointLimit{
		limit: rate.Every(5 * time.Second),
		burst: 3,
	}

	return limiter
}

func (rl *RateLimiter) getLimiter(ip, path string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := ip + path
	limiter, exists := rl.ips[key]
	if !exists {
		limit := rl.defaultLimit
		burst := rl.defaultBurst
		if endpointCfg, ok := rl.endpointLimits[path]; ok {
			limit = endpointCfg.limit
			burst = endpointCfg.burst
		}
		limiter = rate.NewLimiter(limit, burst)
		rl.ips[key] = limiter
	}
	return limiter
}

// RateLimit enforces per-IP request limits with stricter per-endpoint
// overrides for the OTP and login surfaces.
func (rl *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			path := c.Request().URL.Path

			rl.mu.RLock()
			blockedUntil, blocked := rl.blockedIPs[ip]
			rl.mu.RUnlock()

			if blocked {
				if time.Now().Before(blockedUntil) {
					return c.JSON(http.StatusTooManyRequests, map[string]string{
						"message": "Too many requests. Please try again later.",
					})
				}
				rl.mu.Lock()
				delete(rl.blockedIPs, ip)
				rl.mu.Unlock()
			}

			if !rl.getLimiter(ip, path).Allow() {
				rl.mu.Lock()
				rl.blockedIPs[ip] = time.Now().Add(rl.blockDuration)
				rl.mu.Unlock()
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"message": "Too many requests. Please try again later.",
				})
			}

			return next(c)
		}
	}
}

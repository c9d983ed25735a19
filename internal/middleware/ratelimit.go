package middleware

import (
	"net/http"
	"time"

	"tododash-api/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int64
}

// NewRateLimitConfigFromEnv creates rate limit config from environment variables
func NewRateLimitConfigFromEnv() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
		RequestsPerMin: int64(getEnvInt("RATE_LIMIT_REQUESTS_PER_MIN", 120)),
	}
}

// GlobalRateLimiter creates a per-IP rate limiter applied to every route
func GlobalRateLimiter(config *RateLimitConfig) gin.HandlerFunc {
	if !config.Enabled {
		logging.Logger.Info("Rate limiting is disabled")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	rate := limiter.Rate{
		Period: 1 * time.Minute,
		Limit:  config.RequestsPerMin,
	}

	instance := limiter.New(memory.NewStore(), rate)

	middleware := mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		logging.Logger.WithFields(map[string]interface{}{
			"client_ip":     c.ClientIP(),
			"path":          c.Request.URL.Path,
			"method":        c.Request.Method,
			"rate_limited":  true,
			"limit_per_min": config.RequestsPerMin,
		}).Warn("Rate limit exceeded")

		c.JSON(http.StatusTooManyRequests, gin.H{
			"code":       "RATE_LIMIT_EXCEEDED",
			"message":    "Too many requests. Please try again later.",
			"retryAfter": int(rate.Period.Seconds()),
		})
		c.Abort()
	}))

	logging.Logger.Infof("Rate limiting enabled: %d requests per minute", config.RequestsPerMin)
	return middleware
}

// AuthRateLimiter creates a stricter per-IP limiter for authentication
// endpoints to slow brute-force attempts
func AuthRateLimiter(config *RateLimitConfig) gin.HandlerFunc {
	if !config.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	rate := limiter.Rate{
		Period: 15 * time.Minute,
		Limit:  5,
	}

	instance := limiter.New(memory.NewStore(), rate)

	keyGetter := func(c *gin.Context) string {
		return "auth:ip:" + c.ClientIP()
	}

	middleware := mgin.NewMiddleware(instance,
		mgin.WithKeyGetter(keyGetter),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			logging.Logger.WithFields(map[string]interface{}{
				"client_ip":      c.ClientIP(),
				"path":           c.Request.URL.Path,
				"rate_limited":   true,
				"limit_type":     "auth",
				"limit":          rate.Limit,
				"period_minutes": int(rate.Period.Minutes()),
			}).Warn("Authentication rate limit exceeded")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":       "AUTH_RATE_LIMIT_EXCEEDED",
				"message":    "Too many authentication attempts. Please try again later.",
				"retryAfter": int(rate.Period.Seconds()),
			})
			c.Abort()
		}))

	logging.Logger.Infof("Auth rate limiting enabled: %d attempts per 15 minutes", rate.Limit)
	return middleware
}

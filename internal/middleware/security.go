package middleware

import (
	"net/http"

	"tododash-api/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SecurityConfig holds security middleware configuration
type SecurityConfig struct {
	MaxRequestBodySize int64 // Maximum request body size in bytes
}

// NewSecurityConfigFromEnv creates security config from environment variables.
// The default leaves room for a 2MB cover upload plus multipart overhead.
func NewSecurityConfigFromEnv() *SecurityConfig {
	maxSize := getEnvInt("MAX_REQUEST_BODY_SIZE", 4194304) // Default 4MB

	return &SecurityConfig{
		MaxRequestBodySize: int64(maxSize),
	}
}

// SecurityHeaders adds security-related HTTP headers
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent clickjacking
		c.Header("X-Frame-Options", "DENY")

		// Prevent MIME type sniffing
		c.Header("X-Content-Type-Options", "nosniff")

		// Enable XSS protection in browsers
		c.Header("X-XSS-Protection", "1; mode=block")

		// Prevent information leakage
		c.Header("X-Powered-By", "")
		c.Header("Server", "")

		// Referrer policy
		c.Header("Referrer-Policy", "no-referrer")

		c.Next()
	}
}

// RequestSizeLimit limits the size of incoming request bodies
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			logging.Logger.WithFields(map[string]interface{}{
				"client_ip":      c.ClientIP(),
				"content_length": c.Request.ContentLength,
				"max_size":       maxSize,
			}).Warn("Request body too large")

			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"code":           "REQUEST_TOO_LARGE",
				"message":        "Request body too large",
				"max_size_bytes": maxSize,
			})
			c.Abort()
			return
		}

		// Hard limit on the request body reader
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)

		c.Next()
	}
}

// ErrorSanitizer catches errors and returns sanitized error messages
func ErrorSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			logging.Logger.WithFields(map[string]interface{}{
				"client_ip": c.ClientIP(),
				"path":      c.Request.URL.Path,
				"method":    c.Request.Method,
				"error":     err.Error(),
			}).Error("Request error")

			// Never expose internal error details to the client
			if c.Writer.Status() >= 500 && !c.Writer.Written() {
				c.JSON(http.StatusInternalServerError, gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "An internal error occurred. Please try again later.",
				})
			}
		}
	}
}

// UUIDValidator validates UUID path parameters
func UUIDValidator(params ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, param := range params {
			value := c.Param(param)
			if value == "" {
				continue
			}
			if _, err := uuid.Parse(value); err != nil {
				logging.Logger.WithFields(map[string]interface{}{
					"client_ip": c.ClientIP(),
					"path":      c.Request.URL.Path,
					"param":     param,
					"value":     value,
				}).Warn("Invalid UUID format")

				c.JSON(http.StatusBadRequest, gin.H{
					"code":    "INVALID_UUID",
					"message": "Invalid UUID format",
					"field":   param,
				})
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_forecast/internal/service"
	"github.com/GTDGit/gtd_forecast/internal/utils"
)

// Error codes of 401 replies.
const (
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeTooManyAuthAttempts = "TOO_MANY_AUTH_ATTEMPTS"
)

const unauthorizedMessage = "Unauthorized - missing or invalid auth token"

// JWTMiddleware authenticates bearer tokens for the read endpoints.
type JWTMiddleware struct {
	authService *service.AuthService
	rateLimiter *InvalidAuthRateLimiter
}

// NewJWTMiddleware constructs a new JWTMiddleware.
func NewJWTMiddleware(authService *service.AuthService, rateLimiter *InvalidAuthRateLimiter) *JWTMiddleware {
	return &JWTMiddleware{
		authService: authService,
		rateLimiter: rateLimiter,
	}
}

// Handle returns a Gin middleware that sets "user_id" on success.
func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if RespondIfThrottled(c, m.rateLimiter) {
			return
		}

		token, ok := utils.ExtractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			RespondUnauthorized(c, m.rateLimiter)
			return
		}

		userID, err := m.authService.Authenticate(token)
		if err != nil {
			RespondUnauthorized(c, m.rateLimiter)
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// RespondIfThrottled aborts with a throttled 401 when the caller's IP is over
// the invalid-auth limit. Throttled callers are rejected before their token is
// looked at.
func RespondIfThrottled(c *gin.Context, limiter *InvalidAuthRateLimiter) bool {
	if limiter == nil {
		return false
	}
	retry := limiter.RetryAfter(c.ClientIP())
	if retry <= 0 {
		return false
	}
	abortThrottled(c, retry)
	return true
}

// RespondUnauthorized records a failed attempt and aborts with 401. The
// attempt that crosses the limit gets the throttled code and Retry-After.
func RespondUnauthorized(c *gin.Context, limiter *InvalidAuthRateLimiter) {
	ip := c.ClientIP()
	if limiter != nil && !limiter.Allow(ip) {
		abortThrottled(c, limiter.RetryAfter(ip))
		return
	}
	utils.AbortError(c, http.StatusUnauthorized, CodeUnauthorized, unauthorizedMessage)
}

func abortThrottled(c *gin.Context, retry time.Duration) {
	secs := int(math.Ceil(retry.Seconds()))
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	utils.AbortError(c, http.StatusUnauthorized, CodeTooManyAuthAttempts, "Too many invalid authentication attempts")
}

// GetUserID returns the authenticated user id from context.
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// allowedHeaders are the request headers browser clients of the forecast
// endpoint send.
const allowedHeaders = "authorization, x-client-info, apikey, content-type, x-request-id"

// CORSMiddleware allows every origin and answers preflight requests with an
// empty 204.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", allowedHeaders)
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

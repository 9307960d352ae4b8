package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrorResponse is the body of every error reply. Error carries the
// human-readable message callers display.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// JSON writes data as-is with the given status.
func JSON(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// Error writes an error response with provided API error code and message.
func Error(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, ErrorResponse{
		Error:     message,
		Code:      errCode,
		RequestID: getRequestID(c),
	})
}

// AbortError writes an error response and stops the handler chain.
func AbortError(c *gin.Context, code int, errCode, message string) {
	Error(c, code, errCode, message)
	c.Abort()
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}

package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response defines the standard API response envelope.
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// ErrorInfo provides details for error responses.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reload  bool   `json:"reload,omitempty"`
}

// Meta contains request-scoped metadata.
type Meta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// Success writes a success response with the standard envelope.
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta:    meta(c),
	})
}

// Partial writes a 207 for a bulk operation where some items failed. The
// envelope is not a success and carries the per-item report in data.
func Partial(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusMultiStatus, Response{
		Success: false,
		Code:    http.StatusMultiStatus,
		Message: message,
		Data:    data,
		Error: &ErrorInfo{
			Code:    "PARTIAL_FAILURE",
			Message: message,
		},
		Meta: meta(c),
	})
}

// File writes a downloadable attachment.
func File(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, body)
}

// Error writes an error response with provided API error code and message.
func Error(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Message: message,
		Error: &ErrorInfo{
			Code:    errCode,
			Message: message,
		},
		Meta: meta(c),
	})
}

// ErrorReload writes an error response telling the client its pricing data
// may be stale and must be refetched.
func ErrorReload(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Message: message,
		Error: &ErrorInfo{
			Code:    errCode,
			Message: message,
			Reload:  true,
		},
		Meta: meta(c),
	})
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}

func meta(c *gin.Context) Meta {
	return Meta{RequestID: getRequestID(c), Timestamp: time.Now().Format(time.RFC3339)}
}

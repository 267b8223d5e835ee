package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondJSON writes the success envelope.
func RespondJSON(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, JSONResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondFail reports an expected, user-correctable failure. These go out as
// HTTP 200 with success=false so the clients can show the message inline.
func RespondFail(c *gin.Context, message string) {
	c.JSON(http.StatusOK, JSONResponse{
		Success: false,
		Message: message,
	})
}

// RespondError is for failures that carry a real status code (401, 403, 429, 500).
func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, JSONResponse{
		Success: false,
		Message: message,
	})
}

// RespondWith merges extra top-level keys into a success body, for endpoints
// that return "token" or "user" next to the message.
func RespondWith(c *gin.Context, message string, extra gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

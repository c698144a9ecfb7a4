package utils

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the body shape of every API response
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSONResponse sends a successful envelope carrying data
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Status: status, Message: message, Data: data})
}

// JSONError sends an error envelope
func JSONError(c *gin.Context, status int, err error, message string) {
	JSONErrorWithDetails(c, status, err, message, nil)
}

// JSONErrorWithDetails sends an error envelope with details the caller can
// use to correct the request, such as the minimum acceptable bid.
func JSONErrorWithDetails(c *gin.Context, status int, err error, message string, details any) {
	c.JSON(status, Envelope{Status: status, Message: message, Error: err.Error(), Details: details})
}
